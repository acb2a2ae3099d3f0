// Package address manages the address book: validation, persistence, owner
// attachment, and automatic geocoding of saved addresses.
package address

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/internal/config"
	"github.com/caribdata/tt-addresses/internal/gazetteer"
	"github.com/caribdata/tt-addresses/internal/model"
	"github.com/caribdata/tt-addresses/internal/store"
	"github.com/caribdata/tt-addresses/pkg/geocode"
)

// Service coordinates address persistence and geocoding.
type Service struct {
	store       store.Store
	geocoder    geocode.Geocoder
	gaz         *gazetteer.Gazetteer
	kinds       *KindRegistry
	countryName string

	geocodingEnabled bool
	queue            bool

	wg sync.WaitGroup
}

// NewService creates an address Service. The default registry accepts the
// customer and business owner kinds; hosts register more via OwnerKinds.
func NewService(st store.Store, gc geocode.Geocoder, gaz *gazetteer.Gazetteer, cfg *config.Config) *Service {
	return &Service{
		store:            st,
		geocoder:         gc,
		gaz:              gaz,
		kinds:            NewKindRegistry("customer", "business"),
		countryName:      cfg.CountryName,
		geocodingEnabled: cfg.Geocoding.Enabled,
		queue:            cfg.Geocoding.Queue,
	}
}

// OwnerKinds exposes the owner kind registry.
func (s *Service) OwnerKinds() *KindRegistry { return s.kinds }

// Save validates and persists an address, dispatching a geocode lookup when
// the address is new or its location fields changed and it has no
// coordinates yet. Geocoding failures never fail the save.
func (s *Service) Save(ctx context.Context, addr *model.Address) error {
	if err := s.validate(addr); err != nil {
		return err
	}

	isNew := addr.ID == uuid.Nil
	geoDirty := true
	if !isNew {
		prev, err := s.store.GetAddress(ctx, addr.ID)
		if err != nil {
			return err
		}
		if prev == nil {
			return eris.Errorf("address: not found: %s", addr.ID)
		}
		geoDirty = addr.GeoFieldsChanged(*prev)
	}

	if isNew {
		if err := s.store.CreateAddress(ctx, addr); err != nil {
			return err
		}
	} else {
		if err := s.store.UpdateAddress(ctx, addr); err != nil {
			return err
		}
	}

	if s.shouldGeocode(addr, geoDirty) {
		s.dispatchGeocode(ctx, *addr)
	}
	return nil
}

// Get returns an address with its division and city hydrated, or nil when
// absent.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Address, error) {
	addr, err := s.store.GetAddress(ctx, id)
	if err != nil || addr == nil {
		return addr, err
	}
	s.Hydrate(addr)
	return addr, nil
}

// List returns the addresses matching the filter, hydrated.
func (s *Service) List(ctx context.Context, filter store.AddressFilter) ([]model.Address, error) {
	addrs, err := s.store.ListAddresses(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range addrs {
		s.Hydrate(&addrs[i])
	}
	return addrs, nil
}

// Primary returns the owner's primary address, or nil when none exists.
func (s *Service) Primary(ctx context.Context, owner model.OwnerRef) (*model.Address, error) {
	addrs, err := s.List(ctx, store.AddressFilter{Owner: owner, PrimaryOnly: true, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, nil
	}
	return &addrs[0], nil
}

// Delete soft-deletes an address.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteAddress(ctx, id)
}

// Hydrate fills the address's division and city from the gazetteer.
func (s *Service) Hydrate(addr *model.Address) {
	if addr.DivisionID != nil {
		addr.Division = s.gaz.DivisionByID(*addr.DivisionID)
	}
	if addr.CityID != nil {
		addr.City = s.gaz.CityByID(*addr.CityID)
	}
}

// WaitIdle blocks until all dispatched geocode lookups finish.
func (s *Service) WaitIdle() { s.wg.Wait() }

// FormatMultiline renders the hydrated postal form including the country.
func (s *Service) FormatMultiline(addr *model.Address) string {
	s.Hydrate(addr)
	return addr.FormattedAddressMultiline(s.countryName)
}

func (s *Service) validate(addr *model.Address) error {
	if addr.Owner.IsZero() {
		return eris.New("address: owner reference is required")
	}
	if !s.kinds.Known(addr.Owner.Kind) {
		return eris.Errorf("address: unknown owner kind %q", addr.Owner.Kind)
	}
	if addr.Type == "" {
		addr.Type = model.AddressTypeHome
	}
	if !addr.Type.Valid() {
		return eris.Errorf("address: invalid type %q", addr.Type)
	}
	if addr.DivisionID != nil && s.gaz.DivisionByID(*addr.DivisionID) == nil {
		return eris.Errorf("address: unknown division %d", *addr.DivisionID)
	}
	if addr.CityID != nil {
		city := s.gaz.CityByID(*addr.CityID)
		if city == nil {
			return eris.Errorf("address: unknown city %d", *addr.CityID)
		}
		if addr.DivisionID != nil && city.DivisionID != *addr.DivisionID {
			return eris.Errorf("address: city %d is not in division %d", *addr.CityID, *addr.DivisionID)
		}
	}
	return nil
}

// shouldGeocode applies the trigger matrix: geocoding on, location fields
// new or changed, and no coordinates present yet.
func (s *Service) shouldGeocode(addr *model.Address, geoDirty bool) bool {
	return s.geocodingEnabled && geoDirty && addr.Latitude == nil
}

// dispatchGeocode runs the lookup inline or on a background goroutine per
// configuration. Panics and errors are logged and swallowed.
func (s *Service) dispatchGeocode(ctx context.Context, addr model.Address) {
	if !s.queue {
		s.geocodeAndStore(ctx, addr)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				zap.L().Error("address: geocode panicked",
					zap.String("address_id", addr.ID.String()),
					zap.Any("panic", r),
				)
			}
		}()
		s.geocodeAndStore(context.WithoutCancel(ctx), addr)
	}()
}

func (s *Service) geocodeAndStore(ctx context.Context, addr model.Address) {
	query := s.geocodeQuery(&addr)
	if query == "" {
		return
	}

	result, err := s.geocoder.Geocode(ctx, query)
	if err != nil {
		zap.L().Warn("address: geocode failed",
			zap.String("address_id", addr.ID.String()),
			zap.String("query", query),
			zap.Error(err),
		)
		return
	}
	if result == nil {
		zap.L().Debug("address: geocode found no match",
			zap.String("address_id", addr.ID.String()),
			zap.String("query", query),
		)
		return
	}

	if err := s.store.SetCoordinates(ctx, addr.ID, result.Latitude, result.Longitude); err != nil {
		zap.L().Warn("address: store coordinates failed",
			zap.String("address_id", addr.ID.String()),
			zap.Error(err),
		)
		return
	}

	zap.L().Info("address: geocoded",
		zap.String("address_id", addr.ID.String()),
		zap.String("provider", result.Provider),
		zap.String("accuracy", result.Accuracy),
	)
}

// geocodeQuery builds the provider query from the formatted address.
func (s *Service) geocodeQuery(addr *model.Address) string {
	s.Hydrate(addr)
	return strings.TrimSpace(addr.FormattedAddress())
}

// BackfillCoordinates geocodes stored addresses that lack coordinates. It
// returns the number of addresses that gained coordinates. With dryRun set it
// only reports how many candidates exist.
func (s *Service) BackfillCoordinates(ctx context.Context, limit int, dryRun bool) (int, error) {
	addrs, err := s.store.ListAddressesMissingCoordinates(ctx, limit)
	if err != nil {
		return 0, err
	}
	if dryRun || len(addrs) == 0 {
		return len(addrs), nil
	}

	queries := make([]string, len(addrs))
	for i := range addrs {
		queries[i] = s.geocodeQuery(&addrs[i])
	}

	results := geocode.Batch(ctx, s.geocoder, queries, 4)

	var updated int
	for i, r := range results {
		if r == nil {
			continue
		}
		if err := s.store.SetCoordinates(ctx, addrs[i].ID, r.Latitude, r.Longitude); err != nil {
			zap.L().Warn("address: backfill store failed",
				zap.String("address_id", addrs[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		updated++
	}
	return updated, nil
}
