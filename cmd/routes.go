package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/caribdata/tt-addresses/internal/gazetteer"
	"github.com/caribdata/tt-addresses/internal/model"
	"github.com/caribdata/tt-addresses/internal/store"
)

func newRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/divisions", e.handleDivisions)
		r.Get("/divisions/{abbr}", e.handleDivision)

		r.Get("/cities", e.handleCities)
		r.Get("/cities/search", e.handleCitySearch)
		r.Get("/cities/autocomplete", e.handleAutocomplete)
		r.Get("/cities/popular", e.handlePopularCities)
		r.Get("/cities/nearest", e.handleNearest)
		r.Get("/cities/within", e.handleWithinRadius)
		r.Get("/cities/detect", e.handleDetectCity)
		r.Get("/cities/{id}", e.handleCity)
		r.Get("/cities/{id}/service-cities", e.handleServiceCities)

		r.Post("/geocode", e.handleGeocode)
		r.Post("/reverse-geocode", e.handleReverseGeocode)

		r.Post("/addresses", e.handleSaveAddress)
		r.Get("/addresses", e.handleListAddresses)
		r.Get("/addresses/primary", e.handlePrimaryAddress)
		r.Get("/addresses/{id}", e.handleGetAddress)
		r.Put("/addresses/{id}", e.handleUpdateAddress)
		r.Delete("/addresses/{id}", e.handleDeleteAddress)
		r.Get("/addresses/{id}/formatted", e.handleFormattedAddress)
	})

	return r
}

func (e *env) handleDivisions(w http.ResponseWriter, r *http.Request) {
	island := r.URL.Query().Get("island")
	if island != "" {
		writeJSON(w, http.StatusOK, e.gaz.DivisionsForIsland(island))
		return
	}
	writeJSON(w, http.StatusOK, e.gaz.Divisions())
}

func (e *env) handleDivision(w http.ResponseWriter, r *http.Request) {
	abbr := chi.URLParam(r, "abbr")
	div := e.gaz.DivisionByAbbreviation(abbr)
	if div == nil {
		writeError(w, http.StatusNotFound, "division not found")
		return
	}
	writeJSON(w, http.StatusOK, div)
}

func (e *env) handleCities(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if v := q.Get("division_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "division_id must be an integer")
			return
		}
		writeJSON(w, http.StatusOK, e.gaz.CitiesInDivision(id))
		return
	}
	if island := q.Get("island"); island != "" {
		writeJSON(w, http.StatusOK, e.gaz.CitiesOnIsland(island))
		return
	}
	writeJSON(w, http.StatusOK, e.gaz.Cities())
}

func (e *env) handleCity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	city := e.gaz.CityByID(id)
	if city == nil {
		writeError(w, http.StatusNotFound, "city not found")
		return
	}
	writeJSON(w, http.StatusOK, city)
}

func (e *env) handleCitySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	cities := e.gaz.Search(q)
	results := make([]model.SearchResult, 0, len(cities))
	for _, c := range cities {
		results = append(results, c.SearchResult())
	}
	writeJSON(w, http.StatusOK, results)
}

func (e *env) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	opts := e.gaz.Autocomplete(r.URL.Query().Get("q"))
	if opts == nil {
		opts = []model.AutocompleteOption{}
	}
	writeJSON(w, http.StatusOK, opts)
}

func (e *env) handlePopularCities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, e.gaz.PopularCached())
}

func (e *env) handleNearest(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := queryLatLon(w, r)
	if !ok {
		return
	}
	nearest := e.gaz.Nearest(lat, lon)
	if nearest == nil {
		writeError(w, http.StatusNotFound, "no city with coordinates")
		return
	}
	writeJSON(w, http.StatusOK, nearest)
}

func (e *env) handleWithinRadius(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := queryLatLon(w, r)
	if !ok {
		return
	}
	radius, err := queryFloat(r, "radius_km")
	if err != nil {
		writeError(w, http.StatusBadRequest, "radius_km must be a number")
		return
	}
	within := e.gaz.WithinRadius(lat, lon, radius)
	if within == nil {
		within = []gazetteer.CityDistance{}
	}
	writeJSON(w, http.StatusOK, within)
}

func (e *env) handleDetectCity(w http.ResponseWriter, r *http.Request) {
	lat, lon, ok := queryLatLon(w, r)
	if !ok {
		return
	}
	radius, _ := queryFloat(r, "radius_km")
	detected := e.gaz.DetectCity(lat, lon, radius)
	if detected == nil {
		writeError(w, http.StatusNotFound, "no city detected")
		return
	}
	writeJSON(w, http.StatusOK, detected)
}

func (e *env) handleServiceCities(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	radius, err := serviceRadiusFromString(r.URL.Query().Get("radius"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cities := e.gaz.ServiceCities(id, radius)
	if cities == nil {
		cities = []gazetteer.CityDistance{}
	}
	writeJSON(w, http.StatusOK, cities)
}

func (e *env) handleGeocode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}
	result, err := e.geocoder.Geocode(r.Context(), req.Address)
	if err != nil {
		zap.L().Error("geocode request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "geocoding failed")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "no match")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *env) handleReverseGeocode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := e.geocoder.ReverseGeocode(r.Context(), req.Latitude, req.Longitude)
	if err != nil {
		zap.L().Error("reverse geocode request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "reverse geocoding failed")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "no match")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (e *env) handleSaveAddress(w http.ResponseWriter, r *http.Request) {
	var addr model.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	addr.ID = uuid.Nil
	if err := e.addresses.Save(r.Context(), &addr); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.addresses.Hydrate(&addr)
	writeJSON(w, http.StatusCreated, addr)
}

func (e *env) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var addr model.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	addr.ID = id
	if err := e.addresses.Save(r.Context(), &addr); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	e.addresses.Hydrate(&addr)
	writeJSON(w, http.StatusOK, addr)
}

func (e *env) handleGetAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	addr, err := e.addresses.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if addr == nil {
		writeError(w, http.StatusNotFound, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (e *env) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AddressFilter{
		Owner: model.OwnerRef{
			Kind: q.Get("owner_kind"),
			ID:   q.Get("owner_id"),
		},
		Type:        model.AddressType(q.Get("type")),
		PrimaryOnly: q.Get("primary") == "true",
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}
	addrs, err := e.addresses.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if addrs == nil {
		addrs = []model.Address{}
	}
	writeJSON(w, http.StatusOK, addrs)
}

func (e *env) handlePrimaryAddress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	owner := model.OwnerRef{Kind: q.Get("owner_kind"), ID: q.Get("owner_id")}
	if owner.Kind == "" || owner.ID == "" {
		writeError(w, http.StatusBadRequest, "owner_kind and owner_id are required")
		return
	}
	addr, err := e.addresses.Primary(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if addr == nil {
		writeError(w, http.StatusNotFound, "no primary address")
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

func (e *env) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := e.addresses.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (e *env) handleFormattedAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	addr, err := e.addresses.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if addr == nil {
		writeError(w, http.StatusNotFound, "address not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"formatted":           addr.FormattedAddress(),
		"formatted_multiline": e.addresses.FormatMultiline(addr),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryFloat(r *http.Request, name string) (float64, error) {
	return strconv.ParseFloat(r.URL.Query().Get(name), 64)
}

func queryLatLon(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	lat, err := queryFloat(r, "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, "lat must be a number")
		return 0, 0, false
	}
	lon, err := queryFloat(r, "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, "lon must be a number")
		return 0, 0, false
	}
	return lat, lon, true
}

func serviceRadiusFromString(s string) (model.ServiceRadius, error) {
	switch strings.ToLower(s) {
	case "", "driving":
		return model.ServiceRadiusDriving, nil
	case "walking":
		return model.ServiceRadiusWalking, nil
	case "regional":
		return model.ServiceRadiusRegional, nil
	case "island", "island_wide":
		return model.ServiceRadiusIslandWide, nil
	default:
		return 0, eris.Errorf("unknown radius %q", s)
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
