// Package seed carries the embedded reference data set: the 15 administrative
// divisions of Trinidad and Tobago and the 500+ cities, towns, and villages
// under them, with approximate centroid coordinates.
package seed

import (
	"bytes"
	"encoding/csv"
	_ "embed"
	"io"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/caribdata/tt-addresses/internal/model"
)

//go:embed data/divisions.csv
var divisionsCSV []byte

//go:embed data/cities.csv
var citiesCSV []byte

// Divisions parses the embedded division data. IDs are assigned in file
// order, matching the canonical seed ordering.
func Divisions() ([]model.Division, error) {
	records, err := readAll(divisionsCSV, 6)
	if err != nil {
		return nil, eris.Wrap(err, "seed: read divisions")
	}

	seen := make(map[string]bool, len(records))
	divisions := make([]model.Division, 0, len(records))
	for i, rec := range records {
		dt := model.DivisionType(rec[1])
		if !dt.Valid() {
			return nil, eris.Errorf("seed: division %q has unknown type %q", rec[0], rec[1])
		}
		if seen[rec[2]] {
			return nil, eris.Errorf("seed: duplicate division abbreviation %q", rec[2])
		}
		seen[rec[2]] = true

		lat, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: division %q latitude", rec[0])
		}
		lon, err := strconv.ParseFloat(rec[5], 64)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: division %q longitude", rec[0])
		}

		divisions = append(divisions, model.Division{
			ID:           i + 1,
			Name:         rec[0],
			Type:         dt,
			Abbreviation: rec[2],
			Island:       rec[3],
			Latitude:     &lat,
			Longitude:    &lon,
		})
	}
	return divisions, nil
}

// Cities parses the embedded city data, resolving each row's division
// reference against the given divisions. City IDs are assigned in file order.
func Cities(divisions []model.Division) ([]model.City, error) {
	byAbbr := make(map[string]*model.Division, len(divisions))
	for i := range divisions {
		byAbbr[divisions[i].Abbreviation] = &divisions[i]
	}

	records, err := readAll(citiesCSV, 4)
	if err != nil {
		return nil, eris.Wrap(err, "seed: read cities")
	}

	cities := make([]model.City, 0, len(records))
	for i, rec := range records {
		div, ok := byAbbr[rec[1]]
		if !ok {
			return nil, eris.Errorf("seed: city %q references unknown division %q", rec[0], rec[1])
		}

		city := model.City{
			ID:         i + 1,
			DivisionID: div.ID,
			Name:       rec[0],
			Division:   div,
		}
		if rec[2] != "" && rec[3] != "" {
			lat, err := strconv.ParseFloat(rec[2], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "seed: city %q latitude", rec[0])
			}
			lon, err := strconv.ParseFloat(rec[3], 64)
			if err != nil {
				return nil, eris.Wrapf(err, "seed: city %q longitude", rec[0])
			}
			city.Latitude = &lat
			city.Longitude = &lon
		}
		cities = append(cities, city)
	}
	return cities, nil
}

// Load parses both embedded data sets.
func Load() ([]model.Division, []model.City, error) {
	divisions, err := Divisions()
	if err != nil {
		return nil, nil, err
	}
	cities, err := Cities(divisions)
	if err != nil {
		return nil, nil, err
	}
	return divisions, cities, nil
}

// readAll parses a headed CSV and checks the column count per row.
func readAll(data []byte, fields int) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = fields

	// Skip the header row.
	if _, err := r.Read(); err != nil {
		return nil, eris.Wrap(err, "seed: read header")
	}

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "seed: read row")
		}
		records = append(records, rec)
	}
	return records, nil
}
