package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelvins/geocoder"
	"gopkg.in/yaml.v3"

	"github.com/snowstake/stakecam/internal/capture"
	"github.com/snowstake/stakecam/internal/common"
)

var validate = validator.New()

// LoadSources reads the ordered source list from a YAML or JSON file
// (chosen by extension). Malformed entries are logged and skipped without
// aborting the run; an unreadable or unparsable file is fatal. When
// geocoderKey is set, sources with a place but no coordinates get their
// coordinates resolved once, here; geocoding failure just leaves the
// forecast gate disabled for that source.
func LoadSources(path, geocoderKey string) ([]capture.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	var entries []capture.Source
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &entries)
	default:
		err = yaml.Unmarshal(data, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	seen := make(map[string]bool)
	sources := make([]capture.Source, 0, len(entries))
	for i, src := range entries {
		if err := validate.Struct(src); err != nil {
			log.Printf("config: skipping source %d (%q): %v", i, src.Name, err)
			continue
		}
		if !common.ValidPathSegment(src.Name) {
			log.Printf("config: skipping source %d: name %q is not a valid path segment", i, src.Name)
			continue
		}
		if seen[src.Name] {
			log.Printf("config: skipping source %d: duplicate name %q", i, src.Name)
			continue
		}
		seen[src.Name] = true

		if !src.HasCoordinates() && src.Place != "" && geocoderKey != "" {
			resolveCoordinates(&src, geocoderKey)
		}

		sources = append(sources, src)
	}

	return sources, nil
}

func resolveCoordinates(src *capture.Source, geocoderKey string) {
	geocoder.ApiKey = geocoderKey

	location, err := geocoder.Geocoding(geocoder.Address{City: src.Place})
	if err != nil {
		log.Printf("config: geocoding %q for source %q failed, forecast gate disabled: %v",
			src.Place, src.Name, err)
		return
	}

	lat, lon := location.Latitude, location.Longitude
	src.Lat = &lat
	src.Lon = &lon
}
