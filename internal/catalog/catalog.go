package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"area-locator/internal/models"
)

var (
	ErrEmptyArea    = errors.New("area name is empty")
	ErrEmptyEmitter = errors.New("range has no emitter")
	ErrInvalidRange = errors.New("range min must be below max")
)

// Load reads and validates an area catalog JSON file
func Load(path string) (models.AreaCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	log.Printf("Loaded area catalog from %s with %d areas", path, len(c))
	return c, nil
}

// Parse decodes a {"areas": {...}} document and validates it
func Parse(data []byte) (models.AreaCatalog, error) {
	var payload models.CatalogPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	if payload.Areas == nil {
		payload.Areas = models.AreaCatalog{}
	}
	if err := Validate(payload.Areas); err != nil {
		return nil, err
	}
	return payload.Areas, nil
}

// Validate checks every area name and range entry
func Validate(c models.AreaCatalog) error {
	for _, name := range c.Names() {
		if strings.TrimSpace(name) == "" {
			return ErrEmptyArea
		}
		for i, r := range c[name] {
			if strings.TrimSpace(r.EmitterID) == "" {
				return fmt.Errorf("area %q range %d: %w", name, i, ErrEmptyEmitter)
			}
			if r.MinStrength >= r.MaxStrength {
				return fmt.Errorf("area %q range %d (%d..%d): %w", name, i, r.MinStrength, r.MaxStrength, ErrInvalidRange)
			}
		}
	}
	return nil
}

// Marshal encodes a catalog in the same document shape Parse accepts
func Marshal(c models.AreaCatalog) ([]byte, error) {
	return json.MarshalIndent(models.CatalogPayload{Areas: c}, "", "  ")
}

// Sample returns a small demonstration catalog
func Sample() models.AreaCatalog {
	return models.AreaCatalog{
		"Kitchen": {
			{EmitterID: "home-ap", MinStrength: -65, MaxStrength: -30},
			{EmitterID: "fridge-tag", MinStrength: -70, MaxStrength: -40},
		},
		"Office": {
			{EmitterID: "home-ap", MinStrength: -85, MaxStrength: -64},
			{EmitterID: "office-ap", MinStrength: -60, MaxStrength: -20},
		},
		"Garden": {
			{EmitterID: "home-ap", MinStrength: -100, MaxStrength: -84},
		},
	}
}

// WriteSample writes the demonstration catalog to path
func WriteSample(path string) error {
	data, err := Marshal(Sample())
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}

	log.Printf("Created sample catalog at %s", path)
	return nil
}
