package catalog

import (
	"context"
	"errors"
	"log"
	"os"

	"area-locator/internal/models"
)

// Source names where the startup catalog came from
type Source string

const (
	SourceNone  Source = ""
	SourceFile  Source = "file"
	SourceStore Source = "store"
)

// Store returns previously persisted area definitions
type Store interface {
	LoadCatalog(ctx context.Context) (models.AreaCatalog, error)
}

// Initial picks the catalog to start with: the file at path (written from
// Sample when missing), then the store. A store holding no areas counts as
// having no catalog. Either path or store may be empty.
func Initial(ctx context.Context, path string, store Store) (models.AreaCatalog, Source) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			if err := WriteSample(path); err != nil {
				log.Printf("Warning: could not create sample catalog: %v", err)
			}
		}
		c, err := Load(path)
		if err == nil {
			return c, SourceFile
		}
		log.Printf("Warning: %v", err)
	}

	if store != nil {
		c, err := store.LoadCatalog(ctx)
		switch {
		case err != nil:
			log.Printf("Warning: %v", err)
		case len(c) == 0:
			log.Println("No stored area definitions")
		default:
			log.Printf("Loaded %d stored areas", len(c))
			return c, SourceStore
		}
	}

	return models.AreaCatalog{}, SourceNone
}
