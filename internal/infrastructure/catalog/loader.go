// Package catalog reads the bulk product source and the media/document
// manifest from the data directory and maps them into domain records for
// index construction.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/agentassist/backend/internal/domain"
)

const (
	productsFile = "products.json"
	mediaFile    = "media.json"
)

// Loader reads catalog sources from a data directory.
type Loader struct {
	dataDir string
}

// NewLoader creates a loader for the given data directory.
func NewLoader(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

// LoadProducts reads and maps the bulk product source. A missing or
// unreadable file is a DataUnavailable condition: an empty catalog must never
// masquerade as "no products matched".
func (l *Loader) LoadProducts() ([]domain.ProductRecord, error) {
	path := filepath.Join(l.dataDir, productsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", domain.ErrDataUnavailable, path, err)
	}

	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrDataUnavailable, path, err)
	}

	records := make([]domain.ProductRecord, 0, len(raw))
	skipped := 0
	for _, row := range raw {
		rec, ok := mapRawProduct(row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		log.Printf("[CATALOG] Skipped %d rows without a model number in %s", skipped, productsFile)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s contains no usable records", domain.ErrDataUnavailable, path)
	}

	log.Printf("[CATALOG] Loaded %d product records from %s", len(records), productsFile)
	return records, nil
}

// LoadMediaManifest reads and maps the media/document manifest. The manifest
// is auxiliary: a missing file yields no media, not an error.
func (l *Loader) LoadMediaManifest() ([]domain.ProductRecord, error) {
	path := filepath.Join(l.dataDir, mediaFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("[CATALOG] No media manifest at %s, continuing without media", path)
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var manifest map[string]manifestEntry
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	models := make([]string, 0, len(manifest))
	for model := range manifest {
		models = append(models, model)
	}
	sort.Strings(models)

	records := make([]domain.ProductRecord, 0, len(manifest))
	for _, model := range models {
		records = append(records, mapManifestEntry(model, manifest[model]))
	}
	log.Printf("[CATALOG] Loaded media manifest entries for %d models from %s", len(records), mediaFile)
	return records, nil
}

// Load reads both sources. The bulk source is required; the manifest is
// optional.
func (l *Loader) Load() (bulk, media []domain.ProductRecord, err error) {
	bulk, err = l.LoadProducts()
	if err != nil {
		return nil, nil, err
	}
	media, err = l.LoadMediaManifest()
	if err != nil {
		return nil, nil, err
	}
	return bulk, media, nil
}
