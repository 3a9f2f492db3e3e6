package usecase

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/agentassist/backend/internal/domain"
)

// indexSnapshot is one immutable generation of the product index. A rebuild
// constructs a fresh snapshot and swaps the pointer, so concurrent readers
// always see a fully built index and never need a lock.
type indexSnapshot struct {
	byNormalizedID map[string]*domain.ProductRecord
	ordered        []*domain.ProductRecord // insertion order, for listing endpoints
	keyLengths     map[int]bool            // normalized key length profile, used by candidate extraction
	stats          domain.IndexStats
}

// ProductIndex maps normalized model numbers to product records. It owns the
// records exclusively; the resolver and the delivery layer only read through
// lookups. Fuzzy logic lives in the resolver, not here.
type ProductIndex struct {
	snapshot atomic.Pointer[indexSnapshot]
}

// NewProductIndex creates an empty, unloaded index. Lookups fail with
// ErrDataUnavailable until the first Rebuild succeeds.
func NewProductIndex() *ProductIndex {
	return &ProductIndex{}
}

// Rebuild constructs a new snapshot from the bulk catalog source plus any
// auxiliary sources (media manifests etc.) and atomically swaps it in.
//
// Merge rules:
//   - Duplicate normalized keys within the bulk source are a data-quality
//     warning; the later row wins for scalar fields.
//   - Auxiliary sources only fill fields the bulk source left unset, never
//     overwrite set ones.
//   - Media and documents are additive across all sources, deduplicated by URL.
//
// An empty bulk source is rejected: a zero-product index would silently turn
// every downstream query into "no match".
func (ix *ProductIndex) Rebuild(bulk []domain.ProductRecord, aux ...[]domain.ProductRecord) error {
	if len(bulk) == 0 {
		return domain.ErrDataUnavailable
	}

	snap := &indexSnapshot{
		byNormalizedID: make(map[string]*domain.ProductRecord, len(bulk)),
		keyLengths:     make(map[int]bool),
	}

	for _, rec := range bulk {
		key := normalizeModelNumber(rec.ModelNumber)
		if key == "" {
			log.Printf("[INDEX] Skipping record with empty model number (title: %q)", rec.Title)
			continue
		}

		if existing, ok := snap.byNormalizedID[key]; ok {
			if existing.ModelNumber != rec.ModelNumber {
				log.Printf("[INDEX] Data quality warning: %q and %q collapse to the same key %q; later record wins",
					existing.ModelNumber, rec.ModelNumber, key)
			} else {
				log.Printf("[INDEX] Data quality warning: duplicate rows for %q; later record wins", rec.ModelNumber)
			}
			existing.ModelNumber = rec.ModelNumber
			overwriteScalars(existing, &rec)
			appendMedia(existing, &rec)
			continue
		}

		cp := copyRecord(&rec)
		snap.byNormalizedID[key] = cp
		snap.ordered = append(snap.ordered, cp)
		snap.keyLengths[len(key)] = true
	}

	for _, source := range aux {
		for _, rec := range source {
			key := normalizeModelNumber(rec.ModelNumber)
			if key == "" {
				continue
			}
			existing, ok := snap.byNormalizedID[key]
			if !ok {
				cp := copyRecord(&rec)
				snap.byNormalizedID[key] = cp
				snap.ordered = append(snap.ordered, cp)
				snap.keyLengths[len(key)] = true
				continue
			}
			fillEmptyScalars(existing, &rec)
			appendMedia(existing, &rec)
		}
	}

	if len(snap.byNormalizedID) == 0 {
		return domain.ErrDataUnavailable
	}

	snap.stats = computeStats(snap)
	ix.snapshot.Store(snap)
	log.Printf("[INDEX] Built index: %d products (%d with media, %d with specs)",
		snap.stats.TotalProducts, snap.stats.ProductsWithMedia, snap.stats.ProductsWithSpecs)
	return nil
}

// current returns the live snapshot, or ErrDataUnavailable before the first
// successful Rebuild.
func (ix *ProductIndex) current() (*indexSnapshot, error) {
	snap := ix.snapshot.Load()
	if snap == nil {
		return nil, domain.ErrDataUnavailable
	}
	return snap, nil
}

// Loaded reports whether the index has been built.
func (ix *ProductIndex) Loaded() bool {
	return ix.snapshot.Load() != nil
}

// Lookup resolves a model number to its record by exact normalized match.
func (ix *ProductIndex) Lookup(modelNumber string) (*domain.ProductRecord, error) {
	snap, err := ix.current()
	if err != nil {
		return nil, err
	}
	rec, ok := snap.byNormalizedID[normalizeModelNumber(modelNumber)]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return rec, nil
}

// SearchByCategory returns summaries of all products whose classification path
// matches the given levels, case-insensitively. Levels the caller leaves empty
// act as wildcards.
func (ix *ProductIndex) SearchByCategory(category, subcategory, subSubcategory string) ([]domain.ProductSummary, error) {
	snap, err := ix.current()
	if err != nil {
		return nil, err
	}

	results := []domain.ProductSummary{}
	for _, rec := range snap.ordered {
		if !levelMatches(rec.Category, category) {
			continue
		}
		if !levelMatches(rec.Subcategory, subcategory) {
			continue
		}
		if !levelMatches(rec.SubSubcategory, subSubcategory) {
			continue
		}
		results = append(results, rec.Summary())
	}
	return results, nil
}

// AllModels returns every canonical model number in insertion order.
func (ix *ProductIndex) AllModels() ([]string, error) {
	snap, err := ix.current()
	if err != nil {
		return nil, err
	}
	models := make([]string, 0, len(snap.ordered))
	for _, rec := range snap.ordered {
		models = append(models, rec.ModelNumber)
	}
	return models, nil
}

// Stats reports index state for health and stats endpoints. An unloaded index
// reports Loaded=false with zero counts rather than an error.
func (ix *ProductIndex) Stats() domain.IndexStats {
	snap := ix.snapshot.Load()
	if snap == nil {
		return domain.IndexStats{}
	}
	return snap.stats
}

func levelMatches(value, wanted string) bool {
	if wanted == "" {
		return true
	}
	return strings.EqualFold(value, wanted)
}

func computeStats(snap *indexSnapshot) domain.IndexStats {
	stats := domain.IndexStats{
		Loaded:        true,
		TotalProducts: len(snap.byNormalizedID),
	}
	for _, rec := range snap.byNormalizedID {
		if len(rec.Images) > 0 || len(rec.Videos) > 0 || len(rec.Documents) > 0 {
			stats.ProductsWithMedia++
		}
		if len(rec.Specs) > 0 {
			stats.ProductsWithSpecs++
		}
	}
	return stats
}

// copyRecord deep-copies a record so snapshot contents never alias caller data.
func copyRecord(src *domain.ProductRecord) *domain.ProductRecord {
	cp := *src
	cp.Specs = make(map[string]string, len(src.Specs))
	for k, v := range src.Specs {
		cp.Specs[k] = v
	}
	cp.Images = append([]domain.MediaAsset{}, src.Images...)
	cp.Videos = append([]domain.MediaAsset{}, src.Videos...)
	cp.Documents = append([]domain.DocumentAsset{}, src.Documents...)
	return &cp
}

// fillEmptyScalars copies scalar fields from src into dst only where dst has
// no value yet. Spec fields follow the same rule per key.
func fillEmptyScalars(dst, src *domain.ProductRecord) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Finish == "" {
		dst.Finish = src.Finish
	}
	if dst.ListPrice == "" {
		dst.ListPrice = src.ListPrice
	}
	if dst.MAPPrice == "" {
		dst.MAPPrice = src.MAPPrice
	}
	if dst.Category == "" {
		dst.Category = src.Category
	}
	if dst.Subcategory == "" {
		dst.Subcategory = src.Subcategory
	}
	if dst.SubSubcategory == "" {
		dst.SubSubcategory = src.SubSubcategory
	}
	for k, v := range src.Specs {
		if _, ok := dst.Specs[k]; !ok {
			dst.Specs[k] = v
		}
	}
}

// overwriteScalars applies the later-wins rule for duplicate bulk rows:
// non-empty scalars from src replace dst's values.
func overwriteScalars(dst, src *domain.ProductRecord) {
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Finish != "" {
		dst.Finish = src.Finish
	}
	if src.ListPrice != "" {
		dst.ListPrice = src.ListPrice
	}
	if src.MAPPrice != "" {
		dst.MAPPrice = src.MAPPrice
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if src.Subcategory != "" {
		dst.Subcategory = src.Subcategory
	}
	if src.SubSubcategory != "" {
		dst.SubSubcategory = src.SubSubcategory
	}
	for k, v := range src.Specs {
		dst.Specs[k] = v
	}
}

// appendMedia merges src's media and documents into dst, skipping URLs dst
// already carries.
func appendMedia(dst, src *domain.ProductRecord) {
	seen := make(map[string]bool, len(dst.Images)+len(dst.Videos)+len(dst.Documents))
	for _, m := range dst.Images {
		seen[m.URL] = true
	}
	for _, m := range dst.Videos {
		seen[m.URL] = true
	}
	for _, d := range dst.Documents {
		seen[d.URL] = true
	}

	for _, m := range src.Images {
		if m.URL == "" || seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		dst.Images = append(dst.Images, m)
	}
	for _, m := range src.Videos {
		if m.URL == "" || seen[m.URL] {
			continue
		}
		seen[m.URL] = true
		dst.Videos = append(dst.Videos, m)
	}
	for _, d := range src.Documents {
		if d.URL == "" || seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		dst.Documents = append(dst.Documents, d)
	}
}
