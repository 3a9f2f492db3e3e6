package usecase

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/agentassist/backend/internal/domain"
)

func TestRebuild(t *testing.T) {
	t.Run("rejects empty bulk source", func(t *testing.T) {
		index := NewProductIndex()
		if err := index.Rebuild(nil); !errors.Is(err, domain.ErrDataUnavailable) {
			t.Errorf("error = %v, want ErrDataUnavailable", err)
		}
		if index.Loaded() {
			t.Error("index must stay unloaded after a failed build")
		}
	})

	t.Run("indexes every record by normalized key", func(t *testing.T) {
		index := NewProductIndex()
		if err := index.Rebuild(testCatalog()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, rendering := range []string{"10.FGC.4003CP", "10-fgc-4003-cp", "10fgc4003cp"} {
			rec, err := index.Lookup(rendering)
			if err != nil {
				t.Fatalf("Lookup(%q) error: %v", rendering, err)
			}
			if rec.ModelNumber != "10.FGC.4003CP" {
				t.Errorf("Lookup(%q) = %q, want 10.FGC.4003CP", rendering, rec.ModelNumber)
			}
		}
	})

	t.Run("duplicate keys warn and later wins", func(t *testing.T) {
		index := NewProductIndex()
		err := index.Rebuild([]domain.ProductRecord{
			{ModelNumber: "GC-303-T", Title: "Old Title", Finish: "Chrome", Specs: map[string]string{"A": "1"}},
			{ModelNumber: "GC.303.T", Title: "New Title", Specs: map[string]string{"A": "2", "B": "3"}},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec, err := index.Lookup("GC303T")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Title != "New Title" {
			t.Errorf("Title = %q, want later record's value", rec.Title)
		}
		// Later record left Finish unset; the earlier value survives.
		if rec.Finish != "Chrome" {
			t.Errorf("Finish = %q, want Chrome", rec.Finish)
		}
		if rec.Specs["A"] != "2" || rec.Specs["B"] != "3" {
			t.Errorf("Specs = %v, want later values merged in", rec.Specs)
		}

		stats := index.Stats()
		if stats.TotalProducts != 1 {
			t.Errorf("TotalProducts = %d, want 1", stats.TotalProducts)
		}
	})
}

func TestRebuildMergeNonDestructive(t *testing.T) {
	bulk := []domain.ProductRecord{{
		ModelNumber: "GC-303-T",
		Title:       "Mounting Clamp",
		Specs:       map[string]string{"Finish": "Polished Chrome"},
		Images:      []domain.MediaAsset{{URL: "https://x/a.jpg", Title: "Front", Type: domain.MediaTypeLifestyle}},
	}}
	aux := []domain.ProductRecord{{
		ModelNumber: "GC.303.T", // separator variant of the same product
		Title:       "Should Not Overwrite",
		Finish:      "Brushed Nickel",
		Specs:       map[string]string{"Finish": "Should Not Overwrite", "Weight": "2kg"},
		Images: []domain.MediaAsset{
			{URL: "https://x/a.jpg", Title: "Duplicate", Type: domain.MediaTypeLifestyle},
			{URL: "https://x/b.jpg", Title: "Side", Type: domain.MediaTypeLifestyle},
		},
		Documents: []domain.DocumentAsset{
			{URL: "https://x/manual.pdf", Title: "Installation Manual", Type: domain.DocTypeInstallationManual},
		},
	}}

	index := NewProductIndex()
	if err := index.Rebuild(bulk, aux); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := index.Lookup("GC-303-T")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fields the bulk source set survive the merge.
	if rec.Title != "Mounting Clamp" {
		t.Errorf("Title = %q, want bulk value preserved", rec.Title)
	}
	if rec.Specs["Finish"] != "Polished Chrome" {
		t.Errorf("Specs[Finish] = %q, want bulk value preserved", rec.Specs["Finish"])
	}

	// Fields the bulk source left unset are filled from the aux source.
	if rec.Finish != "Brushed Nickel" {
		t.Errorf("Finish = %q, want aux value filled in", rec.Finish)
	}
	if rec.Specs["Weight"] != "2kg" {
		t.Errorf("Specs[Weight] = %q, want aux value filled in", rec.Specs["Weight"])
	}

	// Media is additive with URL dedupe.
	if len(rec.Images) != 2 {
		t.Errorf("Images = %d, want 2 (deduplicated by URL)", len(rec.Images))
	}
	if len(rec.Documents) != 1 {
		t.Errorf("Documents = %d, want 1", len(rec.Documents))
	}
}

func TestLookup(t *testing.T) {
	t.Run("unloaded index", func(t *testing.T) {
		index := NewProductIndex()
		_, err := index.Lookup("GC-303-T")
		if !errors.Is(err, domain.ErrDataUnavailable) {
			t.Errorf("error = %v, want ErrDataUnavailable", err)
		}
	})

	t.Run("unknown model", func(t *testing.T) {
		index := NewProductIndex()
		if err := index.Rebuild(testCatalog()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_, err := index.Lookup("ZZ-9999")
		if !errors.Is(err, domain.ErrProductNotFound) {
			t.Errorf("error = %v, want ErrProductNotFound", err)
		}
	})
}

func TestSearchByCategory(t *testing.T) {
	index := NewProductIndex()
	if err := index.Rebuild(testCatalog()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("case-insensitive exact match", func(t *testing.T) {
		for _, category := range []string{"Showering", "showering", "SHOWERING"} {
			results, err := index.SearchByCategory(category, "", "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(results) != 1 {
				t.Fatalf("SearchByCategory(%q) = %d results, want 1", category, len(results))
			}
			if results[0].ModelNumber != "SD-5678-BN" {
				t.Errorf("matched %q, want SD-5678-BN", results[0].ModelNumber)
			}
		}
	})

	t.Run("count matches source data", func(t *testing.T) {
		results, err := index.SearchByCategory("Kitchen", "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 3 {
			t.Errorf("Kitchen results = %d, want 3", len(results))
		}
	})

	t.Run("no match returns empty non-nil slice", func(t *testing.T) {
		results, err := index.SearchByCategory("Bathing", "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if results == nil {
			t.Fatal("results must be non-nil")
		}
		if len(results) != 0 {
			t.Errorf("results = %d, want 0", len(results))
		}
	})

	t.Run("deeper levels filter when specified", func(t *testing.T) {
		index := NewProductIndex()
		err := index.Rebuild([]domain.ProductRecord{
			{ModelNumber: "A-100-X", Category: "Showering", Subcategory: "Shower Doors"},
			{ModelNumber: "B-200-Y", Category: "Showering", Subcategory: "Shower Heads"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		results, err := index.SearchByCategory("Showering", "shower doors", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 1 || results[0].ModelNumber != "A-100-X" {
			t.Errorf("results = %v, want only A-100-X", results)
		}

		// Unspecified deeper level is a wildcard.
		results, err = index.SearchByCategory("Showering", "", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("results = %d, want 2", len(results))
		}
	})
}

func TestStats(t *testing.T) {
	t.Run("unloaded", func(t *testing.T) {
		index := NewProductIndex()
		stats := index.Stats()
		if stats.Loaded {
			t.Error("Loaded = true, want false")
		}
		if stats.TotalProducts != 0 {
			t.Errorf("TotalProducts = %d, want 0", stats.TotalProducts)
		}
	})

	t.Run("loaded", func(t *testing.T) {
		index := NewProductIndex()
		if err := index.Rebuild(testCatalog()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		stats := index.Stats()
		if !stats.Loaded {
			t.Error("Loaded = false, want true")
		}
		if stats.TotalProducts != 5 {
			t.Errorf("TotalProducts = %d, want 5", stats.TotalProducts)
		}
		if stats.ProductsWithMedia != 1 {
			t.Errorf("ProductsWithMedia = %d, want 1", stats.ProductsWithMedia)
		}
		if stats.ProductsWithSpecs != 5 {
			t.Errorf("ProductsWithSpecs = %d, want 5", stats.ProductsWithSpecs)
		}
	})
}

// TestConcurrentReadDuringReload checks that readers during a rebuild observe
// either the old snapshot or the new one, never a mix.
func TestConcurrentReadDuringReload(t *testing.T) {
	generation := func(tag string) []domain.ProductRecord {
		records := make([]domain.ProductRecord, 0, 20)
		for i := 0; i < 20; i++ {
			records = append(records, domain.ProductRecord{
				ModelNumber: fmt.Sprintf("GC-%03d-T", i),
				Title:       tag,
				Finish:      tag,
				Specs:       map[string]string{"Generation": tag},
			})
		}
		return records
	}

	index := NewProductIndex()
	if err := index.Rebuild(generation("v0")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				rec, err := index.Lookup("GC-007-T")
				if err != nil {
					t.Errorf("Lookup failed during reload: %v", err)
					return
				}
				if rec.Title != rec.Finish || rec.Specs["Generation"] != rec.Title {
					t.Errorf("torn read: Title=%q Finish=%q Generation=%q",
						rec.Title, rec.Finish, rec.Specs["Generation"])
					return
				}
			}
		}()
	}

	for i := 1; i <= 50; i++ {
		if err := index.Rebuild(generation(fmt.Sprintf("v%d", i))); err != nil {
			t.Fatalf("rebuild %d failed: %v", i, err)
		}
	}
	close(stop)
	wg.Wait()
}
