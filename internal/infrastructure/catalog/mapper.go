package catalog

import (
	"encoding/json"
	"log"
	"strconv"

	"github.com/agentassist/backend/internal/domain"
)

// Well-known bulk source field names. Everything else lands in Specs as-is.
const (
	fieldModelNumber    = "Model_NO"
	fieldTitle          = "Product_Title"
	fieldFinish         = "Finish"
	fieldListPrice      = "List_Price"
	fieldMAPPrice       = "MAP_Price"
	fieldCategory       = "Product_Category"
	fieldSubcategory    = "Product_Sub_Category"
	fieldSubSubcategory = "Product_Sub_Sub_Category"
)

// manifestEntry is one product's media in the manifest source. Each asset
// carries the original source URL, a locally-saved reference, and a nested
// metadata block.
type manifestEntry struct {
	Images    []manifestAsset `json:"images"`
	Videos    []manifestAsset `json:"videos"`
	Documents []manifestAsset `json:"documents"`
}

type manifestAsset struct {
	OriginalURL string        `json:"original_url"`
	LocalPath   string        `json:"local_path"`
	Metadata    assetMetadata `json:"metadata"`
}

type assetMetadata struct {
	Title    string `json:"title"`
	Type     string `json:"type"`
	FileSize string `json:"file_size"`
}

// mapRawProduct converts one bulk source row into a ProductRecord. Known
// display fields are lifted into typed fields and also kept in Specs, since
// downstream consumers treat the spec mapping as the full field set. Only the
// model number itself is excluded from Specs.
func mapRawProduct(raw map[string]any) (domain.ProductRecord, bool) {
	model, _ := scalarString(raw[fieldModelNumber])
	if model == "" {
		return domain.ProductRecord{}, false
	}

	rec := domain.ProductRecord{
		ModelNumber: model,
		Specs:       make(map[string]string, len(raw)),
		Images:      []domain.MediaAsset{},
		Videos:      []domain.MediaAsset{},
		Documents:   []domain.DocumentAsset{},
	}

	for key, value := range raw {
		if key == fieldModelNumber || value == nil {
			continue
		}
		s, ok := scalarString(value)
		if !ok {
			// Nested structures are unexpected in the bulk source; keep the
			// field as JSON text instead of dropping it.
			encoded, err := json.Marshal(value)
			if err != nil {
				log.Printf("[CATALOG] Dropping unencodable field %q on %s: %v", key, model, err)
				continue
			}
			log.Printf("[CATALOG] Non-scalar field %q on %s flattened to JSON text", key, model)
			s = string(encoded)
		}
		if s == "" {
			continue
		}
		rec.Specs[key] = s
	}

	rec.Title = rec.Specs[fieldTitle]
	rec.Finish = rec.Specs[fieldFinish]
	rec.ListPrice = rec.Specs[fieldListPrice]
	rec.MAPPrice = rec.Specs[fieldMAPPrice]
	rec.Category = rec.Specs[fieldCategory]
	rec.Subcategory = rec.Specs[fieldSubcategory]
	rec.SubSubcategory = rec.Specs[fieldSubSubcategory]
	return rec, true
}

// mapManifestEntry converts one manifest entry into a media-only
// ProductRecord for merging into the index. The original-source URL is
// preferred; the locally-saved reference fills in when it is absent.
func mapManifestEntry(model string, entry manifestEntry) domain.ProductRecord {
	rec := domain.ProductRecord{
		ModelNumber: model,
		Specs:       map[string]string{},
		Images:      []domain.MediaAsset{},
		Videos:      []domain.MediaAsset{},
		Documents:   []domain.DocumentAsset{},
	}
	for _, a := range entry.Images {
		if url := a.url(); url != "" {
			rec.Images = append(rec.Images, domain.MediaAsset{URL: url, Title: a.Metadata.Title, Type: a.Metadata.Type})
		}
	}
	for _, a := range entry.Videos {
		if url := a.url(); url != "" {
			rec.Videos = append(rec.Videos, domain.MediaAsset{URL: url, Title: a.Metadata.Title, Type: a.Metadata.Type})
		}
	}
	for _, a := range entry.Documents {
		url := a.url()
		if url == "" {
			continue
		}
		docType := a.Metadata.Type
		if docType == "" {
			docType = domain.DocTypeOther
		}
		rec.Documents = append(rec.Documents, domain.DocumentAsset{
			URL:      url,
			Title:    a.Metadata.Title,
			Type:     docType,
			FileSize: a.Metadata.FileSize,
		})
	}
	return rec
}

func (a manifestAsset) url() string {
	if a.OriginalURL != "" {
		return a.OriginalURL
	}
	return a.LocalPath
}

// scalarString renders a scalar JSON value as a string. Non-scalar values
// report false.
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case json.Number:
		return t.String(), true
	default:
		return "", false
	}
}
