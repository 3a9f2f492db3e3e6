package domain

// Media asset types found in the catalog manifest
const (
	MediaTypeInstallation = "installation"
	MediaTypeOperational  = "operational"
	MediaTypeLifestyle    = "lifestyle"
)

// Document types found in the catalog manifest
const (
	DocTypeSpecSheet          = "spec_sheet"
	DocTypeInstallationManual = "installation_manual"
	DocTypePartsDiagram       = "parts_diagram"
	DocTypeCAD                = "cad"
	DocTypeOther              = "other"
)

// MediaAsset represents a single image or video attached to a product
type MediaAsset struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

// DocumentAsset represents a downloadable document attached to a product
type DocumentAsset struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	FileSize string `json:"fileSize,omitempty"`
}

// ProductRecord is one catalog entry. Records are built once at index load
// and treated as immutable afterwards; readers must not mutate them.
type ProductRecord struct {
	ModelNumber    string            `json:"modelNumber"`
	Title          string            `json:"title,omitempty"`
	Finish         string            `json:"finish,omitempty"`
	ListPrice      string            `json:"listPrice,omitempty"`
	MAPPrice       string            `json:"mapPrice,omitempty"`
	Category       string            `json:"category,omitempty"`
	Subcategory    string            `json:"subcategory,omitempty"`
	SubSubcategory string            `json:"subSubcategory,omitempty"`
	Specs          map[string]string `json:"specs"`
	Images         []MediaAsset      `json:"images"`
	Videos         []MediaAsset      `json:"videos"`
	Documents      []DocumentAsset   `json:"documents"`
}

// ProductSummary is the shortened product view returned by listing and
// category-search endpoints.
type ProductSummary struct {
	ModelNumber string `json:"modelNumber"`
	Title       string `json:"title,omitempty"`
	Finish      string `json:"finish,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
}

// Summary returns the listing view of a record.
func (p *ProductRecord) Summary() ProductSummary {
	return ProductSummary{
		ModelNumber: p.ModelNumber,
		Title:       p.Title,
		Finish:      p.Finish,
		Category:    p.Category,
		Subcategory: p.Subcategory,
	}
}

// EvidenceBundle is the resolver's per-query output: the matched model (or
// empty), a confidence score in [0,1], and copies of the matched record's
// evidence. Slices are always non-nil so callers can render without nil checks.
type EvidenceBundle struct {
	ModelNumber string            `json:"modelNumber"`
	Confidence  float64           `json:"confidence"`
	Specs       map[string]string `json:"specs"`
	Images      []MediaAsset      `json:"images"`
	Videos      []MediaAsset      `json:"videos"`
	Documents   []DocumentAsset   `json:"documents"`
}

// Matched reports whether the bundle carries a resolved product.
func (b *EvidenceBundle) Matched() bool {
	return b.ModelNumber != ""
}

// EmptyEvidenceBundle returns a bundle for the no-match case: confidence 0,
// all containers present but empty.
func EmptyEvidenceBundle() EvidenceBundle {
	return EvidenceBundle{
		Specs:     map[string]string{},
		Images:    []MediaAsset{},
		Videos:    []MediaAsset{},
		Documents: []DocumentAsset{},
	}
}

// IndexStats describes the state of the product index for health reporting.
type IndexStats struct {
	Loaded            bool `json:"loaded"`
	TotalProducts     int  `json:"total_products"`
	ProductsWithMedia int  `json:"products_with_media"`
	ProductsWithSpecs int  `json:"products_with_specs"`
}
