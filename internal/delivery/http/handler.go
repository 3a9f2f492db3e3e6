package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agentassist/backend/internal/domain"
	"github.com/agentassist/backend/internal/usecase"
)

// ChatRequest is the POST /api/chat request body
type ChatRequest struct {
	Query     string `json:"query" binding:"required,min=1,max=2000"`
	ModelMode string `json:"model_mode"`
}

// TicketNoteRequest is the POST /api/freshdesk request body
type TicketNoteRequest struct {
	TicketID      string `json:"ticket_id" binding:"required"`
	FormattedNote string `json:"formatted_note" binding:"required"`
}

// TicketNoteResponse is the POST /api/freshdesk response body
type TicketNoteResponse struct {
	Success   bool   `json:"success"`
	NoteID    string `json:"note_id,omitempty"`
	TicketID  string `json:"ticket_id"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	research *usecase.ResearchService
	index    *usecase.ProductIndex
	tickets  domain.TicketNotes // nil when the integration is not configured
	reload   func() error       // nil disables POST /api/reload
}

// NewHandler creates a new HTTP handler
func NewHandler(research *usecase.ResearchService, index *usecase.ProductIndex, tickets domain.TicketNotes, reload func() error) *Handler {
	return &Handler{
		research: research,
		index:    index,
		tickets:  tickets,
		reload:   reload,
	}
}

// HealthCheck returns the health status of the API. A loaded index reports
// healthy; an unloaded one reports the "product data unavailable" state so a
// data outage is never mistaken for an empty catalog.
func (h *Handler) HealthCheck(c *gin.Context) {
	stats := h.index.Stats()

	status := "healthy"
	code := http.StatusOK
	dbStatus := "loaded"
	if !stats.Loaded {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
		dbStatus = "unavailable"
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "agentassist-backend",
		"version": "1.0.0",
		"services": gin.H{
			"database": gin.H{
				"status":              dbStatus,
				"loaded":              stats.Loaded,
				"total_products":      stats.TotalProducts,
				"products_with_media": stats.ProductsWithMedia,
				"products_with_specs": stats.ProductsWithSpecs,
			},
			"ticketing": gin.H{
				"status": ticketingStatus(h.tickets),
			},
		},
	})
}

// GetStats returns detailed system statistics
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"database": h.index.Stats(),
		"models": gin.H{
			"available": []string{"flash", "reasoning"},
			"default":   "flash",
		},
	})
}

// ProcessChat runs a query through the research pipeline
func (h *Handler) ProcessChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required (1-2000 characters)"})
		return
	}
	if req.ModelMode != "" && req.ModelMode != "flash" && req.ModelMode != "reasoning" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "model_mode must be 'flash' or 'reasoning'"})
		return
	}

	result, err := h.research.ProcessQuery(c.Request.Context(), req.Query, req.ModelMode)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDataUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product data unavailable"})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "error processing query: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportToTicket posts research results as a private note on a support ticket
func (h *Handler) ExportToTicket(c *gin.Context) {
	var req TicketNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket_id and formatted_note are required"})
		return
	}

	if h.tickets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Freshdesk service not configured. Set AGENTASSIST_FRESHDESK_DOMAIN and AGENTASSIST_FRESHDESK_API_KEY.",
		})
		return
	}

	result, err := h.tickets.AddPrivateNote(c.Request.Context(), req.TicketID, req.FormattedNote)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error exporting to Freshdesk: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, TicketNoteResponse{
		Success:   result.Success,
		NoteID:    result.NoteID,
		TicketID:  req.TicketID,
		Error:     result.Error,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ListProducts lists catalog products, optionally filtered by category
func (h *Handler) ListProducts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	category := c.Query("category")
	subcategory := c.Query("subcategory")
	subSubcategory := c.Query("sub_subcategory")

	if category == "" && (subcategory != "" || subSubcategory != "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subcategory filters require a category"})
		return
	}

	var summaries []domain.ProductSummary
	var err error
	if category != "" {
		summaries, err = h.index.SearchByCategory(category, subcategory, subSubcategory)
	} else {
		var models []string
		models, err = h.index.AllModels()
		if err == nil {
			summaries = make([]domain.ProductSummary, 0, len(models))
			for _, model := range models {
				summaries = append(summaries, domain.ProductSummary{ModelNumber: model})
			}
		}
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product data unavailable"})
		return
	}

	total := len(summaries)
	if len(summaries) > limit {
		summaries = summaries[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"products": summaries,
		"total":    total,
		"limit":    limit,
	})
}

// GetProductDetails returns the full record for one model number
func (h *Handler) GetProductDetails(c *gin.Context) {
	model := c.Param("model")

	rec, err := h.index.Lookup(model)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDataUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "product data unavailable"})
		case errors.Is(err, domain.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found: " + model})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ReloadIndex rebuilds the product index from the data directory
func (h *Handler) ReloadIndex(c *gin.Context) {
	if h.reload == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "reload not available"})
		return
	}
	if err := h.reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reload failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "reloaded",
		"stats":  h.index.Stats(),
	})
}

func ticketingStatus(tickets domain.TicketNotes) string {
	if tickets == nil {
		return "not_configured"
	}
	return "configured"
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}
