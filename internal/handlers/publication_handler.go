package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "limify/internal/errors"
	"limify/internal/events"
	"limify/internal/models"
	"limify/internal/pricing"
	"limify/internal/services"
)

// PublicationHandler publishes budgets and serves their public pages.
type PublicationHandler struct {
	publicationService services.PublicationServicer
	auditService       services.AuditServicer
	publisher          events.Publisher
	publicBaseURL      string
}

// NewPublicationHandler creates a new PublicationHandler. publicBaseURL is where the
// public proposal pages are served and is used to build share links.
func NewPublicationHandler(publicationService services.PublicationServicer, auditService services.AuditServicer,
	publisher events.Publisher, publicBaseURL string) *PublicationHandler {
	return &PublicationHandler{
		publicationService: publicationService,
		auditService:       auditService,
		publisher:          publisher,
		publicBaseURL:      strings.TrimRight(publicBaseURL, "/"),
	}
}

// PublishRequest configures the presentation frozen with a publication.
type PublishRequest struct {
	Title        string                     `json:"title" binding:"max=200"`
	Subtitle     string                     `json:"subtitle" binding:"max=300"`
	HeaderImage  string                     `json:"header_image" binding:"omitempty,url,max=1000"`
	SectionOrder []string                   `json:"section_order" binding:"max=5,dive,section_kind"`
	Sections     models.PublicationSections `json:"sections"`
}

// PublicBudgetResponse is the client-facing view of the latest publication.
type PublicBudgetResponse struct {
	BudgetID       string                     `json:"budget_id"`
	Version        int                        `json:"version"`
	Title          string                     `json:"title"`
	Subtitle       string                     `json:"subtitle,omitempty"`
	HeaderImage    string                     `json:"header_image,omitempty"`
	ClientName     string                     `json:"client_name,omitempty"`
	Total          decimal.Decimal            `json:"total" swaggertype:"string"`
	TotalFormatted string                     `json:"total_formatted"`
	SectionOrder   []string                   `json:"section_order"`
	Sections       models.PublicationSections `json:"sections"`
	PublishedAt    time.Time                  `json:"published_at"`
}

func (h *PublicationHandler) publicURL(budgetID string) string {
	return h.publicBaseURL + "/orcamento/" + budgetID
}

// Publish freezes the budget into a new publication version
// @Summary     Publish budget
// @Description Snapshot the budget's current totals and the given presentation. Each call creates the next version; earlier versions never change.
// @Tags        publications
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Budget ID"
// @Param       request body PublishRequest true "Presentation"
// @Success     201 {object} map[string]interface{} "Publication and public URL"
// @Failure     400 {object} ErrorResponse "Invalid sections"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is trashed"
// @Router      /budgets/{id}/publish [post]
func (h *PublicationHandler) Publish(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	publication, err := h.publicationService.Publish(userID, budgetID, services.PublishInput{
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		HeaderImage:  req.HeaderImage,
		SectionOrder: req.SectionOrder,
		Sections:     req.Sections,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	url := h.publicURL(budgetID)
	h.auditService.Log(userID, services.AuditPublish, "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"version": publication.Version, "total": publication.Total.String()})
	events.PublishAsync(c.Request.Context(), h.publisher, events.New(events.BudgetPublished, userID, budgetID,
		map[string]interface{}{
			"version":     publication.Version,
			"total":       publication.Total.String(),
			"client_name": publication.ClientName,
			"url":         url,
		}))

	c.JSON(http.StatusCreated, gin.H{"publication": publication, "url": url})
}

// GetPublications lists every version published for a budget
// @Summary     List publications
// @Tags        publications
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string][]models.BudgetPublication "Publications, newest first"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/publications [get]
func (h *PublicationHandler) GetPublications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	publications, err := h.publicationService.GetPublications(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"publications": publications})
}

// GetPublicBudget serves the latest publication of a budget without authentication
// @Summary     Public budget page
// @Description Latest published version of an active budget. Trashed or never published budgets are not found.
// @Tags        public
// @Produce     json
// @Param       id path string true "Budget ID"
// @Success     200 {object} PublicBudgetResponse "Published proposal"
// @Failure     404 {object} ErrorResponse "Publication not found"
// @Router      /public/budgets/{id} [get]
func (h *PublicationHandler) GetPublicBudget(c *gin.Context) {
	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, apperrors.ErrPublicationNotFound)
		return
	}

	p, err := h.publicationService.GetPublicBudget(budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, PublicBudgetResponse{
		BudgetID:       p.BudgetID,
		Version:        p.Version,
		Title:          p.Title,
		Subtitle:       p.Subtitle,
		HeaderImage:    p.HeaderImage,
		ClientName:     p.ClientName,
		Total:          p.Total,
		TotalFormatted: pricing.FormatBRL(p.Total),
		SectionOrder:   p.SectionOrder,
		Sections:       p.Sections(),
		PublishedAt:    p.PublishedAt,
	})
}
