package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/pagination"
	"limify/internal/services"
)

// ClientHandler handles client-related requests.
type ClientHandler struct {
	clientService services.ClientServicer
	auditService  services.AuditServicer
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService services.ClientServicer, auditService services.AuditServicer) *ClientHandler {
	return &ClientHandler{clientService: clientService, auditService: auditService}
}

// ClientRequest is the payload for creating or replacing a client.
type ClientRequest struct {
	Name     string `json:"name" binding:"required,max=200"`
	Company  string `json:"company" binding:"max=200"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Phone    string `json:"phone" binding:"max=40"`
	Document string `json:"document" binding:"max=20"`
	Address  string `json:"address" binding:"max=300"`
	City     string `json:"city" binding:"max=120"`
	State    string `json:"state" binding:"omitempty,len=2"`
	Notes    string `json:"notes" binding:"max=2000"`
}

func (r ClientRequest) input() services.ClientInput {
	return services.ClientInput{
		Name:     r.Name,
		Company:  r.Company,
		Email:    r.Email,
		Phone:    r.Phone,
		Document: r.Document,
		Address:  r.Address,
		City:     r.City,
		State:    r.State,
		Notes:    r.Notes,
	}
}

// CreateClient handles the creation of a new client
// @Summary     Create a client
// @Description Create a client budgets can be addressed to. Limited by the plan's clients quota.
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ClientRequest true "Client details"
// @Success     201 {object} map[string]models.Client "Client created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     402 {object} ErrorResponse "Quota exceeded"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients [post]
func (h *ClientHandler) CreateClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	client, err := h.clientService.CreateClient(userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreate, "client", client.ID, c.ClientIP(),
		map[string]interface{}{"name": client.Name})

	c.JSON(http.StatusCreated, gin.H{"client": client})
}

// GetUserClients lists the user's clients
// @Summary     List clients
// @Description List the authenticated user's clients, optionally filtered by name, company or email
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       search    query string false "Case-insensitive search"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       sort      query string false "Sort key: name, company, created_at (prefix - for descending)"
// @Success     200 {object} pagination.PageResponse[models.Client] "Paginated clients"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /clients [get]
func (h *ClientHandler) GetUserClients(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.clientService.GetUserClients(userID, c.Query("search"), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetClientByID returns one client
// @Summary     Get client by ID
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Client ID"
// @Success     200 {object} map[string]models.Client "Client details"
// @Failure     400 {object} ErrorResponse "Invalid client ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [get]
func (h *ClientHandler) GetClientByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	client, err := h.clientService.GetClientByID(userID, clientID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// UpdateClient replaces a client's fields
// @Summary     Update client
// @Tags        clients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Client ID"
// @Param       request body ClientRequest true "Client details"
// @Success     200 {object} map[string]models.Client "Updated client"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [put]
func (h *ClientHandler) UpdateClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	client, err := h.clientService.UpdateClient(userID, clientID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdate, "client", clientID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"client": client})
}

// DeleteClient removes a client. Budgets addressed to it keep their data.
// @Summary     Delete client
// @Tags        clients
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Client ID"
// @Success     200 {object} map[string]string "Client deleted"
// @Failure     400 {object} ErrorResponse "Invalid client ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Router      /clients/{id} [delete]
func (h *ClientHandler) DeleteClient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	clientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.clientService.DeleteClient(userID, clientID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditDelete, "client", clientID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}
