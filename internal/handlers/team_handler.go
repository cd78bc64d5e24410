package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/events"
	"limify/internal/models"
	"limify/internal/services"
)

// TeamHandler handles team membership and invites.
type TeamHandler struct {
	teamService   services.TeamServicer
	auditService  services.AuditServicer
	publisher     events.Publisher
	publicBaseURL string
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService services.TeamServicer, auditService services.AuditServicer,
	publisher events.Publisher, publicBaseURL string) *TeamHandler {
	return &TeamHandler{
		teamService:   teamService,
		auditService:  auditService,
		publisher:     publisher,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// InviteRequest invites an email address to the caller's team.
type InviteRequest struct {
	Email string          `json:"email" binding:"required,email,max=255"`
	Role  models.TeamRole `json:"role" binding:"omitempty,team_role" example:"member"`
}

// AcceptInviteRequest carries the token from an invite link.
type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required,max=128"`
}

func (h *TeamHandler) inviteURL(token string) string {
	return h.publicBaseURL + "/convite?token=" + url.QueryEscape(token)
}

// GetTeam returns the caller's team and its members
// @Summary     Get team
// @Description The caller's team, created on first access
// @Tags        team
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.TeamView "Team with members"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /team [get]
func (h *TeamHandler) GetTeam(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	view, err := h.teamService.GetTeam(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateInvite invites someone to the team
// @Summary     Invite member
// @Description Owners and admins can invite. Pending invites count against the plan's users quota.
// @Tags        team
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body InviteRequest true "Invite"
// @Success     201 {object} map[string]interface{} "Invite and its link"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     402 {object} ErrorResponse "Quota exceeded"
// @Failure     403 {object} ErrorResponse "Not allowed to invite"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /team/invites [post]
func (h *TeamHandler) CreateInvite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	invite, err := h.teamService.CreateInvite(userID, req.Email, req.Role)
	if err != nil {
		respondWithError(c, err)
		return
	}

	link := h.inviteURL(invite.Token)
	h.auditService.Log(userID, services.AuditInvite, "team_invite", invite.ID, c.ClientIP(),
		map[string]interface{}{"email": invite.Email, "role": invite.Role})
	events.PublishAsync(c.Request.Context(), h.publisher, events.New(events.TeamInviteCreated, userID, invite.ID,
		map[string]interface{}{
			"team_id":    invite.TeamID,
			"email":      invite.Email,
			"role":       invite.Role,
			"url":        link,
			"expires_at": invite.ExpiresAt,
		}))

	c.JSON(http.StatusCreated, gin.H{"invite": invite, "invite_url": link})
}

// GetInvites lists the team's pending invites
// @Summary     List invites
// @Tags        team
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.TeamInvite "Pending invites"
// @Failure     403 {object} ErrorResponse "Not allowed to see invites"
// @Router      /team/invites [get]
func (h *TeamHandler) GetInvites(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	invites, err := h.teamService.GetInvites(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invites": invites})
}

// AcceptInvite joins the team behind an invite token
// @Summary     Accept invite
// @Description The invite must be pending, unexpired and addressed to the caller's email
// @Tags        team
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AcceptInviteRequest true "Invite token"
// @Success     200 {object} map[string]models.TeamMember "New membership"
// @Failure     403 {object} ErrorResponse "Invite for another email"
// @Failure     404 {object} ErrorResponse "Invite not found or expired"
// @Failure     409 {object} ErrorResponse "Already a member"
// @Router      /team/invites/accept [post]
func (h *TeamHandler) AcceptInvite(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	member, err := h.teamService.AcceptInvite(userID, req.Token)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditAcceptInvite, "team", member.TeamID, c.ClientIP(),
		map[string]interface{}{"role": member.Role})

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// RemoveMember removes a member from the team
// @Summary     Remove member
// @Tags        team
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Team member ID"
// @Success     200 {object} map[string]string "Member removed"
// @Failure     403 {object} ErrorResponse "Not allowed"
// @Failure     404 {object} ErrorResponse "Member not found"
// @Failure     409 {object} ErrorResponse "Owner cannot be removed"
// @Router      /team/members/{id} [delete]
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	memberID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.teamService.RemoveMember(userID, memberID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditRemoveMember, "team_member", memberID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Member removed successfully"})
}
