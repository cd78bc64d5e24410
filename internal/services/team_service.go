package services

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/quota"
	"limify/internal/uuid"
)

// InviteTTL is how long a team invite stays valid.
const InviteTTL = 7 * 24 * time.Hour

// teamService manages teams. A user acts on the team they joined through an invite, or on
// their own team, which is created the first time it is needed.
type teamService struct {
	db    *gorm.DB
	plans PlanServicer
	now   func() time.Time
}

// NewTeamService creates a new TeamServicer.
func NewTeamService(db *gorm.DB, plans PlanServicer) TeamServicer {
	return &teamService{db: db, plans: plans, now: time.Now}
}

// membership resolves the team the user acts on, creating their own team when they have none.
func (s *teamService) membership(userID string) (*models.TeamMember, *models.Team, error) {
	var member models.TeamMember
	err := s.db.Where("user_id = ? AND role <> ?", userID, models.TeamRoleOwner).
		Order("created_at ASC").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.Where("user_id = ? AND role = ?", userID, models.TeamRoleOwner).First(&member).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.createTeam(userID)
	}
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var team models.Team
	if err := s.db.Where("id = ?", member.TeamID).First(&team).Error; err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &member, &team, nil
}

func (s *teamService) createTeam(userID string) (*models.TeamMember, *models.Team, error) {
	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrUserNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	name := user.Company
	if name == "" {
		name = user.Name
	}
	team := &models.Team{OwnerID: userID, Name: name}
	member := &models.TeamMember{UserID: userID, Role: models.TeamRoleOwner}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		member.TeamID = team.ID
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member, team, nil
}

// GetTeam returns the user's team with its members.
func (s *teamService) GetTeam(userID string) (*TeamView, error) {
	_, team, err := s.membership(userID)
	if err != nil {
		return nil, err
	}

	members := []models.TeamMember{}
	if err := s.db.Preload("User").Where("team_id = ?", team.ID).Order("created_at ASC").Find(&members).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &TeamView{Team: team, Members: members}, nil
}

// CreateInvite invites email to the user's team. Pending invites occupy a seat, so the
// owner's users quota is checked here and not on acceptance.
func (s *teamService) CreateInvite(userID, email string, role models.TeamRole) (*models.TeamInvite, error) {
	member, team, err := s.membership(userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanInvite() {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only owners and admins can invite")
	}
	if role == "" {
		role = models.TeamRoleMember
	}
	if role != models.TeamRoleAdmin && role != models.TeamRoleMember {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "role must be admin or member")
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid email address")
	}
	email = strings.ToLower(addr.Address)

	var existing int64
	if err := s.db.Model(&models.TeamMember{}).
		Joins("JOIN users ON users.id = team_members.user_id").
		Where("team_members.team_id = ? AND LOWER(users.email) = ?", team.ID, email).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrAlreadyTeamMember
	}

	var pending int64
	if err := s.db.Model(&models.TeamInvite{}).
		Where("team_id = ? AND email = ? AND status = ? AND expires_at > ?", team.ID, email, models.InviteStatusPending, s.now()).
		Count(&pending).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if pending > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "an invite is already pending for this email")
	}

	seats, err := countSeats(s.db, team.OwnerID, s.now())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.plans.CheckQuota(team.OwnerID, quota.ResourceUsers, seats); err != nil {
		return nil, err
	}

	invite := &models.TeamInvite{
		TeamID:    team.ID,
		Email:     email,
		Role:      role,
		Token:     uuid.NewToken(),
		Status:    models.InviteStatusPending,
		InvitedBy: userID,
		ExpiresAt: s.now().Add(InviteTTL),
	}
	if err := s.db.Create(invite).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invite, nil
}

// GetInvites lists the pending invites of the user's team.
func (s *teamService) GetInvites(userID string) ([]models.TeamInvite, error) {
	member, team, err := s.membership(userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanInvite() {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only owners and admins can see invites")
	}

	invites := []models.TeamInvite{}
	if err := s.db.Where("team_id = ? AND status = ? AND expires_at > ?", team.ID, models.InviteStatusPending, s.now()).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return invites, nil
}

// AcceptInvite joins the user to the invite's team. The invite must be pending, unexpired and
// addressed to the user's email; it can be used once.
func (s *teamService) AcceptInvite(userID, token string) (*models.TeamMember, error) {
	var invite models.TeamInvite
	if err := s.db.Where("token = ?", token).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInviteNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	now := s.now()
	if !invite.IsPending(now) {
		return nil, apperrors.WithMessage(apperrors.ErrInviteNotFound, "Invite has expired or was already used")
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !strings.EqualFold(user.Email, invite.Email) {
		return nil, apperrors.ErrInviteEmailMismatch
	}

	var existing int64
	if err := s.db.Model(&models.TeamMember{}).Where("team_id = ? AND user_id = ?", invite.TeamID, userID).Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrAlreadyTeamMember
	}

	member := &models.TeamMember{TeamID: invite.TeamID, UserID: userID, Role: invite.Role}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TeamInvite{}).
			Where("id = ? AND status = ?", invite.ID, models.InviteStatusPending).
			Updates(map[string]interface{}{
				"status":      models.InviteStatusAccepted,
				"accepted_at": now,
				"accepted_by": userID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInviteNotFound, "Invite was already used")
		}
		return tx.Create(member).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return member, nil
}

// RemoveMember removes a member from the user's team. Admins may only remove members; the
// owner can never be removed.
func (s *teamService) RemoveMember(userID, memberID string) error {
	actor, team, err := s.membership(userID)
	if err != nil {
		return err
	}
	if !actor.Role.CanInvite() {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Only owners and admins can remove members")
	}

	var target models.TeamMember
	if err := s.db.Where("id = ? AND team_id = ?", memberID, team.ID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTeamMemberNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if target.Role == models.TeamRoleOwner {
		return apperrors.ErrCannotRemoveOwner
	}
	if actor.Role == models.TeamRoleAdmin && target.Role == models.TeamRoleAdmin && target.ID != actor.ID {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Only the owner can remove admins")
	}

	if err := s.db.Unscoped().Delete(&target).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
