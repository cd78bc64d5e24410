package models

import "time"

// TeamRole is a member's permission level inside a team.
type TeamRole string

const (
	TeamRoleOwner  TeamRole = "owner"
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

// CanInvite reports whether the role may invite new members.
func (r TeamRole) CanInvite() bool {
	return r == TeamRoleOwner || r == TeamRoleAdmin
}

// Team is owned by exactly one user.
type Team struct {
	Base
	OwnerID string       `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Name    string       `gorm:"not null" json:"name"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

type TeamMember struct {
	Base
	TeamID string   `gorm:"type:uuid;not null;uniqueIndex:idx_team_member" json:"team_id"`
	UserID string   `gorm:"type:uuid;not null;uniqueIndex:idx_team_member" json:"user_id"`
	Role   TeamRole `gorm:"not null;default:'member'" json:"role"`
	User   *User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// InviteStatus tracks a single-use invite.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
)

// TeamInvite targets one email and can be accepted once.
type TeamInvite struct {
	Base
	TeamID     string       `gorm:"type:uuid;not null;index" json:"team_id"`
	Email      string       `gorm:"not null;index" json:"email"`
	Role       TeamRole     `gorm:"not null;default:'member'" json:"role"`
	Token      string       `gorm:"not null;uniqueIndex" json:"-"`
	Status     InviteStatus `gorm:"not null;default:'pending';index" json:"status"`
	InvitedBy  string       `gorm:"type:uuid;not null" json:"invited_by"`
	ExpiresAt  time.Time    `gorm:"not null" json:"expires_at"`
	AcceptedAt *time.Time   `json:"accepted_at,omitempty"`
	AcceptedBy *string      `gorm:"type:uuid" json:"accepted_by,omitempty"`
}

// IsPending reports whether the invite can still be accepted at now.
func (i *TeamInvite) IsPending(now time.Time) bool {
	return i.Status == InviteStatusPending && now.Before(i.ExpiresAt)
}
