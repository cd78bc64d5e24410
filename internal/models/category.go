package models

// Category groups expenses. A nil UserID marks a global category shared by everyone.
type Category struct {
	Base
	UserID *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name   string  `gorm:"not null" json:"name"`
	Color  string  `json:"color"`
}

// IsGlobal reports whether the category belongs to no user.
func (c *Category) IsGlobal() bool {
	return c.UserID == nil
}
