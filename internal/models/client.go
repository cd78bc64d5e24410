package models

// Client is a customer a budget is addressed to. Budgets reference clients; they do not
// own them.
type Client struct {
	Base
	UserID   string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name     string `gorm:"not null" json:"name"`
	Company  string `json:"company,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Document string `json:"document,omitempty"` // CPF or CNPJ
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `gorm:"size:2" json:"state,omitempty"`
	Notes    string `json:"notes,omitempty"`
}
