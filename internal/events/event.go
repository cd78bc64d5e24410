// Package events publishes domain events so other systems (mailers, CRM sync, analytics)
// can react to budget and team changes.
package events

import (
	"encoding/json"
	"time"

	"limify/internal/uuid"
)

// Type is the routing key of an event.
type Type string

const (
	BudgetPublished     Type = "budget.published"
	BudgetStatusChanged Type = "budget.status_changed"
	TeamInviteCreated   Type = "team.invite_created"
)

// Event is the JSON envelope sent to the broker.
type Event struct {
	ID         string                 `json:"id"`
	Type       Type                   `json:"type"`
	UserID     string                 `json:"user_id"`
	ResourceID string                 `json:"resource_id"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// New builds an event stamped with a fresh id and the current time.
func New(t Type, userID, resourceID string, data map[string]interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		UserID:     userID,
		ResourceID: resourceID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// ToJSON converts the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON decodes an event.
func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}
