package audit

import (
	"encoding/json"
	"time"
)

// Event is a single security-relevant record, written once and delivered
// best-effort to the audit sink. The JSON shape is the sink's wire
// contract.
type Event struct {
	UserID    string                 `json:"userId"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	IPAddress string                 `json:"ipAddress"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// NewEvent builds an event stamped with the current UTC time
func NewEvent(userID, action, ip string, details map[string]interface{}) Event {
	return Event{
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		IPAddress: ip,
		Details:   details,
	}
}

// ToJSON converts the event to JSON
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
