package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"revdash/internal/core"
	"revdash/internal/dashboard"
)

// SelectionChangedMessage announces a dashboard selection transition.
// Previous and Current encode the empty selection as null. FocusedRevenue is
// an exact JSON number, the same encoding the HTTP API uses.
type SelectionChangedMessage struct {
	ID                string         `json:"id"`
	Event             string         `json:"event"`
	Previous          core.Selection `json:"previous"`
	Current           core.Selection `json:"current"`
	ActiveLabel       string         `json:"active_label"`
	FocusedRevenue    json.Number    `json:"focused_revenue"`
	FocusRatioPercent int            `json:"focus_ratio_percent"`
	Version           uint64         `json:"version"`
	Timestamp         time.Time      `json:"timestamp"`
}

// NewSelectionChangedMessage builds the message for a dashboard change.
func NewSelectionChangedMessage(c dashboard.Change) *SelectionChangedMessage {
	event := ""
	if c.Event != nil {
		event = c.Event.Name()
	}
	return &SelectionChangedMessage{
		ID:                uuid.NewString(),
		Event:             event,
		Previous:          c.Previous,
		Current:           c.Current,
		ActiveLabel:       c.Snapshot.Summary.ActiveLabel,
		FocusedRevenue:    json.Number(c.Snapshot.Summary.FocusedRevenue.String()),
		FocusRatioPercent: c.Snapshot.Summary.FocusRatioPercent,
		Version:           c.Snapshot.Version,
		Timestamp:         time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SelectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SelectionChangedMessageFromJSON decodes a message body.
func SelectionChangedMessageFromJSON(data []byte) (*SelectionChangedMessage, error) {
	var msg SelectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
