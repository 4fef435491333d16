package model

import "time"

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationDisabled  NotificationStatus = "disabled"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationRead      NotificationStatus = "read"
)

// rank orders statuses so late webhook callbacks never move a quote back.
var rank = map[NotificationStatus]int{
	NotificationPending:   0,
	NotificationDisabled:  1,
	NotificationFailed:    1,
	NotificationSent:      2,
	NotificationDelivered: 3,
	NotificationRead:      4,
}

func (s NotificationStatus) Valid() bool {
	_, ok := rank[s]
	return ok
}

// Supersedes reports whether s may replace current.
func (s NotificationStatus) Supersedes(current NotificationStatus) bool {
	if s == NotificationFailed {
		return current == NotificationPending || current == NotificationSent
	}
	return rank[s] > rank[current]
}

// Notification records the owner alert sent for a quote.
type Notification struct {
	Status    NotificationStatus `json:"status" bson:"status"`
	MessageID string             `json:"message_id,omitempty" bson:"message_id,omitempty"`
	Error     string             `json:"error,omitempty" bson:"error,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}
