package model

import "time"

// QuoteRequestedEvent is published after a quote is stored and the owner
// notification was attempted.
type QuoteRequestedEvent struct {
	QuoteID            string             `json:"quote_id"`
	UserID             string             `json:"user_id"`
	Username           string             `json:"username,omitempty"`
	Phone              string             `json:"phone"`
	Country            string             `json:"country,omitempty"`
	Timezone           string             `json:"timezone"`
	CarInfo            string             `json:"carro_info"`
	Condition          string             `json:"condition,omitempty"`
	Color              string             `json:"color,omitempty"`
	Displacement       string             `json:"cilindrada,omitempty"`
	Year               string             `json:"ano,omitempty"`
	Fuel               string             `json:"combustivel,omitempty"`
	NotificationStatus NotificationStatus `json:"notification_status"`
	CreatedAt          time.Time          `json:"created_at"`
}

// NewQuoteRequestedEvent builds the event; timezone is the requester's
// local zone, used by consumers to schedule the callback.
func NewQuoteRequestedEvent(u *User, q *Quote, timezone string) QuoteRequestedEvent {
	return QuoteRequestedEvent{
		QuoteID:            q.ID,
		UserID:             u.ID,
		Username:           u.Username,
		Phone:              u.Phone,
		Country:            u.Country,
		Timezone:           timezone,
		CarInfo:            q.CarInfo,
		Condition:          q.Condition,
		Color:              q.Color,
		Displacement:       q.Displacement,
		Year:               q.Year,
		Fuel:               q.Fuel,
		NotificationStatus: q.Notification.Status,
		CreatedAt:          q.CreatedAt,
	}
}
