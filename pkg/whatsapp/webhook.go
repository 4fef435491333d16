package whatsapp

import (
	"strconv"
	"time"
)

const (
	ObjectBusinessAccount = "whatsapp_business_account"
	FieldMessages         = "messages"

	ModeSubscribe = "subscribe"
)

// WebhookPayload is the body Meta posts to the webhook. Only the delivery
// status part is modelled.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string          `json:"messaging_product"`
	Statuses         []MessageStatus `json:"statuses"`
}

type MessageStatus struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"` // sent, delivered, read, failed
	Timestamp   string     `json:"timestamp"`
	RecipientID string     `json:"recipient_id"`
	Errors      []APIError `json:"errors,omitempty"`
}

// Time converts the unix seconds timestamp, falling back to now.
func (s MessageStatus) Time() time.Time {
	if secs, err := strconv.ParseInt(s.Timestamp, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	return time.Now().UTC()
}

// Statuses flattens every status update of a message webhook payload.
func (p *WebhookPayload) Statuses() []MessageStatus {
	var out []MessageStatus
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != FieldMessages {
				continue
			}
			out = append(out, change.Value.Statuses...)
		}
	}
	return out
}
