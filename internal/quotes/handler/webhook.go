package handler

import (
	"encoding/json"
	"net/http"

	"autoquote/internal/quotes/service"
	httputil "autoquote/pkg/http"
	"autoquote/pkg/logger"
	"autoquote/pkg/model"
	"autoquote/pkg/whatsapp"

	"github.com/julienschmidt/httprouter"
)

const WebhookPath = "/webhooks/whatsapp"

// WebhookHandler receives WhatsApp delivery callbacks. Deliveries are always
// acknowledged with 200 so Meta does not retry them; problems are logged.
type WebhookHandler struct {
	service     service.QuoteService
	verifyToken string
	log         *logger.Logger
}

func NewWebhookHandler(service service.QuoteService, verifyToken string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		service:     service,
		verifyToken: verifyToken,
		log:         log,
	}
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")

	if h.verifyToken == "" || mode != whatsapp.ModeSubscribe || token != h.verifyToken {
		h.logFor(r).Warn("Webhook verification rejected", "mode", mode, "remote_addr", r.RemoteAddr)
		if err := httputil.WriteText(w, http.StatusForbidden, "forbidden"); err != nil {
			h.logFor(r).Error("failed to write text response", "handler", "Verify", "operation", "WriteText", "error", err)
		}
		return
	}

	if err := httputil.WriteText(w, http.StatusOK, query.Get("hub.challenge")); err != nil {
		h.logFor(r).Error("failed to write text response", "handler", "Verify", "operation", "WriteText", "error", err)
	}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.logFor(r).Warn("Ignoring malformed webhook payload", "error", err)
		h.ack(w, r)
		return
	}

	if payload.Object != whatsapp.ObjectBusinessAccount {
		h.logFor(r).Debug("Ignoring webhook for other object", "object", payload.Object)
		h.ack(w, r)
		return
	}

	for _, st := range payload.Statuses() {
		status := model.NotificationStatus(st.Status)
		if err := h.service.RecordDeliveryStatus(r.Context(), st.ID, status, st.Time()); err != nil {
			h.logFor(r).Error("Failed to record delivery status",
				"message_id", st.ID,
				"status", st.Status,
				"error", err,
			)
		}
	}

	h.ack(w, r)
}

func (h *WebhookHandler) ack(w http.ResponseWriter, r *http.Request) {
	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "received"}); err != nil {
		h.logFor(r).Error("failed to write JSON response", "handler", "Receive", "operation", "WriteJSON", "error", err)
	}
}

func (h *WebhookHandler) logFor(r *http.Request) *logger.Logger {
	return logger.FromContext(r.Context(), h.log)
}

func (h *WebhookHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET(WebhookPath, h.Verify)
	router.POST(WebhookPath, h.Receive)
}
