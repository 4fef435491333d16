package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autoquote/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:       srv.URL,
		PhoneNumberID: "1234567890",
		Token:         "secret-token",
		Timeout:       time.Second,
	}, logger.Discard())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{PhoneNumberID: "1"}, logger.Discard())
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = NewClient(Config{Token: "t"}, logger.Discard())
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestSendTemplate_RequestShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v22.0/1234567890/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"messaging_product": "whatsapp",
			"to": "351912345678",
			"type": "template",
			"template": {
				"name": "info_update2",
				"language": {"code": "pt_PT"},
				"components": [{
					"type": "body",
					"parameters": [
						{"type": "text", "text": "Cliente"},
						{"type": "text", "text": "Carro: Civic | Contacto: 912345678"}
					]
				}]
			}
		}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","contacts":[{"input":"351912345678","wa_id":"351912345678"}],"messages":[{"id":"wamid.HBgM"}]}`))
	})

	tpl := BodyTemplate("info_update2", "pt_PT", "Cliente", "Carro: Civic | Contacto: 912345678")
	resp, err := c.SendTemplate(context.Background(), "+351912345678", tpl)

	require.NoError(t, err)
	assert.Equal(t, "wamid.HBgM", resp.MessageID())
}

func TestSendTemplate_JSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"(#132001) Template name does not exist in the translation","type":"OAuthException","code":132001,"fbtrace_id":"AbC"}}`))
	})

	_, err := c.SendTemplate(context.Background(), "351912345678", BodyTemplate("missing", "pt_PT"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 132001, apiErr.Code)
	assert.Equal(t, "OAuthException", apiErr.Type)
	assert.Equal(t, "AbC", apiErr.FBTraceID)
	assert.Contains(t, apiErr.Error(), "Template name does not exist")
}

func TestSendTemplate_TextError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream connect error\n"))
	})

	_, err := c.SendTemplate(context.Background(), "351912345678", BodyTemplate("info_update2", "pt_PT"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream connect error", apiErr.Body)
	assert.Equal(t, "whatsapp: status 502: upstream connect error", apiErr.Error())
}

func TestSendTemplate_NonJSONSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	_, err := c.SendTemplate(context.Background(), "351912345678", BodyTemplate("info_update2", "pt_PT"))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ok", apiErr.Body)
}

func TestSendTemplate_MissingRecipient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.SendTemplate(context.Background(), "  ", BodyTemplate("info_update2", "pt_PT"))
	assert.ErrorIs(t, err, ErrMissingRecipient)
}

func TestSendTemplate_RateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		BaseURL:           srv.URL,
		PhoneNumberID:     "1",
		Token:             "t",
		RequestsPerSecond: 0.001,
	}, logger.Discard())
	require.NoError(t, err)

	_, err = c.SendTemplate(context.Background(), "351912345678", BodyTemplate("info_update2", "pt_PT"))
	require.NoError(t, err, "the first call uses the initial token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.SendTemplate(ctx, "351912345678", BodyTemplate("info_update2", "pt_PT"))
	assert.Error(t, err)
}

func TestWebhookPayload_Statuses(t *testing.T) {
	raw := `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "WABA",
			"changes": [
				{"field": "messages", "value": {"messaging_product": "whatsapp", "statuses": [
					{"id": "wamid.1", "status": "delivered", "timestamp": "1700000000", "recipient_id": "351912345678"},
					{"id": "wamid.2", "status": "failed", "timestamp": "1700000001", "recipient_id": "351912345678",
					 "errors": [{"code": 131047, "message": "Re-engagement message"}]}
				]}},
				{"field": "account_update", "value": {}}
			]
		}]
	}`

	var payload WebhookPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	statuses := payload.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "wamid.1", statuses[0].ID)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), statuses[0].Time())
	assert.Equal(t, 131047, statuses[1].Errors[0].Code)
}
