package handler

import (
	"encoding/json"
	"mime"
	"net/http"

	"autoquote/internal/quotes/service"
	apperrors "autoquote/pkg/errors"
	httputil "autoquote/pkg/http"
	"autoquote/pkg/logger"
	"autoquote/pkg/middleware"
	"autoquote/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const maxFormMemory = 1 << 20

type QuoteHandler struct {
	service service.QuoteService
	log     *logger.Logger
}

func NewQuoteHandler(service service.QuoteService, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		log:     log,
	}
}

// SubmitForm accepts the website form, urlencoded or multipart.
func (h *QuoteHandler) SubmitForm(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req, err := parseQuoteForm(r)
	if err != nil {
		h.logFor(r).Warn("Failed to parse quote form", "error", err)
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("Invalid form body")); writeErr != nil {
			h.logFor(r).Error("failed to write error response", "handler", "SubmitForm", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	h.submit(w, r, req, "SubmitForm")
}

// Create accepts the same fields as a JSON object.
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.logFor(r).Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	h.submit(w, r, &req, "Create")
}

func (h *QuoteHandler) submit(w http.ResponseWriter, r *http.Request, req *model.QuoteRequest, name string) {
	sub, err := h.service.Submit(r.Context(), req)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.logFor(r).Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, sub); err != nil {
		h.logFor(r).Error("failed to write created response", "handler", name, "operation", "WriteCreated", "error", err)
	}
}

func parseQuoteForm(r *http.Request) (*model.QuoteRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == middleware.ContentTypeMultipart {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, err
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, err
	}

	form := r.PostForm
	return &model.QuoteRequest{
		Username:     form.Get("username"),
		Phone:        form.Get("phone"),
		CarInfo:      form.Get("carro_info"),
		Condition:    form.Get("condition"),
		Color:        form.Get("color"),
		Displacement: form.Get("cilindrada"),
		Year:         form.Get("ano"),
		Fuel:         form.Get("combustivel"),
	}, nil
}

func (h *QuoteHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	quote, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.logFor(r).Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, quote); err != nil {
		h.logFor(r).Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *QuoteHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.logFor(r).Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	quotes, total, err := h.service.GetAll(r.Context(), r.URL.Query().Get("phone"), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.logFor(r).Error("failed to write error response", "handler", "GetAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, quotes, total, limit, offset); err != nil {
		h.logFor(r).Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

// logFor returns the request-scoped logger set up by RequestLogging.
func (h *QuoteHandler) logFor(r *http.Request) *logger.Logger {
	return logger.FromContext(r.Context(), h.log)
}

func (h *QuoteHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/orcamento", h.SubmitForm)
	router.POST("/api/v1/quotes", h.Create)
	router.GET("/api/v1/quotes", h.GetAll)
	router.GET("/api/v1/quotes/id/:id", h.GetByID)
}
