package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	quoteserrors "autoquote/internal/quotes/errors"
	"autoquote/internal/quotes/repository"
	"autoquote/internal/quotes/validator"
	"autoquote/pkg/config"
	apperrors "autoquote/pkg/errors"
	httputil "autoquote/pkg/http"
	"autoquote/pkg/kafka"
	"autoquote/pkg/locale"
	"autoquote/pkg/middleware"
	"autoquote/pkg/model"
	"autoquote/pkg/sanitizer"
	"autoquote/pkg/whatsapp"
)

// MsgMissingRequired is returned when the phone or the car description is
// missing from a submission.
const MsgMissingRequired = "Por favor insere o número de telefone e informação do carro."

const eventSource = "quotes"

// Sender delivers a template message. *whatsapp.Client implements it.
type Sender interface {
	SendTemplate(ctx context.Context, to string, tpl whatsapp.Template) (*whatsapp.SendResponse, error)
}

// EventPublisher publishes domain events. *kafka.Producer implements it.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type QuoteService interface {
	Submit(ctx context.Context, req *model.QuoteRequest) (*model.Submission, error)
	GetByID(ctx context.Context, id string) (*model.Quote, error)
	GetAll(ctx context.Context, phone string, limit int, offset int64) ([]*model.Quote, int64, error)
	RecordDeliveryStatus(ctx context.Context, messageID string, status model.NotificationStatus, at time.Time) error
	Ping(ctx context.Context) error
}

type quoteService struct {
	repo      repository.QuoteRepository
	validator *validator.QuoteValidator
	sender    Sender
	publisher EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

// NewQuoteService builds the service. sender and publisher may be nil, in
// which case notifications are recorded as disabled and no events are
// published.
func NewQuoteService(
	repo repository.QuoteRepository,
	validator *validator.QuoteValidator,
	sender Sender,
	publisher EventPublisher,
	cfg *config.Config,
) QuoteService {
	return &quoteService{
		repo:      repo,
		validator: validator,
		sender:    sender,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *quoteService) regions() []string {
	regions := []string{s.cfg.PhoneDefaultRegion}
	for _, r := range sanitizer.DefaultRegions {
		if r != s.cfg.PhoneDefaultRegion {
			regions = append(regions, r)
		}
	}
	return regions
}

func (s *quoteService) sanitize(req *model.QuoteRequest) {
	req.Username = sanitizer.TrimAndNormalize(req.Username)
	req.CarInfo = sanitizer.TrimLines(req.CarInfo)
	req.Condition = sanitizer.TrimAndNormalize(req.Condition)
	req.Color = sanitizer.TrimAndNormalize(req.Color)
	req.Displacement = sanitizer.TrimAndNormalize(req.Displacement)
	req.Year = sanitizer.TrimAndNormalize(req.Year)
	req.Fuel = sanitizer.TrimAndNormalize(req.Fuel)

	req.Phone = sanitizer.TrimAndNormalize(req.Phone)
	if normalized := sanitizer.NormalizePhone(req.Phone, s.regions()...); normalized != "" {
		req.Phone = normalized
	}
}

func (s *quoteService) Submit(ctx context.Context, req *model.QuoteRequest) (*model.Submission, error) {
	s.sanitize(req)

	if req.Phone == "" || req.CarInfo == "" {
		return nil, apperrors.Validation(MsgMissingRequired, nil)
	}

	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Quote validation failed",
			"phone", sanitizer.MaskPhone(req.Phone),
			"error", err,
		)
		details := map[string]any{"error": err.Error()}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details["fields"] = verrs
		}
		return nil, apperrors.Validation("Quote validation failed", details)
	}

	user := &model.User{
		Username: req.Username,
		Phone:    req.Phone,
		Country:  locale.InferCountryCode(req.Phone),
	}
	quote := &model.Quote{
		CarInfo:      req.CarInfo,
		Condition:    req.Condition,
		Color:        req.Color,
		Displacement: req.Displacement,
		Year:         req.Year,
		Fuel:         req.Fuel,
		Notification: model.Notification{Status: model.NotificationPending},
	}

	err := s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpsertUser(txCtx, user); err != nil {
			return fmt.Errorf("failed to store user: %w", err)
		}
		quote.UserID = user.ID
		if err := s.repo.Create(txCtx, quote); err != nil {
			return fmt.Errorf("failed to store quote: %w", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to store quote request",
			"phone", sanitizer.MaskPhone(req.Phone),
			"error", err,
		)
		return nil, apperrors.Internal("Failed to store quote request", err)
	}

	details := BuildDetails(quote, user.Phone)
	quote.Notification = s.notifyOwner(ctx, user, details)

	if err := s.repo.UpdateNotification(ctx, quote.ID, quote.Notification); err != nil {
		s.cfg.Log.Warn("Failed to record notification outcome",
			"quote_id", quote.ID,
			"status", quote.Notification.Status,
			"error", err,
		)
	}

	s.publishRequested(ctx, user, quote)

	s.cfg.Log.Info("Quote request stored",
		"quote_id", quote.ID,
		"user_id", user.ID,
		"phone", sanitizer.MaskPhone(user.Phone),
		"notification", quote.Notification.Status,
	)

	return &model.Submission{User: user, Quote: quote, Details: details}, nil
}

// TemplateParams returns the sanitized [name, details] body parameters.
func TemplateParams(tc config.TemplateConfig, username, details string) []string {
	name := sanitizer.NormalizeName(username, tc.DefaultName)
	return []string{
		sanitizer.SanitizeTemplateText(name, tc.NameMaxLen, tc.Separator),
		sanitizer.SanitizeTemplateText(details, tc.DetailsMaxLen, tc.Separator),
	}
}

// notifyOwner sends the owner alert. Failures are recorded, not returned.
func (s *quoteService) notifyOwner(ctx context.Context, user *model.User, details string) model.Notification {
	n := model.Notification{UpdatedAt: s.now()}

	if s.sender == nil || !s.cfg.WhatsApp.Enabled() {
		s.cfg.Log.Warn("WhatsApp credentials not configured, owner not notified", "user_id", user.ID)
		n.Status = model.NotificationDisabled
		return n
	}

	w := s.cfg.WhatsApp
	tpl := whatsapp.BodyTemplate(w.TemplateName, w.TemplateLanguage, TemplateParams(s.cfg.Template, user.Username, details)...)

	resp, err := s.sender.SendTemplate(ctx, w.OwnerPhone, tpl)
	if err != nil {
		s.cfg.Log.Error("Failed to notify owner",
			"user_id", user.ID,
			"template", w.TemplateName,
			"error", err,
		)
		n.Status = model.NotificationFailed
		n.Error = err.Error()
		return n
	}

	n.Status = model.NotificationSent
	n.MessageID = resp.MessageID()
	s.cfg.Log.Info("Owner notified", "user_id", user.ID, "message_id", n.MessageID)
	return n
}

func (s *quoteService) publishRequested(ctx context.Context, user *model.User, quote *model.Quote) {
	if s.publisher == nil {
		return
	}

	msg, err := kafka.NewMessage().
		WithKey(user.Phone).
		WithValue(model.NewQuoteRequestedEvent(user, quote, locale.InferTimezoneFromPhone(user.Phone))).
		WithEventType(kafka.EventTypeQuoteRequested).
		WithSchemaVersion(kafka.SchemaVersionV1).
		WithCorrelationID(middleware.RequestID(ctx)).
		WithSource(eventSource).
		Build()
	if err != nil {
		s.cfg.Log.Error("Failed to build quote event", "quote_id", quote.ID, "error", err)
		return
	}

	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish quote event", "quote_id", quote.ID, "error", err)
	}
}

func (s *quoteService) GetByID(ctx context.Context, id string) (*model.Quote, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Quote ID cannot be empty")
	}

	q, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, quoteserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Quote", id)
		}
		if errors.Is(err, quoteserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid quote ID format")
		}
		s.cfg.Log.Error("Failed to get quote by ID",
			"quote_id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve quote", err)
	}

	return q, nil
}

func (s *quoteService) GetAll(ctx context.Context, phone string, limit int, offset int64) ([]*model.Quote, int64, error) {
	limit = httputil.NormalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	var userID string
	if phone != "" {
		normalized := sanitizer.NormalizePhone(phone, s.regions()...)
		if normalized == "" {
			return nil, 0, apperrors.InvalidInput("Invalid phone number")
		}
		u, err := s.repo.FindUserByPhone(ctx, normalized)
		if err != nil {
			if errors.Is(err, quoteserrors.ErrUserNotFound) {
				return []*model.Quote{}, 0, nil
			}
			s.cfg.Log.Error("Failed to find user", "phone", sanitizer.MaskPhone(normalized), "error", err)
			return nil, 0, apperrors.Internal("Failed to retrieve quotes", err)
		}
		userID = u.ID
	}

	var count int64
	var quotes []*model.Quote
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, userID)
		if err != nil {
			s.cfg.Log.Error("Failed to count quotes", "error", err)
			errCount = apperrors.Internal("Failed to count quotes", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		quotes, err = s.repo.FindAll(ctx, userID, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to get quotes",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve quotes", err)
		}
	}()
	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	if quotes == nil {
		quotes = []*model.Quote{}
	}

	return quotes, count, nil
}

// RecordDeliveryStatus applies a webhook status to the quote whose owner
// alert has messageID. Unknown messages and stale statuses are ignored.
func (s *quoteService) RecordDeliveryStatus(ctx context.Context, messageID string, status model.NotificationStatus, at time.Time) error {
	if messageID == "" || !status.Valid() {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid delivery status %q for message %q", status, messageID))
	}

	q, err := s.repo.FindByMessageID(ctx, messageID)
	if err != nil {
		if errors.Is(err, quoteserrors.ErrNotFound) {
			s.cfg.Log.Debug("Delivery status for unknown message", "message_id", messageID, "status", status)
			return nil
		}
		return apperrors.Internal("Failed to look up notification", err)
	}

	if !status.Supersedes(q.Notification.Status) {
		s.cfg.Log.Debug("Ignoring stale delivery status",
			"quote_id", q.ID,
			"current", q.Notification.Status,
			"status", status,
		)
		return nil
	}

	n := q.Notification
	n.Status = status
	n.UpdatedAt = at
	if err := s.repo.UpdateNotification(ctx, q.ID, n); err != nil {
		return apperrors.Internal("Failed to record delivery status", err)
	}

	s.cfg.Log.Info("Delivery status recorded", "quote_id", q.ID, "message_id", messageID, "status", status)
	return nil
}

func (s *quoteService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
