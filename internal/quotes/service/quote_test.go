package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	quoteserrors "autoquote/internal/quotes/errors"
	"autoquote/internal/quotes/validator"
	"autoquote/pkg/config"
	mongotx "autoquote/pkg/db/mongo"
	apperrors "autoquote/pkg/errors"
	"autoquote/pkg/kafka"
	"autoquote/pkg/logger"
	"autoquote/pkg/model"
	"autoquote/pkg/whatsapp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	upsertUserFunc         func(ctx context.Context, u *model.User) error
	findUserByPhoneFunc    func(ctx context.Context, phone string) (*model.User, error)
	createFunc             func(ctx context.Context, q *model.Quote) error
	findByIDFunc           func(ctx context.Context, id string) (*model.Quote, error)
	findByMessageIDFunc    func(ctx context.Context, messageID string) (*model.Quote, error)
	findAllFunc            func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Quote, error)
	countFunc              func(ctx context.Context, userID string) (int64, error)
	updateNotificationFunc func(ctx context.Context, id string, n model.Notification) error
	transactionFunc        func(ctx context.Context, fn mongotx.TransactionFunc) error
}

func (m *mockRepository) UpsertUser(ctx context.Context, u *model.User) error {
	if m.upsertUserFunc != nil {
		return m.upsertUserFunc(ctx, u)
	}
	u.ID = "user-1"
	return nil
}

func (m *mockRepository) FindUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	if m.findUserByPhoneFunc != nil {
		return m.findUserByPhoneFunc(ctx, phone)
	}
	return nil, quoteserrors.ErrUserNotFound
}

func (m *mockRepository) Create(ctx context.Context, q *model.Quote) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, q)
	}
	q.ID = "quote-1"
	return nil
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, quoteserrors.ErrNotFound
}

func (m *mockRepository) FindByMessageID(ctx context.Context, messageID string) (*model.Quote, error) {
	if m.findByMessageIDFunc != nil {
		return m.findByMessageIDFunc(ctx, messageID)
	}
	return nil, quoteserrors.ErrNotFound
}

func (m *mockRepository) FindAll(ctx context.Context, userID string, limit int, offset int64) ([]*model.Quote, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockRepository) Count(ctx context.Context, userID string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockRepository) UpdateNotification(ctx context.Context, id string, n model.Notification) error {
	if m.updateNotificationFunc != nil {
		return m.updateNotificationFunc(ctx, id, n)
	}
	return nil
}

func (m *mockRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	if m.transactionFunc != nil {
		return m.transactionFunc(ctx, fn)
	}
	return fn(ctx)
}

func (m *mockRepository) Ping(ctx context.Context) error {
	return nil
}

type mockSender struct {
	mu    sync.Mutex
	calls []sentTemplate
	resp  *whatsapp.SendResponse
	err   error
}

type sentTemplate struct {
	to  string
	tpl whatsapp.Template
}

func (m *mockSender) SendTemplate(ctx context.Context, to string, tpl whatsapp.Template) (*whatsapp.SendResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, sentTemplate{to: to, tpl: tpl})
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type mockPublisher struct {
	messages []kafka.Message
	err      error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                logger.Discard(),
		PhoneDefaultRegion: "PT",
		WhatsApp: config.WhatsAppConfig{
			Token:            "token",
			PhoneNumberID:    "1234567890",
			OwnerPhone:       "+351910000000",
			TemplateName:     "info_update2",
			TemplateLanguage: "pt_PT",
		},
		Template: config.TemplateConfig{
			NameMaxLen:    200,
			DetailsMaxLen: 1000,
			Separator:     " | ",
			DefaultName:   "Cliente",
		},
	}
}

func sentResponse(id string) *whatsapp.SendResponse {
	return &whatsapp.SendResponse{Messages: []whatsapp.SentMessage{{ID: id}}}
}

func newTestService(repo *mockRepository, sender Sender, publisher EventPublisher, cfg *config.Config) *quoteService {
	svc := NewQuoteService(repo, validator.NewQuoteValidator(cfg.Log), sender, publisher, cfg).(*quoteService)
	svc.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validRequest() *model.QuoteRequest {
	return &model.QuoteRequest{
		Username:     "  Ana   Silva ",
		Phone:        "912 345 678",
		CarInfo:      "  Honda Civic  \r\n\r\n 5 portas ",
		Condition:    "usado",
		Displacement: "1600",
		Year:         "2010",
	}
}

func TestBuildDetails(t *testing.T) {
	q := &model.Quote{CarInfo: "Civic", Condition: "usado", Year: "2010"}

	got := BuildDetails(q, "+351912345678")

	want := "Carro: Civic\n" +
		"Condição: usado\n" +
		"Cor: não especificada\n" +
		"Cilindrada: não especificada\n" +
		"Ano: 2010\n" +
		"Combustível: não especificado\n" +
		"Contacto: +351912345678"
	assert.Equal(t, want, got)
}

func TestTemplateParams(t *testing.T) {
	tc := testConfig().Template

	params := TemplateParams(tc, "", "Carro: Civic\nCor: azul")
	assert.Equal(t, []string{"Cliente", "Carro: Civic | Cor: azul"}, params)

	params = TemplateParams(tc, "Ana\tSilva", strings.Repeat("x", 1500))
	assert.Equal(t, "Ana Silva", params[0])
	assert.Len(t, []rune(params[1]), 1000)
	assert.True(t, strings.HasSuffix(params[1], "..."))
}

func TestQuoteService_Submit(t *testing.T) {
	var (
		storedUser  *model.User
		storedQuote *model.Quote
		recorded    model.Notification
	)
	repo := &mockRepository{
		upsertUserFunc: func(ctx context.Context, u *model.User) error {
			u.ID = "user-1"
			storedUser = u
			return nil
		},
		createFunc: func(ctx context.Context, q *model.Quote) error {
			q.ID = "quote-1"
			storedQuote = q
			return nil
		},
		updateNotificationFunc: func(ctx context.Context, id string, n model.Notification) error {
			assert.Equal(t, "quote-1", id)
			recorded = n
			return nil
		},
	}
	sender := &mockSender{resp: sentResponse("wamid.ABC")}
	publisher := &mockPublisher{}
	svc := newTestService(repo, sender, publisher, testConfig())

	sub, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "+351912345678", storedUser.Phone)
	assert.Equal(t, "Ana Silva", storedUser.Username)
	assert.Equal(t, "PT", storedUser.Country)
	assert.Equal(t, "user-1", storedQuote.UserID)
	assert.Equal(t, "Honda Civic\n5 portas", storedQuote.CarInfo)

	wantDetails := "Carro: Honda Civic\n5 portas\n" +
		"Condição: usado\n" +
		"Cor: não especificada\n" +
		"Cilindrada: 1600\n" +
		"Ano: 2010\n" +
		"Combustível: não especificado\n" +
		"Contacto: +351912345678"
	assert.Equal(t, wantDetails, sub.Details)

	require.Len(t, sender.calls, 1)
	call := sender.calls[0]
	assert.Equal(t, "+351910000000", call.to)
	assert.Equal(t, "info_update2", call.tpl.Name)
	assert.Equal(t, "pt_PT", call.tpl.Language.Code)
	require.Len(t, call.tpl.Components, 1)
	params := call.tpl.Components[0].Parameters
	require.Len(t, params, 2)
	assert.Equal(t, "Ana Silva", params[0].Text)
	assert.Equal(t, "Carro: Honda Civic | 5 portas | Condição: usado | Cor: não especificada | "+
		"Cilindrada: 1600 | Ano: 2010 | Combustível: não especificado | Contacto: +351912345678", params[1].Text)

	assert.Equal(t, model.NotificationSent, recorded.Status)
	assert.Equal(t, "wamid.ABC", recorded.MessageID)
	assert.Equal(t, model.NotificationSent, sub.Quote.Notification.Status)

	require.Len(t, publisher.messages, 1)
	msg := publisher.messages[0]
	assert.Equal(t, "+351912345678", msg.Key)
	assert.Equal(t, kafka.EventTypeQuoteRequested, msg.GetEventType())
	var event model.QuoteRequestedEvent
	require.NoError(t, msg.DecodeValue(&event))
	assert.Equal(t, "quote-1", event.QuoteID)
	assert.Equal(t, model.NotificationSent, event.NotificationStatus)
	assert.Equal(t, "Europe/Lisbon", event.Timezone)
}

func TestQuoteService_Submit_MissingRequired(t *testing.T) {
	tests := []struct {
		name string
		req  *model.QuoteRequest
	}{
		{name: "no phone", req: &model.QuoteRequest{CarInfo: "Civic"}},
		{name: "blank phone", req: &model.QuoteRequest{Phone: "   ", CarInfo: "Civic"}},
		{name: "no car info", req: &model.QuoteRequest{Phone: "+351912345678"}},
		{name: "only line breaks", req: &model.QuoteRequest{Phone: "+351912345678", CarInfo: "\r\n\t\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				transactionFunc: func(ctx context.Context, fn mongotx.TransactionFunc) error {
					t.Fatal("repository must not be called")
					return nil
				},
			}
			sender := &mockSender{}
			svc := newTestService(repo, sender, nil, testConfig())

			_, err := svc.Submit(context.Background(), tt.req)

			appErr := apperrors.AsAppError(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperrors.CodeValidation, appErr.Code)
			assert.Equal(t, MsgMissingRequired, appErr.Message)
			assert.Empty(t, sender.calls)
		})
	}
}

func TestQuoteService_Submit_InvalidFields(t *testing.T) {
	svc := newTestService(&mockRepository{}, &mockSender{}, nil, testConfig())

	req := validRequest()
	req.Year = "dois mil"

	_, err := svc.Submit(context.Background(), req)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, 422, appErr.StatusCode())
	assert.Contains(t, appErr.Details, "fields")
}

func TestQuoteService_Submit_NotificationOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		sender     Sender
		mutateCfg  func(c *config.Config)
		wantStatus model.NotificationStatus
		wantError  string
	}{
		{
			name:       "send fails",
			sender:     &mockSender{err: &whatsapp.APIError{StatusCode: 400, Message: "Template name does not exist"}},
			wantStatus: model.NotificationFailed,
			wantError:  "Template name does not exist",
		},
		{
			name:       "no sender",
			sender:     nil,
			wantStatus: model.NotificationDisabled,
		},
		{
			name:       "credentials missing",
			sender:     &mockSender{resp: sentResponse("wamid.X")},
			mutateCfg:  func(c *config.Config) { c.WhatsApp.Token = "" },
			wantStatus: model.NotificationDisabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutateCfg != nil {
				tt.mutateCfg(cfg)
			}

			var recorded model.Notification
			repo := &mockRepository{
				updateNotificationFunc: func(ctx context.Context, id string, n model.Notification) error {
					recorded = n
					return nil
				},
			}
			svc := newTestService(repo, tt.sender, nil, cfg)

			sub, err := svc.Submit(context.Background(), validRequest())
			require.NoError(t, err, "a notification problem never fails the submission")

			assert.Equal(t, tt.wantStatus, recorded.Status)
			assert.Equal(t, tt.wantStatus, sub.Quote.Notification.Status)
			if tt.wantError != "" {
				assert.Contains(t, recorded.Error, tt.wantError)
			}
		})
	}
}

func TestQuoteService_Submit_StoreFailure(t *testing.T) {
	repo := &mockRepository{
		createFunc: func(ctx context.Context, q *model.Quote) error {
			return errors.New("disk full")
		},
	}
	sender := &mockSender{}
	svc := newTestService(repo, sender, nil, testConfig())

	_, err := svc.Submit(context.Background(), validRequest())

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInternal, appErr.Code)
	assert.Empty(t, sender.calls, "owner is not notified about unsaved quotes")
}

func TestQuoteService_Submit_PublishFailureIgnored(t *testing.T) {
	publisher := &mockPublisher{err: errors.New("broker down")}
	svc := newTestService(&mockRepository{}, &mockSender{resp: sentResponse("wamid.1")}, publisher, testConfig())

	_, err := svc.Submit(context.Background(), validRequest())
	assert.NoError(t, err)
	assert.Len(t, publisher.messages, 1)
}

func TestQuoteService_GetByID(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		repoErr  error
		wantCode string
	}{
		{name: "found", id: "quote-1"},
		{name: "empty id", id: "", wantCode: apperrors.CodeInvalidInput},
		{name: "not found", id: "quote-2", repoErr: quoteserrors.ErrNotFound, wantCode: apperrors.CodeNotFound},
		{name: "invalid id", id: "bad", repoErr: quoteserrors.ErrInvalidID, wantCode: apperrors.CodeInvalidInput},
		{name: "store error", id: "quote-3", repoErr: errors.New("timeout"), wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Quote, error) {
					if tt.repoErr != nil {
						return nil, tt.repoErr
					}
					return &model.Quote{ID: id}, nil
				},
			}
			svc := newTestService(repo, nil, nil, testConfig())

			q, err := svc.GetByID(context.Background(), tt.id)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.id, q.ID)
				return
			}
			assert.Equal(t, tt.wantCode, apperrors.AsAppError(err).Code)
		})
	}
}

func TestQuoteService_GetAll(t *testing.T) {
	t.Run("filters by normalized phone", func(t *testing.T) {
		repo := &mockRepository{
			findUserByPhoneFunc: func(ctx context.Context, phone string) (*model.User, error) {
				assert.Equal(t, "+351912345678", phone)
				return &model.User{ID: "user-1", Phone: phone}, nil
			},
			findAllFunc: func(ctx context.Context, userID string, limit int, offset int64) ([]*model.Quote, error) {
				assert.Equal(t, "user-1", userID)
				assert.Equal(t, 100, limit)
				assert.Equal(t, int64(0), offset)
				return []*model.Quote{{ID: "quote-1"}}, nil
			},
			countFunc: func(ctx context.Context, userID string) (int64, error) {
				return 1, nil
			},
		}
		svc := newTestService(repo, nil, nil, testConfig())

		quotes, total, err := svc.GetAll(context.Background(), "912345678", 500, -3)
		require.NoError(t, err)
		assert.Len(t, quotes, 1)
		assert.Equal(t, int64(1), total)
	})

	t.Run("unknown requester has no quotes", func(t *testing.T) {
		svc := newTestService(&mockRepository{}, nil, nil, testConfig())

		quotes, total, err := svc.GetAll(context.Background(), "+351912345678", 10, 0)
		require.NoError(t, err)
		assert.Empty(t, quotes)
		assert.Zero(t, total)
	})

	t.Run("invalid phone", func(t *testing.T) {
		svc := newTestService(&mockRepository{}, nil, nil, testConfig())

		_, _, err := svc.GetAll(context.Background(), "abc", 10, 0)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
	})

	t.Run("count failure", func(t *testing.T) {
		repo := &mockRepository{
			countFunc: func(ctx context.Context, userID string) (int64, error) {
				return 0, errors.New("boom")
			},
		}
		svc := newTestService(repo, nil, nil, testConfig())

		_, _, err := svc.GetAll(context.Background(), "", 10, 0)
		assert.Equal(t, apperrors.CodeInternal, apperrors.AsAppError(err).Code)
	})
}

func TestQuoteService_RecordDeliveryStatus(t *testing.T) {
	at := time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		current    model.NotificationStatus
		status     model.NotificationStatus
		found      bool
		wantUpdate bool
	}{
		{name: "sent to delivered", current: model.NotificationSent, status: model.NotificationDelivered, found: true, wantUpdate: true},
		{name: "delivered to read", current: model.NotificationDelivered, status: model.NotificationRead, found: true, wantUpdate: true},
		{name: "late delivered after read", current: model.NotificationRead, status: model.NotificationDelivered, found: true},
		{name: "sent to failed", current: model.NotificationSent, status: model.NotificationFailed, found: true, wantUpdate: true},
		{name: "unknown message", status: model.NotificationDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var updated *model.Notification
			repo := &mockRepository{
				findByMessageIDFunc: func(ctx context.Context, messageID string) (*model.Quote, error) {
					if !tt.found {
						return nil, quoteserrors.ErrNotFound
					}
					return &model.Quote{ID: "quote-1", Notification: model.Notification{Status: tt.current, MessageID: messageID}}, nil
				},
				updateNotificationFunc: func(ctx context.Context, id string, n model.Notification) error {
					updated = &n
					return nil
				},
			}
			svc := newTestService(repo, nil, nil, testConfig())

			err := svc.RecordDeliveryStatus(context.Background(), "wamid.1", tt.status, at)
			require.NoError(t, err)

			if !tt.wantUpdate {
				assert.Nil(t, updated)
				return
			}
			require.NotNil(t, updated)
			assert.Equal(t, tt.status, updated.Status)
			assert.Equal(t, "wamid.1", updated.MessageID)
			assert.Equal(t, at, updated.UpdatedAt)
		})
	}

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newTestService(&mockRepository{}, nil, nil, testConfig())
		err := svc.RecordDeliveryStatus(context.Background(), "wamid.1", "deleted", at)
		assert.Equal(t, apperrors.CodeInvalidInput, apperrors.AsAppError(err).Code)
	})
}
