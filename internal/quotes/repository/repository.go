package repository

import (
	"context"

	mongotx "autoquote/pkg/db/mongo"
	"autoquote/pkg/model"
)

// QuoteRepository stores requesters and their quotes. Both drivers join the
// transaction carried by ctx when called inside ExecuteTransaction.
type QuoteRepository interface {
	// UpsertUser creates the user owning u.Phone or returns the existing one.
	// A non-empty u.Username replaces the stored name. u is filled with the
	// stored record.
	UpsertUser(ctx context.Context, u *model.User) error
	FindUserByPhone(ctx context.Context, phone string) (*model.User, error)

	Create(ctx context.Context, q *model.Quote) error
	FindByID(ctx context.Context, id string) (*model.Quote, error)
	FindByMessageID(ctx context.Context, messageID string) (*model.Quote, error)
	// FindAll lists quotes newest first. An empty userID lists every quote.
	FindAll(ctx context.Context, userID string, limit int, offset int64) ([]*model.Quote, error)
	Count(ctx context.Context, userID string) (int64, error)
	UpdateNotification(ctx context.Context, id string, n model.Notification) error

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
	Ping(ctx context.Context) error
}
