package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	quoteserrors "autoquote/internal/quotes/errors"
	mongotx "autoquote/pkg/db/mongo"
	"autoquote/pkg/db/postgres"
	"autoquote/pkg/model"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	usersTable  = "users"
	quotesTable = "quotes"
)

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	userColumns = []string{"id::text", "username", "phone", "country", "created_at"}

	quoteColumns = []string{
		"id::text", "user_id::text", "car_info", "condition", "color", "displacement", "year", "fuel",
		"notification_status", "notification_message_id", "notification_error", "notification_updated_at",
		"created_at",
	}
)

type postgresQuoteRepository struct {
	pool postgres.Pool
	tx   *postgres.TxManager
	now  func() time.Time
}

func NewPostgresQuoteRepository(pool postgres.Pool) QuoteRepository {
	return &postgresQuoteRepository{
		pool: pool,
		tx:   postgres.NewTxManager(pool),
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func (r *postgresQuoteRepository) q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, r.pool)
}

func (r *postgresQuoteRepository) UpsertUser(ctx context.Context, u *model.User) error {
	query, args, err := psql.Insert(usersTable).
		Columns("id", "username", "phone", "country", "created_at").
		Values(uuid.NewString(), u.Username, u.Phone, u.Country, r.now()).
		Suffix("ON CONFLICT (phone) DO UPDATE SET username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username)").
		Suffix("RETURNING id::text, username, phone, country, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user upsert: %w", err)
	}

	var stored model.User
	err = r.q(ctx).QueryRow(ctx, query, args...).
		Scan(&stored.ID, &stored.Username, &stored.Phone, &stored.Country, &stored.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	*u = stored
	return nil
}

func (r *postgresQuoteRepository) FindUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	query, args, err := psql.Select(userColumns...).
		From(usersTable).
		Where(sq.Eq{"phone": phone}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build user query: %w", err)
	}

	var u model.User
	err = r.q(ctx).QueryRow(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Phone, &u.Country, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", quoteserrors.ErrUserNotFound, phone)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *postgresQuoteRepository) Create(ctx context.Context, q *model.Quote) error {
	if _, err := uuid.Parse(q.UserID); err != nil {
		return fmt.Errorf("%w: user %s", quoteserrors.ErrInvalidID, q.UserID)
	}
	if q.Notification.Status == "" {
		q.Notification.Status = model.NotificationPending
	}

	id := uuid.NewString()
	createdAt := r.now()

	query, args, err := psql.Insert(quotesTable).
		Columns("id", "user_id", "car_info", "condition", "color", "displacement", "year", "fuel",
			"notification_status", "created_at").
		Values(id, q.UserID, q.CarInfo, q.Condition, q.Color, q.Displacement, q.Year, q.Fuel,
			string(q.Notification.Status), createdAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build quote insert: %w", err)
	}

	if _, err := r.q(ctx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}

	q.ID = id
	q.CreatedAt = createdAt
	return nil
}

func scanQuote(row pgx.Row) (*model.Quote, error) {
	var (
		q         model.Quote
		status    string
		updatedAt *time.Time
	)
	err := row.Scan(
		&q.ID, &q.UserID, &q.CarInfo, &q.Condition, &q.Color, &q.Displacement, &q.Year, &q.Fuel,
		&status, &q.Notification.MessageID, &q.Notification.Error, &updatedAt,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	q.Notification.Status = model.NotificationStatus(status)
	if updatedAt != nil {
		q.Notification.UpdatedAt = *updatedAt
	}
	return &q, nil
}

func (r *postgresQuoteRepository) findOne(ctx context.Context, where sq.Eq, notFound string) (*model.Quote, error) {
	query, args, err := psql.Select(quoteColumns...).
		From(quotesTable).
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quote query: %w", err)
	}

	q, err := scanQuote(r.q(ctx).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", quoteserrors.ErrNotFound, notFound)
		}
		return nil, fmt.Errorf("failed to find quote: %w", err)
	}
	return q, nil
}

func (r *postgresQuoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", quoteserrors.ErrInvalidID, id)
	}
	return r.findOne(ctx, sq.Eq{"id": id}, id)
}

func (r *postgresQuoteRepository) FindByMessageID(ctx context.Context, messageID string) (*model.Quote, error) {
	return r.findOne(ctx, sq.Eq{"notification_message_id": messageID}, "message "+messageID)
}

func (r *postgresQuoteRepository) FindAll(ctx context.Context, userID string, limit int, offset int64) ([]*model.Quote, error) {
	builder := psql.Select(quoteColumns...).
		From(quotesTable).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if userID != "" {
		builder = builder.Where(sq.Eq{"user_id": userID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build quotes query: %w", err)
	}

	rows, err := r.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []*model.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to decode quotes: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	return quotes, nil
}

func (r *postgresQuoteRepository) Count(ctx context.Context, userID string) (int64, error) {
	builder := psql.Select("COUNT(*)").From(quotesTable)
	if userID != "" {
		builder = builder.Where(sq.Eq{"user_id": userID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int64
	if err := r.q(ctx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}

func (r *postgresQuoteRepository) UpdateNotification(ctx context.Context, id string, n model.Notification) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", quoteserrors.ErrInvalidID, id)
	}

	query, args, err := psql.Update(quotesTable).
		Set("notification_status", string(n.Status)).
		Set("notification_message_id", n.MessageID).
		Set("notification_error", n.Error).
		Set("notification_updated_at", n.UpdatedAt).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build notification update: %w", err)
	}

	tag, err := r.q(ctx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quote notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", quoteserrors.ErrNotFound, id)
	}

	return nil
}

func (r *postgresQuoteRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.tx.RunInTx(ctx, fn)
}

func (r *postgresQuoteRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
