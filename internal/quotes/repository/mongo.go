package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	quoteserrors "autoquote/internal/quotes/errors"
	"autoquote/pkg/config"
	mongotx "autoquote/pkg/db/mongo"
	"autoquote/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	UsersCollection  = "Users"
	QuotesCollection = "Quotes"
)

type mongoQuoteRepository struct {
	cfg       *config.Config
	db        *mongo.Database
	users     *mongo.Collection
	quotes    *mongo.Collection
	txManager mongotx.TransactionManager
}

func NewMongoQuoteRepository(cfg *config.Config) QuoteRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoQuoteRepository{
		cfg:       cfg,
		db:        db,
		users:     db.Collection(UsersCollection),
		quotes:    db.Collection(QuotesCollection),
		txManager: mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps ctx with a timeout unless it is a SessionContext, which
// cannot be wrapped without leaving the transaction.
func (r *mongoQuoteRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoQuoteRepository) UpsertUser(ctx context.Context, u *model.User) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	onInsert := bson.M{
		"phone":      u.Phone,
		"created_at": now,
	}
	if u.Country != "" {
		onInsert["country"] = u.Country
	}
	update := bson.M{"$setOnInsert": onInsert}
	if u.Username != "" {
		update["$set"] = bson.M{"username": u.Username}
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored model.User
	err := r.users.FindOneAndUpdate(ctx, bson.M{"phone": u.Phone}, update, opts).Decode(&stored)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	*u = stored
	return nil
}

func (r *mongoQuoteRepository) FindUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var u model.User
	err := r.users.FindOne(ctx, bson.M{"phone": phone}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", quoteserrors.ErrUserNotFound, phone)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

func (r *mongoQuoteRepository) Create(ctx context.Context, q *model.Quote) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	q.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if q.Notification.Status == "" {
		q.Notification.Status = model.NotificationPending
	}

	result, err := r.quotes.InsertOne(ctx, q)
	if err != nil {
		return fmt.Errorf("failed to create quote: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		q.ID = oid.Hex()
	}

	return nil
}

func (r *mongoQuoteRepository) FindByID(ctx context.Context, id string) (*model.Quote, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", quoteserrors.ErrInvalidID, id)
	}

	var q model.Quote
	err = r.quotes.FindOne(ctx, bson.M{"_id": objectID}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", quoteserrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to find quote: %w", err)
	}
	return &q, nil
}

func (r *mongoQuoteRepository) FindByMessageID(ctx context.Context, messageID string) (*model.Quote, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var q model.Quote
	err := r.quotes.FindOne(ctx, bson.M{"notification.message_id": messageID}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: message %s", quoteserrors.ErrNotFound, messageID)
		}
		return nil, fmt.Errorf("failed to find quote by message id: %w", err)
	}
	return &q, nil
}

func userFilter(userID string) bson.M {
	if userID == "" {
		return bson.M{}
	}
	return bson.M{"user_id": userID}
}

func (r *mongoQuoteRepository) FindAll(ctx context.Context, userID string, limit int, offset int64) ([]*model.Quote, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.quotes.Find(ctx, userFilter(userID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer cursor.Close(ctx)

	var quotes []*model.Quote
	if err = cursor.All(ctx, &quotes); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}

	return quotes, nil
}

func (r *mongoQuoteRepository) Count(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.quotes.CountDocuments(ctx, userFilter(userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}

func (r *mongoQuoteRepository) UpdateNotification(ctx context.Context, id string, n model.Notification) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", quoteserrors.ErrInvalidID, id)
	}

	result, err := r.quotes.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"notification": n}})
	if err != nil {
		return fmt.Errorf("failed to update quote notification: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", quoteserrors.ErrNotFound, id)
	}

	return nil
}

func (r *mongoQuoteRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoQuoteRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
