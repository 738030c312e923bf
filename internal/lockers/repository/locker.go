package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	lockerserrors "yellowbox/internal/lockers/errors"
	"yellowbox/pkg/config"
	"yellowbox/pkg/model"
)

const (
	CollectionName = "Lockers"
)

type LockerRepository interface {
	Create(ctx context.Context, locker *model.Locker) error
	FindByID(ctx context.Context, id string) (*model.Locker, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Locker, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id string, status string) error
	// UpdateStatusIf applies the status only when the locker currently holds
	// expected, in a single atomic document update.
	UpdateStatusIf(ctx context.Context, id string, expected, status string) error
}

type mongoLockerRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockerRepository(cfg *config.Config) LockerRepository {
	db := cfg.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoLockerRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoLockerRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoLockerRepository) Create(ctx context.Context, locker *model.Locker) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	locker.CreatedAt = now
	locker.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, locker)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return lockerserrors.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create locker: %w", err)
	}
	return nil
}

func (r *mongoLockerRepository) FindByID(ctx context.Context, id string) (*model.Locker, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var locker model.Locker
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&locker)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lockerserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find locker: %w", err)
	}

	return &locker, nil
}

func (r *mongoLockerRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Locker, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find lockers: %w", err)
	}
	defer cursor.Close(ctx)

	var lockers []*model.Locker
	if err = cursor.All(ctx, &lockers); err != nil {
		return nil, fmt.Errorf("failed to decode lockers: %w", err)
	}

	return lockers, nil
}

func (r *mongoLockerRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count lockers: %w", err)
	}
	return count, nil
}

func (r *mongoLockerRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update locker status: %w", err)
	}
	if result.MatchedCount == 0 {
		return lockerserrors.ErrNotFound
	}
	return nil
}

func (r *mongoLockerRepository) UpdateStatusIf(ctx context.Context, id string, expected, status string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": expected}
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"updated_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	err := r.collection.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Either the locker is missing or its status changed under us.
			return lockerserrors.ErrStatusMismatch
		}
		return fmt.Errorf("failed to update locker status conditionally: %w", err)
	}
	return nil
}
