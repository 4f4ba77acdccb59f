package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/remarkly/backend/internal/shared"
)

const usersCollection = "users"

// compile-time interface check
var _ Repository = (*MongoRepository)(nil)

// userDoc is the document shape stored in MongoDB. The username doubles as
// the document id, mirroring a one-record-per-user keyed collection.
type userDoc struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash []byte    `bson:"password_hash"`
	Email        string    `bson:"email,omitempty"`
	Credits      int64     `bson:"credits"`
	CreatedAt    time.Time `bson:"created_at"`
}

func (d *userDoc) toUser() *User {
	return &User{
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		Email:        d.Email,
		Credits:      d.Credits,
		CreatedAt:    d.CreatedAt,
	}
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(usersCollection)}
}

func (r *MongoRepository) Create(ctx context.Context, user *User) (*User, error) {

	doc := &userDoc{
		ID:           user.Username,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Email:        user.Email,
		Credits:      user.Credits,
		CreatedAt:    user.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	_, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, shared.ErrorUserExists
		}
		return nil, fmt.Errorf("error inserting user: %w", err)
	}

	return doc.toUser(), nil
}

func (r *MongoRepository) GetByUsername(ctx context.Context, username string) (*User, error) {

	doc := &userDoc{}
	err := r.col.FindOne(ctx, bson.M{"_id": username}).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrorNotFound
		}
		return nil, fmt.Errorf("error querying user: %w", err)
	}

	return doc.toUser(), nil
}

// AdjustCredits relies on a single conditional $inc so that concurrent
// adjustments for the same user serialize inside the database. For debits
// the filter requires a sufficient balance, which keeps credits from ever
// going negative.
func (r *MongoRepository) AdjustCredits(ctx context.Context, username string, delta int64) (int64, error) {

	filter := bson.M{"_id": username}
	if delta < 0 {
		filter["credits"] = bson.M{"$gte": -delta}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	doc := &userDoc{}
	err := r.col.FindOneAndUpdate(ctx, filter, bson.M{"$inc": bson.M{"credits": delta}}, opts).Decode(doc)
	if err == nil {
		return doc.Credits, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("error adjusting credits: %w", err)
	}

	// The filter did not match: either the user does not exist or the debit
	// would overdraw the balance. A second read tells the two apart.
	user, getErr := r.GetByUsername(ctx, username)
	if getErr != nil {
		return 0, getErr
	}

	return 0, &shared.InsufficientCreditsError{Required: -delta, Available: user.Credits}
}
