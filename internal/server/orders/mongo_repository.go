package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/remarkly/backend/internal/shared"
)

const ordersCollection = "orders"

// compile-time interface check
var _ Repository = (*MongoRepository)(nil)

type orderDoc struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Amount         string    `bson:"amount"`
	CreditsGranted int64     `bson:"credits_granted"`
	Status         string    `bson:"status"`
	CreatedAt      time.Time `bson:"created_at"`
}

func (d *orderDoc) toOrder() *PendingOrder {
	return &PendingOrder{
		ID:             d.ID,
		Username:       d.Username,
		Amount:         d.Amount,
		CreditsGranted: d.CreditsGranted,
		Status:         Status(d.Status),
		CreatedAt:      d.CreatedAt,
	}
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection(ordersCollection)}
}

func (r *MongoRepository) Create(ctx context.Context, order *PendingOrder) error {

	doc := &orderDoc{
		ID:             order.ID,
		Username:       order.Username,
		Amount:         order.Amount,
		CreditsGranted: order.CreditsGranted,
		Status:         string(order.Status),
		CreatedAt:      order.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now()
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("error inserting order: %w", err)
	}
	return nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*PendingOrder, error) {

	doc := &orderDoc{}
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, shared.ErrorOrderNotFound
		}
		return nil, fmt.Errorf("error querying order: %w", err)
	}

	return doc.toOrder(), nil
}

// MarkPaid performs the pending→paid transition with a conditional update,
// so exactly one caller wins even under duplicate notifications.
func (r *MongoRepository) MarkPaid(ctx context.Context, id string) (bool, error) {

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(StatusPending)},
		bson.M{"$set": bson.M{"status": string(StatusPaid)}})
	if err != nil {
		return false, fmt.Errorf("error updating order: %w", err)
	}

	if res.ModifiedCount > 0 {
		return true, nil
	}

	// Not transitioned: already paid, or the order never existed.
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MongoRepository) DeleteStalePending(ctx context.Context, cutoff time.Time) ([]string, error) {

	filter := bson.M{"status": string(StatusPending), "created_at": bson.M{"$lt": cutoff}}

	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error querying stale orders: %w", err)
	}

	var docs []orderDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error reading stale orders: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}

	if _, err := r.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}, "status": string(StatusPending)}); err != nil {
		return nil, fmt.Errorf("error deleting stale orders: %w", err)
	}

	return ids, nil
}
