package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clearsight/pos-engine/internal/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection("cart_sessions"),
	}
}

// cartDoc and lineItemDoc are the storage shapes. Prices are kept as decimal
// strings because decimal.Decimal has no BSON representation of its own.
type cartDoc struct {
	SessionID string        `bson:"session_id"`
	StoreID   string        `bson:"store_id,omitempty"`
	Currency  string        `bson:"currency"`
	Items     []lineItemDoc `bson:"items"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type lineItemDoc struct {
	ProductID   string    `bson:"product_id"`
	ProductName string    `bson:"product_name"`
	UnitPrice   string    `bson:"unit_price"`
	Quantity    int       `bson:"quantity"`
	Category    string    `bson:"category,omitempty"`
	AddedAt     time.Time `bson:"added_at"`
}

func (m *mongoRepository) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	var doc cartDoc

	filter := bson.M{"session_id": sessionID}
	err := m.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return docToCart(doc)
}

func (m *mongoRepository) UpsertCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	filter := bson.M{"session_id": cart.SessionID}
	update := bson.M{"$set": cartToDoc(cart)}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	return nil
}

func (m *mongoRepository) DeleteCart(ctx context.Context, sessionID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// abandoned sessions expire after a day
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(24 * 60 * 60),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

func cartToDoc(cart *domain.Cart) cartDoc {
	items := make([]lineItemDoc, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = lineItemDoc{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.String(),
			Quantity:    item.Quantity,
			Category:    item.Category,
			AddedAt:     item.AddedAt,
		}
	}
	return cartDoc{
		SessionID: cart.SessionID,
		StoreID:   cart.StoreID,
		Currency:  cart.Currency,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func docToCart(doc cartDoc) (*domain.Cart, error) {
	items := make([]domain.LineItem, len(doc.Items))
	for i, item := range doc.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("unit_price %q is not a valid decimal: %w", item.UnitPrice, err)
		}
		items[i] = domain.LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   price,
			Quantity:    item.Quantity,
			Category:    item.Category,
			AddedAt:     item.AddedAt,
		}
	}
	return &domain.Cart{
		SessionID: doc.SessionID,
		StoreID:   doc.StoreID,
		Currency:  doc.Currency,
		Items:     items,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}
