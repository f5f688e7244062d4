// Package mongostore implements the document storage backend for products and
// farms on MongoDB. Records are stored as documents keyed by ObjectID; a farm
// keeps an array of references to its products and each product references its
// farm.
//
// Schema validation runs in this package before every insert or replace, so
// callers see the same *domain.ValidationError as with the relational backend.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/tbourn/go-farmstand/internal/domain"
)

const (
	productsCollection = "products"
	farmsCollection    = "farms"
)

// Store is a MongoDB-backed catalog store. It is safe for concurrent use; the
// driver's connection pool is shared by all callers.
type Store struct {
	client   *mongo.Client
	products *mongo.Collection
	farms    *mongo.Collection
}

// Connect dials uri, verifies the primary answers, and returns a Store bound
// to database.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	return &Store{
		client:   client,
		products: db.Collection(productsCollection),
		farms:    db.Collection(farmsCollection),
	}, nil
}

// Ping checks that the primary answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Reset drops both collections.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.products.Drop(ctx); err != nil {
		return err
	}
	return s.farms.Drop(ctx)
}

type productDoc struct {
	ID        primitive.ObjectID  `bson:"_id"`
	Name      string              `bson:"name"`
	Price     float64             `bson:"price"`
	Category  string              `bson:"category"`
	Farm      *primitive.ObjectID `bson:"farm,omitempty"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

type farmDoc struct {
	ID        primitive.ObjectID   `bson:"_id"`
	Name      string               `bson:"name"`
	City      string               `bson:"city,omitempty"`
	Email     string               `bson:"email"`
	Products  []primitive.ObjectID `bson:"products"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func (d productDoc) toDomain() domain.Product {
	p := domain.Product{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Price:     d.Price,
		Category:  d.Category,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Farm != nil {
		id := d.Farm.Hex()
		p.FarmID = &id
	}
	return p
}

func productToDoc(p *domain.Product) (productDoc, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return productDoc{}, fmt.Errorf("product id %q: %w", p.ID, err)
	}
	d := productDoc{
		ID:        oid,
		Name:      p.Name,
		Price:     p.Price,
		Category:  p.Category,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.FarmID != nil {
		fid, err := primitive.ObjectIDFromHex(*p.FarmID)
		if err != nil {
			return productDoc{}, fmt.Errorf("farm id %q: %w", *p.FarmID, err)
		}
		d.Farm = &fid
	}
	return d, nil
}

func (d farmDoc) toDomain() domain.Farm {
	return domain.Farm{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		City:      d.City,
		Email:     d.Email,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// objectID parses id; malformed ids cannot match any document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.ErrNotFound
	}
	return err
}

var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
