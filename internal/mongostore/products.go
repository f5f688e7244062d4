package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// ListProducts returns products in insertion order, filtered by category when
// category is non-empty.
func (s *Store) ListProducts(ctx context.Context, category string) ([]domain.Product, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = category
	}
	cur, err := s.products.Find(ctx, filter, byID)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// GetProduct fetches a product by id and populates its farm reference.
func (s *Store) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	var d productDoc
	if err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	p := d.toDomain()
	if d.Farm != nil {
		var fd farmDoc
		err := s.farms.FindOne(ctx, bson.M{"_id": *d.Farm}).Decode(&fd)
		switch {
		case err == nil:
			f := fd.toDomain()
			p.Farm = &f
		case notFound(err) != domain.ErrNotFound:
			return nil, err
		}
	}
	return &p, nil
}

// CreateProduct validates and inserts p, assigning a fresh id when p has none.
func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = domain.NewID()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	d, err := productToDoc(p)
	if err != nil {
		return err
	}
	_, err = s.products.InsertOne(ctx, d)
	return err
}

// SaveProduct validates the full record and replaces the stored document.
func (s *Store) SaveProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	d, err := productToDoc(p)
	if err != nil {
		return err
	}
	res, err := s.products.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product and its reference from the owning farm.
// Deleting an absent id is not an error.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	if _, err := s.products.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return err
	}
	_, err := s.farms.UpdateMany(ctx,
		bson.M{"products": oid},
		bson.M{"$pull": bson.M{"products": oid}},
	)
	return err
}

func productIDs(docs []primitive.ObjectID) bson.M {
	return bson.M{"_id": bson.M{"$in": docs}}
}
