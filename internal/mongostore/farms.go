package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-farmstand/internal/domain"
)

// ListFarms returns all farms in insertion order, without their products.
func (s *Store) ListFarms(ctx context.Context) ([]domain.Farm, error) {
	cur, err := s.farms.Find(ctx, bson.M{}, byID)
	if err != nil {
		return nil, err
	}
	var docs []farmDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Farm, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// GetFarm fetches a farm by id and populates its product references.
func (s *Store) GetFarm(ctx context.Context, id string) (*domain.Farm, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	var d farmDoc
	if err := s.farms.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	f := d.toDomain()
	if len(d.Products) == 0 {
		return &f, nil
	}

	cur, err := s.products.Find(ctx, productIDs(d.Products), byID)
	if err != nil {
		return nil, err
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	f.Products = make([]domain.Product, 0, len(docs))
	for _, pd := range docs {
		f.Products = append(f.Products, pd.toDomain())
	}
	return &f, nil
}

// CreateFarm validates and inserts f with an empty product collection.
func (s *Store) CreateFarm(ctx context.Context, f *domain.Farm) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.ID == "" {
		f.ID = domain.NewID()
	}
	oid, err := primitive.ObjectIDFromHex(f.ID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	_, err = s.farms.InsertOne(ctx, farmDoc{
		ID:        oid,
		Name:      f.Name,
		City:      f.City,
		Email:     f.Email,
		Products:  []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}

// AttachProduct appends productID to the farm's products array.
func (s *Store) AttachProduct(ctx context.Context, farmID, productID string) error {
	fid, ok := objectID(farmID)
	if !ok {
		return domain.ErrNotFound
	}
	pid, ok := objectID(productID)
	if !ok {
		return domain.ErrNotFound
	}
	res, err := s.farms.UpdateOne(ctx,
		bson.M{"_id": fid},
		bson.M{
			"$addToSet": bson.M{"products": pid},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteFarm removes a farm and every product it references. Deleting an
// absent id is not an error.
func (s *Store) DeleteFarm(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return nil
	}
	var d farmDoc
	err := s.farms.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d)
	if err != nil {
		return ignoreNotFound(err)
	}
	if len(d.Products) == 0 {
		return nil
	}
	_, err = s.products.DeleteMany(ctx, productIDs(d.Products))
	return err
}

func ignoreNotFound(err error) error {
	if notFound(err) == domain.ErrNotFound {
		return nil
	}
	return err
}
