package firestore

import (
	"context"
	"errors"

	domain "github.com/greengate/backoffice/internal/domain"
	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
)

// ProductRepository reads product capacity and stock data from Firestore.
type ProductRepository struct {
	products *pfirestore.BaseRepository[domain.Product]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		products: pfirestore.NewBaseRepository[domain.Product](provider, productsCollection),
	}, nil
}

// GetByIDs batch-fetches the requested products. Missing ids are simply
// absent from the returned map; the caller decides how to treat them.
func (r *ProductRepository) GetByIDs(ctx context.Context, productIDs []string) (map[string]domain.Product, error) {
	docs, err := r.products.GetAll(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	products := make(map[string]domain.Product, len(docs))
	for _, doc := range docs {
		product := doc.Data
		product.ID = doc.ID
		products[doc.ID] = product
	}
	return products, nil
}
