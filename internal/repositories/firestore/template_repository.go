package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/greengate/backoffice/internal/domain"
	pfirestore "github.com/greengate/backoffice/internal/platform/firestore"
	"github.com/greengate/backoffice/internal/repositories"
)

const templatesCollection = "priceListTemplates"

// TemplateRepository implements repositories.TemplateRepository backed by Firestore.
type TemplateRepository struct {
	templates *pfirestore.BaseRepository[domain.PriceListTemplate]
}

// NewTemplateRepository constructs a Firestore-backed price-list template repository.
func NewTemplateRepository(provider *pfirestore.Provider) (*TemplateRepository, error) {
	if provider == nil {
		return nil, errors.New("template repository requires firestore provider")
	}
	return &TemplateRepository{
		templates: pfirestore.NewBaseRepository[domain.PriceListTemplate](provider, templatesCollection),
	}, nil
}

// Insert creates the template document.
func (r *TemplateRepository) Insert(ctx context.Context, template domain.PriceListTemplate) error {
	if strings.TrimSpace(template.ID) == "" {
		return errors.New("template insert: id is required")
	}
	_, err := r.templates.Create(ctx, template.ID, template)
	return err
}

// Update overwrites the template document.
func (r *TemplateRepository) Update(ctx context.Context, template domain.PriceListTemplate) error {
	if strings.TrimSpace(template.ID) == "" {
		return errors.New("template update: id is required")
	}
	_, err := r.templates.Set(ctx, template.ID, template)
	return err
}

// Delete removes the template document.
func (r *TemplateRepository) Delete(ctx context.Context, templateID string) error {
	return r.templates.Delete(ctx, templateID)
}

// FindByID fetches a template by document id.
func (r *TemplateRepository) FindByID(ctx context.Context, templateID string) (domain.PriceListTemplate, error) {
	doc, err := r.templates.Get(ctx, templateID)
	if err != nil {
		return domain.PriceListTemplate{}, err
	}
	template := doc.Data
	template.ID = doc.ID
	return template, nil
}

// List returns templates for the store, newest first.
func (r *TemplateRepository) List(ctx context.Context, filter repositories.TemplateListFilter) (domain.Page[domain.PriceListTemplate], error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	docs, err := r.templates.Query(ctx, func(query firestore.Query) firestore.Query {
		if storeID := strings.TrimSpace(filter.StoreID); storeID != "" {
			query = query.Where("storeId", "==", storeID)
		}
		query = query.OrderBy("createdAt", firestore.Desc)
		if offset := filter.Offset(); offset > 0 {
			query = query.Offset(offset)
		}
		return query.Limit(pageSize + 1)
	})
	if err != nil {
		return domain.Page[domain.PriceListTemplate]{}, err
	}

	page := domain.Page[domain.PriceListTemplate]{Items: make([]domain.PriceListTemplate, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			next := filter.Page + 1
			if filter.Page <= 0 {
				next = 2
			}
			page.NextPage = &next
			break
		}
		template := doc.Data
		template.ID = doc.ID
		page.Items = append(page.Items, template)
	}
	return page, nil
}
