package services

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/greengate/backoffice/internal/domain"
	"github.com/greengate/backoffice/internal/repositories"
)

var (
	// ErrTemplateInvalidInput signals the caller provided invalid data.
	ErrTemplateInvalidInput = errors.New("template: invalid input")
	// ErrTemplateNotFound indicates the template could not be located.
	ErrTemplateNotFound = errors.New("template: not found")
)

var priceListMailBody = template.Must(template.New("priceList").Parse(`<h2>{{.Name}}</h2>
<table>
  <tr><th>Product</th><th>Price</th></tr>
{{- range .Rows}}
  <tr><td>{{.Name}}</td><td>{{printf "%.2f" .Price}}</td></tr>
{{- end}}
</table>
`))

// TemplateServiceDeps bundles collaborators required to construct the template service.
type TemplateServiceDeps struct {
	Templates   repositories.TemplateRepository
	Mail        MailPublisher
	Clock       func() time.Time
	IDGenerator func() string
}

type templateService struct {
	templates repositories.TemplateRepository
	mail      MailPublisher
	clock     func() time.Time
	newID     func() string
}

// NewTemplateService wires dependencies into a concrete TemplateService implementation.
func NewTemplateService(deps TemplateServiceDeps) (TemplateService, error) {
	if deps.Templates == nil {
		return nil, errors.New("template service: repository is required")
	}
	if deps.Mail == nil {
		return nil, errors.New("template service: mail publisher is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}

	return &templateService{
		templates: deps.Templates,
		mail:      deps.Mail,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID: idGen,
	}, nil
}

func (s *templateService) Create(ctx context.Context, cmd CreateTemplateCommand) (domain.PriceListTemplate, error) {
	storeID := strings.TrimSpace(cmd.Store.ID)
	if storeID == "" {
		return domain.PriceListTemplate{}, fmt.Errorf("%w: store is required", ErrTemplateInvalidInput)
	}
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.PriceListTemplate{}, fmt.Errorf("%w: name is required", ErrTemplateInvalidInput)
	}
	if err := validateRows(cmd.Rows); err != nil {
		return domain.PriceListTemplate{}, err
	}

	now := s.clock()
	tpl := domain.PriceListTemplate{
		ID:        "plt_" + s.newID(),
		StoreID:   storeID,
		Name:      name,
		Rows:      cloneRows(cmd.Rows),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.templates.Insert(ctx, tpl); err != nil {
		return domain.PriceListTemplate{}, s.mapRepositoryError(err)
	}
	return tpl, nil
}

func (s *templateService) Update(ctx context.Context, cmd UpdateTemplateCommand) (domain.PriceListTemplate, error) {
	templateID := strings.TrimSpace(cmd.TemplateID)
	if templateID == "" {
		return domain.PriceListTemplate{}, fmt.Errorf("%w: template id is required", ErrTemplateInvalidInput)
	}

	tpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return domain.PriceListTemplate{}, s.mapRepositoryError(err)
	}

	if name := strings.TrimSpace(cmd.Name); name != "" {
		tpl.Name = name
	}
	if cmd.Rows != nil {
		if err := validateRows(cmd.Rows); err != nil {
			return domain.PriceListTemplate{}, err
		}
		tpl.Rows = cloneRows(cmd.Rows)
	}
	tpl.UpdatedAt = s.clock()

	if err := s.templates.Update(ctx, tpl); err != nil {
		return domain.PriceListTemplate{}, s.mapRepositoryError(err)
	}
	return tpl, nil
}

func (s *templateService) Delete(ctx context.Context, templateID string) error {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return fmt.Errorf("%w: template id is required", ErrTemplateInvalidInput)
	}
	if err := s.templates.Delete(ctx, templateID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

func (s *templateService) Get(ctx context.Context, templateID string) (domain.PriceListTemplate, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return domain.PriceListTemplate{}, fmt.Errorf("%w: template id is required", ErrTemplateInvalidInput)
	}
	tpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return domain.PriceListTemplate{}, s.mapRepositoryError(err)
	}
	return tpl, nil
}

func (s *templateService) List(ctx context.Context, filter repositories.TemplateListFilter) (domain.Page[domain.PriceListTemplate], error) {
	page, err := s.templates.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.PriceListTemplate]{}, s.mapRepositoryError(err)
	}
	return page, nil
}

// Distribute renders the price list once and dispatches one mail per
// recipient. Failures are per-recipient; one bad address never blocks the
// rest of the batch.
func (s *templateService) Distribute(ctx context.Context, templateID string, recipients []string) ([]DistributionResult, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, fmt.Errorf("%w: template id is required", ErrTemplateInvalidInput)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: at least one recipient is required", ErrTemplateInvalidInput)
	}

	tpl, err := s.templates.FindByID(ctx, templateID)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}

	var body strings.Builder
	if err := priceListMailBody.Execute(&body, tpl); err != nil {
		return nil, fmt.Errorf("render price list %s: %w", tpl.ID, err)
	}
	subject := "Price list: " + tpl.Name

	results := make([]DistributionResult, 0, len(recipients))
	for _, recipient := range recipients {
		recipient = strings.TrimSpace(recipient)
		result := DistributionResult{Recipient: recipient}

		if recipient == "" {
			result.Error = "empty recipient"
			results = append(results, result)
			continue
		}

		messageID, err := s.mail.PublishMail(ctx, MailMessage{
			Recipient: recipient,
			Subject:   subject,
			HTMLBody:  body.String(),
		})
		if err != nil {
			result.Error = err.Error()
		} else {
			result.MessageID = messageID
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *templateService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %v", ErrTemplateNotFound, err)
	}
	return err
}

func validateRows(rows []domain.PriceListRow) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: at least one row is required", ErrTemplateInvalidInput)
	}
	for i, row := range rows {
		if strings.TrimSpace(row.ProductID) == "" {
			return fmt.Errorf("%w: row %d has no product id", ErrTemplateInvalidInput, i)
		}
		if row.Price < 0 {
			return fmt.Errorf("%w: row %d price must not be negative", ErrTemplateInvalidInput, i)
		}
	}
	return nil
}

func cloneRows(rows []domain.PriceListRow) []domain.PriceListRow {
	cloned := make([]domain.PriceListRow, len(rows))
	copy(cloned, rows)
	return cloned
}
