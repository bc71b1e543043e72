// Package service implements the aggregate writer and reader for tax forms:
// validation, field-level authorization and atomic persistence of the whole
// case tree from a single nested document.
package service

import (
	"context"
	"time"

	"github.com/tax-gov/arrears/internal/shared/auth"
	"github.com/tax-gov/arrears/internal/shared/errors"
	"github.com/tax-gov/arrears/internal/shared/metrics"
	"github.com/tax-gov/arrears/internal/taxform/domain"
)

// Service coordinates validation, authorization and persistence. Timestamps
// are set here, never trusted from caller input.
type Service struct {
	repo domain.Repository
	now  func() time.Time
}

// New creates a form service.
func New(repo domain.Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Create validates and persists a new case tree from the document. Omitted
// descendants are created at their schema defaults so the stored tree is
// complete. Unauthorized fields reject the whole operation; nothing is
// persisted unless every step succeeds.
func (s *Service) Create(ctx context.Context, doc *domain.FormDocument, actor auth.Actor) (*domain.TaxForm, error) {
	if fields := domain.ValidateDocument(doc, true); fields != nil {
		metrics.RecordValidationFailure()
		return nil, errors.Validation(fields)
	}

	if denied := domain.DeniedFields(doc, actor.Role); denied != nil {
		metrics.RecordAuthorizationDecision(string(actor.Role), false)
		return nil, errors.Authorization(denied)
	}
	metrics.RecordAuthorizationDecision(string(actor.Role), true)

	f := domain.NewTaxForm()
	doc.ApplyTo(f)

	if f.Month == "" {
		f.Month = s.now().Format("200601")
	}

	now := s.now()
	f.CreatedBy = actor.ID
	f.CreatedAt = now
	f.UpdatedAt = now

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}

	metrics.RecordFormCreated(string(actor.Role))
	return f, nil
}

// Update merges the document into an existing case tree. Only entities and
// fields present in the document are touched; a present descendant that does
// not yet exist is created from defaults plus the provided fields. A present
// risk alert list replaces the stored collection whole, in input order. The
// update timestamp is refreshed on every successful update.
func (s *Service) Update(ctx context.Context, id int64, doc *domain.FormDocument, actor auth.Actor) (*domain.TaxForm, error) {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fields := domain.ValidateDocument(doc, false); fields != nil {
		metrics.RecordValidationFailure()
		return nil, errors.Validation(fields)
	}

	if denied := domain.DeniedFields(doc, actor.Role); denied != nil {
		metrics.RecordAuthorizationDecision(string(actor.Role), false)
		return nil, errors.Authorization(denied)
	}
	metrics.RecordAuthorizationDecision(string(actor.Role), true)

	doc.ApplyTo(f)
	f.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, f, doc.ReplacesAlerts()); err != nil {
		return nil, err
	}

	metrics.RecordFormUpdated()
	return f, nil
}

// Get returns the full case tree for the id. Any authenticated actor may read
// any case; listing-level visibility is handled by List.
func (s *Service) Get(ctx context.Context, id int64) (*domain.TaxForm, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes a case and its whole subtree.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List returns case summaries ordered by id ascending. Every authenticated
// actor sees every case: creation requires admin-only fields, so an
// owner-filtered listing would always be empty for regular users.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) ([]domain.FormSummary, int, error) {
	return s.repo.List(ctx, filter)
}
