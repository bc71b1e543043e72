package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tax-gov/arrears/internal/shared/auth"
	"github.com/tax-gov/arrears/internal/shared/errors"
	"github.com/tax-gov/arrears/internal/taxform/domain"
)

// fakeRepository is an in-memory repository with fault injection. Stored
// forms are deep-copied on the way in and out so tests observe only what was
// committed.
type fakeRepository struct {
	forms  map[int64]*domain.TaxForm
	nextID int64

	// failOn names the operation that should fail once with failErr.
	failOn  string
	failErr error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		forms:  make(map[int64]*domain.TaxForm),
		nextID: 1,
	}
}

func clone(f *domain.TaxForm) *domain.TaxForm {
	b, err := json.Marshal(f)
	if err != nil {
		panic(err)
	}
	out := &domain.TaxForm{}
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	out.ID = f.ID
	out.CreatedBy = f.CreatedBy
	return out
}

func (r *fakeRepository) fail(op string) error {
	if r.failOn == op {
		r.failOn = ""
		return r.failErr
	}
	return nil
}

func (r *fakeRepository) Create(ctx context.Context, f *domain.TaxForm) error {
	if err := r.fail("create"); err != nil {
		return err
	}
	f.ID = r.nextID
	r.nextID++
	r.forms[f.ID] = clone(f)
	return nil
}

func (r *fakeRepository) Get(ctx context.Context, id int64) (*domain.TaxForm, error) {
	if err := r.fail("get"); err != nil {
		return nil, err
	}
	f, ok := r.forms[id]
	if !ok {
		return nil, errors.NotFound("form", fmt.Sprintf("%d", id))
	}
	return clone(f), nil
}

func (r *fakeRepository) Update(ctx context.Context, f *domain.TaxForm, replaceAlerts bool) error {
	if err := r.fail("update"); err != nil {
		return err
	}
	stored, ok := r.forms[f.ID]
	if !ok {
		return errors.NotFound("form", fmt.Sprintf("%d", f.ID))
	}
	next := clone(f)
	if !replaceAlerts && stored.DailyManagement != nil && next.DailyManagement != nil {
		next.DailyManagement.RiskAlerts = stored.DailyManagement.RiskAlerts
	}
	r.forms[f.ID] = next
	return nil
}

func (r *fakeRepository) Delete(ctx context.Context, id int64) error {
	if err := r.fail("delete"); err != nil {
		return err
	}
	if _, ok := r.forms[id]; !ok {
		return errors.NotFound("form", fmt.Sprintf("%d", id))
	}
	delete(r.forms, id)
	return nil
}

func (r *fakeRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.FormSummary, int, error) {
	if err := r.fail("list"); err != nil {
		return nil, 0, err
	}
	summaries := []domain.FormSummary{}
	for id := int64(1); id < r.nextID; id++ {
		f, ok := r.forms[id]
		if !ok {
			continue
		}
		if filter.CreatedBy != "" && f.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Month != "" && f.Month != filter.Month {
			continue
		}
		if filter.Status != "" && string(f.Status) != filter.Status {
			continue
		}
		summaries = append(summaries, domain.FormSummary{
			ID: f.ID, Month: f.Month, TaxpayerName: f.TaxpayerName,
			CreditCode: f.CreditCode, TaxpayerStatus: f.TaxpayerStatus,
			Status: f.Status, CreatedBy: f.CreatedBy,
		})
	}
	return summaries, len(summaries), nil
}

var (
	adminActor = auth.Actor{ID: "5c0f9a1e-7e64-4b57-9d4e-aaaaaaaaaaaa", Username: "chief", Role: auth.RoleAdmin}
	userActor  = auth.Actor{ID: "5c0f9a1e-7e64-4b57-9d4e-bbbbbbbbbbbb", Username: "clerk", Role: auth.RoleUser}
)

func newTestService(repo *fakeRepository) *Service {
	svc := New(repo)
	svc.now = func() time.Time { return time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC) }
	return svc
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func appErr(t *testing.T, err error) *errors.AppError {
	t.Helper()
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		t.Fatalf("Expected AppError, got %T: %v", err, err)
	}
	return ae
}

// TestCreateFillsDefaults tests that a sparse admin create yields a complete
// tree with schema defaults and server-side bookkeeping
func TestCreateFillsDefaults(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	doc := &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}

	f, err := svc.Create(context.Background(), doc, adminActor)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if f.ID == 0 {
		t.Error("Expected ID to be assigned")
	}
	if f.Month != "202401" {
		t.Errorf("Expected month defaulted to current period, got %q", f.Month)
	}
	if f.Status != domain.FormStatusDraft {
		t.Errorf("Expected draft status, got %s", f.Status)
	}
	if f.CreatedBy != adminActor.ID {
		t.Errorf("Expected created_by %q, got %q", adminActor.ID, f.CreatedBy)
	}
	if f.CreatedAt.IsZero() || !f.CreatedAt.Equal(f.UpdatedAt) {
		t.Error("Expected creation timestamps to be set and equal")
	}

	stored, err := svc.Get(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("Expected stored form, got %v", err)
	}
	if stored.TaxInfo == nil || !stored.TaxInfo.OutstandingTax.Equal(decimal.Zero) {
		t.Error("Expected default tax info")
	}
	if stored.DailyManagement == nil || stored.DailyManagement.TaxpayerAssets.Vehicles != "none" {
		t.Error("Expected default management subtree")
	}
	if stored.Collection == nil || stored.Collection.ProhibitedDeparture != "none" {
		t.Error("Expected default collection")
	}
}

// TestCreateAuthorizationReject tests the reject policy: one admin-only field
// fails the whole create for a regular user, and nothing is persisted
func TestCreateAuthorizationReject(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	doc := &domain.FormDocument{
		Month:        strPtr("202401"),
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
		TaxInfo: &domain.TaxInfoDocument{
			OutstandingTax: decPtr("5000.00"),
		},
	}

	_, err := svc.Create(context.Background(), doc, userActor)
	ae := appErr(t, err)
	if ae.Code != "AUTHORIZATION_ERROR" {
		t.Errorf("Expected AUTHORIZATION_ERROR, got %s", ae.Code)
	}
	if _, ok := ae.Fields["tax_info.outstanding_tax"]; !ok {
		t.Errorf("Expected tax_info.outstanding_tax in denied fields, got %v", ae.Fields)
	}
	if _, ok := ae.Fields["month"]; !ok {
		t.Errorf("Expected month in denied fields, got %v", ae.Fields)
	}
	if len(repo.forms) != 0 {
		t.Errorf("Expected nothing persisted, got %d forms", len(repo.forms))
	}

	// The identical document succeeds for an admin.
	f, err := svc.Create(context.Background(), doc, adminActor)
	if err != nil {
		t.Fatalf("Expected admin create to succeed, got %v", err)
	}
	if !f.TaxInfo.OutstandingTax.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("Expected outstanding tax 5000.00, got %s", f.TaxInfo.OutstandingTax)
	}
}

// TestCreateValidationReject tests that validation failures report every
// offending field and persist nothing
func TestCreateValidationReject(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	doc := &domain.FormDocument{
		Month:          strPtr("202413"),
		TaxpayerStatus: strPtr("vanished"),
	}

	_, err := svc.Create(context.Background(), doc, adminActor)
	ae := appErr(t, err)
	if ae.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %s", ae.Code)
	}
	for _, path := range []string{"month", "taxpayer_status", "taxpayer_name", "credit_code"} {
		if _, ok := ae.Fields[path]; !ok {
			t.Errorf("Expected %q in validation errors, got %v", path, ae.Fields)
		}
	}
	if len(repo.forms) != 0 {
		t.Errorf("Expected nothing persisted, got %d forms", len(repo.forms))
	}
}

// TestCreateStorageFailure tests atomicity from the caller's view: a storage
// fault leaves no retrievable form behind
func TestCreateStorageFailure(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	repo.failOn, repo.failErr = "create", errors.Storage(stderrors.New("connection reset"), "failed to save form")

	doc := &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}
	_, err := svc.Create(context.Background(), doc, adminActor)
	if err == nil {
		t.Fatal("Expected storage error")
	}
	if len(repo.forms) != 0 {
		t.Errorf("Expected nothing persisted, got %d forms", len(repo.forms))
	}
}

// TestUpdateStorageFailure tests that a faulted update leaves the stored
// tree untouched
func TestUpdateStorageFailure(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}, adminActor)
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}

	repo.failOn, repo.failErr = "update", errors.Storage(stderrors.New("connection reset"), "failed to update form")
	if _, err := svc.Update(context.Background(), created.ID, &domain.FormDocument{
		Status: strPtr("submitted"),
	}, adminActor); err == nil {
		t.Fatal("Expected storage error")
	}

	stored, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Expected stored form, got %v", err)
	}
	if stored.Status != domain.FormStatusDraft {
		t.Errorf("Expected status untouched after fault, got %s", stored.Status)
	}
}

// TestUpdatePartialIndependence tests that updating one branch leaves the
// others exactly as stored
func TestUpdatePartialIndependence(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
		TaxInfo:      &domain.TaxInfoDocument{OutstandingTax: decPtr("5000.00")},
		Collection:   &domain.CollectionDocument{Seizures: strPtr("warehouse stock")},
	}, adminActor)
	if err != nil {
		t.Fatalf("Expected create to succeed, got %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, &domain.FormDocument{
		DailyManagement: &domain.DailyManagementDocument{
			InvoiceControl: strPtr("controlling"),
		},
	}, userActor)
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}

	if updated.DailyManagement.InvoiceControl != domain.InvoiceControlControlling {
		t.Errorf("Expected invoice control updated, got %s", updated.DailyManagement.InvoiceControl)
	}
	if !updated.TaxInfo.OutstandingTax.Equal(decimal.RequireFromString("5000.00")) {
		t.Errorf("Expected outstanding tax untouched, got %s", updated.TaxInfo.OutstandingTax)
	}
	if updated.Collection.Seizures != "warehouse stock" {
		t.Errorf("Expected seizures untouched, got %q", updated.Collection.Seizures)
	}
	if updated.TaxpayerName != "ACME Trading Ltd" {
		t.Errorf("Expected name untouched, got %q", updated.TaxpayerName)
	}
}

// TestUpdateAuthorizationReject tests that a user cannot slip an admin-only
// field into an otherwise permitted update
func TestUpdateAuthorizationReject(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, _ := svc.Create(context.Background(), &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}, adminActor)

	_, err := svc.Update(context.Background(), created.ID, &domain.FormDocument{
		Status: strPtr("submitted"),
		Collection: &domain.CollectionDocument{
			ExitPrevention: strPtr("requested"),
		},
	}, userActor)
	ae := appErr(t, err)
	if ae.Code != "AUTHORIZATION_ERROR" {
		t.Errorf("Expected AUTHORIZATION_ERROR, got %s", ae.Code)
	}
	if _, ok := ae.Fields["collection.exit_prevention"]; !ok {
		t.Errorf("Expected collection.exit_prevention denied, got %v", ae.Fields)
	}

	stored, _ := svc.Get(context.Background(), created.ID)
	if stored.Status != domain.FormStatusDraft {
		t.Errorf("Expected status untouched after reject, got %s", stored.Status)
	}
}

// TestUpdateReplacesAlerts tests whole-collection alert replacement end to end
func TestUpdateReplacesAlerts(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, _ := svc.Create(context.Background(), &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
		DailyManagement: &domain.DailyManagementDocument{
			RiskAlerts: []domain.RiskAlertDocument{
				{Document: strPtr("one")}, {Document: strPtr("two")},
				{Document: strPtr("three")}, {Document: strPtr("four")},
				{Document: strPtr("five")},
			},
		},
	}, adminActor)

	updated, err := svc.Update(context.Background(), created.ID, &domain.FormDocument{
		DailyManagement: &domain.DailyManagementDocument{
			RiskAlerts: []domain.RiskAlertDocument{
				{Document: strPtr("fresh-1"), DeliveryDate: strPtr("2024-02-10")},
				{Document: strPtr("fresh-2")},
			},
		},
	}, userActor)
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}

	alerts := updated.DailyManagement.RiskAlerts
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts after replacement, got %d", len(alerts))
	}
	if alerts[0].Document != "fresh-1" || alerts[1].Document != "fresh-2" {
		t.Errorf("Expected input order preserved, got %v", alerts)
	}

	// A later update without the list leaves the two alerts alone.
	after, err := svc.Update(context.Background(), created.ID, &domain.FormDocument{
		DailyManagement: &domain.DailyManagementDocument{
			Reminders: strPtr("called twice"),
		},
	}, adminActor)
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if len(after.DailyManagement.RiskAlerts) != 2 {
		t.Errorf("Expected alerts untouched, got %d", len(after.DailyManagement.RiskAlerts))
	}
}

// TestUpdateNotFound tests the missing-form path
func TestUpdateNotFound(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), 42, &domain.FormDocument{
		Status: strPtr("assigned"),
	}, adminActor)
	ae := appErr(t, err)
	if ae.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND, got %s", ae.Code)
	}
}

// TestUpdateRefreshesTimestamp tests that updated_at moves on every
// successful update and is never taken from input
func TestUpdateRefreshesTimestamp(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, _ := svc.Create(context.Background(), &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}, adminActor)

	later := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	updated, err := svc.Update(context.Background(), created.ID, &domain.FormDocument{
		Status: strPtr("assigned"),
	}, adminActor)
	if err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("Expected updated_at %v, got %v", later, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("Expected created_at untouched, got %v", updated.CreatedAt)
	}
}

// TestCreateRequiresAdmin tests that the minimal valid create document is
// itself admin-only: the required identifying fields carry the admin tag, so
// a regular user can never create a case
func TestCreateRequiresAdmin(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	doc := &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}

	_, err := svc.Create(context.Background(), doc, userActor)
	ae := appErr(t, err)
	if ae.Code != "AUTHORIZATION_ERROR" {
		t.Errorf("Expected AUTHORIZATION_ERROR, got %s", ae.Code)
	}
	for _, path := range []string{"taxpayer_name", "credit_code"} {
		if _, ok := ae.Fields[path]; !ok {
			t.Errorf("Expected %q in denied fields, got %v", path, ae.Fields)
		}
	}
	if len(repo.forms) != 0 {
		t.Errorf("Expected nothing persisted, got %d forms", len(repo.forms))
	}
}

// TestListVisibility tests listing: every authenticated actor sees every
// case, with created_by available as an explicit filter
func TestListVisibility(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	for _, name := range []string{"ACME Trading Ltd", "Globex Industrial Co"} {
		doc := &domain.FormDocument{
			TaxpayerName: strPtr(name),
			CreditCode:   strPtr("911101081234567890"),
		}
		if _, err := svc.Create(context.Background(), doc, adminActor); err != nil {
			t.Fatalf("Expected create to succeed, got %v", err)
		}
	}

	all, total, err := svc.List(context.Background(), domain.ListFilter{Limit: 50})
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("Expected 2 forms visible, got %d", total)
	}

	byCreator, total, err := svc.List(context.Background(), domain.ListFilter{
		CreatedBy: adminActor.ID,
		Limit:     50,
	})
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if total != 2 || len(byCreator) != 2 {
		t.Errorf("Expected 2 forms for creator filter, got %d", total)
	}

	none, total, err := svc.List(context.Background(), domain.ListFilter{
		CreatedBy: userActor.ID,
		Limit:     50,
	})
	if err != nil {
		t.Fatalf("Expected list to succeed, got %v", err)
	}
	if total != 0 || len(none) != 0 {
		t.Errorf("Expected no forms for other creator, got %d", total)
	}
}

// TestDelete tests removal of the whole case
func TestDelete(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo)

	created, _ := svc.Create(context.Background(), &domain.FormDocument{
		TaxpayerName: strPtr("ACME Trading Ltd"),
		CreditCode:   strPtr("911101081234567890"),
	}, adminActor)

	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Expected delete to succeed, got %v", err)
	}
	_, err := svc.Get(context.Background(), created.ID)
	ae := appErr(t, err)
	if ae.Code != "NOT_FOUND" {
		t.Errorf("Expected NOT_FOUND after delete, got %s", ae.Code)
	}
}
