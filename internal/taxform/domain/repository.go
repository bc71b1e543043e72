package domain

import (
	"context"
	"time"
)

// Repository persists the case file aggregate. Create and Update write the
// whole tree as one atomic unit: a failure anywhere leaves nothing applied.
type Repository interface {
	// Create persists a new form with its full subtree and assigns IDs.
	Create(ctx context.Context, f *TaxForm) error

	// Get assembles the full tree for the form id. Missing optional
	// descendants come back nil, never as partial records; risk alerts are
	// ordered by primary key.
	Get(ctx context.Context, id int64) (*TaxForm, error)

	// Update rewrites the aggregate. Descendants present on the form are
	// upserted; replaceAlerts deletes the stored risk alert collection and
	// reinserts the form's alerts in order, otherwise stored alerts are left
	// untouched.
	Update(ctx context.Context, f *TaxForm, replaceAlerts bool) error

	// Delete removes the form; the subtree is cascaded away with it.
	Delete(ctx context.Context, id int64) error

	// List returns form summaries matching the filter, ordered by id
	// ascending, plus the total match count.
	List(ctx context.Context, filter ListFilter) ([]FormSummary, int, error)
}

// ListFilter narrows the listing.
type ListFilter struct {
	Month      string
	Status     string
	CreditCode string
	Search     string
	CreatedBy  string
	Limit      int
	Offset     int
}

// FormSummary is the listing row for a case file.
type FormSummary struct {
	ID             int64          `json:"id"`
	Month          string         `json:"month"`
	TaxpayerName   string         `json:"taxpayer_name"`
	CreditCode     string         `json:"credit_code"`
	TaxpayerStatus TaxpayerStatus `json:"taxpayer_status"`
	Status         FormStatus     `json:"status"`
	CreatedBy      string         `json:"created_by,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
