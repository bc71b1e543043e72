// Package infrastructure provides the PostgreSQL persistence for the tax form
// aggregate. One transaction covers each Create and Update, so a failure on
// any descendant leaves the whole tree unchanged.
package infrastructure

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tax-gov/arrears/internal/shared/errors"
	"github.com/tax-gov/arrears/internal/shared/metrics"
	"github.com/tax-gov/arrears/internal/taxform/domain"
)

// PostgresRepository implements domain.Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create persists the full aggregate in a single transaction and fills in the
// generated IDs on the form and every descendant.
func (r *PostgresRepository) Create(ctx context.Context, f *domain.TaxForm) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("form_create", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO tax.forms (
			month, taxpayer_name, credit_code, taxpayer_status, industry,
			tax_authority_code, tax_authority_name, status,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	err = tx.QueryRow(ctx, query,
		f.Month, f.TaxpayerName, f.CreditCode, f.TaxpayerStatus, f.Industry,
		f.TaxAuthorityCode, f.TaxAuthorityName, f.Status,
		nullable(f.CreatedBy), f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID)
	if err != nil {
		return errors.Storage(err, "failed to save form")
	}

	if err := r.upsertChildren(ctx, tx, f, true); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Storage(err, "failed to commit transaction")
	}
	return nil
}

// Update rewrites the root row and upserts every descendant present on the
// form. The stored risk alert collection is replaced only when replaceAlerts
// is set.
func (r *PostgresRepository) Update(ctx context.Context, f *domain.TaxForm, replaceAlerts bool) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("form_update", time.Since(start)) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE tax.forms SET
			month = $2, taxpayer_name = $3, credit_code = $4,
			taxpayer_status = $5, industry = $6,
			tax_authority_code = $7, tax_authority_name = $8,
			status = $9, updated_at = $10
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		f.ID, f.Month, f.TaxpayerName, f.CreditCode,
		f.TaxpayerStatus, f.Industry,
		f.TaxAuthorityCode, f.TaxAuthorityName,
		f.Status, f.UpdatedAt,
	)
	if err != nil {
		return errors.Storage(err, "failed to update form")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("form", fmt.Sprintf("%d", f.ID))
	}

	if err := r.upsertChildren(ctx, tx, f, replaceAlerts); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Storage(err, "failed to commit transaction")
	}
	return nil
}

// upsertChildren writes every descendant present on the form inside tx.
// Conflicts on the parent foreign key turn inserts into updates, which covers
// both initial creation and later merges with the same statements.
func (r *PostgresRepository) upsertChildren(ctx context.Context, tx pgx.Tx, f *domain.TaxForm, replaceAlerts bool) error {
	if ti := f.TaxInfo; ti != nil {
		ti.FormID = f.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.tax_info (form_id, outstanding_tax, tax_types, collection_effect)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (form_id) DO UPDATE SET
				outstanding_tax = EXCLUDED.outstanding_tax,
				tax_types = EXCLUDED.tax_types,
				collection_effect = EXCLUDED.collection_effect
			RETURNING id`,
			ti.FormID, ti.OutstandingTax, ti.TaxTypes, ti.CollectionEffect,
		).Scan(&ti.ID)
		if err != nil {
			return errors.Storage(err, "failed to save tax info")
		}
	}

	if dm := f.DailyManagement; dm != nil {
		dm.FormID = f.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.daily_management (form_id, reminders, invoice_control)
			VALUES ($1, $2, $3)
			ON CONFLICT (form_id) DO UPDATE SET
				reminders = EXCLUDED.reminders,
				invoice_control = EXCLUDED.invoice_control
			RETURNING id`,
			dm.FormID, dm.Reminders, dm.InvoiceControl,
		).Scan(&dm.ID)
		if err != nil {
			return errors.Storage(err, "failed to save daily management")
		}

		if err := r.upsertManagementChildren(ctx, tx, dm, replaceAlerts); err != nil {
			return err
		}
	}

	if c := f.Collection; c != nil {
		c.FormID = f.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.collections (
				form_id, guarantees, freezing, seizures, reminders,
				forced_collection, auction, court_execution, rights_exercise,
				exit_prevention, prohibited_departure
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			ON CONFLICT (form_id) DO UPDATE SET
				guarantees = EXCLUDED.guarantees,
				freezing = EXCLUDED.freezing,
				seizures = EXCLUDED.seizures,
				reminders = EXCLUDED.reminders,
				forced_collection = EXCLUDED.forced_collection,
				auction = EXCLUDED.auction,
				court_execution = EXCLUDED.court_execution,
				rights_exercise = EXCLUDED.rights_exercise,
				exit_prevention = EXCLUDED.exit_prevention,
				prohibited_departure = EXCLUDED.prohibited_departure
			RETURNING id`,
			c.FormID, c.Guarantees, c.Freezing, c.Seizures, c.Reminders,
			c.ForcedCollection, c.Auction, c.CourtExecution, c.RightsExercise,
			c.ExitPrevention, c.ProhibitedDeparture,
		).Scan(&c.ID)
		if err != nil {
			return errors.Storage(err, "failed to save collection")
		}
	}

	if tp := f.TaxPaymentWithAssets; tp != nil {
		tp.FormID = f.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.tax_payment_with_assets (form_id, description)
			VALUES ($1, $2)
			ON CONFLICT (form_id) DO UPDATE SET description = EXCLUDED.description
			RETURNING id`,
			tp.FormID, tp.Description,
		).Scan(&tp.ID)
		if err != nil {
			return errors.Storage(err, "failed to save tax payment with assets")
		}
	}

	return nil
}

func (r *PostgresRepository) upsertManagementChildren(ctx context.Context, tx pgx.Tx, dm *domain.DailyManagement, replaceAlerts bool) error {
	if iv := dm.Interview; iv != nil {
		iv.DailyManagementID = dm.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.interviews (daily_management_id, has_interview, document, interview_date)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (daily_management_id) DO UPDATE SET
				has_interview = EXCLUDED.has_interview,
				document = EXCLUDED.document,
				interview_date = EXCLUDED.interview_date
			RETURNING id`,
			iv.DailyManagementID, iv.HasInterview, iv.Document, iv.InterviewDate,
		).Scan(&iv.ID)
		if err != nil {
			return errors.Storage(err, "failed to save interview")
		}
	}

	if pl := dm.TaxPaymentPlan; pl != nil {
		pl.DailyManagementID = dm.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.tax_payment_plans (
				daily_management_id, has_agreement, month_count,
				current_execution, unfulfilled_reason
			) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (daily_management_id) DO UPDATE SET
				has_agreement = EXCLUDED.has_agreement,
				month_count = EXCLUDED.month_count,
				current_execution = EXCLUDED.current_execution,
				unfulfilled_reason = EXCLUDED.unfulfilled_reason
			RETURNING id`,
			pl.DailyManagementID, pl.HasAgreement, pl.MonthCount,
			pl.CurrentExecution, pl.UnfulfilledReason,
		).Scan(&pl.ID)
		if err != nil {
			return errors.Storage(err, "failed to save tax payment plan")
		}
	}

	if rp := dm.TaxpayerReport; rp != nil {
		rp.DailyManagementID = dm.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.taxpayer_reports (
				daily_management_id, periodic_report,
				asset_disposal_report, merger_division_report
			) VALUES ($1, $2, $3, $4)
			ON CONFLICT (daily_management_id) DO UPDATE SET
				periodic_report = EXCLUDED.periodic_report,
				asset_disposal_report = EXCLUDED.asset_disposal_report,
				merger_division_report = EXCLUDED.merger_division_report
			RETURNING id`,
			rp.DailyManagementID, rp.PeriodicReport,
			rp.AssetDisposalReport, rp.MergerDivisionReport,
		).Scan(&rp.ID)
		if err != nil {
			return errors.Storage(err, "failed to save taxpayer report")
		}
	}

	if as := dm.TaxpayerAssets; as != nil {
		as.DailyManagementID = dm.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.taxpayer_assets (
				daily_management_id, bank_accounts, real_estate, vehicles, other_assets
			) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (daily_management_id) DO UPDATE SET
				bank_accounts = EXCLUDED.bank_accounts,
				real_estate = EXCLUDED.real_estate,
				vehicles = EXCLUDED.vehicles,
				other_assets = EXCLUDED.other_assets
			RETURNING id`,
			as.DailyManagementID, as.BankAccounts, as.RealEstate, as.Vehicles, as.OtherAssets,
		).Scan(&as.ID)
		if err != nil {
			return errors.Storage(err, "failed to save taxpayer assets")
		}
	}

	if !replaceAlerts {
		return nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM tax.risk_alerts WHERE daily_management_id = $1`, dm.ID); err != nil {
		return errors.Storage(err, "failed to clear risk alerts")
	}
	for i := range dm.RiskAlerts {
		a := &dm.RiskAlerts[i]
		a.DailyManagementID = dm.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO tax.risk_alerts (daily_management_id, document, delivery_date)
			VALUES ($1, $2, $3)
			RETURNING id`,
			a.DailyManagementID, a.Document, a.DeliveryDate,
		).Scan(&a.ID)
		if err != nil {
			return errors.Storage(err, "failed to save risk alert")
		}
	}
	return nil
}

// Get assembles the full aggregate for the form id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*domain.TaxForm, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("form_get", time.Since(start)) }()

	query := `
		SELECT id, month, taxpayer_name, credit_code, taxpayer_status, industry,
			tax_authority_code, tax_authority_name, status,
			created_by, created_at, updated_at
		FROM tax.forms
		WHERE id = $1`

	f := &domain.TaxForm{}
	var createdBy *string

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.Month, &f.TaxpayerName, &f.CreditCode, &f.TaxpayerStatus, &f.Industry,
		&f.TaxAuthorityCode, &f.TaxAuthorityName, &f.Status,
		&createdBy, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("form", fmt.Sprintf("%d", id))
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to find form")
	}
	if createdBy != nil {
		f.CreatedBy = *createdBy
	}

	if f.TaxInfo, err = r.loadTaxInfo(ctx, id); err != nil {
		return nil, err
	}
	if f.DailyManagement, err = r.loadDailyManagement(ctx, id); err != nil {
		return nil, err
	}
	if f.Collection, err = r.loadCollection(ctx, id); err != nil {
		return nil, err
	}
	if f.TaxPaymentWithAssets, err = r.loadTaxPaymentWithAssets(ctx, id); err != nil {
		return nil, err
	}

	return f, nil
}

func (r *PostgresRepository) loadTaxInfo(ctx context.Context, formID int64) (*domain.TaxInfo, error) {
	ti := &domain.TaxInfo{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, form_id, outstanding_tax, tax_types, collection_effect
		FROM tax.tax_info WHERE form_id = $1`, formID,
	).Scan(&ti.ID, &ti.FormID, &ti.OutstandingTax, &ti.TaxTypes, &ti.CollectionEffect)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to load tax info")
	}
	return ti, nil
}

func (r *PostgresRepository) loadDailyManagement(ctx context.Context, formID int64) (*domain.DailyManagement, error) {
	dm := &domain.DailyManagement{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, form_id, reminders, invoice_control
		FROM tax.daily_management WHERE form_id = $1`, formID,
	).Scan(&dm.ID, &dm.FormID, &dm.Reminders, &dm.InvoiceControl)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to load daily management")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, daily_management_id, document, delivery_date
		FROM tax.risk_alerts WHERE daily_management_id = $1
		ORDER BY id`, dm.ID)
	if err != nil {
		return nil, errors.Storage(err, "failed to load risk alerts")
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.RiskAlert
		if err := rows.Scan(&a.ID, &a.DailyManagementID, &a.Document, &a.DeliveryDate); err != nil {
			return nil, errors.Storage(err, "failed to scan risk alert")
		}
		dm.RiskAlerts = append(dm.RiskAlerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Storage(err, "failed to read risk alerts")
	}

	iv := &domain.Interview{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, daily_management_id, has_interview, document, interview_date
		FROM tax.interviews WHERE daily_management_id = $1`, dm.ID,
	).Scan(&iv.ID, &iv.DailyManagementID, &iv.HasInterview, &iv.Document, &iv.InterviewDate)
	switch {
	case err == pgx.ErrNoRows:
	case err != nil:
		return nil, errors.Storage(err, "failed to load interview")
	default:
		dm.Interview = iv
	}

	pl := &domain.TaxPaymentPlan{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, daily_management_id, has_agreement, month_count,
			current_execution, unfulfilled_reason
		FROM tax.tax_payment_plans WHERE daily_management_id = $1`, dm.ID,
	).Scan(&pl.ID, &pl.DailyManagementID, &pl.HasAgreement, &pl.MonthCount,
		&pl.CurrentExecution, &pl.UnfulfilledReason)
	switch {
	case err == pgx.ErrNoRows:
	case err != nil:
		return nil, errors.Storage(err, "failed to load tax payment plan")
	default:
		dm.TaxPaymentPlan = pl
	}

	rp := &domain.TaxpayerReport{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, daily_management_id, periodic_report,
			asset_disposal_report, merger_division_report
		FROM tax.taxpayer_reports WHERE daily_management_id = $1`, dm.ID,
	).Scan(&rp.ID, &rp.DailyManagementID, &rp.PeriodicReport,
		&rp.AssetDisposalReport, &rp.MergerDivisionReport)
	switch {
	case err == pgx.ErrNoRows:
	case err != nil:
		return nil, errors.Storage(err, "failed to load taxpayer report")
	default:
		dm.TaxpayerReport = rp
	}

	as := &domain.TaxpayerAssets{}
	err = r.pool.QueryRow(ctx, `
		SELECT id, daily_management_id, bank_accounts, real_estate, vehicles, other_assets
		FROM tax.taxpayer_assets WHERE daily_management_id = $1`, dm.ID,
	).Scan(&as.ID, &as.DailyManagementID, &as.BankAccounts, &as.RealEstate, &as.Vehicles, &as.OtherAssets)
	switch {
	case err == pgx.ErrNoRows:
	case err != nil:
		return nil, errors.Storage(err, "failed to load taxpayer assets")
	default:
		dm.TaxpayerAssets = as
	}

	return dm, nil
}

func (r *PostgresRepository) loadCollection(ctx context.Context, formID int64) (*domain.Collection, error) {
	c := &domain.Collection{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, form_id, guarantees, freezing, seizures, reminders,
			forced_collection, auction, court_execution, rights_exercise,
			exit_prevention, prohibited_departure
		FROM tax.collections WHERE form_id = $1`, formID,
	).Scan(&c.ID, &c.FormID, &c.Guarantees, &c.Freezing, &c.Seizures, &c.Reminders,
		&c.ForcedCollection, &c.Auction, &c.CourtExecution, &c.RightsExercise,
		&c.ExitPrevention, &c.ProhibitedDeparture)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to load collection")
	}
	return c, nil
}

func (r *PostgresRepository) loadTaxPaymentWithAssets(ctx context.Context, formID int64) (*domain.TaxPaymentWithAssets, error) {
	tp := &domain.TaxPaymentWithAssets{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, form_id, description
		FROM tax.tax_payment_with_assets WHERE form_id = $1`, formID,
	).Scan(&tp.ID, &tp.FormID, &tp.Description)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Storage(err, "failed to load tax payment with assets")
	}
	return tp, nil
}

// Delete removes the form; descendants cascade away with it.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("form_delete", time.Since(start)) }()

	tag, err := r.pool.Exec(ctx, `DELETE FROM tax.forms WHERE id = $1`, id)
	if err != nil {
		return errors.Storage(err, "failed to delete form")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("form", fmt.Sprintf("%d", id))
	}
	return nil
}

// List returns form summaries matching the filter plus the total match count.
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.FormSummary, int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("form_list", time.Since(start)) }()

	conditions := []string{}
	args := []interface{}{}
	argNum := 1

	addCondition := func(cond string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(cond, argNum))
		args = append(args, value)
		argNum++
	}

	if filter.Month != "" {
		addCondition("month = $%d", filter.Month)
	}
	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if filter.CreditCode != "" {
		addCondition("credit_code = $%d", filter.CreditCode)
	}
	if filter.Search != "" {
		addCondition("taxpayer_name ILIKE $%d", "%"+filter.Search+"%")
	}
	if filter.CreatedBy != "" {
		addCondition("created_by = $%d", filter.CreatedBy)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM tax.forms" + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Storage(err, "failed to count forms")
	}

	query := `
		SELECT id, month, taxpayer_name, credit_code, taxpayer_status, status,
			created_by, created_at, updated_at
		FROM tax.forms` + where + fmt.Sprintf(`
		ORDER BY id ASC
		LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Storage(err, "failed to list forms")
	}
	defer rows.Close()

	summaries := []domain.FormSummary{}
	for rows.Next() {
		var s domain.FormSummary
		var createdBy *string
		if err := rows.Scan(
			&s.ID, &s.Month, &s.TaxpayerName, &s.CreditCode, &s.TaxpayerStatus, &s.Status,
			&createdBy, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, errors.Storage(err, "failed to scan form summary")
		}
		if createdBy != nil {
			s.CreatedBy = *createdBy
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Storage(err, "failed to read forms")
	}

	return summaries, total, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
