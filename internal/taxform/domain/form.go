// Package domain holds the tax-delinquency case file aggregate: one TaxForm
// plus its owned subtree, always created, updated and read as a unit.
package domain

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TaxpayerStatus is the registration status of the delinquent taxpayer.
type TaxpayerStatus string

const (
	TaxpayerStatusNormal                 TaxpayerStatus = "normal"
	TaxpayerStatusAbnormal               TaxpayerStatus = "abnormal"
	TaxpayerStatusDeregistered           TaxpayerStatus = "deregistered"
	TaxpayerStatusAbnormallyDeregistered TaxpayerStatus = "abnormally_deregistered"
	TaxpayerStatusUnderVerification      TaxpayerStatus = "under_verification"
	TaxpayerStatusVerificationCleared    TaxpayerStatus = "verification_cleared"
)

// FormStatus is the workflow label on a case file.
type FormStatus string

const (
	FormStatusDraft     FormStatus = "draft"
	FormStatusAssigned  FormStatus = "assigned"
	FormStatusSubmitted FormStatus = "submitted"
	FormStatusApproved  FormStatus = "approved"
)

// InvoiceControl is the invoice restriction applied to the taxpayer.
type InvoiceControl string

const (
	InvoiceControlUncontrolled       InvoiceControl = "uncontrolled"
	InvoiceControlControlling        InvoiceControl = "controlling"
	InvoiceControlQuotaLimited       InvoiceControl = "quota_limited"
	InvoiceControlProposedForListing InvoiceControl = "proposed_for_listing"
	InvoiceControlSupplyLimited      InvoiceControl = "supply_limited"
	InvoiceControlStopped            InvoiceControl = "stopped"
	InvoiceControlSuspended          InvoiceControl = "suspended"
)

// DateLayout is the wire format for date-only fields.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer for database serialization
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements sql.Scanner for database deserialization
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = v
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case nil:
		d.Time = time.Time{}
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

// TaxForm is the aggregate root: one taxpayer's delinquency record for one
// reporting period. A fully-created form always carries all eight descendant
// records plus zero or more risk alerts; nil descendants occur only
// transiently during multi-step creation.
type TaxForm struct {
	ID               int64          `json:"id"`
	Month            string         `json:"month"`
	TaxpayerName     string         `json:"taxpayer_name"`
	CreditCode       string         `json:"credit_code"`
	TaxpayerStatus   TaxpayerStatus `json:"taxpayer_status"`
	Industry         string         `json:"industry"`
	TaxAuthorityCode string         `json:"tax_authority_code"`
	TaxAuthorityName string         `json:"tax_authority_name"`
	Status           FormStatus     `json:"status"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TaxInfo              *TaxInfo              `json:"tax_info"`
	DailyManagement      *DailyManagement      `json:"daily_management"`
	Collection           *Collection           `json:"collection"`
	TaxPaymentWithAssets *TaxPaymentWithAssets `json:"tax_payment_with_assets"`
}

// TaxInfo is the debt summary for the case.
type TaxInfo struct {
	ID               int64           `json:"-"`
	FormID           int64           `json:"-"`
	OutstandingTax   decimal.Decimal `json:"outstanding_tax"`
	TaxTypes         string          `json:"tax_types"`
	CollectionEffect decimal.Decimal `json:"collection_effect"`
}

// DailyManagement gathers the day-to-day management actions, including the
// insertion-ordered risk alert collection.
type DailyManagement struct {
	ID             int64          `json:"-"`
	FormID         int64          `json:"-"`
	Reminders      string         `json:"reminders"`
	InvoiceControl InvoiceControl `json:"invoice_control"`

	RiskAlerts     []RiskAlert     `json:"risk_alerts"`
	Interview      *Interview      `json:"interview"`
	TaxPaymentPlan *TaxPaymentPlan `json:"tax_payment_plan"`
	TaxpayerReport *TaxpayerReport `json:"taxpayer_report"`
	TaxpayerAssets *TaxpayerAssets `json:"taxpayer_assets"`
}

// RiskAlert is one risk notification document served on the taxpayer.
type RiskAlert struct {
	ID                int64  `json:"id,omitempty"`
	DailyManagementID int64  `json:"-"`
	Document          string `json:"document"`
	DeliveryDate      *Date  `json:"delivery_date"`
}

// Interview is the warning interview log.
type Interview struct {
	ID                int64  `json:"-"`
	DailyManagementID int64  `json:"-"`
	HasInterview      bool   `json:"has_interview"`
	Document          string `json:"document"`
	InterviewDate     *Date  `json:"interview_date"`
}

// TaxPaymentPlan is the agreed arrears settlement plan.
type TaxPaymentPlan struct {
	ID                int64  `json:"-"`
	DailyManagementID int64  `json:"-"`
	HasAgreement      bool   `json:"has_agreement"`
	MonthCount        int    `json:"month_count"`
	CurrentExecution  string `json:"current_execution"`
	UnfulfilledReason string `json:"unfulfilled_reason"`
}

// TaxpayerReport records the taxpayer's mandatory disclosures.
type TaxpayerReport struct {
	ID                   int64  `json:"-"`
	DailyManagementID    int64  `json:"-"`
	PeriodicReport       string `json:"periodic_report"`
	AssetDisposalReport  string `json:"asset_disposal_report"`
	MergerDivisionReport string `json:"merger_division_report"`
}

// TaxpayerAssets records the taxpayer's known asset situation.
type TaxpayerAssets struct {
	ID                int64  `json:"-"`
	DailyManagementID int64  `json:"-"`
	BankAccounts      string `json:"bank_accounts"`
	RealEstate        string `json:"real_estate"`
	Vehicles          string `json:"vehicles"`
	OtherAssets       string `json:"other_assets"`
}

// Collection records enforcement and recovery measures taken.
type Collection struct {
	ID                  int64  `json:"-"`
	FormID              int64  `json:"-"`
	Guarantees          string `json:"guarantees"`
	Freezing            string `json:"freezing"`
	Seizures            string `json:"seizures"`
	Reminders           string `json:"reminders"`
	ForcedCollection    string `json:"forced_collection"`
	Auction             string `json:"auction"`
	CourtExecution      string `json:"court_execution"`
	RightsExercise      string `json:"rights_exercise"`
	ExitPrevention      string `json:"exit_prevention"`
	ProhibitedDeparture string `json:"prohibited_departure"`
}

// TaxPaymentWithAssets records arrears offset against seized assets.
type TaxPaymentWithAssets struct {
	ID          int64  `json:"-"`
	FormID      int64  `json:"-"`
	Description string `json:"description"`
}

// NewTaxForm returns a form populated with every descendant at its schema
// default, so a create from a sparse document still yields a complete tree.
func NewTaxForm() *TaxForm {
	return &TaxForm{
		TaxpayerStatus:       TaxpayerStatusNormal,
		Status:               FormStatusDraft,
		TaxInfo:              DefaultTaxInfo(),
		DailyManagement:      DefaultDailyManagement(),
		Collection:           DefaultCollection(),
		TaxPaymentWithAssets: DefaultTaxPaymentWithAssets(),
	}
}

func DefaultTaxInfo() *TaxInfo {
	return &TaxInfo{
		OutstandingTax:   decimal.Zero,
		CollectionEffect: decimal.Zero,
	}
}

func DefaultDailyManagement() *DailyManagement {
	return &DailyManagement{
		InvoiceControl: InvoiceControlUncontrolled,
		Interview:      DefaultInterview(),
		TaxPaymentPlan: DefaultTaxPaymentPlan(),
		TaxpayerReport: DefaultTaxpayerReport(),
		TaxpayerAssets: DefaultTaxpayerAssets(),
	}
}

func DefaultInterview() *Interview {
	return &Interview{}
}

func DefaultTaxPaymentPlan() *TaxPaymentPlan {
	return &TaxPaymentPlan{
		CurrentExecution:  "0",
		UnfulfilledReason: "none",
	}
}

func DefaultTaxpayerReport() *TaxpayerReport {
	return &TaxpayerReport{
		PeriodicReport:       "none",
		AssetDisposalReport:  "none",
		MergerDivisionReport: "none",
	}
}

func DefaultTaxpayerAssets() *TaxpayerAssets {
	return &TaxpayerAssets{
		BankAccounts: "none",
		RealEstate:   "none",
		Vehicles:     "none",
		OtherAssets:  "none",
	}
}

func DefaultCollection() *Collection {
	return &Collection{
		Guarantees:          "none",
		Freezing:            "none",
		Seizures:            "none",
		Reminders:           "none",
		ForcedCollection:    "none",
		Auction:             "none",
		CourtExecution:      "none",
		RightsExercise:      "none",
		ExitPrevention:      "none",
		ProhibitedDeparture: "none",
	}
}

func DefaultTaxPaymentWithAssets() *TaxPaymentWithAssets {
	return &TaxPaymentWithAssets{Description: "none"}
}
