package domain

import "github.com/shopspring/decimal"

// FormDocument is the nested input document for create and update. Every
// field is a pointer (or nil-able slice) so that "absent" is distinguishable
// from a zero value: on update only present fields are touched. Unknown keys
// in the incoming JSON are ignored by decoding, not treated as errors.
type FormDocument struct {
	Month            *string `json:"month" validate:"omitempty,len=6,numeric"`
	TaxpayerName     *string `json:"taxpayer_name" validate:"omitempty,max=255"`
	CreditCode       *string `json:"credit_code" validate:"omitempty,max=18"`
	TaxpayerStatus   *string `json:"taxpayer_status" validate:"omitempty,oneof=normal abnormal deregistered abnormally_deregistered under_verification verification_cleared"`
	Industry         *string `json:"industry" validate:"omitempty,max=255"`
	TaxAuthorityCode *string `json:"tax_authority_code" validate:"omitempty,max=11"`
	TaxAuthorityName *string `json:"tax_authority_name" validate:"omitempty,max=255"`
	Status           *string `json:"status" validate:"omitempty,oneof=draft assigned submitted approved"`

	TaxInfo              *TaxInfoDocument              `json:"tax_info"`
	DailyManagement      *DailyManagementDocument      `json:"daily_management"`
	Collection           *CollectionDocument           `json:"collection"`
	TaxPaymentWithAssets *TaxPaymentWithAssetsDocument `json:"tax_payment_with_assets"`
}

type TaxInfoDocument struct {
	OutstandingTax   *decimal.Decimal `json:"outstanding_tax" validate:"-"`
	TaxTypes         *string          `json:"tax_types"`
	CollectionEffect *decimal.Decimal `json:"collection_effect" validate:"-"`
}

type DailyManagementDocument struct {
	Reminders      *string `json:"reminders"`
	InvoiceControl *string `json:"invoice_control" validate:"omitempty,oneof=uncontrolled controlling quota_limited proposed_for_listing supply_limited stopped suspended"`

	// A non-nil RiskAlerts slice replaces the stored collection whole, in
	// input order; nil leaves it untouched.
	RiskAlerts     []RiskAlertDocument     `json:"risk_alerts" validate:"omitempty,dive"`
	Interview      *InterviewDocument      `json:"interview"`
	TaxPaymentPlan *TaxPaymentPlanDocument `json:"tax_payment_plan"`
	TaxpayerReport *TaxpayerReportDocument `json:"taxpayer_report"`
	TaxpayerAssets *TaxpayerAssetsDocument `json:"taxpayer_assets"`
}

type RiskAlertDocument struct {
	Document     *string `json:"document" validate:"omitempty,max=255"`
	DeliveryDate *string `json:"delivery_date" validate:"omitempty,datetime=2006-01-02"`
}

type InterviewDocument struct {
	HasInterview  *bool   `json:"has_interview"`
	Document      *string `json:"document" validate:"omitempty,max=255"`
	InterviewDate *string `json:"interview_date" validate:"omitempty,datetime=2006-01-02"`
}

type TaxPaymentPlanDocument struct {
	HasAgreement      *bool   `json:"has_agreement"`
	MonthCount        *int    `json:"month_count" validate:"omitempty,min=0"`
	CurrentExecution  *string `json:"current_execution" validate:"omitempty,max=255"`
	UnfulfilledReason *string `json:"unfulfilled_reason"`
}

type TaxpayerReportDocument struct {
	PeriodicReport       *string `json:"periodic_report"`
	AssetDisposalReport  *string `json:"asset_disposal_report"`
	MergerDivisionReport *string `json:"merger_division_report"`
}

type TaxpayerAssetsDocument struct {
	BankAccounts *string `json:"bank_accounts"`
	RealEstate   *string `json:"real_estate"`
	Vehicles     *string `json:"vehicles"`
	OtherAssets  *string `json:"other_assets"`
}

type TaxPaymentWithAssetsDocument struct {
	Description *string `json:"description"`
}

type CollectionDocument struct {
	Guarantees          *string `json:"guarantees"`
	Freezing            *string `json:"freezing"`
	Seizures            *string `json:"seizures"`
	Reminders           *string `json:"reminders"`
	ForcedCollection    *string `json:"forced_collection"`
	Auction             *string `json:"auction"`
	CourtExecution      *string `json:"court_execution"`
	RightsExercise      *string `json:"rights_exercise"`
	ExitPrevention      *string `json:"exit_prevention"`
	ProhibitedDeparture *string `json:"prohibited_departure" validate:"omitempty,max=255"`
}

// ReplacesAlerts reports whether applying the document replaces the stored
// risk alert collection.
func (d *FormDocument) ReplacesAlerts() bool {
	return d.DailyManagement != nil && d.DailyManagement.RiskAlerts != nil
}
