package domain

// FieldKind is the semantic type of a schema field.
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindText    FieldKind = "text"
	KindDecimal FieldKind = "decimal"
	KindDate    FieldKind = "date"
	KindBool    FieldKind = "bool"
	KindInt     FieldKind = "int"
	KindEnum    FieldKind = "enum"
)

// Entity type names, used as keys into the schema and as segments of field
// paths in validation and authorization errors.
const (
	EntityForm                 = "form"
	EntityTaxInfo              = "tax_info"
	EntityDailyManagement      = "daily_management"
	EntityRiskAlert            = "risk_alert"
	EntityInterview            = "interview"
	EntityTaxPaymentPlan       = "tax_payment_plan"
	EntityTaxpayerReport       = "taxpayer_report"
	EntityTaxpayerAssets       = "taxpayer_assets"
	EntityCollection           = "collection"
	EntityTaxPaymentWithAssets = "tax_payment_with_assets"
)

// FieldSpec describes one field of one entity type: its semantic kind, its
// authorization tag and, for enums, the fixed value set. Tags are part of the
// schema, not runtime state.
type FieldSpec struct {
	Kind      FieldKind
	AdminOnly bool
	Enum      []string
}

var taxpayerStatusValues = []string{
	string(TaxpayerStatusNormal),
	string(TaxpayerStatusAbnormal),
	string(TaxpayerStatusDeregistered),
	string(TaxpayerStatusAbnormallyDeregistered),
	string(TaxpayerStatusUnderVerification),
	string(TaxpayerStatusVerificationCleared),
}

var formStatusValues = []string{
	string(FormStatusDraft),
	string(FormStatusAssigned),
	string(FormStatusSubmitted),
	string(FormStatusApproved),
}

var invoiceControlValues = []string{
	string(InvoiceControlUncontrolled),
	string(InvoiceControlControlling),
	string(InvoiceControlQuotaLimited),
	string(InvoiceControlProposedForListing),
	string(InvoiceControlSupplyLimited),
	string(InvoiceControlStopped),
	string(InvoiceControlSuspended),
}

// Schema is the static table: entity type × field name → FieldSpec. It is the
// single source of truth for field authorization; the writer consults it for
// every field present in an input document.
var Schema = map[string]map[string]FieldSpec{
	EntityForm: {
		"month":              {Kind: KindString, AdminOnly: true},
		"taxpayer_name":      {Kind: KindString, AdminOnly: true},
		"credit_code":        {Kind: KindString, AdminOnly: true},
		"taxpayer_status":    {Kind: KindEnum, AdminOnly: true, Enum: taxpayerStatusValues},
		"industry":           {Kind: KindString, AdminOnly: true},
		"tax_authority_code": {Kind: KindString, AdminOnly: true},
		"tax_authority_name": {Kind: KindString, AdminOnly: true},
		"status":             {Kind: KindEnum, Enum: formStatusValues},
	},
	EntityTaxInfo: {
		"outstanding_tax":   {Kind: KindDecimal, AdminOnly: true},
		"tax_types":         {Kind: KindText, AdminOnly: true},
		"collection_effect": {Kind: KindDecimal, AdminOnly: true},
	},
	EntityDailyManagement: {
		"reminders":       {Kind: KindText, AdminOnly: true},
		"invoice_control": {Kind: KindEnum, Enum: invoiceControlValues},
	},
	EntityRiskAlert: {
		"document":      {Kind: KindString},
		"delivery_date": {Kind: KindDate},
	},
	EntityInterview: {
		"has_interview":  {Kind: KindBool},
		"document":       {Kind: KindString},
		"interview_date": {Kind: KindDate},
	},
	EntityTaxPaymentPlan: {
		"has_agreement":      {Kind: KindBool},
		"month_count":        {Kind: KindInt},
		"current_execution":  {Kind: KindString},
		"unfulfilled_reason": {Kind: KindText},
	},
	EntityTaxpayerReport: {
		"periodic_report":        {Kind: KindText},
		"asset_disposal_report":  {Kind: KindText},
		"merger_division_report": {Kind: KindText},
	},
	EntityTaxpayerAssets: {
		"bank_accounts": {Kind: KindText},
		"real_estate":   {Kind: KindText},
		"vehicles":      {Kind: KindText},
		"other_assets":  {Kind: KindText},
	},
	EntityCollection: {
		"guarantees":           {Kind: KindText},
		"freezing":             {Kind: KindText},
		"seizures":             {Kind: KindText},
		"reminders":            {Kind: KindText},
		"forced_collection":    {Kind: KindText},
		"auction":              {Kind: KindText},
		"court_execution":      {Kind: KindText},
		"rights_exercise":      {Kind: KindText},
		"exit_prevention":      {Kind: KindText, AdminOnly: true},
		"prohibited_departure": {Kind: KindString, AdminOnly: true},
	},
	EntityTaxPaymentWithAssets: {
		"description": {Kind: KindText},
	},
}

// Lookup returns the spec for (entity, field).
func Lookup(entity, field string) (FieldSpec, bool) {
	fields, ok := Schema[entity]
	if !ok {
		return FieldSpec{}, false
	}
	spec, ok := fields[field]
	return spec, ok
}
