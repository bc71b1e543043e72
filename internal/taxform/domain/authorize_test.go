package domain

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tax-gov/arrears/internal/shared/auth"
)

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

// TestWritable tests the field authorization table
func TestWritable(t *testing.T) {
	tests := []struct {
		name   string
		entity string
		field  string
		role   auth.Role
		want   bool
	}{
		{"Admin writes admin-only form field", EntityForm, "taxpayer_name", auth.RoleAdmin, true},
		{"Admin writes shared form field", EntityForm, "status", auth.RoleAdmin, true},
		{"User writes shared form field", EntityForm, "status", auth.RoleUser, true},
		{"User denied admin-only form field", EntityForm, "taxpayer_name", auth.RoleUser, false},
		{"User denied month", EntityForm, "month", auth.RoleUser, false},
		{"User denied every tax_info field", EntityTaxInfo, "outstanding_tax", auth.RoleUser, false},
		{"User writes invoice_control", EntityDailyManagement, "invoice_control", auth.RoleUser, true},
		{"User denied reminders on daily management", EntityDailyManagement, "reminders", auth.RoleUser, false},
		{"User writes risk alert document", EntityRiskAlert, "document", auth.RoleUser, true},
		{"User writes collection seizures", EntityCollection, "seizures", auth.RoleUser, true},
		{"User denied exit_prevention", EntityCollection, "exit_prevention", auth.RoleUser, false},
		{"User denied prohibited_departure", EntityCollection, "prohibited_departure", auth.RoleUser, false},
		{"Unknown field fails closed for admin", EntityForm, "no_such_field", auth.RoleAdmin, false},
		{"Unknown entity fails closed", "no_such_entity", "status", auth.RoleAdmin, false},
		{"Unknown role fails closed on shared field", EntityForm, "status", auth.Role("auditor"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Writable(tt.entity, tt.field, tt.role); got != tt.want {
				t.Errorf("Writable(%q, %q, %q) = %v, want %v", tt.entity, tt.field, tt.role, got, tt.want)
			}
		})
	}
}

// TestDeniedFieldsAdmin tests that admins are never denied known fields
func TestDeniedFieldsAdmin(t *testing.T) {
	doc := &FormDocument{
		Month:        strPtr("202401"),
		TaxpayerName: strPtr("ACME Trading Ltd"),
		TaxInfo: &TaxInfoDocument{
			OutstandingTax: decPtr("5000.00"),
		},
		Collection: &CollectionDocument{
			ExitPrevention: strPtr("requested"),
		},
	}

	if denied := DeniedFields(doc, auth.RoleAdmin); denied != nil {
		t.Errorf("Expected no denied fields for admin, got %v", denied)
	}
}

// TestDeniedFieldsUser tests that every admin-only field present in the
// document is reported with its full path
func TestDeniedFieldsUser(t *testing.T) {
	doc := &FormDocument{
		Month:        strPtr("202401"),
		Status:       strPtr("submitted"),
		TaxpayerName: strPtr("ACME Trading Ltd"),
		TaxInfo: &TaxInfoDocument{
			OutstandingTax: decPtr("5000.00"),
			TaxTypes:       strPtr("VAT"),
		},
		DailyManagement: &DailyManagementDocument{
			Reminders:      strPtr("sent twice"),
			InvoiceControl: strPtr("controlling"),
			RiskAlerts: []RiskAlertDocument{
				{Document: strPtr("alert-1"), DeliveryDate: strPtr("2024-01-15")},
			},
		},
		Collection: &CollectionDocument{
			Seizures:            strPtr("warehouse stock"),
			ProhibitedDeparture: strPtr("director"),
		},
		TaxPaymentWithAssets: &TaxPaymentWithAssetsDocument{
			Description: strPtr("offset against seized vehicles"),
		},
	}

	denied := DeniedFields(doc, auth.RoleUser)
	if denied == nil {
		t.Fatal("Expected denied fields for user")
	}

	wantDenied := []string{
		"month",
		"taxpayer_name",
		"tax_info.outstanding_tax",
		"tax_info.tax_types",
		"daily_management.reminders",
		"collection.prohibited_departure",
	}
	for _, path := range wantDenied {
		if _, ok := denied[path]; !ok {
			t.Errorf("Expected %q to be denied, got %v", path, denied)
		}
	}

	wantAllowed := []string{
		"status",
		"daily_management.invoice_control",
		"daily_management.risk_alerts[0].document",
		"daily_management.risk_alerts[0].delivery_date",
		"collection.seizures",
		"tax_payment_with_assets.description",
	}
	for _, path := range wantAllowed {
		if _, ok := denied[path]; ok {
			t.Errorf("Did not expect %q to be denied", path)
		}
	}

	if len(denied) != len(wantDenied) {
		t.Errorf("Expected %d denied paths, got %d: %v", len(wantDenied), len(denied), denied)
	}
}

// TestDeniedFieldsAbsentAdminOnly tests that absent admin-only fields do not
// block a user's write
func TestDeniedFieldsAbsentAdminOnly(t *testing.T) {
	doc := &FormDocument{
		Status: strPtr("assigned"),
		DailyManagement: &DailyManagementDocument{
			InvoiceControl: strPtr("stopped"),
			Interview: &InterviewDocument{
				HasInterview:  boolPtr(true),
				Document:      strPtr("interview record"),
				InterviewDate: strPtr("2024-02-01"),
			},
		},
	}

	if denied := DeniedFields(doc, auth.RoleUser); denied != nil {
		t.Errorf("Expected no denied fields, got %v", denied)
	}
}

func boolPtr(b bool) *bool { return &b }
