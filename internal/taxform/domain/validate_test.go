package domain

import (
	"testing"
)

// TestValidateDocumentCreate tests the create-time required fields
func TestValidateDocumentCreate(t *testing.T) {
	doc := &FormDocument{}

	fields := ValidateDocument(doc, true)
	if fields == nil {
		t.Fatal("Expected validation errors for empty create document")
	}
	if _, ok := fields["taxpayer_name"]; !ok {
		t.Errorf("Expected taxpayer_name to be required, got %v", fields)
	}
	if _, ok := fields["credit_code"]; !ok {
		t.Errorf("Expected credit_code to be required, got %v", fields)
	}
}

// TestValidateDocumentUpdate tests that updates have no required fields
func TestValidateDocumentUpdate(t *testing.T) {
	if fields := ValidateDocument(&FormDocument{}, false); fields != nil {
		t.Errorf("Expected empty update document to be valid, got %v", fields)
	}
}

// TestValidateMonth tests the reporting period format
func TestValidateMonth(t *testing.T) {
	tests := []struct {
		name  string
		month string
		valid bool
	}{
		{"Valid January", "202401", true},
		{"Valid December", "202412", true},
		{"Month thirteen", "202413", false},
		{"Month zero", "202400", false},
		{"Too short", "2024", false},
		{"Too long", "2024011", false},
		{"Non-numeric", "2024AB", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &FormDocument{Month: strPtr(tt.month)}
			fields := ValidateDocument(doc, false)

			_, flagged := fields["month"]
			if tt.valid && flagged {
				t.Errorf("Expected month %q to be valid, got %v", tt.month, fields["month"])
			}
			if !tt.valid && !flagged {
				t.Errorf("Expected month %q to be rejected", tt.month)
			}
		})
	}
}

// TestValidateEnums tests enum-valued fields
func TestValidateEnums(t *testing.T) {
	tests := []struct {
		name  string
		doc   *FormDocument
		path  string
		valid bool
	}{
		{"Valid taxpayer status", &FormDocument{TaxpayerStatus: strPtr("abnormal")}, "taxpayer_status", true},
		{"Unknown taxpayer status", &FormDocument{TaxpayerStatus: strPtr("vanished")}, "taxpayer_status", false},
		{"Valid form status", &FormDocument{Status: strPtr("approved")}, "status", true},
		{"Unknown form status", &FormDocument{Status: strPtr("archived")}, "status", false},
		{
			"Valid invoice control",
			&FormDocument{DailyManagement: &DailyManagementDocument{InvoiceControl: strPtr("quota_limited")}},
			"daily_management.invoice_control",
			true,
		},
		{
			"Unknown invoice control",
			&FormDocument{DailyManagement: &DailyManagementDocument{InvoiceControl: strPtr("banned")}},
			"daily_management.invoice_control",
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ValidateDocument(tt.doc, false)
			_, flagged := fields[tt.path]
			if tt.valid && flagged {
				t.Errorf("Expected valid, got %v", fields[tt.path])
			}
			if !tt.valid && !flagged {
				t.Errorf("Expected %q to be rejected, got %v", tt.path, fields)
			}
		})
	}
}

// TestValidateDates tests date-valued fields in the management subtree
func TestValidateDates(t *testing.T) {
	doc := &FormDocument{
		DailyManagement: &DailyManagementDocument{
			RiskAlerts: []RiskAlertDocument{
				{DeliveryDate: strPtr("2024-01-15")},
				{DeliveryDate: strPtr("15/01/2024")},
			},
			Interview: &InterviewDocument{InterviewDate: strPtr("not-a-date")},
		},
	}

	fields := ValidateDocument(doc, false)
	if fields == nil {
		t.Fatal("Expected validation errors")
	}
	if _, ok := fields["daily_management.risk_alerts[1].delivery_date"]; !ok {
		t.Errorf("Expected second alert date to be rejected, got %v", fields)
	}
	if _, ok := fields["daily_management.risk_alerts[0].delivery_date"]; ok {
		t.Error("Did not expect first alert date to be rejected")
	}
	if _, ok := fields["daily_management.interview.interview_date"]; !ok {
		t.Errorf("Expected interview date to be rejected, got %v", fields)
	}
}

// TestValidateDecimals tests the money field bounds
func TestValidateDecimals(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"Whole amount", "5000", true},
		{"Two decimal places", "5000.25", true},
		{"Zero", "0", true},
		{"Negative two places", "-120.50", true},
		{"Three decimal places", "10.125", false},
		{"Too many digits", "10000000000.00", false},
		{"Largest representable", "9999999999.99", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &FormDocument{TaxInfo: &TaxInfoDocument{OutstandingTax: decPtr(tt.value)}}
			fields := ValidateDocument(doc, false)

			_, flagged := fields["tax_info.outstanding_tax"]
			if tt.valid && flagged {
				t.Errorf("Expected %s to be valid, got %v", tt.value, fields)
			}
			if !tt.valid && !flagged {
				t.Errorf("Expected %s to be rejected", tt.value)
			}
		})
	}
}

// TestValidateCollectsAllErrors tests that one pass reports every offending
// field instead of stopping at the first
func TestValidateCollectsAllErrors(t *testing.T) {
	doc := &FormDocument{
		Month:          strPtr("202499"),
		TaxpayerStatus: strPtr("vanished"),
		TaxInfo:        &TaxInfoDocument{OutstandingTax: decPtr("1.234")},
		DailyManagement: &DailyManagementDocument{
			Interview: &InterviewDocument{InterviewDate: strPtr("bad")},
		},
	}

	fields := ValidateDocument(doc, false)
	for _, path := range []string{
		"month",
		"taxpayer_status",
		"tax_info.outstanding_tax",
		"daily_management.interview.interview_date",
	} {
		if _, ok := fields[path]; !ok {
			t.Errorf("Expected %q in errors, got %v", path, fields)
		}
	}
}
