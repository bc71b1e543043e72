package domain

import (
	"fmt"

	"github.com/tax-gov/arrears/internal/shared/auth"
)

// Writable reports whether the role may write (entity, field). Admins may
// write any known field; regular users only fields not tagged admin-only.
// Unknown pairs and unknown roles are non-writable (fail closed).
func Writable(entity, field string, role auth.Role) bool {
	spec, ok := Lookup(entity, field)
	if !ok {
		return false
	}
	switch role {
	case auth.RoleAdmin:
		return true
	case auth.RoleUser:
		return !spec.AdminOnly
	default:
		return false
	}
}

// DeniedFields walks every field present in the document and returns the
// paths the role is not permitted to write, keyed for the error response.
// An empty result means the whole document is writable by the role.
//
// The writer applies a reject policy: any denied field fails the entire
// operation and nothing is persisted.
func DeniedFields(d *FormDocument, role auth.Role) map[string][]string {
	denied := make(map[string][]string)

	deny := func(path, entity, field string, present bool) {
		if present && !Writable(entity, field, role) {
			denied[path] = append(denied[path], fmt.Sprintf("field is not writable by role %q", role))
		}
	}

	deny("month", EntityForm, "month", d.Month != nil)
	deny("taxpayer_name", EntityForm, "taxpayer_name", d.TaxpayerName != nil)
	deny("credit_code", EntityForm, "credit_code", d.CreditCode != nil)
	deny("taxpayer_status", EntityForm, "taxpayer_status", d.TaxpayerStatus != nil)
	deny("industry", EntityForm, "industry", d.Industry != nil)
	deny("tax_authority_code", EntityForm, "tax_authority_code", d.TaxAuthorityCode != nil)
	deny("tax_authority_name", EntityForm, "tax_authority_name", d.TaxAuthorityName != nil)
	deny("status", EntityForm, "status", d.Status != nil)

	if ti := d.TaxInfo; ti != nil {
		deny("tax_info.outstanding_tax", EntityTaxInfo, "outstanding_tax", ti.OutstandingTax != nil)
		deny("tax_info.tax_types", EntityTaxInfo, "tax_types", ti.TaxTypes != nil)
		deny("tax_info.collection_effect", EntityTaxInfo, "collection_effect", ti.CollectionEffect != nil)
	}

	if dm := d.DailyManagement; dm != nil {
		deny("daily_management.reminders", EntityDailyManagement, "reminders", dm.Reminders != nil)
		deny("daily_management.invoice_control", EntityDailyManagement, "invoice_control", dm.InvoiceControl != nil)

		for i, alert := range dm.RiskAlerts {
			prefix := fmt.Sprintf("daily_management.risk_alerts[%d].", i)
			deny(prefix+"document", EntityRiskAlert, "document", alert.Document != nil)
			deny(prefix+"delivery_date", EntityRiskAlert, "delivery_date", alert.DeliveryDate != nil)
		}

		if iv := dm.Interview; iv != nil {
			deny("daily_management.interview.has_interview", EntityInterview, "has_interview", iv.HasInterview != nil)
			deny("daily_management.interview.document", EntityInterview, "document", iv.Document != nil)
			deny("daily_management.interview.interview_date", EntityInterview, "interview_date", iv.InterviewDate != nil)
		}

		if p := dm.TaxPaymentPlan; p != nil {
			deny("daily_management.tax_payment_plan.has_agreement", EntityTaxPaymentPlan, "has_agreement", p.HasAgreement != nil)
			deny("daily_management.tax_payment_plan.month_count", EntityTaxPaymentPlan, "month_count", p.MonthCount != nil)
			deny("daily_management.tax_payment_plan.current_execution", EntityTaxPaymentPlan, "current_execution", p.CurrentExecution != nil)
			deny("daily_management.tax_payment_plan.unfulfilled_reason", EntityTaxPaymentPlan, "unfulfilled_reason", p.UnfulfilledReason != nil)
		}

		if r := dm.TaxpayerReport; r != nil {
			deny("daily_management.taxpayer_report.periodic_report", EntityTaxpayerReport, "periodic_report", r.PeriodicReport != nil)
			deny("daily_management.taxpayer_report.asset_disposal_report", EntityTaxpayerReport, "asset_disposal_report", r.AssetDisposalReport != nil)
			deny("daily_management.taxpayer_report.merger_division_report", EntityTaxpayerReport, "merger_division_report", r.MergerDivisionReport != nil)
		}

		if a := dm.TaxpayerAssets; a != nil {
			deny("daily_management.taxpayer_assets.bank_accounts", EntityTaxpayerAssets, "bank_accounts", a.BankAccounts != nil)
			deny("daily_management.taxpayer_assets.real_estate", EntityTaxpayerAssets, "real_estate", a.RealEstate != nil)
			deny("daily_management.taxpayer_assets.vehicles", EntityTaxpayerAssets, "vehicles", a.Vehicles != nil)
			deny("daily_management.taxpayer_assets.other_assets", EntityTaxpayerAssets, "other_assets", a.OtherAssets != nil)
		}
	}

	if c := d.Collection; c != nil {
		deny("collection.guarantees", EntityCollection, "guarantees", c.Guarantees != nil)
		deny("collection.freezing", EntityCollection, "freezing", c.Freezing != nil)
		deny("collection.seizures", EntityCollection, "seizures", c.Seizures != nil)
		deny("collection.reminders", EntityCollection, "reminders", c.Reminders != nil)
		deny("collection.forced_collection", EntityCollection, "forced_collection", c.ForcedCollection != nil)
		deny("collection.auction", EntityCollection, "auction", c.Auction != nil)
		deny("collection.court_execution", EntityCollection, "court_execution", c.CourtExecution != nil)
		deny("collection.rights_exercise", EntityCollection, "rights_exercise", c.RightsExercise != nil)
		deny("collection.exit_prevention", EntityCollection, "exit_prevention", c.ExitPrevention != nil)
		deny("collection.prohibited_departure", EntityCollection, "prohibited_departure", c.ProhibitedDeparture != nil)
	}

	if t := d.TaxPaymentWithAssets; t != nil {
		deny("tax_payment_with_assets.description", EntityTaxPaymentWithAssets, "description", t.Description != nil)
	}

	if len(denied) == 0 {
		return nil
	}
	return denied
}
