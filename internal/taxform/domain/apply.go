package domain

// ApplyTo merges the document into the aggregate: only present fields are
// written, and a descendant present in the document but missing from the
// aggregate is created from its schema defaults first (update-of-absent is
// create). A non-nil risk alert list replaces the stored collection whole.
// The document must already be validated and authorized.
func (d *FormDocument) ApplyTo(f *TaxForm) {
	set(&f.Month, d.Month)
	set(&f.TaxpayerName, d.TaxpayerName)
	set(&f.CreditCode, d.CreditCode)
	setAs(&f.TaxpayerStatus, d.TaxpayerStatus)
	set(&f.Industry, d.Industry)
	set(&f.TaxAuthorityCode, d.TaxAuthorityCode)
	set(&f.TaxAuthorityName, d.TaxAuthorityName)
	setAs(&f.Status, d.Status)

	if d.TaxInfo != nil {
		if f.TaxInfo == nil {
			f.TaxInfo = DefaultTaxInfo()
		}
		ti := f.TaxInfo
		if d.TaxInfo.OutstandingTax != nil {
			ti.OutstandingTax = *d.TaxInfo.OutstandingTax
		}
		set(&ti.TaxTypes, d.TaxInfo.TaxTypes)
		if d.TaxInfo.CollectionEffect != nil {
			ti.CollectionEffect = *d.TaxInfo.CollectionEffect
		}
	}

	if d.DailyManagement != nil {
		if f.DailyManagement == nil {
			f.DailyManagement = DefaultDailyManagement()
		}
		d.DailyManagement.applyTo(f.DailyManagement)
	}

	if d.Collection != nil {
		if f.Collection == nil {
			f.Collection = DefaultCollection()
		}
		c := f.Collection
		dc := d.Collection
		set(&c.Guarantees, dc.Guarantees)
		set(&c.Freezing, dc.Freezing)
		set(&c.Seizures, dc.Seizures)
		set(&c.Reminders, dc.Reminders)
		set(&c.ForcedCollection, dc.ForcedCollection)
		set(&c.Auction, dc.Auction)
		set(&c.CourtExecution, dc.CourtExecution)
		set(&c.RightsExercise, dc.RightsExercise)
		set(&c.ExitPrevention, dc.ExitPrevention)
		set(&c.ProhibitedDeparture, dc.ProhibitedDeparture)
	}

	if d.TaxPaymentWithAssets != nil {
		if f.TaxPaymentWithAssets == nil {
			f.TaxPaymentWithAssets = DefaultTaxPaymentWithAssets()
		}
		set(&f.TaxPaymentWithAssets.Description, d.TaxPaymentWithAssets.Description)
	}
}

func (d *DailyManagementDocument) applyTo(dm *DailyManagement) {
	set(&dm.Reminders, d.Reminders)
	setAs(&dm.InvoiceControl, d.InvoiceControl)

	if d.RiskAlerts != nil {
		alerts := make([]RiskAlert, 0, len(d.RiskAlerts))
		for _, ad := range d.RiskAlerts {
			alert := RiskAlert{}
			set(&alert.Document, ad.Document)
			alert.DeliveryDate = parseDatePtr(ad.DeliveryDate)
			alerts = append(alerts, alert)
		}
		dm.RiskAlerts = alerts
	}

	if d.Interview != nil {
		if dm.Interview == nil {
			dm.Interview = DefaultInterview()
		}
		iv := dm.Interview
		set(&iv.HasInterview, d.Interview.HasInterview)
		set(&iv.Document, d.Interview.Document)
		if d.Interview.InterviewDate != nil {
			iv.InterviewDate = parseDatePtr(d.Interview.InterviewDate)
		}
	}

	if d.TaxPaymentPlan != nil {
		if dm.TaxPaymentPlan == nil {
			dm.TaxPaymentPlan = DefaultTaxPaymentPlan()
		}
		p := dm.TaxPaymentPlan
		set(&p.HasAgreement, d.TaxPaymentPlan.HasAgreement)
		set(&p.MonthCount, d.TaxPaymentPlan.MonthCount)
		set(&p.CurrentExecution, d.TaxPaymentPlan.CurrentExecution)
		set(&p.UnfulfilledReason, d.TaxPaymentPlan.UnfulfilledReason)
	}

	if d.TaxpayerReport != nil {
		if dm.TaxpayerReport == nil {
			dm.TaxpayerReport = DefaultTaxpayerReport()
		}
		r := dm.TaxpayerReport
		set(&r.PeriodicReport, d.TaxpayerReport.PeriodicReport)
		set(&r.AssetDisposalReport, d.TaxpayerReport.AssetDisposalReport)
		set(&r.MergerDivisionReport, d.TaxpayerReport.MergerDivisionReport)
	}

	if d.TaxpayerAssets != nil {
		if dm.TaxpayerAssets == nil {
			dm.TaxpayerAssets = DefaultTaxpayerAssets()
		}
		a := dm.TaxpayerAssets
		set(&a.BankAccounts, d.TaxpayerAssets.BankAccounts)
		set(&a.RealEstate, d.TaxpayerAssets.RealEstate)
		set(&a.Vehicles, d.TaxpayerAssets.Vehicles)
		set(&a.OtherAssets, d.TaxpayerAssets.OtherAssets)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// setAs assigns a *string document value to a named string type field.
func setAs[T ~string](dst *T, src *string) {
	if src != nil {
		*dst = T(*src)
	}
}

// parseDatePtr converts a validated YYYY-MM-DD string; bad input yields nil
// rather than a garbage date.
func parseDatePtr(s *string) *Date {
	if s == nil {
		return nil
	}
	d, err := ParseDate(*s)
	if err != nil {
		return nil
	}
	return &d
}
