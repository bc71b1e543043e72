package domain

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Error paths use the wire field names, e.g. tax_info.outstanding_tax.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// decimal bounds from the schema: NUMERIC(12,2)
var maxDecimalAbs = decimal.New(1, 10) // 10^10, leaves 2 of 12 digits for cents

// ValidateDocument checks the document against the entity schema and returns
// every offending field in one map, keyed by field path. A create additionally
// requires the identifying attributes the schema has no default for. An empty
// result means the document is valid.
func ValidateDocument(d *FormDocument, create bool) map[string][]string {
	fields := make(map[string][]string)

	if err := validate.Struct(d); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				path := strings.TrimPrefix(ve.Namespace(), "FormDocument.")
				fields[path] = append(fields[path], messageFor(ve))
			}
		} else {
			fields["document"] = append(fields["document"], err.Error())
		}
	}

	if d.Month != nil && len(*d.Month) == 6 {
		if mm := (*d.Month)[4:]; mm < "01" || mm > "12" {
			fields["month"] = append(fields["month"], "must match YYYYMM with a month between 01 and 12")
		}
	}

	if ti := d.TaxInfo; ti != nil {
		checkDecimal(fields, "tax_info.outstanding_tax", ti.OutstandingTax)
		checkDecimal(fields, "tax_info.collection_effect", ti.CollectionEffect)
	}

	if create {
		if d.TaxpayerName == nil || *d.TaxpayerName == "" {
			fields["taxpayer_name"] = append(fields["taxpayer_name"], "is required")
		}
		if d.CreditCode == nil || *d.CreditCode == "" {
			fields["credit_code"] = append(fields["credit_code"], "is required")
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

func checkDecimal(fields map[string][]string, path string, v *decimal.Decimal) {
	if v == nil {
		return
	}
	if v.Exponent() < -2 || v.Abs().GreaterThanOrEqual(maxDecimalAbs) {
		fields[path] = append(fields[path], "must fit 12 digits with at most 2 decimal places")
	}
}

func messageFor(ve validator.FieldError) string {
	switch ve.Tag() {
	case "len":
		return fmt.Sprintf("must be exactly %s characters", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", ve.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(ve.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", ve.Param())
	default:
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
