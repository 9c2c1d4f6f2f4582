// Package billing derives invoice totals from package and medicine line items.
// All amounts are Vietnamese đồng. Intermediate values are never rounded;
// callers round only what they display, via RoundVND.
package billing

import (
	"fmt"
	"math"

	"clinic-app-server/internal/models"
)

// InvalidLineError reports a line item with out-of-range values.
type InvalidLineError struct {
	Field string
	Value float64
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("invalid line item: %s = %v", e.Field, e.Value)
}

// PackageLineTotal holds the computed amounts for one service-package line.
type PackageLineTotal struct {
	Gross        float64 `json:"gross"`
	InsurancePay float64 `json:"insurancePay"`
	Net          float64 `json:"net"`
}

// Totals aggregates an invoice's line items.
type Totals struct {
	PackagesNet  float64 `json:"totalPackagesNet"`
	Insurance    float64 `json:"totalInsurance"`
	Medicines    float64 `json:"totalMedicines"`
	GrandTotal   float64 `json:"grandTotal"`
	HasInsurance bool    `json:"hasInsurance"`
}

// PackageLine computes one package line. When the invoice carries insurance,
// the package's discount percentage is paid by insurance; the patient owes the
// net. The stored discount is a property of the package and is never modified
// by the insurance flag.
func PackageLine(price float64, quantity int, discountPercent float64, hasInsurance bool) (PackageLineTotal, error) {
	if price < 0 {
		return PackageLineTotal{}, &InvalidLineError{Field: "price", Value: price}
	}
	if quantity < 0 {
		return PackageLineTotal{}, &InvalidLineError{Field: "quantity", Value: float64(quantity)}
	}
	if discountPercent < 0 || discountPercent > 100 {
		return PackageLineTotal{}, &InvalidLineError{Field: "discountPercent", Value: discountPercent}
	}

	gross := price * float64(quantity)
	var insurancePay float64
	if hasInsurance {
		insurancePay = price * discountPercent / 100 * float64(quantity)
	}
	return PackageLineTotal{
		Gross:        gross,
		InsurancePay: insurancePay,
		Net:          gross - insurancePay,
	}, nil
}

// MedicineLine computes one medicine line. Insurance never applies to medicines.
func MedicineLine(price float64, quantity int) (float64, error) {
	if price < 0 {
		return 0, &InvalidLineError{Field: "price", Value: price}
	}
	if quantity < 0 {
		return 0, &InvalidLineError{Field: "quantity", Value: float64(quantity)}
	}
	return price * float64(quantity), nil
}

// Compute aggregates all line items of an invoice. The invoice record stores
// no totals; this is the single source of truth for what the patient owes.
func Compute(inv *models.Invoice) (Totals, error) {
	totals := Totals{HasInsurance: inv.HasInsurance}

	for _, p := range inv.Packages {
		line, err := PackageLine(p.Price, p.Quantity, p.DiscountPercent, inv.HasInsurance)
		if err != nil {
			return Totals{}, fmt.Errorf("package line %d: %w", p.ID, err)
		}
		totals.PackagesNet += line.Net
		totals.Insurance += line.InsurancePay
	}

	for _, m := range inv.Medicines {
		total, err := MedicineLine(m.Price, m.Quantity)
		if err != nil {
			return Totals{}, fmt.Errorf("medicine line %d: %w", m.ID, err)
		}
		totals.Medicines += total
	}

	totals.GrandTotal = totals.PackagesNet + totals.Medicines
	return totals, nil
}

// RoundVND rounds a final amount to whole đồng for display or charging.
// Only sums leaving the calculator should pass through here; rounding each
// line would accumulate drift across large invoices.
func RoundVND(amount float64) int64 {
	return int64(math.Round(amount))
}
