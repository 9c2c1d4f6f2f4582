package billing

import (
	"errors"
	"reflect"
	"testing"

	"clinic-app-server/internal/models"
)

func TestPackageLine(t *testing.T) {
	tests := []struct {
		name         string
		price        float64
		quantity     int
		discount     float64
		hasInsurance bool
		want         PackageLineTotal
	}{
		{
			name:  "insured line applies discount as coverage",
			price: 1_000_000, quantity: 2, discount: 20, hasInsurance: true,
			want: PackageLineTotal{Gross: 2_000_000, InsurancePay: 400_000, Net: 1_600_000},
		},
		{
			name:  "uninsured line pays gross",
			price: 1_000_000, quantity: 2, discount: 20, hasInsurance: false,
			want: PackageLineTotal{Gross: 2_000_000, InsurancePay: 0, Net: 2_000_000},
		},
		{
			name:  "full discount covers everything",
			price: 500_000, quantity: 3, discount: 100, hasInsurance: true,
			want: PackageLineTotal{Gross: 1_500_000, InsurancePay: 1_500_000, Net: 0},
		},
		{
			name:  "zero quantity",
			price: 500_000, quantity: 0, discount: 30, hasInsurance: true,
			want: PackageLineTotal{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PackageLine(tt.price, tt.quantity, tt.discount, tt.hasInsurance)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("PackageLine() = %+v, want %+v", got, tt.want)
			}
			if got.Net > got.Gross {
				t.Errorf("net %v exceeds gross %v", got.Net, got.Gross)
			}
		})
	}
}

func TestPackageLineRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		quantity int
		discount float64
	}{
		{"negative price", -1, 1, 0},
		{"negative quantity", 100, -1, 0},
		{"discount below zero", 100, 1, -5},
		{"discount above hundred", 100, 1, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PackageLine(tt.price, tt.quantity, tt.discount, true)
			var lineErr *InvalidLineError
			if !errors.As(err, &lineErr) {
				t.Errorf("got err %v, want InvalidLineError", err)
			}
		})
	}
}

func TestMedicineLine(t *testing.T) {
	got, err := MedicineLine(25_000, 20)
	if err != nil {
		t.Fatal(err)
	}
	if got != 500_000 {
		t.Errorf("MedicineLine() = %v, want 500000", got)
	}

	if _, err := MedicineLine(-1, 1); err == nil {
		t.Error("negative price accepted")
	}
}

func testInvoice(hasInsurance bool) *models.Invoice {
	return &models.Invoice{
		HasInsurance: hasInsurance,
		Packages: []models.InvoicePackage{
			{Price: 1_000_000, Quantity: 2, DiscountPercent: 20},
		},
		Medicines: []models.InvoiceMedicine{
			{Price: 25_000, Quantity: 20},
		},
	}
}

func TestComputeAggregates(t *testing.T) {
	totals, err := Compute(testInvoice(true))
	if err != nil {
		t.Fatal(err)
	}
	want := Totals{
		PackagesNet:  1_600_000,
		Insurance:    400_000,
		Medicines:    500_000,
		GrandTotal:   2_100_000,
		HasInsurance: true,
	}
	if totals != want {
		t.Errorf("Compute() = %+v, want %+v", totals, want)
	}
}

func TestInsuranceToggleNeverDecreasesGrandTotal(t *testing.T) {
	insured, err := Compute(testInvoice(true))
	if err != nil {
		t.Fatal(err)
	}
	uninsured, err := Compute(testInvoice(false))
	if err != nil {
		t.Fatal(err)
	}
	if uninsured.GrandTotal < insured.GrandTotal {
		t.Errorf("removing insurance decreased grand total: %v -> %v",
			insured.GrandTotal, uninsured.GrandTotal)
	}
	if uninsured.Insurance != 0 {
		t.Errorf("uninsured invoice reports coverage %v", uninsured.Insurance)
	}
	// The discount stays on the line; only the coverage changes.
	inv := testInvoice(false)
	if _, err := Compute(inv); err != nil {
		t.Fatal(err)
	}
	if inv.Packages[0].DiscountPercent != 20 {
		t.Errorf("stored discount mutated to %v", inv.Packages[0].DiscountPercent)
	}
}

func TestComputeIsIdempotent(t *testing.T) {
	inv := testInvoice(true)
	first, err := Compute(inv)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Compute(inv)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recomputation differs: %+v vs %+v", first, second)
	}
}

func TestComputeGrandTotalNonNegative(t *testing.T) {
	inv := &models.Invoice{
		HasInsurance: true,
		Packages: []models.InvoicePackage{
			{Price: 300_000, Quantity: 1, DiscountPercent: 100},
		},
	}
	totals, err := Compute(inv)
	if err != nil {
		t.Fatal(err)
	}
	if totals.GrandTotal < 0 {
		t.Errorf("grand total negative: %v", totals.GrandTotal)
	}
}

func TestRoundVND(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
	}{
		{2_100_000, 2_100_000},
		{1_666.4, 1_666},
		{1_666.5, 1_667},
	}
	for _, tt := range tests {
		if got := RoundVND(tt.in); got != tt.want {
			t.Errorf("RoundVND(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
