package models

// InvoiceStatus represents the payment state of an invoice
type InvoiceStatus string

const (
	InvoiceUnpaid InvoiceStatus = "unpaid"
	InvoicePaid   InvoiceStatus = "paid"
)

// PaymentMethod identifies how an invoice was (or will be) paid
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "Cash"
	PaymentMomo  PaymentMethod = "Momo"
	PaymentVNPay PaymentMethod = "VNPay"
)

// Invoice is linked 1:1 to an appointment and created when treatment starts.
// The total payable is always recomputed from the line items, never stored,
// so the stored record cannot drift from its lines.
type Invoice struct {
	BaseModel
	AppointmentID uint          `gorm:"uniqueIndex;not null" json:"appointmentId"`
	PatientID     uint          `gorm:"index;not null" json:"patientId"`
	Status        InvoiceStatus `gorm:"size:20;default:'unpaid'" json:"status"`
	PaymentMethod PaymentMethod `gorm:"size:20" json:"paymentMethod,omitempty"`
	HasInsurance  bool          `gorm:"default:false" json:"hasInsurance"`
	PaymentRef    string        `gorm:"size:64;index" json:"-"` // gateway order reference

	Packages  []InvoicePackage  `gorm:"foreignKey:InvoiceID" json:"packages"`
	Medicines []InvoiceMedicine `gorm:"foreignKey:InvoiceID" json:"medicines"`

	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
	Patient     User        `gorm:"foreignKey:PatientID" json:"-"`
}

// InvoicePackage is a service-package line item. Price and discount are
// snapshots taken from the package record when the line was added.
type InvoicePackage struct {
	BaseModel
	InvoiceID       uint    `gorm:"index;not null" json:"invoiceId"`
	PackageID       uint    `gorm:"index;not null" json:"packageId"`
	Quantity        int     `gorm:"not null;default:1" json:"quantity"`
	Price           float64 `gorm:"not null" json:"price"`
	DiscountPercent float64 `gorm:"default:0" json:"discountPercent"`

	Package ServicePackage `gorm:"foreignKey:PackageID" json:"-"`
}

// InvoiceMedicine is a medicine line item with a price snapshot.
type InvoiceMedicine struct {
	BaseModel
	InvoiceID  uint    `gorm:"index;not null" json:"invoiceId"`
	MedicineID uint    `gorm:"index;not null" json:"medicineId"`
	Quantity   int     `gorm:"not null;default:1" json:"quantity"`
	Price      float64 `gorm:"not null" json:"price"`
	Dosage     string  `gorm:"size:255" json:"dosage,omitempty"`

	Medicine Medicine `gorm:"foreignKey:MedicineID" json:"-"`
}
