package models

// ServicePackage is a billable medical service bundle with a price and an
// optional insurance (BHYT) discount percentage.
type ServicePackage struct {
	BaseModel
	Name            string  `gorm:"size:255;not null" json:"name"`
	Description     string  `gorm:"type:text" json:"description,omitempty"`
	Price           float64 `gorm:"not null" json:"price"` // VND
	DiscountPercent float64 `gorm:"default:0" json:"discountPercent"`
	IsActive        bool    `gorm:"default:true" json:"isActive"`
}

// Medicine is a prescribable item with a unit price. Insurance never applies
// to medicines in this domain.
type Medicine struct {
	BaseModel
	Name        string  `gorm:"size:255;not null" json:"name"`
	Unit        string  `gorm:"size:50" json:"unit"` // e.g. "viên", "hộp"
	Price       float64 `gorm:"not null" json:"price"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	IsActive    bool    `gorm:"default:true" json:"isActive"`
}
