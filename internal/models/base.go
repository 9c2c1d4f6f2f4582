package models

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// BaseModel contains common columns for all tables
type BaseModel struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Database connection instance
var DB *gorm.DB

// InitDB initializes database connection
func InitDB(config DatabaseConfig) (*gorm.DB, error) {
	var err error

	// Connect to MySQL database
	DB, err = gorm.Open(mysql.Open(config.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto migrate the database models
	err = DB.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Department{},
		&DoctorSchedule{},
		&Appointment{},
		&ServicePackage{},
		&Medicine{},
		&Invoice{},
		&InvoicePackage{},
		&InvoiceMedicine{},
		&MedicalRecord{},
		&MedicalRecordMedication{},
		&MedicalRecordService{},
		&MedicalRecordAttachment{},
		&Message{},
	)
	if err != nil {
		return nil, err
	}

	return DB, nil
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	DSN string
}
