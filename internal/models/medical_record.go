package models

import (
	"time"
)

// MedicalRecord represents a patient's medical record for a treatment visit
type MedicalRecord struct {
	BaseModel
	AppointmentID uint      `gorm:"index" json:"appointmentId"`
	PatientID     uint      `gorm:"index;not null" json:"patientId"`
	DoctorID      uint      `gorm:"index;not null" json:"doctorId"`
	RecordDate    time.Time `json:"date"`
	Diagnosis     string    `gorm:"size:255" json:"diagnosis"`
	Symptoms      string    `gorm:"type:text" json:"symptoms,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`

	Medications []MedicalRecordMedication `gorm:"foreignKey:MedicalRecordID" json:"medications,omitempty"`
	Services    []MedicalRecordService    `gorm:"foreignKey:MedicalRecordID" json:"services,omitempty"`
	Attachments []MedicalRecordAttachment `gorm:"foreignKey:MedicalRecordID" json:"attachments,omitempty"`

	// Relations
	Patient     User        `gorm:"foreignKey:PatientID" json:"-"`
	Doctor      User        `gorm:"foreignKey:DoctorID" json:"-"`
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}

// MedicalRecordMedication is a prescribed medicine line on a record
type MedicalRecordMedication struct {
	BaseModel
	MedicalRecordID uint   `gorm:"index;not null" json:"medicalRecordId"`
	MedicineID      uint   `gorm:"index;not null" json:"medicineId"`
	Quantity        int    `gorm:"not null;default:1" json:"quantity"`
	Dosage          string `gorm:"size:255" json:"dosage,omitempty"`
	Instructions    string `gorm:"size:255" json:"instructions,omitempty"`

	Medicine Medicine `gorm:"foreignKey:MedicineID" json:"-"`
}

// MedicalRecordService is a performed service-package line on a record
type MedicalRecordService struct {
	BaseModel
	MedicalRecordID uint   `gorm:"index;not null" json:"medicalRecordId"`
	PackageID       uint   `gorm:"index;not null" json:"packageId"`
	Notes           string `gorm:"size:255" json:"notes,omitempty"`

	Package ServicePackage `gorm:"foreignKey:PackageID" json:"-"`
}

// MedicalRecordAttachment represents a file attached to a medical record
type MedicalRecordAttachment struct {
	BaseModel
	MedicalRecordID uint   `gorm:"index;not null" json:"medicalRecordId"`
	FileName        string `json:"fileName" gorm:"not null"`        // Original name of the file
	FileType        string `json:"fileType" gorm:"not null"`        // MIME type of the file
	FileData        []byte `json:"-" gorm:"type:longblob;not null"` // File content as binary data (longblob for MySQL)
}
