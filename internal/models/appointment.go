package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending         AppointmentStatus = "pending"
	StatusConfirmed       AppointmentStatus = "confirmed"
	StatusCancelRequested AppointmentStatus = "cancel_requested"
	StatusInTreatment     AppointmentStatus = "in_treatment"
	StatusCompleted       AppointmentStatus = "completed"
	StatusCancelled       AppointmentStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are possible.
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment represents a patient booking against a doctor's schedule
type Appointment struct {
	BaseModel
	PatientID    uint              `gorm:"index;not null" json:"patientId"`
	DoctorID     uint              `gorm:"index;not null" json:"doctorId"`
	DepartmentID uint              `gorm:"index" json:"departmentId"`
	ScheduleID   uint              `gorm:"index" json:"scheduleId"`
	Date         time.Time         `gorm:"type:date" json:"appointmentDate"`
	TimeSlot     string            `gorm:"size:20" json:"timeSlot"` // e.g. "08:00-08:30"
	Reason       string            `gorm:"size:255" json:"reason,omitempty"`
	Status       AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`

	// Cancellation tracking. StatusBeforeCancel captures the status held when a
	// patient filed a cancel request so a rejected request restores it exactly.
	CancelReason       string            `gorm:"size:255" json:"cancelReason,omitempty"`
	StatusBeforeCancel AppointmentStatus `gorm:"size:20" json:"-"`
	CancelRequestedAt  *time.Time        `json:"cancelRequestedAt,omitempty"`
	CancelConfirmedAt  *time.Time        `json:"cancelConfirmedAt,omitempty"`

	// Relations (patient and doctor appear in responses when preloaded;
	// password never serializes)
	Patient    User           `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor     User           `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Department Department     `gorm:"foreignKey:DepartmentID" json:"-"`
	Schedule   DoctorSchedule `gorm:"foreignKey:ScheduleID" json:"-"`
}
