package models

import (
	"time"
)

// ScheduleStatus represents the working status of a doctor's schedule entry
type ScheduleStatus string

const (
	ScheduleScheduled  ScheduleStatus = "scheduled"
	ScheduleInProgress ScheduleStatus = "in_progress"
	ScheduleLate       ScheduleStatus = "late"
	ScheduleLeftEarly  ScheduleStatus = "left_early"
	ScheduleCompleted  ScheduleStatus = "completed"
	ScheduleAbsent     ScheduleStatus = "absent"
	ScheduleCancelled  ScheduleStatus = "cancelled"
)

// Default working hours applied when a schedule is created without times.
const (
	DefaultShiftStart = "08:00:00"
	DefaultShiftEnd   = "16:30:00"
)

// DoctorSchedule represents a doctor's assigned working slot on a given date,
// distinct from an appointment (a patient booking against a schedule).
type DoctorSchedule struct {
	BaseModel
	DoctorID     uint           `gorm:"index;not null" json:"doctorId"`
	Date         time.Time      `gorm:"type:date;index" json:"date"`
	RoomID       *uint          `json:"roomId,omitempty"`
	Status       ScheduleStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	StartTime    string         `gorm:"size:8;default:'08:00:00'" json:"startTime"`
	EndTime      string         `gorm:"size:8;default:'16:30:00'" json:"endTime"`
	MaxPatients  *int           `json:"maxPatients,omitempty"`
	Notes        string         `gorm:"size:255" json:"notes,omitempty"`
	CheckInTime  *time.Time     `json:"checkInTime,omitempty"`
	CheckOutTime *time.Time     `json:"checkOutTime,omitempty"`

	// Relations
	Doctor       User          `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Appointments []Appointment `gorm:"foreignKey:ScheduleID" json:"-"`
}
