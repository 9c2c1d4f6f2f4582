package handlers

import (
	"errors"
	"log"
	"time"

	"clinic-app-server/internal/lifecycle"
	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/notifications"
	"clinic-app-server/internal/scheduling"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AppointmentHandler handles appointment related requests.
type AppointmentHandler struct {
	DB     *gorm.DB
	Mailer *notifications.Mailer
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, mailer *notifications.Mailer) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Mailer: mailer}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	DoctorID   uint   `json:"doctorId" binding:"required"`
	ScheduleID uint   `json:"scheduleId" binding:"required"`
	Date       string `json:"appointmentDate" binding:"required"` // YYYY-MM-DD
	TimeSlot   string `json:"timeSlot" binding:"required" validate:"timeslot"`
	Reason     string `json:"reason"`
}

// CreateAppointment handles booking a new appointment against a doctor's schedule.
// Initiated by a patient; staff may also book on a patient's behalf.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Patient ID not found in token")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	now := time.Now()
	requestedDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	if requestedDay.Before(scheduling.StartOfDay(now)) {
		utils.BadRequest(c, "Appointment date must not be in the past.")
		return
	}

	// Verify doctor exists and is a doctor
	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", req.DoctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found or user is not a doctor")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return
	}

	// The schedule must belong to the doctor, be active and on the booked date
	var schedule models.DoctorSchedule
	if err := h.DB.First(&schedule, "id = ?", req.ScheduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Schedule not found")
		} else {
			utils.InternalServerError(c, "Database error verifying schedule: "+err.Error())
		}
		return
	}
	if schedule.DoctorID != req.DoctorID {
		utils.BadRequest(c, "Schedule does not belong to the selected doctor")
		return
	}
	if schedule.Status == models.ScheduleCancelled {
		utils.Conflict(c, "The doctor's schedule for this date has been cancelled")
		return
	}
	if !schedule.Date.Equal(date) {
		utils.BadRequest(c, "Appointment date does not match the schedule date")
		return
	}

	// Capacity check: cancelled bookings do not occupy a slot
	if schedule.MaxPatients != nil {
		var booked int64
		h.DB.Model(&models.Appointment{}).
			Where("schedule_id = ? AND status <> ?", schedule.ID, models.StatusCancelled).
			Count(&booked)
		if booked >= int64(*schedule.MaxPatients) {
			utils.Conflict(c, "This schedule is fully booked")
			return
		}
	}

	var departmentID uint
	if doctor.DepartmentID != nil {
		departmentID = *doctor.DepartmentID
	}

	appointment := models.Appointment{
		PatientID:    patientID,
		DoctorID:     req.DoctorID,
		DepartmentID: departmentID,
		ScheduleID:   req.ScheduleID,
		Date:         date,
		TimeSlot:     req.TimeSlot,
		Reason:       req.Reason,
		Status:       models.StatusPending,
	}

	if err := h.DB.Create(&appointment).Error; err != nil {
		utils.InternalServerError(c, "Failed to create appointment: "+err.Error())
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointmentsForUser handles fetching appointments for the logged-in user.
// Patients see their own bookings, doctors their own calendar, admins everything.
func (h *AppointmentHandler) GetAppointmentsForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Patient").Preload("Doctor").Order("date asc, time_slot asc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}

	var appointments []models.Appointment
	var err error
	switch userRole {
	case models.RolePatient:
		err = query.Where("patient_id = ?", userID).Find(&appointments).Error
	case models.RoleDoctor:
		err = query.Where("doctor_id = ?", userID).Find(&appointments).Error
	case models.RoleAdmin:
		if doctorID := c.Query("doctorId"); doctorID != "" {
			query = query.Where("doctor_id = ?", doctorID)
		}
		err = query.Find(&appointments).Error
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	if err != nil {
		utils.InternalServerError(c, "Failed to fetch appointments: "+err.Error())
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
// Accessible by involved patient, doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, ok := h.loadAppointment(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	isPatientInvolved := userID == appointment.PatientID
	isDoctorInvolved := userID == appointment.DoctorID

	if userRole != models.RoleAdmin && !isPatientInvolved && !isDoctorInvolved {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// transitionRequest carries the optional reason for cancellation events.
type transitionRequest struct {
	Reason string `json:"reason"`
}

// Confirm moves a pending appointment to confirmed (staff only).
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventConfirm)
	if !ok {
		return
	}
	var patient models.User
	if err := h.DB.First(&patient, "id = ?", appt.PatientID).Error; err == nil {
		go h.Mailer.SendAppointmentConfirmed(patient, appt)
	}
	utils.Success(c, "Appointment confirmed", appt)
}

// Cancel cancels a pending appointment directly (staff only, reason required).
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventCancel)
	if !ok {
		return
	}
	utils.Success(c, "Appointment cancelled", appt)
}

// RequestCancel files a patient's cancellation request for staff review.
func (h *AppointmentHandler) RequestCancel(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventRequestCancel)
	if !ok {
		return
	}
	utils.Success(c, "Cancellation request submitted", appt)
}

// ApproveCancel finalizes a patient's cancellation request (staff only).
func (h *AppointmentHandler) ApproveCancel(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventApproveCancel)
	if !ok {
		return
	}
	var patient models.User
	if err := h.DB.First(&patient, "id = ?", appt.PatientID).Error; err == nil {
		go h.Mailer.SendCancelDecision(patient, appt, true)
	}
	utils.Success(c, "Cancellation request approved", appt)
}

// RejectCancel declines a cancellation request and restores the prior status.
func (h *AppointmentHandler) RejectCancel(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventRejectCancel)
	if !ok {
		return
	}
	var patient models.User
	if err := h.DB.First(&patient, "id = ?", appt.PatientID).Error; err == nil {
		go h.Mailer.SendCancelDecision(patient, appt, false)
	}
	utils.Success(c, "Cancellation request rejected", appt)
}

// StartTreatmentResult reports the transition plus the outcome of the two
// follow-up creations, so callers can surface a partial failure instead of
// losing it in a swallowed error.
type StartTreatmentResult struct {
	Transitioned   bool               `json:"transitioned"`
	InvoiceCreated bool               `json:"invoiceCreated"`
	RecordCreated  bool               `json:"recordCreated"`
	Appointment    models.Appointment `json:"appointment"`
}

// StartTreatment moves a confirmed appointment into treatment and attempts to
// create the visit's invoice and medical record. Each creation runs in its own
// failure boundary: one failing never blocks the other or the transition.
func (h *AppointmentHandler) StartTreatment(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventStartTreatment)
	if !ok {
		return
	}

	result := StartTreatmentResult{Transitioned: true, Appointment: appt}

	invoice := models.Invoice{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Status:        models.InvoiceUnpaid,
	}
	if err := h.DB.Create(&invoice).Error; err != nil {
		// At-least-attempt semantics: the appointment is already in treatment.
		log.Printf("start treatment: invoice creation for appointment %d failed: %v", appt.ID, err)
	} else {
		result.InvoiceCreated = true
	}

	record := models.MedicalRecord{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		RecordDate:    time.Now(),
	}
	if err := h.DB.Create(&record).Error; err != nil {
		log.Printf("start treatment: medical record creation for appointment %d failed: %v", appt.ID, err)
	} else {
		result.RecordCreated = true
	}

	utils.Success(c, "Treatment started", result)
}

// Complete finishes an appointment in treatment (staff only).
func (h *AppointmentHandler) Complete(c *gin.Context) {
	appt, ok := h.applyTransition(c, lifecycle.EventComplete)
	if !ok {
		return
	}
	utils.Success(c, "Appointment completed", appt)
}

// applyTransition loads the appointment, authorizes the caller, applies the
// lifecycle event and persists the result. It reports ok=false after having
// written an error response.
func (h *AppointmentHandler) applyTransition(c *gin.Context, event lifecycle.Event) (models.Appointment, bool) {
	appointment, ok := h.loadAppointment(c)
	if !ok {
		return models.Appointment{}, false
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	var actor lifecycle.Actor
	switch userRole {
	case models.RolePatient:
		if appointment.PatientID != userID {
			utils.Forbidden(c, "You are not authorized to act on this appointment")
			return models.Appointment{}, false
		}
		actor = lifecycle.ActorPatient
	case models.RoleDoctor:
		if appointment.DoctorID != userID {
			utils.Forbidden(c, "You are not authorized to act on this appointment")
			return models.Appointment{}, false
		}
		actor = lifecycle.ActorStaff
	case models.RoleAdmin:
		actor = lifecycle.ActorStaff
	default:
		utils.Forbidden(c, "Your role may not change appointments")
		return models.Appointment{}, false
	}

	var req transitionRequest
	// The reason body is optional for events that do not require one.
	_ = c.ShouldBindJSON(&req)

	updated, err := lifecycle.Transition(appointment, event, actor, req.Reason, time.Now())
	if err != nil {
		var invalid *lifecycle.InvalidTransitionError
		var wrongActor *lifecycle.ActorNotAllowedError
		switch {
		case errors.As(err, &invalid):
			utils.Conflict(c, err.Error())
		case errors.As(err, &wrongActor):
			utils.Forbidden(c, err.Error())
		case errors.Is(err, lifecycle.ErrReasonRequired):
			utils.BadRequest(c, err.Error())
		default:
			utils.InternalServerError(c, err.Error())
		}
		return models.Appointment{}, false
	}

	if err := h.DB.Save(&updated).Error; err != nil {
		utils.InternalServerError(c, "Failed to update appointment: "+err.Error())
		return models.Appointment{}, false
	}

	return updated, true
}

func (h *AppointmentHandler) loadAppointment(c *gin.Context) (models.Appointment, bool) {
	var appointment models.Appointment
	if err := h.DB.First(&appointment, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return models.Appointment{}, false
	}
	return appointment, true
}
