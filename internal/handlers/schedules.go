package handlers

import (
	"errors"
	"time"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/scheduling"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ScheduleHandler handles doctor schedule related requests.
type ScheduleHandler struct {
	DB *gorm.DB
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(db *gorm.DB) *ScheduleHandler {
	return &ScheduleHandler{DB: db}
}

// CreateScheduleRequest represents the request body for creating a schedule.
type CreateScheduleRequest struct {
	DoctorID    uint   `json:"doctorId" binding:"required"`
	Date        string `json:"date" binding:"required"` // YYYY-MM-DD
	RoomID      *uint  `json:"roomId"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MaxPatients *int   `json:"maxPatients"`
	Notes       string `json:"notes"`
}

// CreateSchedule handles creating a single schedule entry.
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req CreateScheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		utils.BadRequest(c, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	schedule, ok := h.buildSchedule(c, req, date)
	if !ok {
		return
	}

	if err := h.DB.Create(&schedule).Error; err != nil {
		utils.InternalServerError(c, "Failed to create schedule: "+err.Error())
		return
	}

	utils.Created(c, "Schedule created successfully", schedule)
}

// BulkCreateSchedulesRequest creates one schedule per calendar day in the
// inclusive range, all sharing the same doctor, room, times and notes.
type BulkCreateSchedulesRequest struct {
	DoctorID    uint   `json:"doctorId" binding:"required"`
	StartDate   string `json:"startDate" binding:"required"`
	EndDate     string `json:"endDate" binding:"required"`
	RoomID      *uint  `json:"roomId"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	MaxPatients *int   `json:"maxPatients"`
	Notes       string `json:"notes"`
}

// BulkCreateSchedules materializes one schedule per date in the range.
func (h *ScheduleHandler) BulkCreateSchedules(c *gin.Context) {
	var req BulkCreateSchedulesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		utils.BadRequest(c, "Invalid startDate format. Use YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		utils.BadRequest(c, "Invalid endDate format. Use YYYY-MM-DD")
		return
	}

	dates, err := scheduling.ExpandDateRange(start, end)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	single := CreateScheduleRequest{
		DoctorID:    req.DoctorID,
		RoomID:      req.RoomID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		MaxPatients: req.MaxPatients,
		Notes:       req.Notes,
	}

	schedules := make([]models.DoctorSchedule, 0, len(dates))
	for _, date := range dates {
		schedule, ok := h.buildSchedule(c, single, date)
		if !ok {
			return
		}
		schedules = append(schedules, schedule)
	}

	if err := h.DB.Create(&schedules).Error; err != nil {
		utils.InternalServerError(c, "Failed to create schedules: "+err.Error())
		return
	}

	utils.Created(c, "Schedules created successfully", schedules)
}

// GetMySchedules returns the authenticated doctor's schedules.
func (h *ScheduleHandler) GetMySchedules(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	h.listSchedules(c, h.DB.Where("doctor_id = ?", doctorID))
}

// GetSchedulesByDoctor returns schedules of a specific doctor.
func (h *ScheduleHandler) GetSchedulesByDoctor(c *gin.Context) {
	h.listSchedules(c, h.DB.Where("doctor_id = ?", c.Param("doctorId")))
}

// GetSchedulesByDate returns all doctors' schedules on a date.
func (h *ScheduleHandler) GetSchedulesByDate(c *gin.Context) {
	if _, err := time.Parse("2006-01-02", c.Param("date")); err != nil {
		utils.BadRequest(c, "Invalid date format. Use YYYY-MM-DD")
		return
	}
	h.listSchedules(c, h.DB.Where("date = ?", c.Param("date")))
}

func (h *ScheduleHandler) listSchedules(c *gin.Context, query *gorm.DB) {
	if from := c.Query("from"); from != "" {
		query = query.Where("date >= ?", from)
	}
	if to := c.Query("to"); to != "" {
		query = query.Where("date <= ?", to)
	}

	var schedules []models.DoctorSchedule
	if err := query.Preload("Doctor").Order("date asc, start_time asc").Find(&schedules).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch schedules: "+err.Error())
		return
	}
	utils.Success(c, "Schedules fetched successfully", schedules)
}

// UpdateScheduleRequest carries the mutable schedule fields.
type UpdateScheduleRequest struct {
	RoomID      *uint   `json:"roomId"`
	StartTime   *string `json:"startTime"`
	EndTime     *string `json:"endTime"`
	MaxPatients *int    `json:"maxPatients"`
	Notes       *string `json:"notes"`
	Status      *string `json:"status"`
}

// UpdateSchedule handles updating a schedule entry.
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	schedule, ok := h.loadSchedule(c)
	if !ok {
		return
	}

	var req UpdateScheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.StartTime != nil {
		if _, err := scheduling.ParseClock(*req.StartTime); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		schedule.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		if _, err := scheduling.ParseClock(*req.EndTime); err != nil {
			utils.BadRequest(c, err.Error())
			return
		}
		schedule.EndTime = *req.EndTime
	}
	if req.RoomID != nil {
		schedule.RoomID = req.RoomID
	}
	if req.MaxPatients != nil {
		schedule.MaxPatients = req.MaxPatients
	}
	if req.Notes != nil {
		schedule.Notes = *req.Notes
	}
	if req.Status != nil {
		schedule.Status = models.ScheduleStatus(*req.Status)
	}

	if err := h.DB.Save(&schedule).Error; err != nil {
		utils.InternalServerError(c, "Failed to update schedule: "+err.Error())
		return
	}

	utils.Success(c, "Schedule updated successfully", schedule)
}

// DeleteSchedule removes a single schedule entry.
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	result := h.DB.Delete(&models.DoctorSchedule{}, "id = ?", c.Param("id"))
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete schedule: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Schedule not found")
		return
	}
	utils.Success(c, "Schedule deleted successfully", nil)
}

// BulkDeleteSchedulesRequest lists the schedule IDs to remove.
type BulkDeleteSchedulesRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// BulkDeleteSchedules removes a batch of schedule entries.
func (h *ScheduleHandler) BulkDeleteSchedules(c *gin.Context) {
	var req BulkDeleteSchedulesRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result := h.DB.Delete(&models.DoctorSchedule{}, "id IN ?", req.IDs)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete schedules: "+result.Error.Error())
		return
	}

	utils.Success(c, "Schedules deleted successfully", gin.H{"deleted": result.RowsAffected})
}

// CheckIn stamps the authenticated doctor's arrival on today's schedule.
func (h *ScheduleHandler) CheckIn(c *gin.Context) {
	h.stampAttendance(c, scheduling.CheckIn)
}

// CheckOut stamps the authenticated doctor's departure.
func (h *ScheduleHandler) CheckOut(c *gin.Context) {
	h.stampAttendance(c, scheduling.CheckOut)
}

func (h *ScheduleHandler) stampAttendance(c *gin.Context, stamp func(models.DoctorSchedule, time.Time) (models.DoctorSchedule, error)) {
	schedule, ok := h.loadSchedule(c)
	if !ok {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RoleDoctor && schedule.DoctorID != userID {
		utils.Forbidden(c, "You can only check in and out of your own schedule")
		return
	}

	updated, err := stamp(schedule, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, scheduling.ErrAlreadyCheckedIn),
			errors.Is(err, scheduling.ErrAlreadyCheckedOut),
			errors.Is(err, scheduling.ErrScheduleCancelled):
			utils.Conflict(c, err.Error())
		default:
			utils.BadRequest(c, err.Error())
		}
		return
	}

	if err := h.DB.Save(&updated).Error; err != nil {
		utils.InternalServerError(c, "Failed to update schedule: "+err.Error())
		return
	}

	utils.Success(c, "Attendance recorded", updated)
}

// AutoUpdateStatuses recomputes the working status of every schedule on a
// date (default today). The frontend polls this endpoint periodically.
func (h *ScheduleHandler) AutoUpdateStatuses(c *gin.Context) {
	now := time.Now()
	dateStr := c.DefaultQuery("date", now.Format("2006-01-02"))
	if _, err := time.Parse("2006-01-02", dateStr); err != nil {
		utils.BadRequest(c, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	var schedules []models.DoctorSchedule
	if err := h.DB.Where("date <= ?", dateStr).
		Where("status NOT IN ?", []models.ScheduleStatus{
			models.ScheduleCompleted, models.ScheduleAbsent, models.ScheduleCancelled,
		}).
		Find(&schedules).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch schedules: "+err.Error())
		return
	}

	updated := 0
	for i := range schedules {
		derived := scheduling.DeriveStatus(schedules[i], now)
		if derived == schedules[i].Status {
			continue
		}
		schedules[i].Status = derived
		if err := h.DB.Model(&schedules[i]).Update("status", derived).Error; err != nil {
			utils.InternalServerError(c, "Failed to update schedule status: "+err.Error())
			return
		}
		updated++
	}

	utils.Success(c, "Schedule statuses updated", gin.H{"updated": updated})
}

// buildSchedule validates the shared fields and assembles a schedule row.
// Reports ok=false after writing an error response.
func (h *ScheduleHandler) buildSchedule(c *gin.Context, req CreateScheduleRequest, date time.Time) (models.DoctorSchedule, bool) {
	startTime := req.StartTime
	if startTime == "" {
		startTime = models.DefaultShiftStart
	}
	endTime := req.EndTime
	if endTime == "" {
		endTime = models.DefaultShiftEnd
	}

	startMin, err := scheduling.ParseClock(startTime)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return models.DoctorSchedule{}, false
	}
	endMin, err := scheduling.ParseClock(endTime)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return models.DoctorSchedule{}, false
	}
	if endMin <= startMin {
		utils.BadRequest(c, "End time must be after start time")
		return models.DoctorSchedule{}, false
	}

	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", req.DoctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Doctor not found or user is not a doctor")
		} else {
			utils.InternalServerError(c, "Database error verifying doctor: "+err.Error())
		}
		return models.DoctorSchedule{}, false
	}

	return models.DoctorSchedule{
		DoctorID:    req.DoctorID,
		Date:        date,
		RoomID:      req.RoomID,
		Status:      models.ScheduleScheduled,
		StartTime:   startTime,
		EndTime:     endTime,
		MaxPatients: req.MaxPatients,
		Notes:       req.Notes,
	}, true
}

func (h *ScheduleHandler) loadSchedule(c *gin.Context) (models.DoctorSchedule, bool) {
	var schedule models.DoctorSchedule
	if err := h.DB.First(&schedule, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Schedule not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return models.DoctorSchedule{}, false
	}
	return schedule, true
}
