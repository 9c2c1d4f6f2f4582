package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MedicalRecordHandler handles medical record related requests.
type MedicalRecordHandler struct {
	DB *gorm.DB
}

// NewMedicalRecordHandler creates a new MedicalRecordHandler.
func NewMedicalRecordHandler(db *gorm.DB) *MedicalRecordHandler {
	return &MedicalRecordHandler{DB: db}
}

// MedicationInput is a prescribed medicine line on a record payload.
type MedicationInput struct {
	MedicineID   uint   `json:"medicineId" binding:"required"`
	Quantity     int    `json:"quantity" binding:"required,min=1"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
}

// ServiceInput is a performed service line on a record payload.
type ServiceInput struct {
	PackageID uint   `json:"packageId" binding:"required"`
	Notes     string `json:"notes"`
}

// CreateMedicalRecordRequest represents the request body for creating a
// medical record. Attachments are uploaded separately via multipart form.
type CreateMedicalRecordRequest struct {
	PatientID     uint              `json:"patientId" binding:"required"`
	AppointmentID uint              `json:"appointmentId"`
	RecordDate    string            `json:"recordDate"`
	Diagnosis     string            `json:"diagnosis" binding:"required"`
	Symptoms      string            `json:"symptoms"`
	Notes         string            `json:"notes"`
	Medications   []MedicationInput `json:"medications"`
	Services      []ServiceInput    `json:"services"`
}

// CreateMedicalRecord handles creating a new medical record.
// Only accessible by doctors.
func (h *MedicalRecordHandler) CreateMedicalRecord(c *gin.Context) {
	var req CreateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Doctor ID not found in token")
		return
	}

	var patient models.User
	if err := h.DB.Where("id = ? AND role = ?", req.PatientID, models.RolePatient).First(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error verifying patient: "+err.Error())
		}
		return
	}

	if req.AppointmentID != 0 {
		var appt models.Appointment
		if err := h.DB.First(&appt, "id = ?", req.AppointmentID).Error; err != nil {
			utils.NotFound(c, "Appointment not found")
			return
		}
		if appt.PatientID != req.PatientID {
			utils.BadRequest(c, "Appointment does not belong to this patient")
			return
		}
	}

	recordDate := time.Now()
	if req.RecordDate != "" {
		parsed, err := time.Parse(time.RFC3339, req.RecordDate)
		if err != nil {
			utils.BadRequest(c, "Invalid date format. Please use ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
			return
		}
		recordDate = parsed
	}

	record := models.MedicalRecord{
		AppointmentID: req.AppointmentID,
		PatientID:     req.PatientID,
		DoctorID:      doctorID,
		RecordDate:    recordDate,
		Diagnosis:     req.Diagnosis,
		Symptoms:      req.Symptoms,
		Notes:         req.Notes,
	}
	for _, m := range req.Medications {
		record.Medications = append(record.Medications, models.MedicalRecordMedication{
			MedicineID:   m.MedicineID,
			Quantity:     m.Quantity,
			Dosage:       m.Dosage,
			Instructions: m.Instructions,
		})
	}
	for _, s := range req.Services {
		record.Services = append(record.Services, models.MedicalRecordService{
			PackageID: s.PackageID,
			Notes:     s.Notes,
		})
	}

	if err := h.DB.Create(&record).Error; err != nil {
		utils.InternalServerError(c, "Failed to create medical record: "+err.Error())
		return
	}

	utils.Created(c, "Medical record created successfully", record)
}

// GetMedicalRecordsForPatient handles fetching medical records for a specific
// patient. Accessible by the patient themselves or staff.
func (h *MedicalRecordHandler) GetMedicalRecordsForPatient(c *gin.Context) {
	patientID := c.Param("patientId")

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isStaff := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isSelf := patientID == itoa(requestingUserID)
	if !isStaff && !isSelf {
		utils.Forbidden(c, "You are not authorized to view these medical records")
		return
	}

	var records []models.MedicalRecord
	if err := h.DB.Preload("Medications").Preload("Services").Preload("Attachments").
		Where("patient_id = ?", patientID).Order("created_at desc").Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch medical records: "+err.Error())
		return
	}

	utils.Success(c, "Medical records fetched successfully", records)
}

// GetMedicalRecordByID handles fetching a single medical record by its ID.
// Accessible by the patient (if it's theirs) or staff.
func (h *MedicalRecordHandler) GetMedicalRecordByID(c *gin.Context) {
	var record models.MedicalRecord
	if err := h.DB.Preload("Medications").Preload("Services").Preload("Attachments").
		First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isStaff := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isPatientOwner := requestingUserRole == models.RolePatient && record.PatientID == requestingUserID
	if !isStaff && !isPatientOwner {
		utils.Forbidden(c, "You are not authorized to view this medical record")
		return
	}

	utils.Success(c, "Medical record fetched successfully", record)
}

// UpdateMedicalRecordRequest represents the request body for updating a
// medical record.
type UpdateMedicalRecordRequest struct {
	RecordDate string `json:"recordDate,omitempty"`
	Diagnosis  string `json:"diagnosis,omitempty"`
	Symptoms   string `json:"symptoms,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// UpdateMedicalRecord handles updating an existing medical record.
// Only accessible by the doctor who created it or an admin.
func (h *MedicalRecordHandler) UpdateMedicalRecord(c *gin.Context) {
	var req UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	requestingUserID, _ := middleware.GetUserIDFromContext(c)
	requestingUserRole, _ := middleware.GetUserRoleFromContext(c)

	isAdmin := requestingUserRole == models.RoleAdmin
	isCreatorDoctor := requestingUserRole == models.RoleDoctor && record.DoctorID == requestingUserID
	if !isAdmin && !isCreatorDoctor {
		utils.Forbidden(c, "You are not authorized to update this medical record")
		return
	}

	if req.RecordDate != "" {
		parsedDate, err := time.Parse(time.RFC3339, req.RecordDate)
		if err != nil {
			utils.BadRequest(c, "Invalid date format for recordDate. Please use ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
			return
		}
		record.RecordDate = parsedDate
	}
	if req.Diagnosis != "" {
		record.Diagnosis = req.Diagnosis
	}
	if req.Symptoms != "" {
		record.Symptoms = req.Symptoms
	}
	if req.Notes != "" {
		record.Notes = req.Notes
	}

	if err := h.DB.Save(&record).Error; err != nil {
		utils.InternalServerError(c, "Failed to update medical record: "+err.Error())
		return
	}

	utils.Success(c, "Medical record updated successfully", record)
}

// DeleteMedicalRecord removes a record with its line items and attachments.
// Admin only.
func (h *MedicalRecordHandler) DeleteMedicalRecord(c *gin.Context) {
	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.MedicalRecordMedication{}, "medical_record_id = ?", record.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.MedicalRecordService{}, "medical_record_id = ?", record.ID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.MedicalRecordAttachment{}, "medical_record_id = ?", record.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		utils.InternalServerError(c, "Failed to delete medical record: "+err.Error())
		return
	}

	utils.Success(c, "Medical record deleted successfully", gin.H{"id": record.ID})
}

// UploadMedicalRecordAttachment stores an uploaded file as binary data on a
// medical record. Only accessible by doctors.
func (h *MedicalRecordHandler) UploadMedicalRecordAttachment(c *gin.Context) {
	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Database error verifying medical record: "+err.Error())
		}
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "Error retrieving file from form: "+err.Error())
		return
	}
	defer file.Close()

	fileData, err := io.ReadAll(file)
	if err != nil {
		utils.InternalServerError(c, "Error reading file content: "+err.Error())
		return
	}

	attachment := models.MedicalRecordAttachment{
		MedicalRecordID: record.ID,
		FileName:        header.Filename,
		FileType:        header.Header.Get("Content-Type"),
		FileData:        fileData,
	}
	if err := h.DB.Create(&attachment).Error; err != nil {
		utils.InternalServerError(c, "Failed to create medical record attachment entry: "+err.Error())
		return
	}

	// Respond without the binary payload.
	responseAttachment := struct {
		ID              uint      `json:"id"`
		MedicalRecordID uint      `json:"medicalRecordId"`
		FileName        string    `json:"fileName"`
		FileType        string    `json:"fileType"`
		CreatedAt       time.Time `json:"createdAt"`
	}{
		ID:              attachment.ID,
		MedicalRecordID: attachment.MedicalRecordID,
		FileName:        attachment.FileName,
		FileType:        attachment.FileType,
		CreatedAt:       attachment.CreatedAt,
	}

	utils.Success(c, "File uploaded and linked to medical record successfully", responseAttachment)
}

// GetMedicalRecordAttachment serves the binary data of an attachment.
func (h *MedicalRecordHandler) GetMedicalRecordAttachment(c *gin.Context) {
	var attachment models.MedicalRecordAttachment
	if err := h.DB.First(&attachment, "id = ?", c.Param("attachmentId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Attachment not found")
		} else {
			utils.InternalServerError(c, "Database error fetching attachment: "+err.Error())
		}
		return
	}

	var record models.MedicalRecord
	if err := h.DB.First(&record, "id = ?", attachment.MedicalRecordID).Error; err != nil {
		utils.InternalServerError(c, "Could not fetch parent medical record for authorization check")
		return
	}

	requestingUserID, userIDExists := middleware.GetUserIDFromContext(c)
	requestingUserRole, userRoleExists := middleware.GetUserRoleFromContext(c)
	if !userIDExists || !userRoleExists {
		utils.Unauthorized(c, "User information not found in token for authorization")
		return
	}

	isStaff := requestingUserRole == models.RoleDoctor || requestingUserRole == models.RoleAdmin
	isPatientOwner := requestingUserRole == models.RolePatient && record.PatientID == requestingUserID
	if !isStaff && !isPatientOwner {
		utils.Forbidden(c, "You are not authorized to view this attachment")
		return
	}

	c.Writer.Header().Set("Content-Disposition", attachmentDisposition(attachment.FileName))
	c.Data(http.StatusOK, attachment.FileType, attachment.FileData)
}
