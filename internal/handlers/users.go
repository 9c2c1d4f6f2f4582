package handlers

import (
	"errors"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UserHandler handles user-related requests (typically admin operations).
type UserHandler struct {
	DB *gorm.DB
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{DB: db}
}

// CreateUserRequest represents the request body for creating a user by an admin.
type CreateUserRequest struct {
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
	Role         string `json:"role" binding:"required,oneof=patient doctor admin"`
	PhoneNumber  string `json:"phoneNumber"`
	DepartmentID *uint  `json:"departmentId"`
}

// CreateUser handles creating a new user (admin).
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var existingUser models.User
	if err := h.DB.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		utils.BadRequest(c, "User with this email already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.InternalServerError(c, "Database error: "+err.Error())
		return
	}

	role := models.Role(req.Role)
	if req.DepartmentID != nil {
		if role != models.RoleDoctor {
			utils.BadRequest(c, "Only doctors can be assigned to a department")
			return
		}
		var dept models.Department
		if err := h.DB.First(&dept, "id = ?", *req.DepartmentID).Error; err != nil {
			utils.NotFound(c, "Department not found")
			return
		}
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Role:         role,
		PhoneNumber:  req.PhoneNumber,
		DepartmentID: req.DepartmentID,
	}
	if err := user.SetPassword(req.Password); err != nil {
		utils.InternalServerError(c, "Failed to hash password: "+err.Error())
		return
	}

	if err := h.DB.Create(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to create user: "+err.Error())
		return
	}

	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers handles fetching all users (admin). Accepts an optional ?role=
// filter.
func (h *UserHandler) GetUsers(c *gin.Context) {
	query := h.DB
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch users: "+err.Error())
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i, u := range users {
		sanitizedUsers[i] = u.Sanitize()
	}

	utils.Success(c, "Users fetched successfully", sanitizedUsers)
}

// GetUserByID handles fetching a single user by ID (admin).
func (h *UserHandler) GetUserByID(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUserRequest represents the request body for updating a user by an admin.
type UpdateUserRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	DepartmentID *uint  `json:"departmentId,omitempty"`
}

// UpdateUser handles updating a user by ID (admin).
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		utils.NotFound(c, "User not found")
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = req.PhoneNumber
	}
	if req.Email != "" && req.Email != user.Email {
		var existingUser models.User
		if err := h.DB.Where("email = ? AND id != ?", req.Email, user.ID).First(&existingUser).Error; err == nil {
			utils.BadRequest(c, "New email is already in use")
			return
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.InternalServerError(c, "Database error checking email: "+err.Error())
			return
		}
		user.Email = req.Email
	}
	if req.Role != "" {
		switch models.Role(req.Role) {
		case models.RoleAdmin, models.RoleDoctor, models.RolePatient:
			user.Role = models.Role(req.Role)
		default:
			utils.BadRequest(c, "Invalid role: "+req.Role)
			return
		}
	}
	if req.DepartmentID != nil {
		var dept models.Department
		if err := h.DB.First(&dept, "id = ?", *req.DepartmentID).Error; err != nil {
			utils.NotFound(c, "Department not found")
			return
		}
		user.DepartmentID = req.DepartmentID
	}

	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to update user: "+err.Error())
		return
	}

	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser handles deleting a user by ID (admin).
func (h *UserHandler) DeleteUser(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete user: "+err.Error())
		return
	}

	utils.Success(c, "User deleted successfully", nil)
}

// GetDoctors handles fetching all users with the doctor role. Accessible to
// patients for booking appointments; supports ?departmentId= filtering.
func (h *UserHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Where("role = ?", models.RoleDoctor)
	if deptID := c.Query("departmentId"); deptID != "" {
		query = query.Where("department_id = ?", deptID)
	}

	var doctors []models.User
	if err := query.Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch doctors: "+err.Error())
		return
	}

	sanitizedDoctors := make([]models.UserSanitized, len(doctors))
	for i, doctor := range doctors {
		sanitizedDoctors[i] = doctor.Sanitize()
	}

	utils.Success(c, "Doctors fetched successfully", sanitizedDoctors)
}

// GetDoctorPatients handles fetching all patients. Doctors and admins only.
func (h *UserHandler) GetDoctorPatients(c *gin.Context) {
	if _, exists := middleware.GetUserIDFromContext(c); !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole != models.RoleDoctor && userRole != models.RoleAdmin {
		utils.Forbidden(c, "Only doctors and admins can view patient lists")
		return
	}

	var patients []models.User
	if err := h.DB.Where("role = ?", models.RolePatient).Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	sanitizedPatients := make([]models.UserSanitized, len(patients))
	for i, patient := range patients {
		sanitizedPatients[i] = patient.Sanitize()
	}

	utils.Success(c, "Patients fetched successfully", sanitizedPatients)
}
