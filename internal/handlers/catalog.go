package handlers

import (
	"errors"

	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CatalogHandler manages the billable catalog: service packages, medicines
// and departments. All mutations are admin-only; listing is open to any
// authenticated user so invoices and bookings can reference the entries.
type CatalogHandler struct {
	DB *gorm.DB
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{DB: db}
}

// ServicePackageRequest represents the payload for creating or updating a
// service package.
type ServicePackageRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	Price           *float64 `json:"price" binding:"required,gte=0"`
	DiscountPercent *float64 `json:"discountPercent" binding:"omitempty,gte=0,lte=100"`
	IsActive        *bool    `json:"isActive"`
}

// CreateServicePackage adds a new service package to the catalog.
func (h *CatalogHandler) CreateServicePackage(c *gin.Context) {
	var req ServicePackageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pkg := models.ServicePackage{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		IsActive:    true,
	}
	if req.DiscountPercent != nil {
		pkg.DiscountPercent = *req.DiscountPercent
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&pkg).Error; err != nil {
		utils.InternalServerError(c, "Failed to create service package: "+err.Error())
		return
	}

	utils.Created(c, "Service package created successfully", pkg)
}

// GetServicePackages lists the catalog. Inactive entries are included only
// with ?includeInactive=true.
func (h *CatalogHandler) GetServicePackages(c *gin.Context) {
	query := h.DB.Order("name asc")
	if c.Query("includeInactive") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var packages []models.ServicePackage
	if err := query.Find(&packages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch service packages: "+err.Error())
		return
	}

	utils.Success(c, "Service packages fetched successfully", packages)
}

// UpdateServicePackage edits a catalog entry. Price changes do not touch
// existing invoice lines; those carry their own snapshots.
func (h *CatalogHandler) UpdateServicePackage(c *gin.Context) {
	var pkg models.ServicePackage
	if err := h.DB.First(&pkg, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Service package not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var req ServicePackageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	pkg.Name = req.Name
	pkg.Description = req.Description
	pkg.Price = *req.Price
	if req.DiscountPercent != nil {
		pkg.DiscountPercent = *req.DiscountPercent
	}
	if req.IsActive != nil {
		pkg.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&pkg).Error; err != nil {
		utils.InternalServerError(c, "Failed to update service package: "+err.Error())
		return
	}

	utils.Success(c, "Service package updated successfully", pkg)
}

// DeleteServicePackage retires a package. Entries referenced by invoices are
// deactivated instead of removed so historic lines keep their foreign keys.
func (h *CatalogHandler) DeleteServicePackage(c *gin.Context) {
	var pkg models.ServicePackage
	if err := h.DB.First(&pkg, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Service package not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var referenced int64
	h.DB.Model(&models.InvoicePackage{}).Where("package_id = ?", pkg.ID).Count(&referenced)
	if referenced > 0 {
		if err := h.DB.Model(&pkg).Update("is_active", false).Error; err != nil {
			utils.InternalServerError(c, "Failed to deactivate service package: "+err.Error())
			return
		}
		utils.Success(c, "Service package is referenced by invoices and was deactivated instead", pkg)
		return
	}

	if err := h.DB.Delete(&pkg).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete service package: "+err.Error())
		return
	}

	utils.Success(c, "Service package deleted successfully", nil)
}

// MedicineRequest represents the payload for creating or updating a medicine.
type MedicineRequest struct {
	Name     string   `json:"name" binding:"required"`
	Unit     string   `json:"unit" binding:"required"`
	Price    *float64 `json:"price" binding:"required,gte=0"`
	IsActive *bool    `json:"isActive"`
}

// CreateMedicine adds a medicine to the catalog.
func (h *CatalogHandler) CreateMedicine(c *gin.Context) {
	var req MedicineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	med := models.Medicine{
		Name:     req.Name,
		Unit:     req.Unit,
		Price:    *req.Price,
		IsActive: true,
	}
	if req.IsActive != nil {
		med.IsActive = *req.IsActive
	}

	if err := h.DB.Create(&med).Error; err != nil {
		utils.InternalServerError(c, "Failed to create medicine: "+err.Error())
		return
	}

	utils.Created(c, "Medicine created successfully", med)
}

// GetMedicines lists medicines, optionally filtered by ?name= substring.
func (h *CatalogHandler) GetMedicines(c *gin.Context) {
	query := h.DB.Order("name asc")
	if c.Query("includeInactive") != "true" {
		query = query.Where("is_active = ?", true)
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var medicines []models.Medicine
	if err := query.Find(&medicines).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch medicines: "+err.Error())
		return
	}

	utils.Success(c, "Medicines fetched successfully", medicines)
}

// UpdateMedicine edits a medicine entry.
func (h *CatalogHandler) UpdateMedicine(c *gin.Context) {
	var med models.Medicine
	if err := h.DB.First(&med, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medicine not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var req MedicineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	med.Name = req.Name
	med.Unit = req.Unit
	med.Price = *req.Price
	if req.IsActive != nil {
		med.IsActive = *req.IsActive
	}

	if err := h.DB.Save(&med).Error; err != nil {
		utils.InternalServerError(c, "Failed to update medicine: "+err.Error())
		return
	}

	utils.Success(c, "Medicine updated successfully", med)
}

// DeleteMedicine retires a medicine, deactivating instead of deleting when
// invoice lines reference it.
func (h *CatalogHandler) DeleteMedicine(c *gin.Context) {
	var med models.Medicine
	if err := h.DB.First(&med, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medicine not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var referenced int64
	h.DB.Model(&models.InvoiceMedicine{}).Where("medicine_id = ?", med.ID).Count(&referenced)
	if referenced > 0 {
		if err := h.DB.Model(&med).Update("is_active", false).Error; err != nil {
			utils.InternalServerError(c, "Failed to deactivate medicine: "+err.Error())
			return
		}
		utils.Success(c, "Medicine is referenced by invoices and was deactivated instead", med)
		return
	}

	if err := h.DB.Delete(&med).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete medicine: "+err.Error())
		return
	}

	utils.Success(c, "Medicine deleted successfully", nil)
}

// DepartmentRequest represents the payload for creating or updating a
// department.
type DepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateDepartment adds a department.
func (h *CatalogHandler) CreateDepartment(c *gin.Context) {
	var req DepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dept := models.Department{Name: req.Name, Description: req.Description}
	if err := h.DB.Create(&dept).Error; err != nil {
		utils.InternalServerError(c, "Failed to create department: "+err.Error())
		return
	}

	utils.Created(c, "Department created successfully", dept)
}

// GetDepartments lists all departments.
func (h *CatalogHandler) GetDepartments(c *gin.Context) {
	var departments []models.Department
	if err := h.DB.Order("name asc").Find(&departments).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch departments: "+err.Error())
		return
	}
	utils.Success(c, "Departments fetched successfully", departments)
}

// UpdateDepartment edits a department.
func (h *CatalogHandler) UpdateDepartment(c *gin.Context) {
	var dept models.Department
	if err := h.DB.First(&dept, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Department not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var req DepartmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	dept.Name = req.Name
	dept.Description = req.Description
	if err := h.DB.Save(&dept).Error; err != nil {
		utils.InternalServerError(c, "Failed to update department: "+err.Error())
		return
	}

	utils.Success(c, "Department updated successfully", dept)
}

// DeleteDepartment removes a department that has no doctors assigned.
func (h *CatalogHandler) DeleteDepartment(c *gin.Context) {
	var dept models.Department
	if err := h.DB.First(&dept, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Department not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	var assigned int64
	h.DB.Model(&models.User{}).Where("department_id = ?", dept.ID).Count(&assigned)
	if assigned > 0 {
		utils.Conflict(c, "Department still has doctors assigned")
		return
	}

	if err := h.DB.Delete(&dept).Error; err != nil {
		utils.InternalServerError(c, "Failed to delete department: "+err.Error())
		return
	}

	utils.Success(c, "Department deleted successfully", nil)
}
