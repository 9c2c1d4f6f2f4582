package handlers

import (
	"errors"

	"clinic-app-server/internal/billing"
	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InvoiceHandler handles invoice related requests.
type InvoiceHandler struct {
	DB *gorm.DB
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{DB: db}
}

// InvoiceView pairs the stored invoice with its freshly computed totals. The
// database never stores totals, so every response recomputes them.
type InvoiceView struct {
	Invoice models.Invoice `json:"invoice"`
	Totals  billing.Totals `json:"totals"`
	Payable int64          `json:"payable"` // grand total rounded to whole đồng
}

func (h *InvoiceHandler) respondWithInvoice(c *gin.Context, message string, invoice models.Invoice) {
	totals, err := billing.Compute(&invoice)
	if err != nil {
		utils.InternalServerError(c, "Failed to compute invoice totals: "+err.Error())
		return
	}
	utils.Success(c, message, InvoiceView{
		Invoice: invoice,
		Totals:  totals,
		Payable: billing.RoundVND(totals.GrandTotal),
	})
}

// GetInvoice fetches an invoice by its ID.
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, ok := h.loadInvoice(c, "id = ?", c.Param("id"))
	if !ok {
		return
	}
	if !h.authorizeView(c, invoice) {
		return
	}
	h.respondWithInvoice(c, "Invoice fetched successfully", invoice)
}

// GetInvoiceByAppointment fetches the invoice linked to an appointment.
func (h *InvoiceHandler) GetInvoiceByAppointment(c *gin.Context) {
	invoice, ok := h.loadInvoice(c, "appointment_id = ?", c.Param("appointmentId"))
	if !ok {
		return
	}
	if !h.authorizeView(c, invoice) {
		return
	}
	h.respondWithInvoice(c, "Invoice fetched successfully", invoice)
}

// GetInvoicesByPatient lists a patient's invoices with computed totals.
func (h *InvoiceHandler) GetInvoicesByPatient(c *gin.Context) {
	patientID := c.Param("patientId")

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient && patientID != itoa(userID) {
		// Patients may only list their own invoices.
		utils.Forbidden(c, "You may only view your own invoices")
		return
	}

	var invoices []models.Invoice
	query := h.DB.Preload("Packages").Preload("Medicines").Where("patient_id = ?", patientID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Order("created_at desc").Find(&invoices).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch invoices: "+err.Error())
		return
	}

	views := make([]InvoiceView, 0, len(invoices))
	for i := range invoices {
		totals, err := billing.Compute(&invoices[i])
		if err != nil {
			utils.InternalServerError(c, "Failed to compute invoice totals: "+err.Error())
			return
		}
		views = append(views, InvoiceView{
			Invoice: invoices[i],
			Totals:  totals,
			Payable: billing.RoundVND(totals.GrandTotal),
		})
	}

	utils.Success(c, "Invoices fetched successfully", views)
}

// AddPackageLineRequest adds a service package to an invoice. Price and
// discount are snapshotted from the package record at this moment.
type AddPackageLineRequest struct {
	PackageID uint `json:"packageId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// AddPackageLine appends a service-package line item.
func (h *InvoiceHandler) AddPackageLine(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	var req AddPackageLineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var pkg models.ServicePackage
	if err := h.DB.First(&pkg, "id = ? AND is_active = ?", req.PackageID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Service package not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	line := models.InvoicePackage{
		InvoiceID:       invoice.ID,
		PackageID:       pkg.ID,
		Quantity:        req.Quantity,
		Price:           pkg.Price,
		DiscountPercent: pkg.DiscountPercent,
	}
	if err := h.DB.Create(&line).Error; err != nil {
		utils.InternalServerError(c, "Failed to add package line: "+err.Error())
		return
	}

	h.reload(c, invoice.ID, "Package added to invoice")
}

// RemovePackageLine deletes a package line item from an invoice.
func (h *InvoiceHandler) RemovePackageLine(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	result := h.DB.Delete(&models.InvoicePackage{}, "id = ? AND invoice_id = ?", c.Param("lineId"), invoice.ID)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to remove package line: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Package line not found on this invoice")
		return
	}

	h.reload(c, invoice.ID, "Package removed from invoice")
}

// AddMedicineLineRequest adds a medicine to an invoice with a price snapshot.
type AddMedicineLineRequest struct {
	MedicineID uint   `json:"medicineId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	Dosage     string `json:"dosage"`
}

// AddMedicineLine appends a medicine line item.
func (h *InvoiceHandler) AddMedicineLine(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	var req AddMedicineLineRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var med models.Medicine
	if err := h.DB.First(&med, "id = ? AND is_active = ?", req.MedicineID, true).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Medicine not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	line := models.InvoiceMedicine{
		InvoiceID:  invoice.ID,
		MedicineID: med.ID,
		Quantity:   req.Quantity,
		Price:      med.Price,
		Dosage:     req.Dosage,
	}
	if err := h.DB.Create(&line).Error; err != nil {
		utils.InternalServerError(c, "Failed to add medicine line: "+err.Error())
		return
	}

	h.reload(c, invoice.ID, "Medicine added to invoice")
}

// RemoveMedicineLine deletes a medicine line item from an invoice.
func (h *InvoiceHandler) RemoveMedicineLine(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	result := h.DB.Delete(&models.InvoiceMedicine{}, "id = ? AND invoice_id = ?", c.Param("lineId"), invoice.ID)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to remove medicine line: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Medicine line not found on this invoice")
		return
	}

	h.reload(c, invoice.ID, "Medicine removed from invoice")
}

// UpdateMedicineQuantityRequest adjusts the quantity of a medicine line.
type UpdateMedicineQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// UpdateMedicineQuantity changes the quantity on an existing medicine line.
func (h *InvoiceHandler) UpdateMedicineQuantity(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	var req UpdateMedicineQuantityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result := h.DB.Model(&models.InvoiceMedicine{}).
		Where("id = ? AND invoice_id = ?", c.Param("lineId"), invoice.ID).
		Update("quantity", req.Quantity)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to update quantity: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Medicine line not found on this invoice")
		return
	}

	h.reload(c, invoice.ID, "Medicine quantity updated")
}

// SetInsuranceRequest toggles the invoice's insurance (BHYT) flag.
type SetInsuranceRequest struct {
	HasInsurance *bool `json:"hasInsurance" binding:"required"`
}

// SetInsurance toggles insurance coverage. The stored package discounts are
// untouched; only the computed coverage changes.
func (h *InvoiceHandler) SetInsurance(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	var req SetInsuranceRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.DB.Model(&invoice).Update("has_insurance", *req.HasInsurance).Error; err != nil {
		utils.InternalServerError(c, "Failed to update insurance flag: "+err.Error())
		return
	}

	h.reload(c, invoice.ID, "Insurance flag updated")
}

// SetPaymentMethodRequest records the intended payment method.
type SetPaymentMethodRequest struct {
	PaymentMethod models.PaymentMethod `json:"paymentMethod" binding:"required,oneof=Cash Momo VNPay"`
}

// SetPaymentMethod records how the invoice will be paid.
func (h *InvoiceHandler) SetPaymentMethod(c *gin.Context) {
	invoice, ok := h.loadMutableInvoice(c)
	if !ok {
		return
	}

	var req SetPaymentMethodRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if err := h.DB.Model(&invoice).Update("payment_method", req.PaymentMethod).Error; err != nil {
		utils.InternalServerError(c, "Failed to update payment method: "+err.Error())
		return
	}

	h.reload(c, invoice.ID, "Payment method updated")
}

func (h *InvoiceHandler) loadInvoice(c *gin.Context, cond string, arg interface{}) (models.Invoice, bool) {
	var invoice models.Invoice
	if err := h.DB.Preload("Packages").Preload("Medicines").First(&invoice, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Invoice not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return models.Invoice{}, false
	}
	return invoice, true
}

// loadMutableInvoice loads by the :id route param and rejects mutation of a
// paid invoice.
func (h *InvoiceHandler) loadMutableInvoice(c *gin.Context) (models.Invoice, bool) {
	invoice, ok := h.loadInvoice(c, "id = ?", c.Param("id"))
	if !ok {
		return models.Invoice{}, false
	}
	if invoice.Status == models.InvoicePaid {
		utils.Conflict(c, "A paid invoice can no longer be modified")
		return models.Invoice{}, false
	}
	return invoice, true
}

func (h *InvoiceHandler) authorizeView(c *gin.Context, invoice models.Invoice) bool {
	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)
	if userRole == models.RolePatient && invoice.PatientID != userID {
		utils.Forbidden(c, "You are not authorized to view this invoice")
		return false
	}
	return true
}

func (h *InvoiceHandler) reload(c *gin.Context, invoiceID uint, message string) {
	invoice, ok := h.loadInvoice(c, "id = ?", invoiceID)
	if !ok {
		return
	}
	h.respondWithInvoice(c, message, invoice)
}
