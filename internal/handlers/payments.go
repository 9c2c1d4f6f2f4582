package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"clinic-app-server/internal/billing"
	"clinic-app-server/internal/config"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentHandler settles invoices. Cash is settled at the desk by staff;
// MoMo goes through the wallet's create-payment API and an IPN callback.
type PaymentHandler struct {
	DB     *gorm.DB
	Config *config.Config
	Client *http.Client
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(db *gorm.DB, cfg *config.Config) *PaymentHandler {
	return &PaymentHandler{
		DB:     db,
		Config: cfg,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

// PayCash marks an invoice as paid in cash. Staff only.
func (h *PaymentHandler) PayCash(c *gin.Context) {
	invoice, ok := h.loadUnpaidInvoice(c)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"status":         models.InvoicePaid,
		"payment_method": models.PaymentCash,
	}
	if err := h.DB.Model(&invoice).Updates(updates).Error; err != nil {
		utils.InternalServerError(c, "Failed to settle invoice: "+err.Error())
		return
	}

	utils.Success(c, "Invoice paid in cash", gin.H{"invoiceId": invoice.ID, "status": models.InvoicePaid})
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IPNURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	Deeplink   string `json:"deeplink"`
	QRCodeURL  string `json:"qrCodeUrl"`
}

// CreateMomoPayment requests a MoMo payment URL for an unpaid invoice. The
// amount sent to the wallet is the computed grand total rounded to whole đồng.
func (h *PaymentHandler) CreateMomoPayment(c *gin.Context) {
	invoice, ok := h.loadUnpaidInvoice(c)
	if !ok {
		return
	}

	momo := h.Config.Momo
	if momo.PartnerCode == "" || momo.SecretKey == "" {
		utils.InternalServerError(c, "MoMo payments are not configured")
		return
	}

	totals, err := billing.Compute(&invoice)
	if err != nil {
		utils.InternalServerError(c, "Failed to compute invoice totals: "+err.Error())
		return
	}
	amount := billing.RoundVND(totals.GrandTotal)
	if amount <= 0 {
		utils.BadRequest(c, "Invoice amount must be positive to pay online")
		return
	}

	requestID := uuid.New().String()
	orderID := fmt.Sprintf("INV%d-%s", invoice.ID, uuid.New().String()[:8])
	orderInfo := fmt.Sprintf("Thanh toan hoa don #%d", invoice.ID)

	rawSignature := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		momo.AccessKey, amount, "", momo.IPNURL, orderID, orderInfo,
		momo.PartnerCode, momo.RedirectURL, requestID, "captureWallet",
	)

	payload := momoCreateRequest{
		PartnerCode: momo.PartnerCode,
		RequestID:   requestID,
		Amount:      amount,
		OrderID:     orderID,
		OrderInfo:   orderInfo,
		RedirectURL: momo.RedirectURL,
		IPNURL:      momo.IPNURL,
		RequestType: "captureWallet",
		ExtraData:   "",
		Lang:        "vi",
		Signature:   signMomo(momo.SecretKey, rawSignature),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		utils.InternalServerError(c, "Failed to encode payment request: "+err.Error())
		return
	}

	resp, err := h.Client.Post(momo.Endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		utils.InternalServerError(c, "Failed to reach payment gateway: "+err.Error())
		return
	}
	defer resp.Body.Close()

	var result momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		utils.InternalServerError(c, "Failed to decode payment gateway response: "+err.Error())
		return
	}
	if result.ResultCode != 0 {
		utils.BadRequest(c, "Payment gateway rejected the request: "+result.Message)
		return
	}

	// Remember the order so the IPN can find this invoice later.
	updates := map[string]interface{}{
		"payment_method": models.PaymentMomo,
		"payment_ref":    orderID,
	}
	if err := h.DB.Model(&invoice).Updates(updates).Error; err != nil {
		utils.InternalServerError(c, "Failed to record payment reference: "+err.Error())
		return
	}

	utils.Success(c, "Payment created", gin.H{
		"invoiceId": invoice.ID,
		"orderId":   orderID,
		"amount":    amount,
		"payUrl":    result.PayURL,
		"deeplink":  result.Deeplink,
		"qrCodeUrl": result.QRCodeURL,
	})
}

type momoIPNRequest struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// HandleMomoIPN processes MoMo's server-to-server payment notification. The
// signature is verified before any state changes; a bad signature is dropped
// with 401 so the wallet retries are pointless.
func (h *PaymentHandler) HandleMomoIPN(c *gin.Context) {
	var ipn momoIPNRequest
	if err := c.ShouldBindJSON(&ipn); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	momo := h.Config.Momo
	rawSignature := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		momo.AccessKey, ipn.Amount, ipn.ExtraData, ipn.Message, ipn.OrderID,
		ipn.OrderInfo, ipn.OrderType, ipn.PartnerCode, ipn.PayType,
		ipn.RequestID, ipn.ResponseTime, ipn.ResultCode, ipn.TransID,
	)
	expected := signMomo(momo.SecretKey, rawSignature)
	if !hmac.Equal([]byte(expected), []byte(ipn.Signature)) {
		log.Printf("momo ipn: bad signature for order %s", ipn.OrderID)
		c.Status(http.StatusUnauthorized)
		return
	}

	if ipn.ResultCode != 0 {
		// Failed or cancelled payment, nothing to settle.
		log.Printf("momo ipn: order %s not paid (code %d: %s)", ipn.OrderID, ipn.ResultCode, ipn.Message)
		c.Status(http.StatusNoContent)
		return
	}

	var invoice models.Invoice
	if err := h.DB.First(&invoice, "payment_ref = ?", ipn.OrderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("momo ipn: no invoice for order %s", ipn.OrderID)
			c.Status(http.StatusNoContent)
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	if invoice.Status == models.InvoicePaid {
		// Duplicate delivery, already settled.
		c.Status(http.StatusNoContent)
		return
	}

	if err := h.DB.Model(&invoice).Update("status", models.InvoicePaid).Error; err != nil {
		log.Printf("momo ipn: failed to settle invoice %d: %v", invoice.ID, err)
		c.Status(http.StatusInternalServerError)
		return
	}

	log.Printf("momo ipn: invoice %d settled by transaction %d", invoice.ID, ipn.TransID)
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) loadUnpaidInvoice(c *gin.Context) (models.Invoice, bool) {
	var invoice models.Invoice
	if err := h.DB.Preload("Packages").Preload("Medicines").First(&invoice, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Invoice not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return models.Invoice{}, false
	}
	if invoice.Status == models.InvoicePaid {
		utils.Conflict(c, "Invoice is already paid")
		return models.Invoice{}, false
	}
	return invoice, true
}

func signMomo(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
