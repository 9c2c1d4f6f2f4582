package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"time"

	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/utils"
	"clinic-app-server/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MessageHandler handles patient-staff chat. Messages persist in the database
// and are pushed to connected sockets through the hub.
type MessageHandler struct {
	DB  *gorm.DB
	Hub *ws.Hub
}

// NewMessageHandler creates a new MessageHandler and wires socket-originated
// messages through the same persistence path as the REST endpoint.
func NewMessageHandler(db *gorm.DB, hub *ws.Hub) *MessageHandler {
	h := &MessageHandler{DB: db, Hub: hub}
	hub.OnPrivateMessage = h.handleSocketMessage
	return h
}

// SendMessageRequest represents the request body for sending a message.
// FileData is base64 when present.
type SendMessageRequest struct {
	RecipientID uint   `json:"recipientId" binding:"required"`
	Content     string `json:"content"`
	FileName    string `json:"fileName"`
	FileType    string `json:"fileType"`
	FileData    string `json:"fileData"`
}

// SendMessage persists a message and pushes it to the recipient's sockets.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	senderID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "Sender ID not found in token")
		return
	}

	message, err := h.deliver(senderID, req)
	if err != nil {
		var de *deliveryError
		if errors.As(err, &de) {
			de.respond(c)
		} else {
			utils.InternalServerError(c, "Failed to send message: "+err.Error())
		}
		return
	}

	utils.Created(c, "Message sent successfully", message)
}

// deliveryError carries the HTTP mapping for a failed delivery.
type deliveryError struct {
	status  func(*gin.Context, string)
	message string
}

func (e *deliveryError) Error() string          { return e.message }
func (e *deliveryError) respond(c *gin.Context) { e.status(c, e.message) }

// deliver validates, persists and pushes a message. The same path serves the
// REST endpoint and the websocket event.
func (h *MessageHandler) deliver(senderID uint, req SendMessageRequest) (models.Message, error) {
	if senderID == req.RecipientID {
		return models.Message{}, &deliveryError{utils.BadRequest, "Cannot send a message to yourself"}
	}
	if req.Content == "" && req.FileData == "" {
		return models.Message{}, &deliveryError{utils.BadRequest, "Message must have content or an attachment"}
	}

	var sender, recipient models.User
	if err := h.DB.First(&sender, "id = ?", senderID).Error; err != nil {
		return models.Message{}, &deliveryError{utils.Unauthorized, "Sender not found"}
	}
	if err := h.DB.First(&recipient, "id = ?", req.RecipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Message{}, &deliveryError{utils.NotFound, "Recipient user not found"}
		}
		return models.Message{}, err
	}

	// Chat is between patients and clinic staff. Staff may also message each
	// other; patient-to-patient chat is not allowed.
	if sender.Role == models.RolePatient && recipient.Role == models.RolePatient {
		return models.Message{}, &deliveryError{utils.Forbidden, "You are not authorized to message this user"}
	}

	message := models.Message{
		SenderID:   senderID,
		ReceiverID: req.RecipientID,
		Content:    req.Content,
		Status:     models.MessageStatusSent,
	}
	if req.FileData != "" {
		data, err := base64.StdEncoding.DecodeString(req.FileData)
		if err != nil {
			return models.Message{}, &deliveryError{utils.BadRequest, "Attachment is not valid base64"}
		}
		message.FileName = req.FileName
		message.FileType = req.FileType
		message.FileData = data
	}

	if err := h.DB.Create(&message).Error; err != nil {
		return models.Message{}, err
	}

	message.Sender = sender
	message.Receiver = recipient
	h.push(message)
	return message, nil
}

// push notifies the recipient's live sockets. Delivery status is updated only
// when at least one socket received the frame.
func (h *MessageHandler) push(message models.Message) {
	if h.Hub == nil {
		return
	}
	if h.Hub.SendToUser(message.ReceiverID, ws.EventReceivePrivate, message) {
		h.DB.Model(&models.Message{}).Where("id = ? AND status = ?", message.ID, models.MessageStatusSent).
			Update("status", models.MessageStatusDelivered)
	}
}

// handleSocketMessage services the send_private_message websocket event.
func (h *MessageHandler) handleSocketMessage(senderID uint, data json.RawMessage) {
	var req SendMessageRequest
	if err := json.Unmarshal(data, &req); err != nil {
		log.Printf("messages: bad socket payload from user %d: %v", senderID, err)
		return
	}
	if _, err := h.deliver(senderID, req); err != nil {
		log.Printf("messages: socket delivery from user %d failed: %v", senderID, err)
	}
}

// GetMessagesForUser fetches the user's messages, optionally narrowed to one
// conversation with ?withUser=<id>.
func (h *MessageHandler) GetMessagesForUser(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var messages []models.Message
	query := h.DB.Preload("Sender").Preload("Receiver").Order("created_at asc")

	if otherUser := c.Query("withUser"); otherUser != "" {
		query = query.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherUser, otherUser, userID)
	} else {
		query = query.Where("sender_id = ? OR receiver_id = ?", userID, userID)
	}

	if err := query.Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	// Fetching a conversation reads the incoming messages in it.
	now := time.Now()
	for i := range messages {
		if messages[i].ReceiverID == userID && messages[i].Status != models.MessageStatusRead {
			messages[i].Status = models.MessageStatusRead
			messages[i].ReadAt = &now
			h.DB.Model(&messages[i]).Updates(map[string]interface{}{"status": models.MessageStatusRead, "read_at": now})
		}
	}

	utils.Success(c, "Messages fetched successfully", messages)
}

// GetConversations fetches a preview of each conversation the user is part of.
func (h *MessageHandler) GetConversations(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var partnerIDs []uint
	err := h.DB.Raw(`
		SELECT DISTINCT partner_id FROM (
			SELECT receiver_id AS partner_id FROM messages WHERE sender_id = ?
			UNION
			SELECT sender_id AS partner_id FROM messages WHERE receiver_id = ?
		) AS partners
	`, userID, userID).Scan(&partnerIDs).Error
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch conversation partners: "+err.Error())
		return
	}

	type ConversationPreview struct {
		Partner     models.UserSanitized `json:"partner"`
		LastMessage models.Message       `json:"lastMessage"`
		UnreadCount int64                `json:"unreadCount"`
	}
	previews := make([]ConversationPreview, 0, len(partnerIDs))

	for _, partnerID := range partnerIDs {
		var partner models.User
		if err := h.DB.First(&partner, "id = ?", partnerID).Error; err != nil {
			continue
		}

		var lastMessage models.Message
		err := h.DB.Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, partnerID, partnerID, userID).
			Order("created_at desc").First(&lastMessage).Error
		if err != nil {
			continue
		}

		var unreadCount int64
		h.DB.Model(&models.Message{}).
			Where("sender_id = ? AND receiver_id = ? AND status <> ?", partnerID, userID, models.MessageStatusRead).
			Count(&unreadCount)

		previews = append(previews, ConversationPreview{
			Partner:     partner.Sanitize(),
			LastMessage: lastMessage,
			UnreadCount: unreadCount,
		})
	}

	utils.Success(c, "Conversations fetched successfully", previews)
}

// MarkMessageAsRead marks a single message as read. Recipient only.
func (h *MessageHandler) MarkMessageAsRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var message models.Message
	if err := h.DB.First(&message, "id = ?", c.Param("messageId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.ReceiverID != userID {
		utils.Forbidden(c, "You are not authorized to mark this message as read")
		return
	}

	if message.Status == models.MessageStatusRead {
		utils.Success(c, "Message already marked as read", message)
		return
	}

	now := time.Now()
	message.Status = models.MessageStatusRead
	message.ReadAt = &now
	if err := h.DB.Save(&message).Error; err != nil {
		utils.InternalServerError(c, "Failed to update message status: "+err.Error())
		return
	}

	utils.Success(c, "Message marked as read successfully", message)
}

// GetMessageAttachment streams the binary attachment of a message.
func (h *MessageHandler) GetMessageAttachment(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var message models.Message
	if err := h.DB.First(&message, "id = ?", c.Param("messageId")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.NotFound(c, "Message not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}

	if message.SenderID != userID && message.ReceiverID != userID {
		utils.Forbidden(c, "You are not authorized to view this attachment")
		return
	}
	if len(message.FileData) == 0 {
		utils.NotFound(c, "Message has no attachment")
		return
	}

	contentType := message.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", attachmentDisposition(message.FileName))
	c.Data(200, contentType, message.FileData)
}

// NewMessagesRequest represents the query params for polling new messages.
type NewMessagesRequest struct {
	Since string `form:"since" binding:"required"`
}

// GetNewMessages fetches messages created after a given timestamp. Kept as a
// polling fallback for clients without a socket connection.
func (h *MessageHandler) GetNewMessages(c *gin.Context) {
	var req NewMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User ID not found in context")
		return
	}

	sinceTime, err := time.Parse(time.RFC3339, req.Since)
	if err != nil {
		utils.BadRequest(c, "Invalid timestamp format. Use RFC3339 format (e.g., 2006-01-02T15:04:05Z07:00)")
		return
	}

	var messages []models.Message
	if err := h.DB.Preload("Sender").Preload("Receiver").
		Where("(receiver_id = ? OR sender_id = ?) AND created_at > ?", userID, userID, sinceTime).
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch messages: "+err.Error())
		return
	}

	utils.Success(c, "New messages fetched successfully", messages)
}
