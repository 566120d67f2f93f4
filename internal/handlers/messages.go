package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"famnet-backend/internal/chat"
	"famnet-backend/internal/repositories"
	"famnet-backend/internal/storage"
	"famnet-backend/internal/telemetry"
)

const maxMediaBytes = 25 << 20

// MessageHandler exposes the REST surface over room messages.
type MessageHandler struct {
	messages *chat.MessageService
	store    storage.Provider
	emitter  *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(messages *chat.MessageService, store storage.Provider, emitter *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{messages: messages, store: store, emitter: emitter}
}

// List returns the room's recent messages, newest first.
func (h *MessageHandler) List(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	msgs, err := h.messages.HistoryFor(c.Request.Context(), roomID, userID)
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Post stores a message. Multipart bodies may attach media files, which are
// uploaded before the row is written so a failed upload drops the message.
func (h *MessageHandler) Post(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	content, replyTo, media, err := h.parseBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if content == "" && len(media) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty message"})
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), roomID, userID, content, replyTo, media)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrReplyNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply target not found"})
		default:
			respondRoomError(c, err)
		}
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Delete removes a message for everyone, permission rules permitting.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.messages.Delete(c.Request.Context(), userID, messageID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		case errors.Is(err, chat.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete message"})
		}
		return
	}

	h.emitter.Emit(c.Request.Context(), "WARNING",
		fmt.Sprintf("user %d deleted message %d", userID, messageID),
		requestIDFromContext(c), &userID)
	c.Status(http.StatusNoContent)
}

// MarkRead records the caller's read receipts for the given messages.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	roomID, userID, ok := parseRoom(c)
	if !ok {
		return
	}

	var req struct {
		MessageIDs []int `json:"message_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgs, err := h.messages.MarkRead(c.Request.Context(), roomID, userID, req.MessageIDs)
	if err != nil {
		respondRoomError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *MessageHandler) parseBody(c *gin.Context) (string, *int, []repositories.MediaInput, error) {
	contentType := c.ContentType()
	if !strings.HasPrefix(contentType, "multipart/") {
		var req struct {
			Message string `json:"message"`
			ReplyTo *int   `json:"reply_to"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			return "", nil, nil, err
		}
		return req.Message, req.ReplyTo, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return "", nil, nil, err
	}

	content := c.PostForm("message")
	var replyTo *int
	if raw := c.PostForm("reply_to"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return "", nil, nil, errors.New("invalid reply_to")
		}
		replyTo = &id
	}

	var media []repositories.MediaInput
	for _, file := range form.File["files"] {
		if file.Size > maxMediaBytes {
			return "", nil, nil, fmt.Errorf("file %s exceeds the size limit", file.Filename)
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		key := uuid.NewString() + ext

		src, err := file.Open()
		if err != nil {
			return "", nil, nil, err
		}
		_, err = h.store.Upload(c.Request.Context(), key, src, file.Size, file.Header.Get("Content-Type"))
		src.Close()
		if err != nil {
			return "", nil, nil, err
		}

		media = append(media, repositories.MediaInput{
			FileKey:   key,
			ByteSize:  file.Size,
			Extension: strings.TrimPrefix(ext, "."),
		})
	}
	return content, replyTo, media, nil
}
