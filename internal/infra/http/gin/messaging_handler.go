package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"servly/internal/app/dto"
	"servly/internal/domain/listings"
	"servly/internal/domain/messaging"
	"servly/internal/domain/user"
)

// MessagingHTTP exposes the conversation endpoints.
type MessagingHTTP interface {
	ListThreads(c *gin.Context)
	SendMessage(c *gin.Context)
	MarkThreadRead(c *gin.Context)
}

// MessagingHandler bridges HTTP with the inbox service and per-request
// conversation sessions.
type MessagingHandler struct {
	Inbox    messaging.Service
	Store    messaging.Store
	Notifier messaging.Notifier
	Logger   *slog.Logger
}

// ListThreads returns the viewer's conversations, newest first. A failed
// fetch never degrades to a partial list.
func (h MessagingHandler) ListThreads(c *gin.Context) {
	viewer, ok := requirePrincipal(c)
	if !ok {
		return
	}
	threads, err := h.Inbox.Threads(c.Request.Context(), user.ID(viewer.ID))
	if err != nil {
		h.respondMessagingError(c, err, "list threads", "user_id", viewer.ID)
		return
	}
	c.JSON(http.StatusOK, dto.NewThreadCollection(threads))
}

// SendMessage posts a message to the thread identified by recipient and
// optional listing scope, creating the thread on first contact.
func (h MessagingHandler) SendMessage(c *gin.Context) {
	viewer, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req struct {
		ToUserID  string `json:"to_user_id"`
		ListingID string `json:"listing_id"`
		Content   string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.ToUserID = strings.TrimSpace(req.ToUserID)
	if req.ToUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_user_id is required"})
		return
	}
	if req.ToUserID == viewer.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
		return
	}

	session, err := h.openSession(c, viewer)
	if err != nil {
		h.respondMessagingError(c, err, "load threads before send", "user_id", viewer.ID)
		return
	}
	key := messaging.ThreadKey{
		OtherUserID: user.ID(req.ToUserID),
		ListingID:   listings.ListingID(strings.TrimSpace(req.ListingID)),
	}
	if err := session.Select(c.Request.Context(), key); err != nil {
		h.respondMessagingError(c, err, "select thread", "user_id", viewer.ID)
		return
	}
	message, err := session.Send(c.Request.Context(), req.Content)
	if err != nil {
		h.respondMessagingError(c, err, "send message", "user_id", viewer.ID, "to_user_id", req.ToUserID)
		return
	}
	c.JSON(http.StatusCreated, dto.NewThreadMessage(message))
}

// MarkThreadRead flags every unread message of one thread as read for the
// viewer. The read state is eventually consistent: a store failure is logged
// and the request still succeeds.
func (h MessagingHandler) MarkThreadRead(c *gin.Context) {
	viewer, ok := requirePrincipal(c)
	if !ok {
		return
	}
	var req struct {
		OtherUserID string `json:"other_user_id"`
		ListingID   string `json:"listing_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.OtherUserID = strings.TrimSpace(req.OtherUserID)
	if req.OtherUserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "other_user_id is required"})
		return
	}

	session, err := h.openSession(c, viewer)
	if err != nil {
		h.respondMessagingError(c, err, "load threads before mark read", "user_id", viewer.ID)
		return
	}
	session.MarkRead(c.Request.Context(), messaging.ThreadKey{
		OtherUserID: user.ID(req.OtherUserID),
		ListingID:   listings.ListingID(strings.TrimSpace(req.ListingID)),
	})
	c.Status(http.StatusNoContent)
}

func (h MessagingHandler) openSession(c *gin.Context, viewer principal) (*messaging.Session, error) {
	threads, err := h.Inbox.Threads(c.Request.Context(), user.ID(viewer.ID))
	if err != nil {
		return nil, err
	}
	return messaging.NewSession(messaging.SessionConfig{
		Viewer:   user.ID(viewer.ID),
		Store:    h.Store,
		Notifier: h.Notifier,
		Logger:   h.Logger,
	}, threads), nil
}

func (h MessagingHandler) respondMessagingError(c *gin.Context, err error, action string, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Error("messaging operation failed", append([]any{"action", action, "error", err}, attrs...)...)
	}
	var fetchErr *messaging.FetchError
	var writeErr *messaging.WriteError
	switch {
	case messaging.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not load conversations"})
	case errors.As(err, &writeErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not deliver message"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, messaging.ErrContentRequired):
		return "content is required"
	case errors.Is(err, messaging.ErrNoActiveThread):
		return "no thread selected"
	case errors.Is(err, messaging.ErrRecipientRequired):
		return "to_user_id is required"
	case errors.Is(err, messaging.ErrSelfConversation):
		return "cannot message yourself"
	}
	return err.Error()
}

var _ MessagingHTTP = (*MessagingHandler)(nil)
