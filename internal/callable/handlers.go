package callable

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/auth"
	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/logging"
	"github.com/quackchatNotification/internal/push"
)

const (
	testNotificationTitle = "Test Notification"
	testNotificationBody  = "Push notifications are working!"

	codeNoToken = "no-token"
)

type TokenRegistrar interface {
	UpdateToken(ctx context.Context, caller *domain.Caller, token string) error
}

type Subscriptions interface {
	Subscribe(ctx context.Context, caller *domain.Caller, roomID string) error
	Unsubscribe(ctx context.Context, caller *domain.Caller, roomID string) error
}

type ProfileReader interface {
	GetUser(ctx context.Context, uid string) (*domain.UserProfile, error)
}

// Handler serves the callable operations.
type Handler struct {
	registrar     TokenRegistrar
	subscriptions Subscriptions
	users         ProfileReader
	gateway       push.Gateway
	logger        log.FieldLogger
}

func NewHandler(registrar TokenRegistrar, subscriptions Subscriptions, users ProfileReader, gateway push.Gateway, logger log.FieldLogger) *Handler {
	return &Handler{
		registrar:     registrar,
		subscriptions: subscriptions,
		users:         users,
		gateway:       gateway,
		logger:        logger,
	}
}

func (h *Handler) Register(rg gin.IRoutes) {
	rg.POST("/updateUserToken", h.UpdateUserToken)
	rg.POST("/subscribeToRoomNotifications", h.SubscribeToRoomNotifications)
	rg.POST("/unsubscribeFromRoomNotifications", h.UnsubscribeFromRoomNotifications)
	rg.POST("/sendTestNotification", h.SendTestNotification)
}

type tokenRequest struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

type roomRequest struct {
	Data struct {
		RoomID string `json:"roomId"`
	} `json:"data"`
}

// bind decodes the {"data": ...} request body; an empty body is allowed.
func bind(c *gin.Context, req interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil {
		// Chunked requests carry no length, so an empty body shows up as EOF.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func caller(c *gin.Context) *domain.Caller {
	return auth.CallerFrom(c.Request.Context())
}

// UpdateUserToken stores {token} on the caller's profile.
func (h *Handler) UpdateUserToken(c *gin.Context) {
	var req tokenRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if err := h.registrar.UpdateToken(c.Request.Context(), caller(c), req.Data.Token); err != nil {
		writeError(c, err)
		return
	}

	writeResult(c, SuccessResult{Success: true})
}

func (h *Handler) SubscribeToRoomNotifications(c *gin.Context) {
	var req roomRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if err := h.subscriptions.Subscribe(c.Request.Context(), caller(c), req.Data.RoomID); err != nil {
		writeError(c, err)
		return
	}

	writeResult(c, SuccessResult{Success: true})
}

func (h *Handler) UnsubscribeFromRoomNotifications(c *gin.Context) {
	var req roomRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), caller(c), req.Data.RoomID); err != nil {
		writeError(c, err)
		return
	}

	writeResult(c, SuccessResult{Success: true})
}

// SendTestNotification pushes a fixed notification to the caller's own
// stored token. Delivery problems are reported in the result body, not as
// call failures.
func (h *Handler) SendTestNotification(c *gin.Context) {
	ctx := c.Request.Context()
	who := caller(c)
	if err := auth.Require(who); err != nil {
		writeError(c, err)
		return
	}

	logger := h.logger.WithFields(log.Fields{
		"uid":        who.UID,
		"operation":  "sendTestNotification",
		"request_id": GetRequestID(ctx),
	})

	profile, err := h.users.GetUser(ctx, who.UID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		writeError(c, err)
		return
	}
	if !profile.HasToken() {
		writeResult(c, TestNotificationResult{
			Success: false,
			Error:   "no push token registered for user",
			Code:    codeNoToken,
		})
		return
	}

	messageID, err := h.gateway.Send(ctx, profile.FCMToken, push.Notification{
		Title: testNotificationTitle,
		Body:  testNotificationBody,
		Data:  map[string]string{"type": "test"},
	})
	if err != nil {
		logger.Errorf("test notification failed: %s", err)
		writeResult(c, TestNotificationResult{
			Success: false,
			Error:   err.Error(),
			Code:    push.Code(err),
		})
		return
	}

	logger.Info("test notification sent")
	writeResult(c, TestNotificationResult{
		Success:     true,
		MessageID:   messageID,
		TokenPrefix: logging.TokenPrefix(profile.FCMToken),
	})
}
