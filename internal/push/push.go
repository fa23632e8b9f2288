package push

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quackchatNotification/internal/logging"
)

// Codes shared by every gateway. Provider-specific codes pass through as-is.
const (
	CodeUnregistered     = "registration-token-not-registered"
	CodeInvalidArgument  = "invalid-argument"
	CodeUnavailable      = "unavailable"
	CodeInternal         = "internal"
	CodeUnsupportedToken = "unsupported-token"
	CodeUnknown          = "unknown"
)

// Notification is the user-visible part of a push plus opaque routing data.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Gateway delivers one notification to one device token and returns the
// provider's message id.
type Gateway interface {
	Send(ctx context.Context, token string, n Notification) (string, error)
}

// DeliveryError is a per-recipient failure reported by a gateway.
type DeliveryError struct {
	Code  string
	Token string
	Err   error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("push to %s failed (%s): %v", logging.TokenPrefix(e.Token), e.Code, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Code returns the delivery code carried by err, or CodeUnknown.
func Code(err error) string {
	var de *DeliveryError
	if errors.As(err, &de) && de.Code != "" {
		return de.Code
	}
	return CodeUnknown
}

// IsExpoToken reports whether token was issued by Expo's push service.
func IsExpoToken(token string) bool {
	if !strings.HasSuffix(token, "]") {
		return false
	}
	return strings.HasPrefix(token, "ExponentPushToken[") || strings.HasPrefix(token, "ExpoPushToken[")
}

// Router sends Expo tokens through Expo and every other token through FCM.
// Either side may be nil when that provider is not configured.
type Router struct {
	FCM  Gateway
	Expo Gateway
}

func (r *Router) Send(ctx context.Context, token string, n Notification) (string, error) {
	gw := r.FCM
	if IsExpoToken(token) {
		gw = r.Expo
	}
	if gw == nil {
		return "", &DeliveryError{Code: CodeUnsupportedToken, Token: token, Err: errors.New("no gateway configured for token")}
	}
	return gw.Send(ctx, token, n)
}
