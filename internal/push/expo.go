package push

import (
	"context"
	"errors"

	expo "github.com/oliveroneill/exponent-server-sdk-golang/sdk"
)

var errInvalidExpoToken = errors.New("not an expo push token")

// Expo sends pushes through Expo's push service.
type Expo struct {
	client *expo.PushClient
}

// NewExpo builds a gateway against host; empty host uses Expo's default.
func NewExpo(host string) *Expo {
	return &Expo{client: expo.NewPushClient(&expo.ClientConfig{Host: host})}
}

func (e *Expo) Send(_ context.Context, token string, n Notification) (string, error) {
	if !IsExpoToken(token) {
		return "", &DeliveryError{Code: CodeInvalidArgument, Token: token, Err: errInvalidExpoToken}
	}

	// The SDK constructor only knows the ExponentPushToken[...] spelling.
	pushMessage := &expo.PushMessage{
		To:       []expo.ExponentPushToken{expo.ExponentPushToken(token)},
		Title:    n.Title,
		Body:     n.Body,
		Data:     n.Data,
		Sound:    "default",
		Priority: expo.HighPriority,
	}

	response, err := e.client.Publish(pushMessage)
	if err != nil {
		return "", &DeliveryError{Code: CodeUnavailable, Token: token, Err: err}
	}

	if err := response.ValidateResponse(); err != nil {
		return "", &DeliveryError{Code: expoErrorCode(response), Token: token, Err: err}
	}

	return response.ID, nil
}

// expoErrorCode maps Expo's details.error onto the shared codes.
func expoErrorCode(response expo.PushResponse) string {
	switch code := response.Details["error"]; code {
	case "DeviceNotRegistered":
		return CodeUnregistered
	case "":
		return CodeUnknown
	default:
		return code
	}
}
