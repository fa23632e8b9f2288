package push

import (
	"context"

	"firebase.google.com/go/v4/messaging"
)

// FCM sends pushes through Firebase Cloud Messaging.
type FCM struct {
	client           *messaging.Client
	androidChannelID string
}

func NewFCM(client *messaging.Client, androidChannelID string) *FCM {
	return &FCM{
		client:           client,
		androidChannelID: androidChannelID,
	}
}

func (f *FCM) Send(ctx context.Context, token string, n Notification) (string, error) {
	id, err := f.client.Send(ctx, BuildFCMMessage(token, n, f.androidChannelID))
	if err != nil {
		return "", &DeliveryError{Code: fcmErrorCode(err), Token: token, Err: err}
	}
	return id, nil
}

// BuildFCMMessage adds the platform delivery hints: a high priority
// notification channel on Android, an alert with sound on APNs.
func BuildFCMMessage(token string, n Notification, androidChannelID string) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: androidChannelID,
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Body,
					},
					Sound: "default",
				},
			},
		},
	}
}

func fcmErrorCode(err error) string {
	switch {
	case messaging.IsUnregistered(err):
		return CodeUnregistered
	case messaging.IsInvalidArgument(err):
		return CodeInvalidArgument
	case messaging.IsSenderIDMismatch(err):
		return "mismatched-credential"
	case messaging.IsQuotaExceeded(err):
		return "message-rate-exceeded"
	case messaging.IsThirdPartyAuthError(err):
		return "third-party-auth-error"
	case messaging.IsUnavailable(err):
		return CodeUnavailable
	case messaging.IsInternal(err):
		return CodeInternal
	default:
		return CodeUnknown
	}
}
