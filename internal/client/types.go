package client

import (
	"context"
)

// State is the notification state of one signed-in device session.
type State int

const (
	StateUnregistered State = iota
	StatePermissionUnknown
	StateEnabled
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StatePermissionUnknown:
		return "permission-unknown"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// User is the signed-in account as the auth layer reports it.
type User struct {
	UID         string
	DisplayName string
}

// RemoteMessage is a push as the device's messaging layer delivers it.
type RemoteMessage struct {
	Title string
	Body  string
	Data  map[string]string
	// HasNotification is false for data-only messages.
	HasNotification bool
}

// RoomID returns the routing room id carried in the payload.
func (m *RemoteMessage) RoomID() string {
	if m == nil {
		return ""
	}
	return m.Data["roomId"]
}

// PendingNavigation is a room the app should open once navigation is ready.
type PendingNavigation struct {
	RoomID   string
	RoomName string
}

// Messaging is the device push layer.
type Messaging interface {
	// HasPermission reports authorized or provisional permission.
	HasPermission(ctx context.Context) (bool, error)
	// RequestPermission shows the platform dialog and reports the outcome.
	RequestPermission(ctx context.Context) (bool, error)
	Token(ctx context.Context) (string, error)
	// OnMessage and OnNotificationOpened return a function that removes the handler.
	OnMessage(handler func(RemoteMessage)) func()
	OnNotificationOpened(handler func(RemoteMessage)) func()
	// InitialNotification returns the push that cold-started the app, or nil.
	InitialNotification(ctx context.Context) (*RemoteMessage, error)
}

// Functions are the server-side callable operations.
type Functions interface {
	UpdateUserToken(ctx context.Context, token string) error
	SubscribeToRoom(ctx context.Context, roomID string) error
	UnsubscribeFromRoom(ctx context.Context, roomID string) error
	SendTestNotification(ctx context.Context) (TestNotificationResult, error)
}

type Navigator interface {
	IsReady() bool
	Navigate(roomID, roomName string)
}

// Rooms reads room data the controller needs for routing and prompts.
type Rooms interface {
	RoomTitle(ctx context.Context, roomID string) (string, error)
	HasMessagesFrom(ctx context.Context, roomID, uid string) (bool, error)
}

// Prompter shows modal dialogs. Confirm blocks until the user picks one of
// the two buttons and reports whether accept was chosen.
type Prompter interface {
	Confirm(title, message, cancel, accept string) bool
	Inform(title, message string)
}

type TestNotificationResult struct {
	Success     bool   `json:"success"`
	MessageID   string `json:"messageId,omitempty"`
	TokenPrefix string `json:"tokenPrefix,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
}
