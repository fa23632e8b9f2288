package store

import (
	"context"
	"crypto/rand"

	"github.com/quackchatNotification/internal/domain"
)

// DocumentStore is the slice of the document database the notification
// subsystem reads and writes. Missing documents surface as domain.ErrNotFound.
type DocumentStore interface {
	GetUser(ctx context.Context, uid string) (*domain.UserProfile, error)
	// MergeUserToken sets fcmToken on users/{uid}, leaving other fields intact.
	MergeUserToken(ctx context.Context, uid, token string) error

	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)

	// ListSubscribers returns at most limit subscriber records of a room.
	ListSubscribers(ctx context.Context, roomID string, limit int) ([]domain.Subscriber, error)
	// PutSubscriber writes rooms/{roomId}/subscribers/{uid} with a server timestamp.
	PutSubscriber(ctx context.Context, roomID, uid string) error
	// DeleteSubscriber removes the record; absent records are not an error.
	DeleteSubscriber(ctx context.Context, roomID, uid string) error

	// AddMessage validates and stores msg, assigns its id and bumps the
	// room's lastMessageTimestamp.
	AddMessage(ctx context.Context, roomID string, msg *domain.Message) (string, error)
	HasMessagesFrom(ctx context.Context, roomID, uid string) (bool, error)
}

const alphanum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newDocID returns a 20 character id in the same alphabet Firestore uses
// for auto-generated document ids.
func newDocID() string {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return ""
	}

	for i, byt := range b {
		b[i] = alphanum[int(byt)%len(alphanum)]
	}

	return string(b)
}
