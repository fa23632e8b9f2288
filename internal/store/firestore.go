package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/quackchatNotification/internal/domain"
)

// Firestore implements DocumentStore on Cloud Firestore.
type Firestore struct {
	client *firestore.Client
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client}
}

func (s *Firestore) users() *firestore.CollectionRef {
	return s.client.Collection(domain.UsersCollection)
}

func (s *Firestore) room(roomID string) *firestore.DocumentRef {
	return s.client.Collection(domain.RoomsCollection).Doc(roomID)
}

func (s *Firestore) GetUser(ctx context.Context, uid string) (*domain.UserProfile, error) {
	docSnap, err := s.users().Doc(uid).Get(ctx)
	if err != nil {
		return nil, notFound(err, "user %s", uid)
	}

	var profile domain.UserProfile
	if err := docSnap.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("unmarshal user %s: %w", uid, err)
	}
	profile.UID = docSnap.Ref.ID

	return &profile, nil
}

func (s *Firestore) MergeUserToken(ctx context.Context, uid, token string) error {
	_, err := s.users().Doc(uid).Set(ctx, map[string]interface{}{
		"fcmToken": token,
	}, firestore.MergeAll)
	if err != nil {
		return fmt.Errorf("save token for %s: %w", uid, err)
	}
	return nil
}

func (s *Firestore) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	docSnap, err := s.room(roomID).Get(ctx)
	if err != nil {
		return nil, notFound(err, "room %s", roomID)
	}

	var room domain.Room
	if err := docSnap.DataTo(&room); err != nil {
		return nil, fmt.Errorf("unmarshal room %s: %w", roomID, err)
	}
	room.ID = docSnap.Ref.ID

	return &room, nil
}

func (s *Firestore) ListSubscribers(ctx context.Context, roomID string, limit int) ([]domain.Subscriber, error) {
	query := s.room(roomID).Collection(domain.SubscribersCollection).Query
	if limit > 0 {
		query = query.Limit(limit)
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list subscribers of room %s: %w", roomID, err)
	}

	subscribers := make([]domain.Subscriber, 0, len(docs))
	for _, docSnap := range docs {
		var sub domain.Subscriber
		if err := docSnap.DataTo(&sub); err != nil {
			return nil, fmt.Errorf("unmarshal subscriber %s: %w", docSnap.Ref.ID, err)
		}
		sub.RoomID = roomID
		sub.UserID = docSnap.Ref.ID
		subscribers = append(subscribers, sub)
	}

	return subscribers, nil
}

func (s *Firestore) PutSubscriber(ctx context.Context, roomID, uid string) error {
	_, err := s.room(roomID).Collection(domain.SubscribersCollection).Doc(uid).Set(ctx, map[string]interface{}{
		"subscribedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("subscribe %s to room %s: %w", uid, roomID, err)
	}
	return nil
}

func (s *Firestore) DeleteSubscriber(ctx context.Context, roomID, uid string) error {
	_, err := s.room(roomID).Collection(domain.SubscribersCollection).Doc(uid).Delete(ctx)
	if err != nil {
		return fmt.Errorf("unsubscribe %s from room %s: %w", uid, roomID, err)
	}
	return nil
}

func (s *Firestore) AddMessage(ctx context.Context, roomID string, msg *domain.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	roomRef := s.room(roomID)
	msgRef := roomRef.Collection(domain.MessagesCollection).NewDoc()

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(msgRef, msg); err != nil {
			return err
		}
		return tx.Update(roomRef, []firestore.Update{
			{Path: "lastMessageTimestamp", Value: msg.Timestamp},
		})
	})
	if err != nil {
		return "", notFound(err, "add message to room %s", roomID)
	}

	msg.ID = msgRef.ID
	msg.RoomID = roomID
	return msgRef.ID, nil
}

func (s *Firestore) HasMessagesFrom(ctx context.Context, roomID, uid string) (bool, error) {
	docs, err := s.room(roomID).Collection(domain.MessagesCollection).
		Where("senderId", "==", uid).
		Limit(1).
		Documents(ctx).
		GetAll()
	if err != nil {
		return false, fmt.Errorf("query messages of %s in room %s: %w", uid, roomID, err)
	}
	return len(docs) > 0, nil
}

func notFound(err error, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}
