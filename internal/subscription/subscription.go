package subscription

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/auth"
	"github.com/quackchatNotification/internal/domain"
)

// SubscriberWriter is the store capability the manager needs.
type SubscriberWriter interface {
	PutSubscriber(ctx context.Context, roomID, uid string) error
	DeleteSubscriber(ctx context.Context, roomID, uid string) error
}

// Manager adds and removes (room, user) subscriber records.
type Manager struct {
	store  SubscriberWriter
	logger log.FieldLogger
}

func New(store SubscriberWriter, logger log.FieldLogger) *Manager {
	return &Manager{store: store, logger: logger}
}

// Subscribe writes rooms/{roomID}/subscribers/{uid}. Re-subscribing only
// refreshes subscribedAt.
func (m *Manager) Subscribe(ctx context.Context, caller *domain.Caller, roomID string) error {
	if err := m.check(caller, roomID); err != nil {
		return err
	}

	if err := m.store.PutSubscriber(ctx, roomID, caller.UID); err != nil {
		return fmt.Errorf("subscribe %s to %s: %w", caller.UID, roomID, err)
	}

	m.logger.WithFields(log.Fields{"uid": caller.UID, "room_id": roomID}).Info("subscribed to room")
	return nil
}

// Unsubscribe removes the record; an absent record is not an error.
func (m *Manager) Unsubscribe(ctx context.Context, caller *domain.Caller, roomID string) error {
	if err := m.check(caller, roomID); err != nil {
		return err
	}

	if err := m.store.DeleteSubscriber(ctx, roomID, caller.UID); err != nil {
		return fmt.Errorf("unsubscribe %s from %s: %w", caller.UID, roomID, err)
	}

	m.logger.WithFields(log.Fields{"uid": caller.UID, "room_id": roomID}).Info("unsubscribed from room")
	return nil
}

func (m *Manager) check(caller *domain.Caller, roomID string) error {
	if err := auth.Require(caller); err != nil {
		return err
	}
	// A slash would address a different document.
	if roomID == "" || strings.Contains(roomID, "/") {
		return fmt.Errorf("%w: roomId %q", domain.ErrInvalidArgument, roomID)
	}
	return nil
}
