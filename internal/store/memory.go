package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/quackchatNotification/internal/domain"
)

// Memory is an in-process DocumentStore for local runs and tests. It keeps
// the same document semantics as Firestore: merge writes, idempotent
// deletes, server-assigned timestamps and ids.
type Memory struct {
	mu          sync.RWMutex
	now         func() time.Time
	users       map[string]domain.UserProfile
	rooms       map[string]domain.Room
	subscribers map[string]map[string]time.Time
	messages    map[string][]domain.Message
}

func NewMemory() *Memory {
	return &Memory{
		now:         time.Now,
		users:       make(map[string]domain.UserProfile),
		rooms:       make(map[string]domain.Room),
		subscribers: make(map[string]map[string]time.Time),
		messages:    make(map[string][]domain.Message),
	}
}

// SetClock replaces the server clock.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// PutUser seeds or replaces a user profile.
func (m *Memory) PutUser(profile domain.UserProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[profile.UID] = profile
}

// PutRoom seeds or replaces a room.
func (m *Memory) PutRoom(room domain.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

// DeleteRoom removes a room document; its subcollections are left behind,
// as Firestore does.
func (m *Memory) DeleteRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
}

func (m *Memory) GetUser(_ context.Context, uid string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, ok := m.users[uid]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", uid, domain.ErrNotFound)
	}
	return &profile, nil
}

func (m *Memory) MergeUserToken(_ context.Context, uid, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile := m.users[uid]
	profile.UID = uid
	profile.FCMToken = token
	m.users[uid] = profile
	return nil
}

func (m *Memory) GetRoom(_ context.Context, roomID string) (*domain.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, domain.ErrNotFound)
	}
	return &room, nil
}

func (m *Memory) ListSubscribers(_ context.Context, roomID string, limit int) ([]domain.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := m.subscribers[roomID]
	uids := make([]string, 0, len(subs))
	for uid := range subs {
		uids = append(uids, uid)
	}
	sort.Strings(uids)

	if limit > 0 && len(uids) > limit {
		uids = uids[:limit]
	}

	out := make([]domain.Subscriber, 0, len(uids))
	for _, uid := range uids {
		out = append(out, domain.Subscriber{RoomID: roomID, UserID: uid, SubscribedAt: subs[uid]})
	}
	return out, nil
}

func (m *Memory) PutSubscriber(_ context.Context, roomID, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.subscribers[roomID]
	if !ok {
		subs = make(map[string]time.Time)
		m.subscribers[roomID] = subs
	}
	subs[uid] = m.now()
	return nil
}

func (m *Memory) DeleteSubscriber(_ context.Context, roomID, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if subs, ok := m.subscribers[roomID]; ok {
		delete(subs, uid)
	}
	return nil
}

func (m *Memory) AddMessage(_ context.Context, roomID string, msg *domain.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.rooms[roomID]
	if !ok {
		return "", fmt.Errorf("add message to room %s: %w", roomID, domain.ErrNotFound)
	}

	msg.ID = newDocID()
	msg.RoomID = roomID
	if msg.Timestamp.IsZero() {
		msg.Timestamp = m.now()
	}
	m.messages[roomID] = append(m.messages[roomID], *msg)

	room.LastMessageTimestamp = msg.Timestamp
	m.rooms[roomID] = room

	return msg.ID, nil
}

func (m *Memory) HasMessagesFrom(_ context.Context, roomID, uid string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, msg := range m.messages[roomID] {
		if msg.SenderID == uid {
			return true, nil
		}
	}
	return false, nil
}
