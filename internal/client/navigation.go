package client

import (
	"context"
	"time"
)

// RoomName resolves a room's display title, falling back to a generic label
// for unknown rooms or lookup failures.
func (c *Controller) RoomName(ctx context.Context, roomID string) string {
	title, err := c.rooms.RoomTitle(ctx, roomID)
	if err != nil {
		c.logger.WithField("room_id", roomID).Warnf("error fetching room info: %s", err)
		return defaultRoomName
	}
	if title == "" {
		return defaultRoomName
	}
	return title
}

// NavigateToRoom opens roomID if the navigator is mounted and reports
// whether it did.
func (c *Controller) NavigateToRoom(ctx context.Context, roomID string) bool {
	if !c.navigator.IsReady() {
		return false
	}
	c.navigator.Navigate(roomID, c.RoomName(ctx, roomID))
	return true
}

// CheckInitialNotification looks for the push that cold-started the app,
// records it as pending and opens its room once the navigator is ready.
// It returns nil when the app was not started from a push.
func (c *Controller) CheckInitialNotification(ctx context.Context) (*PendingNavigation, error) {
	msg, err := c.messaging.InitialNotification(ctx)
	if err != nil {
		c.logger.Errorf("error checking initial notification: %s", err)
		return nil, err
	}

	roomID := msg.RoomID()
	if roomID == "" {
		return nil, nil
	}

	pending := &PendingNavigation{RoomID: roomID, RoomName: msg.Data["roomName"]}
	if pending.RoomName == "" {
		pending.RoomName = defaultRoomName
	}

	c.mu.Lock()
	c.pending = pending
	c.mu.Unlock()

	c.logger.WithField("room_id", roomID).Info("initial notification found")

	if c.awaitNavigator(ctx) {
		c.navigator.Navigate(pending.RoomID, pending.RoomName)
		c.ClearPendingNavigation()
	} else {
		c.logger.WithField("room_id", roomID).Warn("navigator not ready, leaving navigation pending")
	}

	return pending, nil
}

// awaitNavigator polls IsReady at PollInterval for up to PollAttempts.
func (c *Controller) awaitNavigator(ctx context.Context) bool {
	if c.navigator.IsReady() {
		return true
	}

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt < c.opts.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return false
		case <-c.ctx.Done():
			return false
		case <-ticker.C:
		}

		if c.navigator.IsReady() {
			return true
		}
	}
	return false
}

// PendingNavigation returns the room still waiting to be opened, if any.
func (c *Controller) PendingNavigation() *PendingNavigation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller) ClearPendingNavigation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}
