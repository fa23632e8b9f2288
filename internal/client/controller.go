package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/logging"
)

const (
	defaultRoomName        = "Chat Room"
	defaultForegroundTitle = "New Message"

	defaultPollInterval = 500 * time.Millisecond
	defaultPollAttempts = 10
)

var errNoToken = errors.New("messaging returned an empty token")

type Deps struct {
	Messaging Messaging
	Functions Functions
	Navigator Navigator
	Rooms     Rooms
	Prompter  Prompter
	Logger    log.FieldLogger
}

type Options struct {
	// PollInterval and PollAttempts bound the wait for the navigator on cold start.
	PollInterval time.Duration
	PollAttempts int
}

// Controller drives permission, token registration, room subscription and
// push routing for one device session.
type Controller struct {
	messaging Messaging
	functions Functions
	navigator Navigator
	rooms     Rooms
	prompter  Prompter
	logger    log.FieldLogger
	opts      Options

	ctx    context.Context
	cancel context.CancelFunc

	flight singleflight.Group

	mu            sync.Mutex
	state         State
	user          *User
	token         string
	handlersSetup bool
	unsubscribers []func()
	pending       *PendingNavigation
}

func NewController(deps Deps, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.PollAttempts <= 0 {
		opts.PollAttempts = defaultPollAttempts
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller{
		messaging: deps.Messaging,
		functions: deps.Functions,
		navigator: deps.Navigator,
		rooms:     deps.Rooms,
		prompter:  deps.Prompter,
		logger:    deps.Logger,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		state:     StateUnregistered,
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Token is the registered push token, empty until registration succeeds.
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// OnAuthStateChanged is called with the signed-in user, or nil on sign-out.
func (c *Controller) OnAuthStateChanged(ctx context.Context, user *User) error {
	if user == nil {
		c.mu.Lock()
		c.user = nil
		c.token = ""
		c.state = StateUnregistered
		c.mu.Unlock()

		c.logger.Info("user signed out, notification state reset")
		return nil
	}

	c.mu.Lock()
	c.user = user
	if c.state == StateUnregistered {
		c.state = StatePermissionUnknown
	}
	c.mu.Unlock()

	c.setupHandlers()

	enabled, err := c.CheckPermission(ctx)
	if err != nil || !enabled {
		return err
	}

	_, err = c.ensureToken(ctx)
	return err
}

func (c *Controller) currentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// CheckPermission reads the current permission. It only detects a revocation
// made outside the app; Disabled becomes Enabled only through RequestPermission.
func (c *Controller) CheckPermission(ctx context.Context) (bool, error) {
	v, err, _ := c.flight.Do("permission-check", func() (interface{}, error) {
		enabled, err := c.messaging.HasPermission(ctx)
		if err != nil {
			c.setState(StateDisabled)
			return false, fmt.Errorf("checking notification permission: %w", err)
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		switch {
		case !enabled:
			c.state = StateDisabled
		case c.state == StateDisabled:
			return false, nil
		default:
			c.state = StateEnabled
		}
		return enabled, nil
	})
	if err != nil {
		c.logger.Errorf("failed to check permission status: %s", err)
		return false, err
	}
	return v.(bool), nil
}

// RequestPermission asks the platform for permission and, when granted,
// obtains and registers the push token.
func (c *Controller) RequestPermission(ctx context.Context) (bool, error) {
	v, err, _ := c.flight.Do("permission-request", func() (interface{}, error) {
		granted, err := c.messaging.RequestPermission(ctx)
		if err != nil {
			c.setState(StateDisabled)
			return false, fmt.Errorf("requesting notification permission: %w", err)
		}
		if !granted {
			c.logger.Info("notification permission denied")
			c.setState(StateDisabled)
			return false, nil
		}

		c.setState(StateEnabled)
		if _, err := c.ensureToken(ctx); err != nil {
			c.logger.Errorf("failed to get and save token: %s", err)
		}
		return true, nil
	})
	if err != nil {
		c.logger.Errorf("permission request failed: %s", err)
		return false, err
	}
	return v.(bool), nil
}

// ensureToken fetches the device token and registers it once.
func (c *Controller) ensureToken(ctx context.Context) (string, error) {
	if token := c.Token(); token != "" {
		return token, nil
	}

	v, err, _ := c.flight.Do("token", func() (interface{}, error) {
		token, err := c.messaging.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("getting push token: %w", err)
		}
		if token == "" {
			return "", errNoToken
		}

		if c.currentUser() == nil {
			return "", domain.ErrUnauthenticated
		}

		if err := c.functions.UpdateUserToken(ctx, token); err != nil {
			return "", fmt.Errorf("registering push token: %w", err)
		}

		c.mu.Lock()
		c.token = token
		c.mu.Unlock()

		c.logger.WithField("token_prefix", logging.TokenPrefix(token)).Info("push token registered")
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SubscribeToRoom enables notifications for roomID, asking for permission
// first when needed.
func (c *Controller) SubscribeToRoom(ctx context.Context, roomID string) error {
	if c.currentUser() == nil {
		return domain.ErrUnauthenticated
	}

	logger := c.logger.WithField("room_id", roomID)

	enabled, err := c.CheckPermission(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		granted, err := c.RequestPermission(ctx)
		if err != nil {
			return err
		}
		if !granted {
			logger.Info("permission denied, cannot subscribe to room notifications")
			c.prompter.Inform(
				"Notifications Disabled",
				"To get notified about new messages, enable notifications for QuackChat in your device settings.",
			)
			return domain.ErrPermissionDenied
		}
	}

	if _, err := c.ensureToken(ctx); err != nil {
		return err
	}

	if err := c.functions.SubscribeToRoom(ctx, roomID); err != nil {
		return fmt.Errorf("subscribe to room %s: %w", roomID, err)
	}

	logger.Info("subscribed to room notifications")
	return nil
}

func (c *Controller) UnsubscribeFromRoom(ctx context.Context, roomID string) error {
	if c.currentUser() == nil {
		return domain.ErrUnauthenticated
	}

	if err := c.functions.UnsubscribeFromRoom(ctx, roomID); err != nil {
		return fmt.Errorf("unsubscribe from room %s: %w", roomID, err)
	}

	c.logger.WithField("room_id", roomID).Info("unsubscribed from room notifications")
	return nil
}

// PromptForRoomSubscription asks whether to notify about roomName and
// subscribes on Enable. It reports whether the user ended up subscribed.
func (c *Controller) PromptForRoomSubscription(ctx context.Context, roomID, roomName string) (bool, error) {
	accepted := c.prompter.Confirm(
		"Enable Notifications?",
		fmt.Sprintf("Would you like to receive notifications for new messages in %q?", roomName),
		"No Thanks",
		"Enable",
	)
	if !accepted {
		return false, nil
	}

	if err := c.SubscribeToRoom(ctx, roomID); err != nil {
		return false, err
	}
	return true, nil
}

// HandleFirstMessage is called before the user sends a message. When the
// user has never written in roomID it offers a subscription.
func (c *Controller) HandleFirstMessage(ctx context.Context, roomID, roomName string) (bool, error) {
	user := c.currentUser()
	if user == nil {
		return false, domain.ErrUnauthenticated
	}

	hasMessages, err := c.rooms.HasMessagesFrom(ctx, roomID, user.UID)
	if err != nil {
		return false, fmt.Errorf("checking messages in room %s: %w", roomID, err)
	}
	if hasMessages {
		return false, nil
	}

	return c.PromptForRoomSubscription(ctx, roomID, roomName)
}

// SendTestNotification asks the server to push to this user's stored token.
func (c *Controller) SendTestNotification(ctx context.Context) (TestNotificationResult, error) {
	if c.currentUser() == nil {
		return TestNotificationResult{}, domain.ErrUnauthenticated
	}
	return c.functions.SendTestNotification(ctx)
}

// setupHandlers registers the push handlers once per controller.
func (c *Controller) setupHandlers() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handlersSetup {
		return
	}

	c.unsubscribers = append(c.unsubscribers,
		c.messaging.OnMessage(c.onForegroundMessage),
		c.messaging.OnNotificationOpened(c.onNotificationOpened),
	)
	c.handlersSetup = true
}

func (c *Controller) onForegroundMessage(msg RemoteMessage) {
	if !msg.HasNotification {
		return
	}

	title := msg.Title
	if title == "" {
		title = defaultForegroundTitle
	}

	if !c.prompter.Confirm(title, msg.Body, "Dismiss", "View") {
		return
	}

	if roomID := msg.RoomID(); roomID != "" {
		c.NavigateToRoom(c.ctx, roomID)
	}
}

func (c *Controller) onNotificationOpened(msg RemoteMessage) {
	if roomID := msg.RoomID(); roomID != "" {
		c.NavigateToRoom(c.ctx, roomID)
	}
}

// Close removes the push handlers and stops pending navigation.
func (c *Controller) Close() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, unsubscribe := range c.unsubscribers {
		unsubscribe()
	}
	c.unsubscribers = nil
	c.handlersSetup = false
}
