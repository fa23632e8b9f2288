package fanout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/config"
	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/event"
	"github.com/quackchatNotification/internal/logging"
	"github.com/quackchatNotification/internal/push"
)

// Reader is the store capability the fan-out needs.
type Reader interface {
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	GetUser(ctx context.Context, uid string) (*domain.UserProfile, error)
	ListSubscribers(ctx context.Context, roomID string, limit int) ([]domain.Subscriber, error)
}

// Guard claims a trigger event so a redelivery does not notify twice.
type Guard interface {
	Claim(ctx context.Context, roomID, messageID string) (bool, error)
	Release(ctx context.Context, roomID, messageID string) error
}

type Options struct {
	DefaultTitle      string
	ImagePlaceholder  string
	MissingRoomPolicy string
	MaxSubscribers    int
}

// OptionsFromConfig copies the fan-out section of cfg.
func OptionsFromConfig(cfg config.FanoutConfig) Options {
	return Options{
		DefaultTitle:      cfg.DefaultTitle,
		ImagePlaceholder:  cfg.ImagePlaceholder,
		MissingRoomPolicy: cfg.MissingRoomPolicy,
		MaxSubscribers:    cfg.MaxSubscribers,
	}
}

// Result summarises one invocation.
type Result struct {
	Sent           int
	Failed         int
	SkippedNoToken int
	// SkippedReadError counts recipients whose profile could not be read.
	SkippedReadError int
	// Duplicate is set when the guard had already seen this event.
	Duplicate bool
	// Discarded is set when the room could not be resolved.
	Discarded bool
}

// Attempts is the number of pushes handed to the gateway.
func (r Result) Attempts() int {
	return r.Sent + r.Failed
}

// Service sends one push per eligible subscriber of a room.
type Service struct {
	store   Reader
	gateway push.Gateway
	guard   Guard
	opts    Options
	logger  log.FieldLogger
}

func New(store Reader, gateway push.Gateway, opts Options, logger log.FieldLogger) *Service {
	return &Service{store: store, gateway: gateway, opts: opts, logger: logger}
}

// WithGuard enables de-duplication of redelivered events.
func (s *Service) WithGuard(guard Guard) *Service {
	s.guard = guard
	return s
}

type recipient struct {
	uid   string
	token string
}

// Handle runs the fan-out for a newly created message. Store read failures
// before dispatch abort the whole invocation and are returned; delivery
// failures are per recipient and only counted.
func (s *Service) Handle(ctx context.Context, evt event.MessageCreated) (Result, error) {
	logger := s.logger.WithFields(log.Fields{"room_id": evt.RoomID, "message_id": evt.MessageID})

	if evt.Message == nil {
		logger.Warn("message created event without payload")
		return Result{}, nil
	}

	msg := evt.Message
	if !msg.HasText() && !msg.HasImage() {
		logger.Warn("message has neither text nor image")
	}

	if s.guard != nil {
		claimed, err := s.guard.Claim(ctx, evt.RoomID, evt.MessageID)
		switch {
		case err != nil:
			logger.Warnf("dedup claim failed, continuing without it: %s", err)
		case !claimed:
			logger.Info("event already handled")
			return Result{Duplicate: true}, nil
		}
	}

	notification, recipients, err := s.prepare(ctx, logger, evt)
	if err != nil {
		s.release(ctx, logger, evt)
		return Result{}, err
	}
	if notification == nil {
		return Result{Discarded: true}, nil
	}

	result := Result{}
	targets := make([]recipient, 0, len(recipients))
	for _, subscriberID := range recipients {
		profile, err := s.store.GetUser(ctx, subscriberID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.WithField("uid", subscriberID).Errorf("unable to fetch user data: %s", err)
			result.SkippedReadError++
			continue
		}
		if !profile.HasToken() {
			result.SkippedNoToken++
			continue
		}
		targets = append(targets, recipient{uid: subscriberID, token: profile.FCMToken})
	}

	sent, failed := s.dispatch(ctx, logger, targets, *notification)
	result.Sent += sent
	result.Failed += failed

	logger.WithFields(log.Fields{
		"sent":               result.Sent,
		"failed":             result.Failed,
		"skipped_no_token":   result.SkippedNoToken,
		"skipped_read_error": result.SkippedReadError,
	}).Infof("sent %d notifications for room %s", result.Sent, evt.RoomID)

	return result, nil
}

// prepare resolves the room title and subscriber ids. A nil notification
// with a nil error means the room is gone and the event is discarded.
func (s *Service) prepare(ctx context.Context, logger log.FieldLogger, evt event.MessageCreated) (*push.Notification, []string, error) {
	title := s.opts.DefaultTitle

	room, err := s.store.GetRoom(ctx, evt.RoomID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if s.opts.MissingRoomPolicy != config.MissingRoomFallback {
			logger.Warn("room not found, discarding notification")
			return nil, nil, nil
		}
		logger.Warn("room not found, using default title")
	case err != nil:
		return nil, nil, fmt.Errorf("get room %s: %w", evt.RoomID, err)
	case room.Title != "":
		title = room.Title
	}

	subscribers, err := s.store.ListSubscribers(ctx, evt.RoomID, s.opts.MaxSubscribers)
	if err != nil {
		return nil, nil, fmt.Errorf("list subscribers of %s: %w", evt.RoomID, err)
	}
	if s.opts.MaxSubscribers > 0 && len(subscribers) == s.opts.MaxSubscribers {
		logger.Warnf("subscriber list truncated at %d", s.opts.MaxSubscribers)
	}

	recipients := make([]string, 0, len(subscribers))
	for _, subscriber := range subscribers {
		// Because we should not send notification to the same user
		if subscriber.UserID == evt.Message.SenderID {
			continue
		}
		recipients = append(recipients, subscriber.UserID)
	}

	return &push.Notification{
		Title: title,
		Body:  s.body(evt.Message),
		Data: map[string]string{
			"roomId":    evt.RoomID,
			"messageId": evt.MessageID,
		},
	}, recipients, nil
}

func (s *Service) body(msg *domain.Message) string {
	if msg.HasImage() {
		return s.opts.ImagePlaceholder
	}
	return msg.Text
}

func (s *Service) release(ctx context.Context, logger log.FieldLogger, evt event.MessageCreated) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(ctx, evt.RoomID, evt.MessageID); err != nil {
		logger.Warnf("releasing dedup claim: %s", err)
	}
}

func (s *Service) pushGoRoutine(ctx context.Context, waitGroup *sync.WaitGroup, logger log.FieldLogger, target recipient, n push.Notification, failures []bool, idx int) {
	defer waitGroup.Done()

	id, err := s.gateway.Send(ctx, target.token, n)
	if err != nil {
		logger.WithFields(log.Fields{
			"uid":  target.uid,
			"code": push.Code(err),
		}).Errorf("push delivery failed: %s", err)
		failures[idx] = true
		return
	}

	logger.WithFields(log.Fields{
		"uid":          target.uid,
		"token_prefix": logging.TokenPrefix(target.token),
		"push_id":      id,
	}).Debug("push delivered")
}

// dispatch sends all pushes concurrently and waits for every one to settle.
func (s *Service) dispatch(ctx context.Context, logger log.FieldLogger, targets []recipient, n push.Notification) (sent, failed int) {
	if len(targets) == 0 {
		return 0, 0
	}

	failures := make([]bool, len(targets))

	waitGroup := new(sync.WaitGroup)
	waitGroup.Add(len(targets))

	for i, target := range targets {
		go s.pushGoRoutine(ctx, waitGroup, logger, target, n, failures, i)
	}

	waitGroup.Wait()

	for _, f := range failures {
		if f {
			failed++
		} else {
			sent++
		}
	}
	return sent, failed
}
