package trigger

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/event"
	"github.com/quackchatNotification/internal/fanout"
)

// Handler runs the fan-out for one message.
type Handler interface {
	Handle(ctx context.Context, evt event.MessageCreated) (fanout.Result, error)
}

// ErrMalformed marks events that can never be processed; redelivering them
// is pointless.
var ErrMalformed = errors.New("malformed trigger event")

// Dispatch hands a decoded Firestore event to the fan-out.
func Dispatch(ctx context.Context, handler Handler, fsEvent event.FirestoreEvent) error {
	created, err := fsEvent.MessageCreated()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if _, err := handler.Handle(ctx, created); err != nil {
		return err
	}
	return nil
}

// Process decodes raw event JSON and dispatches it.
func Process(ctx context.Context, handler Handler, data []byte) error {
	fsEvent, err := event.Decode(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Dispatch(ctx, handler, fsEvent)
}

// Retryable reports whether a failed event should be redelivered.
func Retryable(err error) bool {
	return err != nil && !errors.Is(err, ErrMalformed) && !errors.Is(err, domain.ErrInvalidArgument)
}

func logOutcome(logger log.FieldLogger, err error) {
	switch {
	case err == nil:
	case Retryable(err):
		logger.Errorf("fan-out failed, event will be redelivered: %s", err)
	default:
		logger.Errorf("dropping event: %s", err)
	}
}
