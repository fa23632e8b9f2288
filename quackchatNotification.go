package quackchatNotification

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/bootstrap"
	"github.com/quackchatNotification/internal/callable"
	"github.com/quackchatNotification/internal/config"
	"github.com/quackchatNotification/internal/trigger"
)

var (
	app *bootstrap.App

	errNotInitialized = errors.New("notification service failed to initialize")
)

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Errorf("loading config: %s", err)
		return
	}

	app, err = bootstrap.New(context.Background(), cfg)
	if err != nil {
		log.Errorf("initializing notification service: %s", err)
		return
	}
}

// OnMessageCreated fans a new chat message out to the room's subscribers.
// Errors are returned only when a retry could succeed.
func OnMessageCreated(ctx context.Context, fsEvent FirestoreEvent) error {
	if app == nil {
		return errNotInitialized
	}

	err := trigger.Dispatch(ctx, app.Fanout, fsEvent)
	if err != nil && !trigger.Retryable(err) {
		log.WithField("name", fsEvent.Value.Name).Errorf("dropping event: %s", err)
		return nil
	}
	return err
}

// Callable serves updateUserToken, subscribeToRoomNotifications,
// unsubscribeFromRoomNotifications and sendTestNotification at /{name}.
func Callable(w http.ResponseWriter, r *http.Request) {
	if app == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"status":"` + callable.StatusInternal + `","message":"internal error"}}`))
		return
	}
	app.Router.ServeHTTP(w, r)
}
