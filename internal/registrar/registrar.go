package registrar

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/quackchatNotification/internal/auth"
	"github.com/quackchatNotification/internal/domain"
	"github.com/quackchatNotification/internal/logging"
)

// TokenWriter is the store capability the registrar needs.
type TokenWriter interface {
	MergeUserToken(ctx context.Context, uid, token string) error
}

// Registrar stores a device push token on the caller's profile.
type Registrar struct {
	store  TokenWriter
	logger log.FieldLogger
}

func New(store TokenWriter, logger log.FieldLogger) *Registrar {
	return &Registrar{store: store, logger: logger}
}

// UpdateToken upserts token onto users/{caller.UID}. The token is stored
// verbatim; a later call from another device overwrites it.
func (r *Registrar) UpdateToken(ctx context.Context, caller *domain.Caller, token string) error {
	if err := auth.Require(caller); err != nil {
		return err
	}

	if err := r.store.MergeUserToken(ctx, caller.UID, token); err != nil {
		r.logger.WithField("uid", caller.UID).Errorf("updating push token: %s", err)
		return fmt.Errorf("update token for %s: %w", caller.UID, err)
	}

	r.logger.WithFields(log.Fields{
		"uid":          caller.UID,
		"token_prefix": logging.TokenPrefix(token),
	}).Info("push token updated")

	return nil
}
