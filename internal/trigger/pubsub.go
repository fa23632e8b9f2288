package trigger

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	log "github.com/sirupsen/logrus"
)

// PubSubConsumer receives Firestore message-created events published to a
// Pub/Sub subscription.
type PubSubConsumer struct {
	client       *pubsub.Client
	subscription string
	handler      Handler
	logger       log.FieldLogger
}

func NewPubSubConsumer(client *pubsub.Client, subscription string, handler Handler, logger log.FieldLogger) *PubSubConsumer {
	return &PubSubConsumer{
		client:       client,
		subscription: subscription,
		handler:      handler,
		logger:       logger.WithField("subscription", subscription),
	}
}

// Start blocks receiving messages until ctx is cancelled. Successful and
// malformed events are acked; read failures are nacked for redelivery.
func (c *PubSubConsumer) Start(ctx context.Context) error {
	sub := c.client.Subscription(c.subscription)

	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("checking subscription %s: %w", c.subscription, err)
	}
	if !exists {
		return fmt.Errorf("subscription %s does not exist", c.subscription)
	}

	c.logger.Info("listening for message events")

	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.handle(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
	if err != nil {
		return fmt.Errorf("receiving from %s: %w", c.subscription, err)
	}
	return nil
}

// handle reports whether the message should be acked.
func (c *PubSubConsumer) handle(ctx context.Context, id string, data []byte) bool {
	err := Process(ctx, c.handler, data)
	logOutcome(c.logger.WithField("pubsub_message_id", id), err)
	return !Retryable(err)
}
