package quackchatNotification

import (
	"github.com/quackchatNotification/internal/event"
)

// FirestoreEvent is the payload of the rooms/{roomId}/messages/{messageId}
// create trigger.
type FirestoreEvent = event.FirestoreEvent

type FirestoreValue = event.FirestoreValue

type UpdateMask = event.UpdateMask
