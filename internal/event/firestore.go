package event

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quackchatNotification/internal/domain"
)

type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

// FirestoreEvent is the payload of a Firestore document trigger.
type FirestoreEvent struct {
	OldValue   FirestoreValue `json:"oldValue"`
	Value      FirestoreValue `json:"value"`
	UpdateMask UpdateMask     `json:"updateMask"`
}

type FirestoreValue struct {
	CreateTime time.Time     `json:"createTime"`
	Fields     MessageFields `json:"fields"`
	Name       string        `json:"name"`
	UpdateTime time.Time     `json:"updateTime"`
}

// StringValue decodes {"stringValue": "..."}; {"nullValue": null} leaves it empty.
type StringValue struct {
	Value string `json:"stringValue"`
}

type TimestampValue struct {
	Value time.Time `json:"timestampValue"`
}

type MessageFields struct {
	SenderID     StringValue    `json:"senderId"`
	SenderName   StringValue    `json:"senderName"`
	SenderAvatar StringValue    `json:"senderAvatar"`
	Text         StringValue    `json:"text"`
	ImageURL     StringValue    `json:"imageUrl"`
	Timestamp    TimestampValue `json:"timestamp"`
}

// MessageCreated is a decoded trigger for rooms/{roomId}/messages/{messageId}.
type MessageCreated struct {
	RoomID    string
	MessageID string
	// Message is nil when the event carried no document.
	Message *domain.Message
}

// Decode parses raw event JSON, as delivered over Pub/Sub or HTTP.
func Decode(data []byte) (FirestoreEvent, error) {
	var fsEvent FirestoreEvent
	if err := json.Unmarshal(data, &fsEvent); err != nil {
		return FirestoreEvent{}, fmt.Errorf("decode firestore event: %w", err)
	}
	return fsEvent, nil
}

// MessageCreated extracts path parameters and the message payload.
func (e FirestoreEvent) MessageCreated() (MessageCreated, error) {
	if e.Value.Name == "" {
		return MessageCreated{}, nil
	}

	roomID, messageID, err := ParseMessagePath(e.Value.Name)
	if err != nil {
		return MessageCreated{}, err
	}

	f := e.Value.Fields
	msg := &domain.Message{
		ID:           messageID,
		RoomID:       roomID,
		SenderID:     f.SenderID.Value,
		SenderName:   f.SenderName.Value,
		SenderAvatar: f.SenderAvatar.Value,
		Text:         f.Text.Value,
		ImageURL:     f.ImageURL.Value,
		Timestamp:    f.Timestamp.Value,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = e.Value.CreateTime
	}

	return MessageCreated{RoomID: roomID, MessageID: messageID, Message: msg}, nil
}

// ParseMessagePath accepts either a full resource name
// (projects/p/databases/(default)/documents/rooms/r/messages/m) or the bare
// document path (rooms/r/messages/m).
func ParseMessagePath(name string) (roomID, messageID string, err error) {
	path := name
	if idx := strings.Index(path, "/documents/"); idx >= 0 {
		path = path[idx+len("/documents/"):]
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 4 || parts[0] != domain.RoomsCollection || parts[2] != domain.MessagesCollection {
		return "", "", fmt.Errorf("%w: not a message document: %s", domain.ErrInvalidArgument, name)
	}
	if parts[1] == "" || parts[3] == "" {
		return "", "", fmt.Errorf("%w: empty path segment: %s", domain.ErrInvalidArgument, name)
	}

	return parts[1], parts[3], nil
}
