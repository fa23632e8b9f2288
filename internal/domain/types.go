package domain

import (
	"strings"
	"time"
)

// Collection names in the document store.
const (
	UsersCollection       = "users"
	RoomsCollection       = "rooms"
	MessagesCollection    = "messages"
	SubscribersCollection = "subscribers"
)

// UserProfile is the users/{uid} document. FCMToken holds whatever token
// the device last registered; one token per user, last write wins.
type UserProfile struct {
	UID         string `json:"uid" firestore:"-"`
	DisplayName string `json:"displayName,omitempty" firestore:"displayName,omitempty"`
	Email       string `json:"email,omitempty" firestore:"email,omitempty"`
	FCMToken    string `json:"fcmToken,omitempty" firestore:"fcmToken,omitempty"`
}

// HasToken reports whether the profile can receive pushes.
func (u *UserProfile) HasToken() bool {
	return u != nil && u.FCMToken != ""
}

type Room struct {
	ID                   string    `json:"id" firestore:"-"`
	Title                string    `json:"title" firestore:"title"`
	Description          string    `json:"description" firestore:"description"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp" firestore:"lastMessageTimestamp"`
}

// Message is a rooms/{roomId}/messages/{messageId} document.
type Message struct {
	ID           string    `json:"id" firestore:"-"`
	RoomID       string    `json:"roomId" firestore:"-"`
	SenderID     string    `json:"senderId" firestore:"senderId"`
	SenderName   string    `json:"senderName" firestore:"senderName"`
	SenderAvatar string    `json:"senderAvatar,omitempty" firestore:"senderAvatar,omitempty"`
	Text         string    `json:"text" firestore:"text"`
	ImageURL     string    `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	Timestamp    time.Time `json:"timestamp" firestore:"timestamp"`
}

// HasImage reports whether the message carries an image.
func (m *Message) HasImage() bool {
	return strings.TrimSpace(m.ImageURL) != ""
}

// HasText reports whether the message carries non-blank text.
func (m *Message) HasText() bool {
	return strings.TrimSpace(m.Text) != ""
}

// Validate enforces the write-side invariant: a sender and exactly one of
// text or image.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.SenderID) == "" {
		return ErrInvalidMessage
	}
	if m.HasText() == m.HasImage() {
		return ErrInvalidMessage
	}
	return nil
}

// Subscriber is a rooms/{roomId}/subscribers/{uid} document. Presence alone
// makes the user eligible for fan-out.
type Subscriber struct {
	RoomID       string    `json:"roomId" firestore:"-"`
	UserID       string    `json:"userId" firestore:"-"`
	SubscribedAt time.Time `json:"subscribedAt" firestore:"subscribedAt"`
}

// Caller is the verified identity attached to a callable request.
type Caller struct {
	UID   string
	Email string
}
