package chat

import (
	"fmt"
	"time"
)

// Room and message type tags keep the wire values the rest of the platform
// already understands.
type RoomType int

const (
	RoomTypePublic  RoomType = 100
	RoomTypePrivate RoomType = 200
)

func (t RoomType) String() string {
	switch t {
	case RoomTypePublic:
		return "public"
	case RoomTypePrivate:
		return "private"
	default:
		return fmt.Sprintf("room_type(%d)", int(t))
	}
}

// MessageType marks a message as public or private chatter.
type MessageType int

const (
	MessageTypePublic  MessageType = 100
	MessageTypePrivate MessageType = 200
)

// GetAllMessages asks a read call for the full history.
const GetAllMessages = -1

// Message is one entry in a room's ordered log. It is created only by Send
// and never physically deleted; Removed hides it from default reads. Only the
// text (via edit) and the removed flag ever change after creation.
type Message struct {
	RoomName  string      `json:"room_name"`
	Sender    string      `json:"sender"`
	Recipient string      `json:"recipient"`
	Text      string      `json:"text"`
	Type      MessageType `json:"type"`
	SentAt    time.Time   `json:"sent_time"`
	Removed   bool        `json:"removed"`

	// dirty tracks whether this entry still needs a store write. Not part
	// of the document.
	dirty bool
}

// MessageProperties carries the envelope for a Send call.
type MessageProperties struct {
	RoomName string      `json:"room_name"`
	ToUser   string      `json:"to_user"`
	FromUser string      `json:"from_user"`
	Type     MessageType `json:"type"`
}

// messageKey builds the store key for the message at the given position.
// Zero-padding keeps the store's prefix scans in chronological order.
func messageKey(roomName string, seq int) string {
	return fmt.Sprintf("%s%019d", messagePrefix(roomName), seq)
}

// messagePrefix builds the scan prefix covering exactly one room's messages.
// The name segment is length-prefixed: room names are unrestricted input and
// may contain the delimiter, so "a" must never match keys of a room "a:b".
func messagePrefix(roomName string) string {
	return fmt.Sprintf("%d:%s:", len(roomName), roomName)
}
