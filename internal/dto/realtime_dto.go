package dto

// Realtime event names accepted from clients.
const (
	EventJoinAllSubscribedRooms = "joinAllSubscribedRooms"
	EventJoinRoom               = "joinRoom"
	EventLeaveRoom              = "leaveRoom"
	EventCreateMessage          = "createMessage"
	EventStartTyping            = "startTyping"
	EventStopTyping             = "stopTyping"
)

// Realtime event names pushed to room members.
const (
	EventNewMessage   = "newMessage"
	EventTypingUpdate = "typingUpdate"
)

// ClientFrame is an inbound realtime event. Every event carries the session
// token; tag name and message body are event-specific.
type ClientFrame struct {
	Event       string       `json:"event"`
	AuthToken   string       `json:"auth_token"`
	TagName     string       `json:"tag_name,omitempty"`
	MessageBody *MessageBody `json:"message_body,omitempty"`
}

// AckFrame acknowledges an inbound event with its literal string outcome.
type AckFrame struct {
	Event string `json:"event"`
	Ack   string `json:"ack"`
}

// ServerFrame is an outbound broadcast to a room.
type ServerFrame struct {
	Event   string           `json:"event"`
	TagName string           `json:"tag_name,omitempty"`
	Message *MessageResponse `json:"message,omitempty"`
	Typing  []string         `json:"typing,omitempty"`
}
