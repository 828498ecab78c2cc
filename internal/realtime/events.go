package realtime

import "encoding/json"

// Wire event names. Inbound and outbound events share the same envelope:
// {"event": <name>, "data": <payload>}.
const (
	// Inbound
	EventUserConnected  = "user_connected" // data: user id string
	EventUpdateActivity = "update_activity"
	EventSendMessage    = "send_message"

	// Outbound
	EventUsersOnline      = "users_online"      // data: []string of online ids
	EventActivities       = "activities"        // data: map of user id -> activity
	EventActivityUpdated  = "activity_updated"  // data: ActivityPayload
	EventReceiveMessage   = "receive_message"   // data: models.MessageOut
	EventMessageSent      = "message_sent"      // data: models.MessageOut
	EventMessageError     = "message_error"     // data: detail string
	EventUserDisconnected = "user_disconnected" // data: user id string
)

// Event is an inbound wire event; Data stays raw until the router knows the
// event name.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutEvent is an outbound wire event.
type OutEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ActivityPayload is the body of update_activity and activity_updated.
type ActivityPayload struct {
	UserID   string `json:"userId"`
	Activity string `json:"activity"`
}

// MessagePayload is the body of send_message.
type MessagePayload struct {
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}
