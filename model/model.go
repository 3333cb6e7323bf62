package model

import (
	"encoding/json"
	"time"
)

// Inbound event types sent by clients.
const (
	EventTypeCreateSession     = "create-session"
	EventTypeJoinSession       = "join-session"
	EventTypeOffer             = "offer"
	EventTypeAnswer            = "answer"
	EventTypeICECandidate      = "ice-candidate"
	EventTypeToggleMute        = "toggle-mute"
	EventTypeToggleVideo       = "toggle-video"
	EventTypeToggleScreenShare = "toggle-screen-share"
	EventTypeSendMessage       = "send-message"
)

// Outbound event types emitted by the router.
const (
	EventTypeSessionCreated     = "session-created"
	EventTypeSessionJoined      = "session-joined"
	EventTypeParticipantJoined  = "participant-joined"
	EventTypeParticipantLeft    = "participant-left"
	EventTypeMuteChanged        = "mute-changed"
	EventTypeVideoChanged       = "video-changed"
	EventTypeScreenShareChanged = "screen-share-changed"
	EventTypeMessage            = "message"
	EventTypeError              = "error"
)

// Event is the wire envelope for both directions. Inbound payloads stay
// raw until the router dispatches them to a concrete handler.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Conn delivers outbound events to one connected client. Delivery is
// fire-and-forget: implementations must never block the caller on a
// slow or dead endpoint.
type Conn interface {
	Send(ev Event)
}

// Wire carries outbound events from the router to a transport's
// per-connection sender pump.
type Wire struct {
	TX chan Event
}

func NewWire() Wire {
	return Wire{
		TX: make(chan Event, 32),
	}
}

// Participant is one connected peer. Conn is bound at registration time
// and never reassigned; toggle fields are mutated only by the
// participant's own toggle events, under the router's lock.
type Participant struct {
	ID            string
	Conn          Conn
	DisplayName   string
	SessionID     string
	Muted         bool
	VideoOff      bool
	ScreenSharing bool
}

// Session is a named group of participants. Members holds participant
// ids only; the records live in the participant registry.
type Session struct {
	ID        string
	Name      string
	Members   map[string]struct{}
	CreatedAt time.Time
}

// Inbound payloads.

type CreateSessionPayload struct {
	SessionName string `json:"sessionName"`
	DisplayName string `json:"displayName"`
}

type JoinSessionPayload struct {
	SessionID   string `json:"sessionId"`
	DisplayName string `json:"displayName"`
}

type OfferPayload struct {
	TargetParticipantID string          `json:"targetParticipantId"`
	Offer               json.RawMessage `json:"offerPayload"`
}

type AnswerPayload struct {
	TargetParticipantID string          `json:"targetParticipantId"`
	Answer              json.RawMessage `json:"answerPayload"`
}

type ICECandidatePayload struct {
	TargetParticipantID string          `json:"targetParticipantId"`
	Candidate           json.RawMessage `json:"candidate"`
}

type ToggleMutePayload struct {
	Muted bool `json:"muted"`
}

type ToggleVideoPayload struct {
	VideoOff bool `json:"videoOff"`
}

type ToggleScreenSharePayload struct {
	Sharing bool `json:"sharing"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
}

// Outbound payloads.

type SessionCreatedPayload struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	SessionName   string `json:"sessionName"`
}

type SessionJoinedPayload struct {
	SessionID     string   `json:"sessionId"`
	ParticipantID string   `json:"participantId"`
	SessionName   string   `json:"sessionName"`
	Members       []Member `json:"members"`
}

type ParticipantJoinedPayload struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	Muted         bool   `json:"muted"`
	VideoOff      bool   `json:"videoOff"`
}

type ParticipantLeftPayload struct {
	ParticipantID string `json:"participantId"`
}

type OfferForwardPayload struct {
	From       string          `json:"from"`
	SenderName string          `json:"senderName"`
	Offer      json.RawMessage `json:"offerPayload"`
}

type AnswerForwardPayload struct {
	From       string          `json:"from"`
	SenderName string          `json:"senderName"`
	Answer     json.RawMessage `json:"answerPayload"`
}

type ICECandidateForwardPayload struct {
	From      string          `json:"from"`
	Candidate json.RawMessage `json:"candidate"`
}

type MuteChangedPayload struct {
	ParticipantID string `json:"participantId"`
	Muted         bool   `json:"muted"`
}

type VideoChangedPayload struct {
	ParticipantID string `json:"participantId"`
	VideoOff      bool   `json:"videoOff"`
}

type ScreenShareChangedPayload struct {
	ParticipantID string `json:"participantId"`
	Sharing       bool   `json:"sharing"`
}

type MessagePayload struct {
	ParticipantID string    `json:"participantId"`
	DisplayName   string    `json:"displayName"`
	Text          string    `json:"text"`
	Timestamp     time.Time `json:"timestamp"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Member is one session member as seen by others: the session-joined
// member list and the HTTP projection share this shape.
type Member struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Muted         bool   `json:"muted"`
	VideoOff      bool   `json:"videoOff"`
	ScreenSharing bool   `json:"screenSharing"`
}

// SessionSummary is the list-level HTTP projection of one session.
type SessionSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionDetail is the single-session HTTP projection.
type SessionDetail struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MemberCount int       `json:"memberCount"`
	Members     []Member  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}
