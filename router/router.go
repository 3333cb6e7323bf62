package router

import (
	"encoding/json"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"
	"github.com/webmeet/signaling/model"
	"github.com/webmeet/signaling/registry"
)

type handlerFunc func(p *Peer, payload json.RawMessage)

// Router handles every inbound signaling event: it mutates the two
// registries and fans the resulting events out to session members or to
// a single target participant.
//
// All state-touching handlers run under one coarse mutex, so a session's
// membership and its participants' records mutate as a single atomic
// step. Recipient connections are collected under the lock and events
// are delivered after unlock, so a slow endpoint never stalls the
// registries.
type Router struct {
	mx           *sync.Mutex
	sessions     *registry.SessionRegistry
	participants *registry.ParticipantRegistry
	handlers     map[string]handlerFunc
	logger       zerolog.Logger
}

type Config struct {
	Sessions     *registry.SessionRegistry
	Participants *registry.ParticipantRegistry
	Logger       *zerolog.Logger
}

func NewRouter(cfg Config) *Router {
	rt := &Router{
		mx:           &sync.Mutex{},
		sessions:     cfg.Sessions,
		participants: cfg.Participants,
		logger:       cfg.Logger.With().Str("component", "router").Logger(),
	}
	rt.handlers = map[string]handlerFunc{
		model.EventTypeCreateSession:     rt.handleCreateSession,
		model.EventTypeJoinSession:       rt.handleJoinSession,
		model.EventTypeOffer:             rt.handleOffer,
		model.EventTypeAnswer:            rt.handleAnswer,
		model.EventTypeICECandidate:      rt.handleICECandidate,
		model.EventTypeToggleMute:        rt.handleToggleMute,
		model.EventTypeToggleVideo:       rt.handleToggleVideo,
		model.EventTypeToggleScreenShare: rt.handleToggleScreenShare,
		model.EventTypeSendMessage:       rt.handleSendMessage,
	}
	return rt
}

// Peer binds one transport connection to the router. A peer starts
// unbound; a successful create-session or join-session assigns its
// participant id for the rest of the connection's lifetime. A Peer is
// driven by a single goroutine (the transport's read loop).
type Peer struct {
	rt            *Router
	conn          model.Conn
	participantID string
}

func (rt *Router) NewPeer(conn model.Conn) *Peer {
	return &Peer{
		rt:   rt,
		conn: conn,
	}
}

// ParticipantID returns the id bound to this connection, or empty if no
// create/join has succeeded yet.
func (p *Peer) ParticipantID() string {
	return p.participantID
}

// Handle dispatches one inbound event. Unknown event types are dropped.
func (p *Peer) Handle(ev model.Event) {
	if p.rt.logger.GetLevel() <= zerolog.TraceLevel {
		p.rt.logger.Trace().Str("type", ev.Type).Msg(spew.Sdump(ev))
	}
	handler, ok := p.rt.handlers[ev.Type]
	if !ok {
		p.rt.logger.Debug().Str("type", ev.Type).Msg("unknown event type, dropped")
		return
	}
	handler(p, ev.Payload)
}

// emit marshals payload and sends one event to conn. Fire-and-forget.
func (rt *Router) emit(conn model.Conn, eventType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		rt.logger.Error().Err(err).Str("type", eventType).Msg("failed to marshal outbound payload")
		return
	}
	conn.Send(model.Event{Type: eventType, Payload: b})
}

// broadcast delivers one event to every conn. A recipient dropping the
// event does not affect the others.
func (rt *Router) broadcast(conns []model.Conn, eventType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		rt.logger.Error().Err(err).Str("type", eventType).Msg("failed to marshal outbound payload")
		return
	}
	if len(conns) == 0 {
		rt.logger.Debug().Str("type", eventType).Msg("broadcast did not reach anyone")
		return
	}
	for _, conn := range conns {
		conn.Send(model.Event{Type: eventType, Payload: b})
	}
}

// membersLocked resolves a session's members excluding excludeID,
// returning their projections and connections. Caller holds rt.mx.
func (rt *Router) membersLocked(sess *model.Session, excludeID string) ([]model.Member, []model.Conn) {
	members := make([]model.Member, 0, len(sess.Members))
	conns := make([]model.Conn, 0, len(sess.Members))
	for id := range sess.Members {
		if id == excludeID {
			continue
		}
		participant, err := rt.participants.Get(id)
		if err != nil {
			continue
		}
		members = append(members, model.Member{
			ID:            participant.ID,
			Name:          participant.DisplayName,
			Muted:         participant.Muted,
			VideoOff:      participant.VideoOff,
			ScreenSharing: participant.ScreenSharing,
		})
		conns = append(conns, participant.Conn)
	}
	return members, conns
}

// sessionConnsLocked returns connections of sessionID's members minus
// excludeID. Caller holds rt.mx.
func (rt *Router) sessionConnsLocked(sessionID, excludeID string) []model.Conn {
	sess, err := rt.sessions.Get(sessionID)
	if err != nil {
		return nil
	}
	_, conns := rt.membersLocked(sess, excludeID)
	return conns
}

// Sessions returns the list projection for the HTTP API. Reads go
// through the router lock so they observe the same atomic state the
// handlers mutate.
func (rt *Router) Sessions() []model.SessionSummary {
	rt.mx.Lock()
	defer rt.mx.Unlock()

	sessions := rt.sessions.List()
	summaries := make([]model.SessionSummary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, model.SessionSummary{
			ID:          sess.ID,
			Name:        sess.Name,
			MemberCount: len(sess.Members),
			CreatedAt:   sess.CreatedAt,
		})
	}
	return summaries
}

// Session returns the detail projection for one session.
func (rt *Router) Session(sessionID string) (model.SessionDetail, bool) {
	rt.mx.Lock()
	defer rt.mx.Unlock()

	sess, err := rt.sessions.Get(sessionID)
	if err != nil {
		return model.SessionDetail{}, false
	}
	members, _ := rt.membersLocked(sess, "")
	return model.SessionDetail{
		ID:          sess.ID,
		Name:        sess.Name,
		MemberCount: len(sess.Members),
		Members:     members,
		CreatedAt:   sess.CreatedAt,
	}, true
}
