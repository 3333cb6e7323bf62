package router

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/webmeet/signaling/model"
)

func (p *Peer) bindParticipant(sess *model.Session, displayName string) *model.Participant {
	participant := &model.Participant{
		ID:          uuid.NewString(),
		Conn:        p.conn,
		DisplayName: displayName,
		SessionID:   sess.ID,
	}
	sess.Members[participant.ID] = struct{}{}
	p.rt.participants.Register(participant)
	return participant
}

func (rt *Router) handleCreateSession(p *Peer, payload json.RawMessage) {
	var req model.CreateSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		rt.logger.Debug().Err(err).Msg("malformed create-session payload, dropped")
		return
	}
	if p.participantID != "" {
		rt.logger.Debug().Str("participantID", p.participantID).
			Msg("create-session from bound connection, dropped")
		return
	}

	rt.mx.Lock()
	sess := rt.sessions.Create(req.SessionName)
	participant := p.bindParticipant(sess, req.DisplayName)
	rt.mx.Unlock()

	p.participantID = participant.ID
	rt.logger.Debug().
		Str("sessionID", sess.ID).
		Str("participantID", participant.ID).
		Msg("session created")

	rt.emit(p.conn, model.EventTypeSessionCreated, model.SessionCreatedPayload{
		SessionID:     sess.ID,
		ParticipantID: participant.ID,
		SessionName:   sess.Name,
	})
}

func (rt *Router) handleJoinSession(p *Peer, payload json.RawMessage) {
	var req model.JoinSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		rt.logger.Debug().Err(err).Msg("malformed join-session payload, dropped")
		return
	}
	if p.participantID != "" {
		rt.logger.Debug().Str("participantID", p.participantID).
			Msg("join-session from bound connection, dropped")
		return
	}

	rt.mx.Lock()
	sess, err := rt.sessions.Get(req.SessionID)
	if err != nil {
		rt.mx.Unlock()
		rt.logger.Debug().Str("sessionID", req.SessionID).Msg("join rejected, session not found")
		rt.emit(p.conn, model.EventTypeError, model.ErrorPayload{Message: "session not found"})
		return
	}
	existing, conns := rt.membersLocked(sess, "")
	participant := p.bindParticipant(sess, req.DisplayName)
	rt.mx.Unlock()

	p.participantID = participant.ID
	rt.logger.Debug().
		Str("sessionID", sess.ID).
		Str("participantID", participant.ID).
		Msg("participant joined session")

	rt.broadcast(conns, model.EventTypeParticipantJoined, model.ParticipantJoinedPayload{
		ParticipantID: participant.ID,
		DisplayName:   participant.DisplayName,
		Muted:         participant.Muted,
		VideoOff:      participant.VideoOff,
	})
	rt.emit(p.conn, model.EventTypeSessionJoined, model.SessionJoinedPayload{
		SessionID:     sess.ID,
		ParticipantID: participant.ID,
		SessionName:   sess.Name,
		Members:       existing,
	})
}

// resolvePair looks up the sender and the unicast target. A miss on
// either side means the event is silently dropped: signaling races
// (events arriving before join completes, or around a disconnect) are
// not worth surfacing to clients.
func (rt *Router) resolvePair(senderID, targetID string) (*model.Participant, *model.Participant, bool) {
	rt.mx.Lock()
	defer rt.mx.Unlock()

	sender, err := rt.participants.Get(senderID)
	if err != nil {
		return nil, nil, false
	}
	target, err := rt.participants.Get(targetID)
	if err != nil {
		rt.logger.Debug().Str("dst", targetID).Msg("cannot forward, target not found")
		return nil, nil, false
	}
	return sender, target, true
}

func (rt *Router) handleOffer(p *Peer, payload json.RawMessage) {
	var req model.OfferPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	sender, target, ok := rt.resolvePair(p.participantID, req.TargetParticipantID)
	if !ok {
		return
	}
	rt.emit(target.Conn, model.EventTypeOffer, model.OfferForwardPayload{
		From:       sender.ID,
		SenderName: sender.DisplayName,
		Offer:      req.Offer,
	})
}

func (rt *Router) handleAnswer(p *Peer, payload json.RawMessage) {
	var req model.AnswerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	sender, target, ok := rt.resolvePair(p.participantID, req.TargetParticipantID)
	if !ok {
		return
	}
	rt.emit(target.Conn, model.EventTypeAnswer, model.AnswerForwardPayload{
		From:       sender.ID,
		SenderName: sender.DisplayName,
		Answer:     req.Answer,
	})
}

func (rt *Router) handleICECandidate(p *Peer, payload json.RawMessage) {
	var req model.ICECandidatePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	sender, target, ok := rt.resolvePair(p.participantID, req.TargetParticipantID)
	if !ok {
		return
	}
	rt.emit(target.Conn, model.EventTypeICECandidate, model.ICECandidateForwardPayload{
		From:      sender.ID,
		Candidate: req.Candidate,
	})
}

// mutateSender applies mutate to the sender's record and returns the
// sender plus the connections of its session members minus itself.
// Every call broadcasts afterwards, even when the value did not change.
func (rt *Router) mutateSender(senderID string, mutate func(*model.Participant)) (*model.Participant, []model.Conn, bool) {
	rt.mx.Lock()
	defer rt.mx.Unlock()

	sender, err := rt.participants.Get(senderID)
	if err != nil {
		return nil, nil, false
	}
	mutate(sender)
	return sender, rt.sessionConnsLocked(sender.SessionID, sender.ID), true
}

func (rt *Router) handleToggleMute(p *Peer, payload json.RawMessage) {
	var req model.ToggleMutePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	sender, conns, ok := rt.mutateSender(p.participantID, func(participant *model.Participant) {
		participant.Muted = req.Muted
	})
	if !ok {
		return
	}
	rt.broadcast(conns, model.EventTypeMuteChanged, model.MuteChangedPayload{
		ParticipantID: sender.ID,
		Muted:         req.Muted,
	})
}

func (rt *Router) handleToggleVideo(p *Peer, payload json.RawMessage) {
	var req model.ToggleVideoPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	sender, conns, ok := rt.mutateSender(p.participantID, func(participant *model.Participant) {
		participant.VideoOff = req.VideoOff
	})
	if !ok {
		return
	}
	rt.broadcast(conns, model.EventTypeVideoChanged, model.VideoChangedPayload{
		ParticipantID: sender.ID,
		VideoOff:      req.VideoOff,
	})
}

func (rt *Router) handleToggleScreenShare(p *Peer, payload json.RawMessage) {
	var req model.ToggleScreenSharePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}
	sender, conns, ok := rt.mutateSender(p.participantID, func(participant *model.Participant) {
		participant.ScreenSharing = req.Sharing
	})
	if !ok {
		return
	}
	rt.broadcast(conns, model.EventTypeScreenShareChanged, model.ScreenShareChangedPayload{
		ParticipantID: sender.ID,
		Sharing:       req.Sharing,
	})
}

func (rt *Router) handleSendMessage(p *Peer, payload json.RawMessage) {
	var req model.SendMessagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	rt.mx.Lock()
	sender, err := rt.participants.Get(p.participantID)
	if err != nil {
		rt.mx.Unlock()
		return
	}
	conns := rt.sessionConnsLocked(sender.SessionID, sender.ID)
	rt.mx.Unlock()

	rt.broadcast(conns, model.EventTypeMessage, model.MessagePayload{
		ParticipantID: sender.ID,
		DisplayName:   sender.DisplayName,
		Text:          req.Text,
		Timestamp:     time.Now(),
	})
}

// Disconnect runs the transport-initiated cleanup: the participant
// leaves its session, the record is unregistered, and the session is
// removed atomically with the last member's departure. Called exactly
// once per connection by the transport; a no-op for unbound peers.
func (p *Peer) Disconnect() {
	if p.participantID == "" {
		return
	}
	rt := p.rt

	rt.mx.Lock()
	participant, err := rt.participants.Get(p.participantID)
	if err != nil {
		rt.mx.Unlock()
		return
	}
	var conns []model.Conn
	if sess, sErr := rt.sessions.Get(participant.SessionID); sErr == nil {
		delete(sess.Members, participant.ID)
		_, conns = rt.membersLocked(sess, participant.ID)
		if len(sess.Members) == 0 {
			rt.sessions.Remove(sess.ID)
			rt.logger.Debug().Str("sessionID", sess.ID).Msg("session removed, last member left")
		}
	}
	rt.participants.Unregister(participant.ID)
	rt.mx.Unlock()

	rt.logger.Debug().
		Str("sessionID", participant.SessionID).
		Str("participantID", participant.ID).
		Msg("participant disconnected")

	rt.broadcast(conns, model.EventTypeParticipantLeft, model.ParticipantLeftPayload{
		ParticipantID: participant.ID,
	})
	p.participantID = ""
}
