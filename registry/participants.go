package registry

import (
	"errors"
	"fmt"
	"sync"

	"github.com/webmeet/signaling/model"
)

var (
	ErrParticipantNotFound = errors.New("participant is not found")
)

// ParticipantRegistry maps participant ids to their records across all
// sessions. Toggle-state mutation of a record is serialized with that
// participant's disconnect cleanup by the router.
type ParticipantRegistry struct {
	mx *sync.Mutex
	db map[string]*model.Participant
}

func NewParticipantRegistry() *ParticipantRegistry {
	return &ParticipantRegistry{
		mx: &sync.Mutex{},
		db: make(map[string]*model.Participant),
	}
}

// Register stores the participant. Ids come from a unique generator, so
// a collision is a programmer error and panics rather than surfacing to
// clients.
func (pr *ParticipantRegistry) Register(participant *model.Participant) {
	pr.mx.Lock()
	defer pr.mx.Unlock()

	if _, ok := pr.db[participant.ID]; ok {
		panic(fmt.Sprintf("participant id already registered: %s", participant.ID))
	}
	pr.db[participant.ID] = participant
}

func (pr *ParticipantRegistry) Get(participantID string) (*model.Participant, error) {
	pr.mx.Lock()
	defer pr.mx.Unlock()

	participant, ok := pr.db[participantID]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return participant, nil
}

func (pr *ParticipantRegistry) Unregister(participantID string) {
	pr.mx.Lock()
	defer pr.mx.Unlock()

	delete(pr.db, participantID)
}
