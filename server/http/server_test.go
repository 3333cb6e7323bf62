package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webmeet/signaling/model"
	"github.com/webmeet/signaling/registry"
	"github.com/webmeet/signaling/router"
)

func newTestServer(t *testing.T) (*router.Router, *httptest.Server) {
	t.Helper()
	logger := zerolog.Nop()
	rt := router.NewRouter(router.Config{
		Sessions:     registry.NewSessionRegistry(),
		Participants: registry.NewParticipantRegistry(),
		Logger:       &logger,
	})
	srv := NewServer(Config{
		Logger: &logger,
		View:   rt,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return rt, ts
}

func createSession(t *testing.T, rt *router.Router, sessionName, displayName string) model.SessionCreatedPayload {
	t.Helper()
	// drive state through the router like the websocket transport does
	recorder := &recordingConn{}
	peer := rt.NewPeer(recorder)
	payload, err := json.Marshal(model.CreateSessionPayload{
		SessionName: sessionName,
		DisplayName: displayName,
	})
	require.NoError(t, err)
	peer.Handle(model.Event{Type: model.EventTypeCreateSession, Payload: payload})
	require.Len(t, recorder.events, 1)
	var created model.SessionCreatedPayload
	require.NoError(t, json.Unmarshal(recorder.events[0].Payload, &created))
	return created
}

type recordingConn struct {
	events []model.Event
}

func (c *recordingConn) Send(ev model.Event) {
	c.events = append(c.events, ev)
}

func TestListSessions(t *testing.T) {
	rt, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var summaries []model.SessionSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	assert.Empty(t, summaries)

	created := createSession(t, rt, "standup", "alice")

	resp, err = http.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, created.SessionID, summaries[0].ID)
	assert.Equal(t, "standup", summaries[0].Name)
	assert.Equal(t, 1, summaries[0].MemberCount)
	assert.False(t, summaries[0].CreatedAt.IsZero())
}

func TestGetSession(t *testing.T) {
	rt, ts := newTestServer(t)
	created := createSession(t, rt, "standup", "alice")

	resp, err := http.Get(ts.URL + "/sessions/" + created.SessionID)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail model.SessionDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, created.SessionID, detail.ID)
	assert.Equal(t, "standup", detail.Name)
	assert.Equal(t, 1, detail.MemberCount)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, created.ParticipantID, detail.Members[0].ID)
	assert.Equal(t, "alice", detail.Members[0].Name)
	assert.False(t, detail.Members[0].Muted)
	assert.False(t, detail.Members[0].VideoOff)
	assert.False(t, detail.Members[0].ScreenSharing)
}

func TestGetSession_NotFound(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/sessions/no-such-session")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "session not found", errResp.Error)
}
