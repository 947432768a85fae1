package tests

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/merge"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
	"github.com/Kopptechy/student-pickup-live-2025/core/realtime"
)

func wsURL(ts *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/display"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func dialDisplay(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(wsURL(ts, displayToken), nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func subscribe(t *testing.T, ws *websocket.Conn, year int, class string) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(map[string]interface{}{"type": "subscribe", "year": year, "className": class}))
}

func readEvent(t *testing.T, ws *websocket.Conn) realtime.Event {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var evt realtime.Event
	require.NoError(t, ws.ReadJSON(&evt))
	return evt
}

func Test_displayGateway_tokenRequired(t *testing.T) {
	e := setup(t)
	ts := httptest.NewServer(e.server)
	defer ts.Close()

	for _, token := range []string{"", "wrong-token"} {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, token), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	// nothing was admitted
	assert.Equal(t, 0, e.registry.Len())
}

func Test_displayGateway_subscribeDeliversSnapshotFirst(t *testing.T) {
	e := setup(t)
	ts := httptest.NewServer(e.server)
	defer ts.Close()

	p1, err := e.pickups.Create(pickup.NewPickup{StudentName: "First", Year: 7, Class: "blue"})
	require.NoError(t, err)
	p2, err := e.pickups.Create(pickup.NewPickup{StudentName: "Second", Year: 7, Class: "blue"})
	require.NoError(t, err)

	ws := dialDisplay(t, ts)
	subscribe(t, ws, 7, "blue")

	evt := readEvent(t, ws)
	require.Equal(t, realtime.EventInitial, evt.Type)
	require.Len(t, evt.Pickups, 2)
	assert.Equal(t, p1.ID, evt.Pickups[0].ID)
	assert.Equal(t, p2.ID, evt.Pickups[1].ID)

	// a pickup created after the subscription arrives as a live event
	p3, err := e.pickups.Create(pickup.NewPickup{StudentName: "Third", Year: 7, Class: "blue"})
	require.NoError(t, err)

	evt = readEvent(t, ws)
	require.Equal(t, realtime.EventNewPickup, evt.Type)
	require.NotNil(t, evt.Pickup)
	assert.Equal(t, p3.ID, evt.Pickup.ID)
	assert.Nil(t, evt.Pickup.MergedFrom)

	// acks are announced too
	_, err = e.pickups.Acknowledge(p1.ID)
	require.NoError(t, err)

	evt = readEvent(t, ws)
	require.Equal(t, realtime.EventPickupAcknowledged, evt.Type)
	assert.Equal(t, p1.ID, evt.PickupID)
}

func Test_displayGateway_otherClassesStaySilent(t *testing.T) {
	e := setup(t)
	ts := httptest.NewServer(e.server)
	defer ts.Close()

	ws := dialDisplay(t, ts)
	subscribe(t, ws, 7, "blue")
	require.Equal(t, realtime.EventInitial, readEvent(t, ws).Type)

	_, err := e.pickups.Create(pickup.NewPickup{StudentName: "Elsewhere", Year: 8, Class: "red"})
	require.NoError(t, err)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var evt realtime.Event
	assert.Error(t, ws.ReadJSON(&evt), "no event expected for an unrelated class")
}

func Test_displayGateway_mergeRedirect(t *testing.T) {
	e := setup(t)
	ts := httptest.NewServer(e.server)
	defer ts.Close()

	blue := core.ClassKey{Year: 7, Class: "blue"}
	green := core.ClassKey{Year: 7, Class: "green"}

	host := dialDisplay(t, ts)
	subscribe(t, host, 7, "green")
	require.Equal(t, realtime.EventInitial, readEvent(t, host).Type)

	m, err := e.merges.Create(merge.NewMerge{Source: blue, Host: green})
	require.NoError(t, err)
	e.broadcaster.MergeActivated(m)

	evt := readEvent(t, host)
	require.Equal(t, realtime.EventMergeActivated, evt.Type)
	require.NotNil(t, evt.Merge)
	assert.Equal(t, blue, evt.Merge.Source)

	// a pickup called for the merged class lands on the host display,
	// annotated with its origin
	p, err := e.pickups.Create(pickup.NewPickup{StudentName: "Ada", Year: 7, Class: "blue"})
	require.NoError(t, err)

	evt = readEvent(t, host)
	require.Equal(t, realtime.EventNewPickup, evt.Type)
	require.NotNil(t, evt.Pickup)
	assert.Equal(t, p.ID, evt.Pickup.ID)
	require.NotNil(t, evt.MergedFrom)
	assert.Equal(t, blue, *evt.MergedFrom)
	require.NotNil(t, evt.Pickup.MergedFrom)
	assert.Equal(t, blue, *evt.Pickup.MergedFrom)

	// deactivation is announced on the host topic
	m, err = e.merges.Delete(m.ID)
	require.NoError(t, err)
	e.broadcaster.MergeDeactivated(m)

	evt = readEvent(t, host)
	require.Equal(t, realtime.EventMergeDeactivated, evt.Type)
	assert.Equal(t, m.ID, evt.MergeID)
}

func Test_displayGateway_malformedMessagesIgnored(t *testing.T) {
	e := setup(t)
	ts := httptest.NewServer(e.server)
	defer ts.Close()

	ws := dialDisplay(t, ts)

	// garbage and unknown message types do not kill the connection
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, ws.WriteJSON(map[string]interface{}{"type": "dance"}))

	subscribe(t, ws, 7, "blue")
	evt := readEvent(t, ws)
	assert.Equal(t, realtime.EventInitial, evt.Type)
}

func Test_displayGateway_resubscribeSwitchesClass(t *testing.T) {
	e := setup(t)
	ts := httptest.NewServer(e.server)
	defer ts.Close()

	ws := dialDisplay(t, ts)
	subscribe(t, ws, 7, "blue")
	require.Equal(t, realtime.EventInitial, readEvent(t, ws).Type)

	p, err := e.pickups.Create(pickup.NewPickup{StudentName: "Red One", Year: 8, Class: "red"})
	require.NoError(t, err)

	subscribe(t, ws, 8, "red")
	evt := readEvent(t, ws)
	require.Equal(t, realtime.EventInitial, evt.Type)
	require.Len(t, evt.Pickups, 1)
	assert.Equal(t, p.ID, evt.Pickups[0].ID)

	// events for the old class no longer arrive
	_, err = e.pickups.Create(pickup.NewPickup{StudentName: "Blue One", Year: 7, Class: "blue"})
	require.NoError(t, err)

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var extra realtime.Event
	assert.Error(t, ws.ReadJSON(&extra))
}
