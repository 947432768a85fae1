package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Kopptechy/student-pickup-live-2025/core"
	"github.com/Kopptechy/student-pickup-live-2025/core/pickup"
	"github.com/Kopptechy/student-pickup-live-2025/core/realtime"
)

// displayGateway admits classroom display connections and bridges them onto
// the realtime registry. Each socket gets a read loop (subscription changes)
// and a write pump (queued events); neither ever blocks the registry.
type displayGateway struct {
	conf     *core.Config
	logger   core.Logger
	registry *realtime.Registry
	pickups  *pickup.Service
	upgrader websocket.Upgrader
}

type subscribeMessage struct {
	Type  string `json:"type"`
	Year  int    `json:"year"`
	Class string `json:"className"`
}

func registerDisplayGateway(e *echo.Echo, deps ServerDeps) {
	gw := &displayGateway{
		conf:     deps.Conf,
		logger:   deps.Logger,
		registry: deps.Registry,
		pickups:  deps.PickupSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	e.GET("/ws/display", gw.serve)
}

// serve checks the display token before the upgrade, so a rejected client
// never creates any subscription state.
func (gw *displayGateway) serve(ctx echo.Context) error {
	if tok := gw.conf.Display.Token; tok != "" && ctx.QueryParam("token") != tok {
		return errUnauthorized
	}

	ws, err := gw.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "upgrading display connection")
	}

	conn := gw.registry.Add()
	go gw.writePump(ws, conn)
	gw.readLoop(ws, conn)
	return nil
}

// readLoop owns the socket's read side until the connection dies. Malformed
// or unexpected frames are logged and skipped; the connection stays up with
// its current subscription intact.
func (gw *displayGateway) readLoop(ws *websocket.Conn, conn *realtime.Conn) {
	defer func() {
		gw.registry.Remove(conn)
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg subscribeMessage
		if err = json.Unmarshal(data, &msg); err != nil {
			gw.logger.Debug(fmt.Sprintf("display %s: malformed message: %v", conn.ID(), err))
			continue
		}
		if msg.Type != "subscribe" || msg.Year == 0 || msg.Class == "" {
			gw.logger.Debug(fmt.Sprintf("display %s: ignoring message type %q", conn.ID(), msg.Type))
			continue
		}

		key := core.ClassKey{Year: msg.Year, Class: core.CleanString(msg.Class, true /* lower */)}
		if !gw.registry.Subscribe(conn, key) {
			// queue full or connection already discarded; without the
			// snapshot token the display would render live events against
			// a stale list, so drop it and let the client reconnect
			return
		}
	}
}

// writePump drains the connection's delivery queue onto the socket. Snapshot
// request tokens are resolved here, outside any registry lock: the resulting
// `initial` payload reflects the pending set at subscription time, and every
// broadcast queued after the token is delivered after it.
func (gw *displayGateway) writePump(ws *websocket.Conn, conn *realtime.Conn) {
	defer ws.Close()

	for {
		select {
		case <-conn.Done():
			deadline := time.Now().Add(gw.conf.Display.WriteWait)
			ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return

		case ob := <-conn.Out():
			evt := ob.Event
			if ob.Snapshot {
				pending, err := gw.pickups.PendingByClass(ob.Key)
				if err != nil {
					gw.logger.Error(fmt.Sprintf("loading snapshot for %s: %v", ob.Key, err), err)
					gw.registry.Remove(conn)
					return
				}
				evt = realtime.NewInitialEvent(pending)
			}

			ws.SetWriteDeadline(time.Now().Add(gw.conf.Display.WriteWait))
			if err := ws.WriteJSON(evt); err != nil {
				gw.registry.Remove(conn)
				return
			}
		}
	}
}
