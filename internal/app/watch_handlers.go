package app

import (
	"context"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"shelternav.org/internal/middleware"
	"shelternav.org/internal/models"
	"shelternav.org/internal/watch"
)

const (
	watchWriteWait      = 10 * time.Second
	watchPongWait       = 60 * time.Second
	watchPingPeriod     = (watchPongWait * 9) / 10
	watchMaxMessageSize = 1024
	watchQueueSize      = 8
)

// positionMessage is one inbound websocket message: {"lat": .., "lon": ..}.
type positionMessage struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type nearestView struct {
	Name           string  `json:"name"`
	DistanceMeters float64 `json:"distanceMeters"`
}

type routeView struct {
	FromCache bool         `json:"fromCache"`
	Points    [][2]float64 `json:"points"`
}

// snapshotMessage is sent to the client after every reaction.
// Points are [lat, lon] pairs, ready for map polylines.
type snapshotMessage struct {
	SessionID string           `json:"sessionId"`
	Position  *models.Position `json:"position"`
	Nearest   *nearestView     `json:"nearest"`
	Route     *routeView       `json:"route"`
	Status    string           `json:"status"`
	Outcome   watch.Outcome    `json:"outcome"`
}

func newSnapshotMessage(s watch.Snapshot) snapshotMessage {
	msg := snapshotMessage{
		SessionID: s.SessionID,
		Position:  s.Position,
		Status:    s.Status,
		Outcome:   s.Outcome,
	}
	if s.Nearest != nil {
		msg.Nearest = &nearestView{Name: s.Nearest.Shelter.Name, DistanceMeters: s.Nearest.DistanceMeters}
	}
	if s.Route != nil {
		points := make([][2]float64, 0, len(s.Route.Points))
		for _, p := range s.Route.Points {
			points = append(points, [2]float64{p.Lat, p.Lon})
		}
		msg.Route = &routeView{FromCache: s.Route.FromCache, Points: points}
	}
	return msg
}

// subscribedSource hands Run a channel that is already subscribed, so
// messages read before Run starts are not dropped.
type subscribedSource struct {
	ch <-chan models.Position
}

func (s subscribedSource) Subscribe(context.Context) (<-chan models.Position, error) {
	return s.ch, nil
}

func (app *Application) upgrader() websocket.Upgrader {
	origins := middleware.AllowedOrigins(app.Config.CORS.Origin)
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(origins, r.Header.Get("Origin"))
		},
	}
}

// watchHandler runs a watch session over a websocket.
//
// The client streams positions; the server answers each reaction with a
// snapshot. Only the session goroutine writes to the connection. Messages
// beyond the per-connection rate are dropped.
func (app *Application) watchHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := app.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		app.Logger.Warn("Websocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := watch.NewFeed(watchQueueSize)
	events, err := feed.Subscribe(ctx)
	if err != nil {
		app.Logger.Error("Failed to subscribe to watch feed", "error", err)
		return
	}

	session := watch.NewSession(
		app.Gateway.ListShelters(),
		app.Gateway,
		watch.NewThrottle(app.Config.WatchThrottle()),
		app.Logger,
		watch.WithOnUpdate(func(s watch.Snapshot) {
			if err := app.writeSnapshot(conn, s); err != nil {
				app.Logger.Debug("Failed to write snapshot", "error", err)
				cancel()
			}
		}),
	)

	go func() {
		defer cancel()
		app.readPositions(conn, feed)
	}()
	go keepAlive(ctx, conn)

	if err := session.Run(ctx, subscribedSource{ch: events}); err != nil && ctx.Err() == nil {
		app.Logger.Error("Watch session failed", "session_id", session.ID(), "error", err)
	}
	session.Stop()
	feed.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(watchWriteWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPositions publishes inbound positions into feed until the connection
// fails or closes.
func (app *Application) readPositions(conn *websocket.Conn, feed *watch.Feed) {
	limiter := rate.NewLimiter(rate.Limit(app.Config.Watch.MessagesPerSecond), 1+int(app.Config.Watch.MessagesPerSecond))
	conn.SetReadLimit(watchMaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(watchPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				app.Logger.Warn("Unexpected websocket close", "error", err)
			}
			return
		}

		if err := conn.SetReadDeadline(time.Now().Add(watchPongWait)); err != nil {
			return
		}

		if !limiter.Allow() {
			app.Logger.Debug("Dropping position over the message rate")
			continue
		}

		var msg positionMessage
		if err := json.Unmarshal(data, &msg); err != nil || validate.Struct(msg) != nil {
			app.Logger.Debug("Ignoring malformed position message", "message", string(data))
			continue
		}
		feed.Publish(models.Position{Lat: *msg.Lat, Lon: *msg.Lon})
	}
}

// keepAlive pings the client until ctx is done. WriteControl may run
// alongside the session's writes.
func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(watchPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(watchWriteWait)); err != nil {
				return
			}
		}
	}
}

func (app *Application) writeSnapshot(conn *websocket.Conn, s watch.Snapshot) error {
	body, err := json.Marshal(newSnapshotMessage(s))
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(watchWriteWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, body)
}
