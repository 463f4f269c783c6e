package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dnalab/design-evolution/internal/domain"
	"github.com/dnalab/design-evolution/internal/platform/logger"
	"github.com/dnalab/design-evolution/internal/service"
)

const (
	// writeWait bounds a single websocket write
	writeWait = 10 * time.Second

	// defaultPingInterval keeps idle connections alive through proxies
	defaultPingInterval = 30 * time.Second

	// maxClientMessage bounds what a client may send; clients only send
	// control frames
	maxClientMessage = 512
)

// TaskSubscriber streams snapshots of one task. The channel is closed once
// the task is terminal or the subscription is cancelled.
type TaskSubscriber interface {
	Subscribe(taskID string) (<-chan domain.Task, func())
}

// EventsHandler streams task snapshots over a websocket as an alternative
// to polling GET /api/status/{taskID}.
type EventsHandler struct {
	evolutionService service.EvolutionService
	subscriptions    TaskSubscriber
	upgrader         websocket.Upgrader
	pingInterval     time.Duration
	logger           *slog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(
	evolutionService service.EvolutionService,
	subscriptions TaskSubscriber,
	logger *slog.Logger,
) *EventsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsHandler{
		evolutionService: evolutionService,
		subscriptions:    subscriptions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		pingInterval: defaultPingInterval,
		logger:       logger.With("component", "events_handler"),
	}
}

// StreamTask handles GET /api/tasks/{taskID}/events. It sends the current
// snapshot, then every later snapshot, and closes the connection normally
// after the terminal one. Unknown tasks are answered with 404 before the
// upgrade.
func (h *EventsHandler) StreamTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathParam(r, "taskID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Subscribe before reading the current snapshot so no transition can
	// fall between the two.
	updates, cancel := h.subscriptions.Subscribe(taskID)
	defer cancel()

	current, err := h.evolutionService.PollStatus(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task status")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response.
		log.Debug("websocket upgrade failed", "task_id", taskID, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	if err := h.writeSnapshot(conn, current); err != nil {
		log.Debug("failed to write snapshot", "task_id", taskID, "error", err)
		return
	}
	if current.Status.IsTerminal() {
		h.closeNormal(conn)
		return
	}

	clientGone := h.readUntilClosed(conn)
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	last := current
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				h.closeNormal(conn)
				return
			}
			// Snapshots published before the initial read may still be queued.
			if snap.UpdatedAt.Before(last.UpdatedAt) {
				continue
			}
			if err := h.writeSnapshot(conn, snap); err != nil {
				log.Debug("failed to write snapshot", "task_id", taskID, "error", err)
				return
			}
			last = snap
			if snap.Status.IsTerminal() {
				h.closeNormal(conn)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("websocket ping failed", "task_id", taskID, "error", err)
				return
			}

		case <-clientGone:
			log.Debug("websocket client disconnected", "task_id", taskID)
			return

		case <-r.Context().Done():
			return
		}
	}
}

func (h *EventsHandler) writeSnapshot(conn *websocket.Conn, task domain.Task) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(task)
}

func (h *EventsHandler) closeNormal(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// readUntilClosed drains client frames so control messages are processed.
// The returned channel is closed when the client goes away.
func (h *EventsHandler) readUntilClosed(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	conn.SetReadLimit(maxClientMessage)
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()
	return done
}
