package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"werewolfbot/internal/game"
)

// SpectatorEvent is what a spectator receives for each public broadcast.
type SpectatorEvent struct {
	Kind    string            `json:"kind"`
	Channel string            `json:"channel"`
	Session string            `json:"session,omitempty"`
	Round   int               `json:"round"`
	Phase   string            `json:"phase,omitempty"`
	Text    string            `json:"text"`
	Winner  string            `json:"winner,omitempty"`
	Players []SpectatorPlayer `json:"players,omitempty"`
	// Partial is set on storyteller updates that are still streaming.
	Partial bool `json:"partial,omitempty"`
}

type SpectatorPlayer struct {
	Name  string `json:"name"`
	Alive bool   `json:"alive"`
	Role  string `json:"role,omitempty"`
}

func spectatorEvent(channelID string, msg game.Message) SpectatorEvent {
	ev := SpectatorEvent{
		Kind:    string(msg.Kind),
		Channel: channelID,
		Session: msg.SessionID,
		Round:   msg.Round,
		Phase:   string(msg.Phase),
		Text:    msg.Text,
		Winner:  string(msg.Winner),
	}
	for _, p := range msg.Players {
		ev.Players = append(ev.Players, SpectatorPlayer{Name: p.Name, Alive: p.Alive, Role: string(p.Role)})
	}
	return ev
}

// Client is one spectator connection watching a channel.
type Client struct {
	conn      *websocket.Conn
	channelID string
	writeMu   sync.Mutex // gorilla/websocket allows one concurrent writer
}

type outbound struct {
	channelID string
	payload   []byte
}

// Hub fans public match broadcasts out to spectators over websockets.
type Hub struct {
	clients    map[*websocket.Conn]*Client
	broadcast  chan outbound
	register   chan *Client
	unregister chan *websocket.Conn
	mu         sync.RWMutex
	done       chan struct{}
	wg         sync.WaitGroup
	log        *zap.SugaredLogger
}

func newHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*Client),
		broadcast:  make(chan outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *websocket.Conn, 64),
		done:       make(chan struct{}),
		log:        log,
	}
}

// start launches the hub goroutine.
func (h *Hub) start() {
	h.wg.Add(1)
	go h.run()
}

// stop signals the hub goroutine to exit, waits for it and closes all connections.
func (h *Hub) stop() {
	close(h.done)
	h.wg.Wait()
	h.mu.Lock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
	h.mu.Unlock()
}

// Watchers returns the number of spectators connected to channelID.
func (h *Hub) Watchers(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.channelID == channelID {
			n++
		}
	}
	return n
}

// Publish queues ev for every spectator of its channel. It never blocks the caller
// for longer than it takes to fill the queue; events are dropped once the hub stops.
func (h *Hub) Publish(ev SpectatorEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorf("Hub: marshal %s event: %v", ev.Kind, err)
		return
	}
	select {
	case h.broadcast <- outbound{channelID: ev.Channel, payload: payload}:
	case <-h.done:
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.conn] = client
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Infof("Spectator connected to channel %s. Total: %d", client.channelID, total)

		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.log.Debugf("Spectator disconnected. Total: %d", total)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for conn, client := range h.clients {
				if client.channelID != msg.channelID {
					continue
				}
				client.writeMu.Lock()
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				err := conn.WriteMessage(websocket.TextMessage, msg.payload)
				client.writeMu.Unlock()

				if err != nil {
					h.log.Warnf("Spectator write error on channel %s: %v", msg.channelID, err)
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mu.Unlock()
		}
	}
}

var upgrader = websocket.Upgrader{}

// handleWebSocket serves GET /ws?channel=<id>. Spectators only receive; anything
// they send is discarded.
func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel")
	if channelID == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("WebSocket upgrade error for channel %s: %v", channelID, err)
		return
	}

	client := &Client{conn: conn, channelID: channelID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go func() {
		defer func() {
			select {
			case h.unregister <- conn:
			case <-h.done:
			}
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (h *Hub) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", h.handleWebSocket)
	mux.HandleFunc("GET /healthz", handleHealthz)
	return mux
}

// spectatedNotifier mirrors public broadcasts to the hub before handing them
// to the chat transport. Private traffic is never mirrored.
type spectatedNotifier struct {
	game.Notifier
	hub *Hub
}

func (n *spectatedNotifier) Broadcast(ctx context.Context, channelID string, msg game.Message) error {
	// faction channels are private even though they are reached through Broadcast
	if msg.Kind != game.MsgFactionRoster {
		n.hub.Publish(spectatorEvent(channelID, msg))
	}
	return n.Notifier.Broadcast(ctx, channelID, msg)
}
