package socket

import (
	"log"
	"net/http"
	"sync"

	"mingle_server/models"
	"mingle_server/services"

	"github.com/gorilla/websocket"
)

// Server upgrades participant connections to WebSocket, feeds liveness into
// the connection registry, and routes respond/cancel commands to the
// lifecycle.
type Server struct {
	Registry  *services.ConnectionRegistry
	Lifecycle *services.MatchLifecycle
	upgrader  websocket.Upgrader
}

// NewSocketServer initializes and returns a new matchmaking socket server
func NewSocketServer(registry *services.ConnectionRegistry, lifecycle *services.MatchLifecycle) *Server {
	return &Server{
		Registry:  registry,
		Lifecycle: lifecycle,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// clientCommand is what a connected participant may send over the socket.
type clientCommand struct {
	Action  string `json:"action"` // heartbeat, respond, cancel
	MatchID string `json:"matchId,omitempty"`
	Accept  bool   `json:"accept,omitempty"`
}

// HandleConnection upgrades the request and serves the participant until the
// connection drops.
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, `{"error": "userId is required"}`, http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed for %s: %v", userID, err)
		return
	}

	endpoint := &wsEndpoint{conn: conn}
	s.Registry.Register(userID, endpoint)
	log.Printf("✅ Socket connected: %s", userID)

	defer func() {
		s.Registry.Evict(userID)
		conn.Close()
		log.Printf("❌ Socket disconnected: %s", userID)
	}()

	for {
		var command clientCommand
		if err := conn.ReadJSON(&command); err != nil {
			return
		}

		switch command.Action {
		case "heartbeat":
			s.Registry.Touch(userID)
		case "respond":
			if command.MatchID == "" {
				log.Printf("❌ Invalid matchId in respond from %s", userID)
				continue
			}
			s.Registry.Touch(userID)
			if err := s.Lifecycle.Respond(r.Context(), command.MatchID, userID, command.Accept); err != nil {
				log.Printf("⚠️ Response from %s ignored: %v", userID, err)
			}
		case "cancel":
			s.Registry.Touch(userID)
			s.Lifecycle.Cancel(r.Context(), userID)
		default:
			log.Printf("⚠️ Unknown socket action %q from %s", command.Action, userID)
		}
	}
}

// wsEndpoint adapts a WebSocket connection to the delivery Endpoint
// contract. Writes are serialized; gorilla connections allow one concurrent
// writer.
type wsEndpoint struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (e *wsEndpoint) Send(event models.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteJSON(event)
}
