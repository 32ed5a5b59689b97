// Package webhook exposes the inbound HTTP surface: the email-to-ticket
// endpoint used by the mail relay, and a WebSocket feed notifying board
// clients about new tickets.
package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/zapdesk/zapdesk/internal/azdo"
)

// TicketCreator turns inbound requests into work items. *azdo.Client
// satisfies it.
type TicketCreator interface {
	CreateTicket(ctx context.Context, project string, t azdo.NewTicket) (int, error)
}

// Config carries the server's wiring.
type Config struct {
	Addr           string
	Project        string
	WorkItemType   string
	SupportTag     string
	JWTSecret      string
	AllowedOrigins []string
}

// Server is the webhook HTTP server.
type Server struct {
	logger         *slog.Logger
	creator        TicketCreator
	hub            *Hub
	project        string
	workItemType   string
	supportTag     string
	addr           string
	jwtSecret      []byte
	allowedOrigins []string
	upgrader       websocket.Upgrader
}

// NewServer creates a webhook server. The hub's Run loop is started by
// ListenAndServe; tests drive the handler directly.
func NewServer(cfg Config, creator TicketCreator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		logger:         logger,
		creator:        creator,
		hub:            NewHub(logger),
		project:        cfg.Project,
		workItemType:   cfg.WorkItemType,
		supportTag:     cfg.SupportTag,
		addr:           cfg.Addr,
		jwtSecret:      []byte(cfg.JWTSecret),
		allowedOrigins: cfg.AllowedOrigins,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler builds the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/healthz", s.handleHealthz).Methods("GET")
	r.Handle("/api/inbound/email", s.requireAuth(http.HandlerFunc(s.handleInboundEmail))).Methods("POST")
	r.HandleFunc("/api/ws", s.handleWebSocket)

	origins := s.allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	go s.hub.Run(ctx)

	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("webhook server listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// inboundEmail is the payload posted by the mail relay.
type inboundEmail struct {
	From    string `json:"from"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// handleInboundEmail converts an email into a support ticket.
func (s *Server) handleInboundEmail(w http.ResponseWriter, r *http.Request) {
	var email inboundEmail
	if err := json.NewDecoder(r.Body).Decode(&email); err != nil {
		http.Error(w, "invalid request format", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(email.From) == "" {
		http.Error(w, "missing sender", http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(email.Subject)
	if title == "" {
		title = "(no subject)"
	}

	id, err := s.creator.CreateTicket(r.Context(), s.project, azdo.NewTicket{
		Type:        s.workItemType,
		Title:       title,
		Description: email.Text,
		Requester:   email.From,
		Tags:        []string{s.supportTag, "email"},
	})
	if err != nil {
		s.logger.Error("failed to create ticket from email", "from", email.From, "error", err)
		http.Error(w, "failed to create ticket", http.StatusBadGateway)
		return
	}

	s.logger.Info("ticket created from email", "id", id, "from", email.From)

	s.hub.Broadcast(Event{
		Type: "ticket-created",
		Data: map[string]any{"id": id, "title": title, "requester": email.From},
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]int{"id": id})
}

// handleWebSocket upgrades the connection and subscribes it to ticket events.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: s.hub, conn: conn, send: make(chan []byte, 16)}
	s.hub.register <- c

	go c.writePump()
	go c.readPump()
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}
