package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/XiovV/selly-relay/hub"
	"github.com/XiovV/selly-relay/models"
	"github.com/gorilla/websocket"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const (
	version         = "0.2.0"
	shutdownTimeout = 5 * time.Second
)

type Server struct {
	ctx      context.Context
	upgrader websocket.Upgrader
	hub      *hub.Hub
	log      *zap.SugaredLogger
}

// New creates a server whose connections live until ctx is cancelled.
func New(ctx context.Context, hub *hub.Hub, logger *zap.SugaredLogger) *Server {
	return &Server{ctx: ctx, upgrader: websocket.Upgrader{}, hub: hub, log: logger}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/chat", s.OnConnect(s.Chat))
	mux.HandleFunc("/send", s.Send)
	mux.HandleFunc("/connections", s.Connections)
	mux.HandleFunc("/health", s.Health)

	return mux
}

// Serve listens on addr until the server context is cancelled.
func (s *Server) Serve(addr, env string) error {
	s.log.Infow("running", "addr", addr, "environment", env, "version", version)

	srv := &http.Server{Addr: addr, Handler: s.Routes()}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-s.ctx.Done():
	}

	s.log.Infow("shutting down", "connections", s.hub.Len())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// Chat keeps the connection registered until it goes away.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	client := s.contextGetClient(r)

	err := s.hub.Listen(s.ctx, client)
	s.log.Debugw("disconnected", "user", client.ID(), "reason", err)
}

func (s *Server) Send(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var message models.Message
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		http.Error(w, "malformed message", http.StatusBadRequest)
		return
	}

	delivered := s.hub.Send(message.Receiver, message.Message)
	s.log.Debugw("send", "receiver", message.Receiver, "delivered", delivered)

	s.writeJSON(w, models.SendResult{Delivered: delivered})
}

func (s *Server) Connections(w http.ResponseWriter, r *http.Request) {
	snapshot := s.hub.Snapshot()

	connections := make([]models.ConnectionInfo, 0, len(snapshot))
	for user, client := range snapshot {
		connections = append(connections, models.ConnectionInfo{
			User:        user,
			State:       client.State().String(),
			ConnectedAt: client.ConnectedAt(),
			RemoteAddr:  client.RemoteAddr(),
		})
	}

	sort.Slice(connections, func(i, j int) bool {
		return connections[i].User < connections[j].User
	})

	s.writeJSON(w, connections)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to write response:", err)
	}
}

// ConsumeQueue pushes every queued message to its receiver if the receiver
// is connected here. It returns when deliveries is closed.
func (s *Server) ConsumeQueue(deliveries <-chan amqp.Delivery) {
	for d := range deliveries {
		if err := d.Ack(false); err != nil {
			s.log.Debugw("failed to ack delivery", "error", err)
		}

		var message models.Message
		if err := json.Unmarshal(d.Body, &message); err != nil {
			s.log.Error("failed to unmarshal message:", err)
			continue
		}

		delivered := s.hub.Send(message.Receiver, message.Message)
		s.log.Debugw("consumed", "receiver", message.Receiver, "delivered", delivered)
	}

	s.log.Warnw("delivery channel closed, no longer consuming from the queue")
}
