package server

import (
	"context"
	"net/http"

	"github.com/XiovV/selly-relay/hub"
)

type contextKey string

const clientContextKey = contextKey("wsClient")

func (s *Server) contextSetClient(r *http.Request, client *hub.Client) *http.Request {
	ctx := context.WithValue(r.Context(), clientContextKey, client)
	return r.WithContext(ctx)
}

func (s *Server) contextGetClient(r *http.Request) *hub.Client {
	client, ok := r.Context().Value(clientContextKey).(*hub.Client)
	if !ok {
		panic("missing client in request context")
	}

	return client
}
