package server

import (
	"net/http"

	"github.com/XiovV/selly-relay/hub"
	"github.com/gorilla/websocket"
)

const (
	identityParam  = "userId"
	identityHeader = "X-User-Id"
)

// identity validates an upgrade request and returns the user it is for.
func identity(r *http.Request) (string, error) {
	if !websocket.IsWebSocketUpgrade(r) {
		return "", ErrInvalidRequest
	}

	sellyID := r.URL.Query().Get(identityParam)
	if sellyID == "" {
		sellyID = r.Header.Get(identityHeader)
	}

	if sellyID == "" {
		return "", ErrMissingIdentity
	}

	return sellyID, nil
}

// OnConnect upgrades the request, registers the connection and hands it to
// next through the request context.
func (s *Server) OnConnect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellyID, err := identity(r)
		if err != nil {
			s.log.Debugw("rejected connection", "remote", r.RemoteAddr, "reason", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		c, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Errorw("upgrade failed", "user", sellyID, "error", err)
			return
		}

		client := hub.NewClient(sellyID, c)
		if replaced := s.hub.Push(client); replaced {
			s.log.Debugw("replaced previous connection", "user", sellyID)
		}

		s.log.Debugw("connected", "user", sellyID, "remote", client.RemoteAddr())

		next(w, s.contextSetClient(r, client))
	}
}
