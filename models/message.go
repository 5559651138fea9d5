package models

import "time"

// Message asks for a text to be pushed to a connected user.
type Message struct {
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

type SendResult struct {
	Delivered bool `json:"delivered"`
}

type ConnectionInfo struct {
	User        string    `json:"user"`
	State       string    `json:"state"`
	ConnectedAt time.Time `json:"connected_at"`
	RemoteAddr  string    `json:"remote_addr"`
}
