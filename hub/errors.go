package hub

import "errors"

var ErrClientClosed = errors.New("client connection is closed")
