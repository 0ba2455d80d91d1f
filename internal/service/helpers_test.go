package service

import (
	"io"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func newTestRealtimeClient(buffer int) *realtimeClient {
	return &realtimeClient{
		send:   make(chan interface{}, buffer),
		joined: make(map[string]struct{}),
		closed: make(chan struct{}),
	}
}
