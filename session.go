package main

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"vehicle-visualizer/protocol"
)

var (
	// ErrTerminated is returned by Ingest when the simulator ends the session.
	ErrTerminated = errors.New("session terminated by simulator")

	ErrDuplicateMap = errors.New("map message received twice")
	ErrMalformedMap = errors.New("corrupted map message")
)

// IsFatal reports whether err must stop the process with a failure code.
func IsFatal(err error) bool {
	return errors.Is(err, ErrDuplicateMap) || errors.Is(err, ErrMalformedMap)
}

// Session holds the state of one simulation run: the map message, once
// received, and the viewers it is forwarded to. Ingest, Subscribe and
// Unsubscribe are serialized, so a subscriber always receives its
// bootstrap payload before any later broadcast.
type Session struct {
	token   string
	hub     *wsHub
	metrics *metrics

	mu      sync.Mutex
	initMsg string // composed map message, empty until received
}

func newSession(token string, hub *wsHub, m *metrics) *Session {
	return &Session{token: token, hub: hub, metrics: m}
}

// Ingest handles one datagram from the simulator. Malformed object
// updates and unknown messages are dropped and yield nil.
func (s *Session) Ingest(raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := protocol.KindOf(raw)
	s.metrics.message(kind)

	switch kind {
	case protocol.KindInit:
		if s.initMsg != "" {
			return fmt.Errorf("%w: %q", ErrDuplicateMap, protocol.Normalize(raw))
		}
		msg, err := protocol.ParseIngest(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedMap, err)
		}
		s.initMsg = protocol.ComposeInit(msg.Raw, s.token)
		log.Printf("map centered at %v,%v", msg.Init.Lat, msg.Init.Lon)
		s.hub.publish([]byte(s.initMsg))
	case protocol.KindUpdate:
		msg, err := protocol.ParseIngest(raw)
		if err != nil {
			s.metrics.dropped()
			log.Printf("dropping object update: %v", err)
			return nil
		}
		s.hub.publish([]byte(msg.Raw))
	case protocol.KindTerminate:
		if _, err := protocol.ParseIngest(raw); err != nil {
			s.metrics.dropped()
			log.Printf("dropping terminate message: %v", err)
			return nil
		}
		return ErrTerminated
	default:
		s.metrics.dropped()
	}
	return nil
}

// Subscribe registers sub and hands it the bootstrap payload: the map
// message if there is one, an empty payload otherwise.
func (s *Session) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hub.add(sub)
	if !sub.Send([]byte(s.initMsg)) {
		s.hub.remove(sub)
	}
}

// Unsubscribe removes sub. The cached map message is kept.
func (s *Session) Unsubscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hub.remove(sub)
}

// InitMessage returns the composed map message, if received.
func (s *Session) InitMessage() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initMsg, s.initMsg != ""
}
