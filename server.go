package main

import (
	"encoding/json"
	"log"
	"net/http"

	"vehicle-visualizer/viewer"
)

func registerRoutes(mux *http.ServeMux, sess *Session, mirror *viewer.Store, m *metrics) {
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/vehicles", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(vehiclesFromMarkers(mirror.Snapshot())); err != nil {
			log.Printf("vehicles encode error: %v", err)
		}
	})

	mux.HandleFunc("/ws", handleWebSocket(sess))
	mux.HandleFunc("/gtfs-rt", handleGtfsRt(mirror))
	mux.HandleFunc("/siri.json", handleSiriJSON(mirror))
	mux.HandleFunc("/siri.xml", handleSiriXML(mirror))
	if m != nil {
		mux.Handle("/metrics", m.handler())
	}

	fs := http.FileServer(http.Dir("./static"))
	mux.Handle("/", withLogging(fs))
}

func withLogging(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s", r.Method, r.URL.Path)
		h.ServeHTTP(w, r)
	})
}

// localSubscriber feeds the session's broadcasts to an in-process viewer.
type localSubscriber struct {
	client *viewer.Client
}

func (l *localSubscriber) Send(payload []byte) bool {
	l.client.Handle(string(payload))
	return true
}

func (l *localSubscriber) Close() {}

func (l *localSubscriber) String() string { return "mirror" }
