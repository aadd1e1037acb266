// Command vehicle-visualizer relays simulator telemetry to live map viewers.
//
// The simulator sends comma separated datagrams over UDP (see package
// protocol). The first map message is cached and completed with the map
// layer token, then every viewer connecting to /ws receives it, followed
// by every object update. A terminate datagram stops the process.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"vehicle-visualizer/viewer"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if err := loadDotEnv(); err != nil {
		log.Printf("warning: error loading .env file: %v", err)
	}

	cfg, err := parseConfig(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		log.Printf("%v", err)
		return 1
	}
	if cfg.debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	token, err := loadToken(cfg.tokenFile)
	if err != nil {
		log.Printf("cannot start: %v", err)
		return 1
	}

	// The mirror is an in-process viewer backing the feed endpoints.
	mirror := viewer.NewClient(nil)
	m := newMetrics(mirror.Store().Len)
	hub := newHub(m)
	sess := newSession(token, hub, m)
	sess.Subscribe(&localSubscriber{client: mirror})

	ingest, err := listenUDP(cfg.udpAddr, sess, m)
	if err != nil {
		log.Printf("cannot start: %v", err)
		return 1
	}

	mux := http.NewServeMux()
	registerRoutes(mux, sess, mirror.Store(), m)
	srv := &http.Server{
		Addr:              cfg.httpAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("server starting on http://localhost:%d/", cfg.httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ingestErr := make(chan error, 1)
	go func() {
		log.Printf("waiting for simulator datagrams on %s", ingest.addr())
		ingestErr <- ingest.run(ctx)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-ingestErr:
		return exitCode(err)
	case err := <-serverErr:
		log.Printf("server error: %v", err)
		return 1
	case <-sigs:
		log.Printf("shutdown initiated...")
	}

	cancel()
	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Printf("HTTP server shut down successfully")
	}
	return 0
}

// exitCode maps the error that ended ingestion to the process exit code.
// Nothing is drained: the caller exits right away.
func exitCode(err error) int {
	switch {
	case errors.Is(err, ErrTerminated):
		log.Printf("terminate received, shutting down")
		return 0
	case IsFatal(err):
		log.Printf("fatal protocol error: %v", err)
		return 1
	default:
		log.Printf("ingest stopped: %v", err)
		return 1
	}
}
