// viewer is a headless map viewer. It connects to a vehicle-visualizer
// hub and logs what a map display would draw: the map center, marker
// creation, icon swaps and label changes.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"vehicle-visualizer/viewer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var hubURL string
	var verbose bool

	flagSet := pflag.NewFlagSet("viewer", pflag.ContinueOnError)
	flagSet.StringVar(&hubURL, "hub", "ws://localhost:8080/ws", "WebSocket URL of the hub")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "also log position updates")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 0 {
		return fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := viewer.NewClient(&logView{verbose: verbose})
	log.Printf("connecting to %s", hubURL)
	err := client.Run(ctx, hubURL)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if center, _, ok := client.Center(); ok {
		log.Printf("map centered at %v,%v, %d markers seen", center.Lat, center.Lon, client.Store().Len())
	} else {
		log.Printf("disconnected before the map was received")
	}
	return err
}

// logView is a MapView that prints instead of drawing.
type logView struct {
	verbose bool
	next    int
}

func (v *logView) Draw(center viewer.Position, token string) {
	log.Printf("map drawn at %v,%v (layer token %q)", center.Lat, center.Lon, token)
}

func (v *logView) ShowWaiting() {
	log.Printf("waiting for the simulator to send the map")
}

func (v *logView) CreateMarker(pos viewer.Position, icon viewer.IconKind) viewer.Handle {
	v.next++
	log.Printf("marker %d created at %v,%v (%s)", v.next, pos.Lat, pos.Lon, icon)
	return v.next
}

func (v *logView) SetPosition(h viewer.Handle, pos viewer.Position) {
	if v.verbose {
		log.Printf("marker %v moved to %v,%v", h, pos.Lat, pos.Lon)
	}
}

func (v *logView) SetRotation(h viewer.Handle, heading float64) {}

func (v *logView) SetIcon(h viewer.Handle, icon viewer.IconKind) {
	log.Printf("marker %v icon is now %s", h, icon)
}

func (v *logView) SetLabel(h viewer.Handle, text string) {
	if v.verbose {
		log.Printf("marker %v: %s", h, text)
	}
}
