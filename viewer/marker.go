// Package viewer turns the hub's broadcast stream into map markers.
//
// A Client consumes frames from one hub connection, waits for the map
// message, and then applies every object update to a Store. The Store
// keeps one Marker per entity id and drives a MapView, which does the
// actual rendering.
package viewer

import (
	"fmt"

	"vehicle-visualizer/protocol"
)

// HeadingUnavailable is the heading value senders use when they have no
// heading. Anything at or above it is treated as unavailable.
const HeadingUnavailable = 361.0

// IconKind selects the marker icon.
type IconKind int

const (
	IconCar IconKind = iota
	IconCircle
)

func (k IconKind) String() string {
	if k == IconCircle {
		return "circle"
	}
	return "car"
}

// VisualState is what a marker looks like for a given heading.
type VisualState struct {
	Icon  IconKind
	Label string
}

// DeriveVisualState depends on the latest heading only.
func DeriveVisualState(id string, heading float64) VisualState {
	if heading >= HeadingUnavailable {
		return VisualState{
			Icon:  IconCircle,
			Label: fmt.Sprintf("ID: %s - Heading: unavailable", id),
		}
	}
	return VisualState{
		Icon:  IconCar,
		Label: fmt.Sprintf("ID: %s - Heading: %s deg", id, protocol.FormatFloat(heading)),
	}
}

// Position is a WGS84 coordinate pair.
type Position struct {
	Lat float64
	Lon float64
}

// Handle identifies a marker inside a MapView.
type Handle any

// MapView renders the base map and the markers. Implementations are
// called from a single goroutine per Store.
type MapView interface {
	Draw(center Position, token string)
	ShowWaiting()
	CreateMarker(pos Position, icon IconKind) Handle
	SetPosition(h Handle, pos Position)
	SetRotation(h Handle, heading float64)
	SetIcon(h Handle, icon IconKind)
	SetLabel(h Handle, text string)
}

// Marker is the last known state of one entity.
type Marker struct {
	ID       string
	Position Position
	Heading  float64
	Icon     IconKind
	Label    string
	Updated  int64 // unix millis of the last applied update

	handle Handle
}
