package viewer

import (
	"fmt"
	"sync"
)

// recordingView logs every MapView call as a short string.
type recordingView struct {
	mu    sync.Mutex
	calls []string
	next  int
}

func (v *recordingView) record(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = append(v.calls, fmt.Sprintf(format, args...))
}

func (v *recordingView) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

func (v *recordingView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls = nil
}

func (v *recordingView) Draw(center Position, token string) {
	v.record("draw %v,%v %s", center.Lat, center.Lon, token)
}

func (v *recordingView) ShowWaiting() { v.record("waiting") }

func (v *recordingView) CreateMarker(pos Position, icon IconKind) Handle {
	v.mu.Lock()
	v.next++
	h := v.next
	v.mu.Unlock()
	v.record("create %d %v,%v %s", h, pos.Lat, pos.Lon, icon)
	return h
}

func (v *recordingView) SetPosition(h Handle, pos Position) {
	v.record("position %v %v,%v", h, pos.Lat, pos.Lon)
}

func (v *recordingView) SetRotation(h Handle, heading float64) {
	v.record("rotation %v %v", h, heading)
}

func (v *recordingView) SetIcon(h Handle, icon IconKind) { v.record("icon %v %s", h, icon) }

func (v *recordingView) SetLabel(h Handle, text string) { v.record("label %v %s", h, text) }
