// Package protocol parses the comma separated text messages exchanged
// between the simulator, the hub and the viewers.
//
// Ingest (simulator -> hub):
//
//	map,<lat>,<lon>
//	object,<id>,<lat>,<lon>,<heading>
//	terminate
//
// Broadcast (hub -> viewer):
//
//	map,<lat>,<lon>,<token|none>
//	object,<id>,<lat>,<lon>,<heading>
package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the message type tag, the first field of every message.
type Kind int

const (
	KindUnknown Kind = iota
	KindInit
	KindUpdate
	KindTerminate
)

const (
	tagMap       = "map"
	tagObject    = "object"
	tagTerminate = "terminate"

	// NoToken is sent in place of the layer token when none is configured.
	NoToken = "none"
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return tagMap
	case KindUpdate:
		return tagObject
	case KindTerminate:
		return tagTerminate
	default:
		return "unknown"
	}
}

var (
	ErrArity  = errors.New("wrong number of fields")
	ErrNumber = errors.New("invalid number")
)

// ParseError reports a message whose tag was recognized but whose body
// could not be decoded.
type ParseError struct {
	Kind   Kind
	Fields int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("corrupted %s message (%d fields): %v", e.Kind, e.Fields, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Init is the world initialization message.
type Init struct {
	Lat   float64
	Lon   float64
	Token string // empty when no token is available
}

// Update is a single entity position report.
type Update struct {
	ID      string
	Lat     float64
	Lon     float64
	Heading float64
}

// Message is the decoded form of one datagram or frame. Only the field
// matching Kind is meaningful.
type Message struct {
	Kind   Kind
	Raw    string // normalized text the message was parsed from
	Init   Init
	Update Update
}

// Normalize strips the NUL terminator some senders append and any
// surrounding whitespace.
func Normalize(raw string) string {
	return strings.TrimSpace(strings.TrimRight(raw, "\x00"))
}

// KindOf returns the tag of raw without decoding the rest of it.
func KindOf(raw string) Kind {
	tag, _, _ := strings.Cut(Normalize(raw), ",")
	switch tag {
	case tagMap:
		return KindInit
	case tagObject:
		return KindUpdate
	case tagTerminate:
		return KindTerminate
	default:
		return KindUnknown
	}
}

// ParseIngest decodes a datagram sent by the simulator.
func ParseIngest(raw string) (Message, error) {
	return parse(raw, 3)
}

// ParseBroadcast decodes a frame sent by the hub to a viewer.
func ParseBroadcast(raw string) (Message, error) {
	return parse(raw, 4)
}

func parse(raw string, mapFields int) (Message, error) {
	text := Normalize(raw)
	fields := strings.Split(text, ",")
	msg := Message{Kind: KindOf(text), Raw: text}

	switch msg.Kind {
	case KindInit:
		if len(fields) != mapFields {
			return msg, &ParseError{Kind: msg.Kind, Fields: len(fields), Err: ErrArity}
		}
		lat, lon, err := parseLatLon(fields[1], fields[2])
		if err != nil {
			return msg, &ParseError{Kind: msg.Kind, Fields: len(fields), Err: err}
		}
		msg.Init = Init{Lat: lat, Lon: lon}
		if mapFields == 4 && fields[3] != NoToken {
			msg.Init.Token = fields[3]
		}
	case KindUpdate:
		if len(fields) != 5 {
			return msg, &ParseError{Kind: msg.Kind, Fields: len(fields), Err: ErrArity}
		}
		lat, lon, err := parseLatLon(fields[2], fields[3])
		if err != nil {
			return msg, &ParseError{Kind: msg.Kind, Fields: len(fields), Err: err}
		}
		heading, err := parseFloat(fields[4])
		if err != nil {
			return msg, &ParseError{Kind: msg.Kind, Fields: len(fields), Err: err}
		}
		msg.Update = Update{ID: fields[1], Lat: lat, Lon: lon, Heading: heading}
	case KindTerminate:
		if len(fields) != 1 {
			return msg, &ParseError{Kind: msg.Kind, Fields: len(fields), Err: ErrArity}
		}
	}
	return msg, nil
}

// ComposeInit builds the broadcast form of an ingest map message by
// appending the layer token. The simulator's numeric text is kept as is.
func ComposeInit(raw, token string) string {
	if token == "" {
		token = NoToken
	}
	return Normalize(raw) + "," + token
}

// FormatFloat prints f in its shortest decimal form.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseLatLon(lat, lon string) (float64, float64, error) {
	lf, err := parseFloat(lat)
	if err != nil {
		return 0, 0, err
	}
	lo, err := parseFloat(lon)
	if err != nil {
		return 0, 0, err
	}
	return lf, lo, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w %q", ErrNumber, s)
	}
	return f, nil
}
