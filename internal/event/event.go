// Package event defines the interaction-event model shared by the capture,
// storage, replay and extraction layers.
package event

// Type identifies a class of interaction event.
type Type string

const (
	TypePointerMove Type = "pointer_move"
	TypePointerDown Type = "pointer_down"
	TypeClick       Type = "click"
	TypeKeyDown     Type = "key_down"
	TypeKeyUp       Type = "key_up"
	TypeScroll      Type = "scroll"
	TypeVisibility  Type = "visibility_change"
)

// Payload carries the type-dependent data of one event. Fields irrelevant
// to the event's type stay at their zero value and are omitted on the wire.
type Payload struct {
	// Pointer
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Button int     `json:"button,omitempty"`

	// Scroll
	ScrollX float64 `json:"scroll_x,omitempty"`
	ScrollY float64 `json:"scroll_y,omitempty"`

	// Keyboard
	Key      string `json:"key,omitempty"`
	AltKey   bool   `json:"alt_key,omitempty"`
	CtrlKey  bool   `json:"ctrl_key,omitempty"`
	ShiftKey bool   `json:"shift_key,omitempty"`
	MetaKey  bool   `json:"meta_key,omitempty"`

	// Visibility
	Visibility string `json:"visibility,omitempty"`
}

// Event is one captured interaction event. Timestamp is the producer-supplied
// capture time in milliseconds (DOM event time or recorded time); it is
// assumed non-decreasing within a type and not validated here.
type Event struct {
	Type      Type    `json:"type"`
	Timestamp int64   `json:"timestamp"`
	Payload   Payload `json:"payload"`
}

// StoredEvent is the durable form of an Event, tagged with the session it
// belongs to and the extractor that registered interest in it.
type StoredEvent struct {
	ID            int64   `json:"id"`
	SessionID     string  `json:"session_id"`
	Type          Type    `json:"type"`
	Timestamp     int64   `json:"timestamp"`
	Payload       Payload `json:"payload"`
	ExtractorType string  `json:"extractor_type"`
}
