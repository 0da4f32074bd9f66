package scene

import "github.com/go-gl/mathgl/mgl32"

type EventType int

const (
	EventStarted EventType = iota
	EventSuspended
	EventResumed
	EventResized
	EventThemeChanged
	EventReady
	EventFrame
	EventDisposed
)

var eventNames = [...]string{
	EventStarted:      "started",
	EventSuspended:    "suspended",
	EventResumed:      "resumed",
	EventResized:      "resized",
	EventThemeChanged: "theme-changed",
	EventReady:        "ready",
	EventFrame:        "frame",
	EventDisposed:     "disposed",
}

func (t EventType) String() string {
	if t >= 0 && int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

type Event struct {
	Type          EventType
	Width, Height int        // EventResized
	Light         bool       // EventThemeChanged
	Camera        mgl32.Vec3 // EventFrame
	Scroll        float32    // EventFrame
}

type EventHandler func(Event)

type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	if eb == nil {
		return
	}
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
