package events

import "sync"

// Kind represents the type of domain event produced by the engine.
type Kind string

const (
	KindCheckInRecorded Kind = "checkin_recorded"
	KindJournalRecorded Kind = "journal_recorded"
	KindInsightCreated  Kind = "insight_created"
	KindStateChanged    Kind = "state_changed"
	KindReportCreated   Kind = "report_created"
	KindShareCreated    Kind = "share_created"
	KindShareRevoked    Kind = "share_revoked"
)

// Event carries the minimum data a boundary subscriber needs; consumers
// query full records through the API if they want more.
type Event struct {
	Kind     Kind
	UserID   string
	TargetID string
}

// Bus is an in-process fan-out for boundary subscribers (notifiers, CLIs,
// tests). Publish never blocks the engine: a subscriber with a full buffer
// misses the event.
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

func NewBus() *Bus { return &Bus{} }

// Subscribe registers a buffered subscriber channel and returns it along
// with an unsubscribe func. The channel is closed on unsubscribe.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s == ch {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
}

// Publish delivers the event to every subscriber that has buffer space.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
