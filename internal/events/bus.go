package events

import (
	"context"
	"sync"

	"github.com/ericogr/pokeduel/internal/constants"
	"github.com/ericogr/pokeduel/internal/game"
	"github.com/ericogr/pokeduel/internal/logging"
)

type Event struct {
	Name    string
	Payload any
}

// MatchEvent is the payload of every match.* and round.* event.
type MatchEvent struct {
	Event   string           `json:"event"`
	MatchID uint             `json:"match_id"`
	Status  game.MatchStatus `json:"status"`
	Round   *game.Round      `json:"round,omitempty"`
}

// Names lists every event published for matches.
var Names = []string{
	constants.EventMatchCreated,
	constants.EventMatchJoined,
	constants.EventMatchDeckSelected,
	constants.EventRoundResolved,
	constants.EventMatchFinished,
}

type Handler func(context.Context, Event) error

// Bus is an in-process publish/subscribe dispatcher. Handlers of one event
// run in subscription order; the first error stops the chain.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: map[string][]Handler{}}
}

func (b *Bus) Subscribe(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}

// SubscribeAll registers handler for every match event name.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, name := range Names {
		b.Subscribe(name, handler)
	}
}

func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Name]...)
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// PublishMatch publishes a match event and logs, rather than returns,
// handler failures. A nil bus is a no-op.
func (b *Bus) PublishMatch(ctx context.Context, name string, m *game.Match, r *game.Round) {
	if b == nil || m == nil {
		return
	}
	payload := MatchEvent{Event: name, MatchID: m.ID, Status: m.Status, Round: r}
	if err := b.Publish(ctx, Event{Name: name, Payload: payload}); err != nil {
		logging.Warn("event publish failed", err, logging.Fields{
			constants.LogFieldEvent:   name,
			constants.LogFieldMatchID: m.ID,
		})
	}
}
