package store

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mkelcec/scalewatch/internal/eventbus"
	"github.com/mkelcec/scalewatch/internal/telemetry/metrics"
)

// ChangeEvent is what general subscribers receive on every committed
// dispatch. Next and Previous are snapshot copies, isolated from the
// store's internal tree.
type ChangeEvent struct {
	Next     ApplicationState
	Previous ApplicationState
	Action   Action
}

// Store owns the canonical ApplicationState. All mutation goes through
// Dispatch and the reducer; reads hand out deep copies. Dispatches are
// serialized: a dispatch, including its notifications, runs to completion
// before the next one starts.
type Store struct {
	dispatchMu sync.Mutex
	stateMu    sync.RWMutex
	state      ApplicationState

	bus     *eventbus.Bus
	metrics *metrics.Manager
}

func New(bus *eventbus.Bus, metricsManager *metrics.Manager) *Store {
	return &Store{
		state:   DefaultState(),
		bus:     bus,
		metrics: metricsManager,
	}
}

// Dispatch runs the reducer and notifies subscribers. Malformed actions
// (nil, or without a name) are logged and dropped; a panicking subscriber
// never aborts the dispatch. Dispatch always returns normally.
func (s *Store) Dispatch(action Action) {
	if action == nil || action.Name() == "" {
		log.Error("store: dropping malformed action without a type")
		return
	}

	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.stateMu.RLock()
	previous := s.state.Clone()
	working := s.state.Clone()
	s.stateMu.RUnlock()

	next := reduce(working, action)

	s.stateMu.Lock()
	s.state = next
	s.stateMu.Unlock()

	if s.metrics != nil {
		s.metrics.CounterDispatches.WithLabelValues(action.Name()).Inc()
	}

	snapshot := next.Clone()
	s.bus.Publish(ChannelStateChanged, ChangeEvent{
		Next:     snapshot,
		Previous: previous,
		Action:   action,
	})
	if s.metrics != nil {
		s.metrics.CounterChannelPublishes.WithLabelValues(ChannelStateChanged).Inc()
	}

	if channel, payload, ok := channelFor(action, snapshot); ok {
		s.bus.Publish(channel, payload)
		if s.metrics != nil {
			s.metrics.CounterChannelPublishes.WithLabelValues(channel).Inc()
		}
	}
}

// GetState returns a deep copy of the current state; holding on to it
// cannot mutate the canonical tree.
func (s *Store) GetState() ApplicationState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state.Clone()
}

// Subscribe registers a general listener called on every dispatch.
// Returns an idempotent unsubscribe closure.
func (s *Store) Subscribe(listener func(ChangeEvent)) func() {
	return s.bus.Subscribe(ChannelStateChanged, func(payload any) {
		event, ok := payload.(ChangeEvent)
		if !ok {
			log.Errorf("store: unexpected general notification payload %T", payload)
			return
		}
		listener(event)
	})
}

// SubscribeToChannel registers a listener on one of the named channels.
// Returns an idempotent unsubscribe closure.
func (s *Store) SubscribeToChannel(channel string, listener func(payload any)) func() {
	return s.bus.Subscribe(channel, listener)
}
