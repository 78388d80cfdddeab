// events.go - Notification bus for observable side effects.
//
// Subscribers get buffered channels; a slow subscriber drops events rather
// than stalling the admission path. Payloads carry only public data - never
// an amount.

package mintauth

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type EventType string

const (
	EventCommitteeInitialized EventType = "committee.initialized"
	EventProposalCreated      EventType = "proposal.created"
	EventProposalApproved     EventType = "proposal.approved"
	EventProposalExecuted     EventType = "proposal.executed"
	EventEpochAdvanced        EventType = "epoch.advanced"
	EventMintSucceeded        EventType = "mint.succeeded"
	EventMintFailed           EventType = "mint.failed"
)

// subscriberQueueSize bounds each subscriber channel.
const subscriberQueueSize = 32

type Event struct {
	Type      EventType
	Timestamp time.Time
	Data      any
}

// CommitteeInitializedData announces a new committee.
type CommitteeInitializedData struct {
	Members   int
	Threshold int
	Epoch     uint64
}

// ProposalData accompanies proposal lifecycle events.
type ProposalData struct {
	ProposalID uint64
	Action     string
	Approvals  int
	Ready      bool
}

// EpochAdvancedData carries the new epoch value.
type EpochAdvancedData struct {
	Epoch uint64
}

// MintSucceededData is the public face of an admitted mint.
type MintSucceededData struct {
	CommitmentX   [32]byte
	CommitmentY   [32]byte
	AuthorityHash [32]byte
	Nonce         uint64
	Epoch         uint64
}

// MintFailedData records a rejection for audit.
type MintFailedData struct {
	Reason string
	Nonce  uint64
}

// Bus fans events out to subscribers by type.
type Bus struct {
	mu      sync.RWMutex
	subs    map[EventType][]chan Event
	counter *prometheus.CounterVec
}

// NewBus creates an event bus. A nil registerer disables metrics.
func NewBus(reg prometheus.Registerer) *Bus {
	b := &Bus{subs: make(map[EventType][]chan Event)}
	if reg != nil {
		b.counter = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sovmint_events_total",
				Help: "Events published on the mint authorization bus",
			},
			[]string{"type"},
		)
		reg.MustRegister(b.counter)
	}
	return b
}

// Subscribe returns a buffered channel receiving the given event types.
func (b *Bus) Subscribe(types ...EventType) <-chan Event {
	ch := make(chan Event, subscriberQueueSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range types {
		b.subs[t] = append(b.subs[t], ch)
	}
	return ch
}

// Publish delivers an event to all subscribers of its type without
// blocking; full subscriber queues miss the event.
func (b *Bus) Publish(eventType EventType, data any) {
	if b == nil {
		return
	}
	evt := Event{Type: eventType, Timestamp: time.Now(), Data: data}
	if b.counter != nil {
		b.counter.WithLabelValues(string(eventType)).Inc()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs[eventType] {
		select {
		case ch <- evt:
		default:
		}
	}
}
