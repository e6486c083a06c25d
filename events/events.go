// Package events implements the in-process fan-out of the signals emitted by
// the voting session, so that external observers (signal journal, loggers)
// do not need to poll the session state.
package events

import (
	"sync"

	"github.com/mickablondo/voting-node/types"
)

// subscriptionBuffer sets the channel buffer of a subscription. Observers
// are expected to consume from their own goroutine; the buffer only absorbs
// short bursts.
const subscriptionBuffer = 64

// Manager routes the emitted signals to the channels subscribed to them
type Manager struct {
	sync.Mutex
	subscribers map[string][]chan types.Signal
}

// NewManager returns an empty *Manager
func NewManager() *Manager {
	return &Manager{
		subscribers: make(map[string][]chan types.Signal),
	}
}

// Subscribe returns a channel that will receive every signal emitted under
// any of the given signal names
func (m *Manager) Subscribe(names ...string) <-chan types.Signal {
	m.Lock()
	defer m.Unlock()

	ch := make(chan types.Signal, subscriptionBuffer)
	for _, name := range names {
		m.subscribers[name] = append(m.subscribers[name], ch)
	}
	return ch
}

// SubscribeAll returns a channel that will receive every signal emitted by
// the voting session
func (m *Manager) SubscribeAll() <-chan types.Signal {
	return m.Subscribe(types.SignalVoterRegistered, types.SignalPhaseChanged,
		types.SignalProposalRegistered, types.SignalVoteCast)
}

// Emit delivers the given signal to every channel subscribed to its name
func (m *Manager) Emit(signal types.Signal) {
	m.Lock()
	defer m.Unlock()

	for _, ch := range m.subscribers[signal.SignalName()] {
		ch <- signal
	}
}
