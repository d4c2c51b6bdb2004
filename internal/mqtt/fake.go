package mqtt

import "github.com/sweeney/launch-controller/internal/logic"

// FakePublisher records launch transitions and system events in memory.
type FakePublisher struct {
	Transitions  []Transition
	SystemEvents []SystemEvent

	// Payloads and SystemPayloads hold the encoded JSON, in publish order.
	Payloads       [][]byte
	SystemPayloads [][]byte

	// Fail Publish or PublishSystem without recording.
	PublishError       error
	PublishSystemError error

	Connected bool
	Closed    bool
}

// NewFakePublisher creates an empty FakePublisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records t and its payload.
func (f *FakePublisher) Publish(t Transition) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(t)
	if err != nil {
		return err
	}
	f.Transitions = append(f.Transitions, t)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records event and its payload.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// Close marks the fake closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// States returns the target state of every recorded transition.
func (f *FakePublisher) States() []logic.State {
	out := make([]logic.State, 0, len(f.Transitions))
	for _, t := range f.Transitions {
		out = append(out, t.Event.To)
	}
	return out
}

// Entered returns the most recent transition into s.
func (f *FakePublisher) Entered(s logic.State) (Transition, bool) {
	for i := len(f.Transitions) - 1; i >= 0; i-- {
		if f.Transitions[i].Event.To == s {
			return f.Transitions[i], true
		}
	}
	return Transition{}, false
}

// Last returns the most recent transition.
func (f *FakePublisher) Last() (Transition, bool) {
	if len(f.Transitions) == 0 {
		return Transition{}, false
	}
	return f.Transitions[len(f.Transitions)-1], true
}

// System returns the recorded system events named name, e.g. "SHUTDOWN".
func (f *FakePublisher) System(name string) []SystemEvent {
	var out []SystemEvent
	for _, e := range f.SystemEvents {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears everything recorded and any injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{}
}
