package playback

// Message is anything that can travel from a producer (the poller or the
// signal watcher) to the status publisher. The set of messages is closed.
type Message interface {
	message()
}

// Playing means the listener is currently playing Track.
type Playing struct {
	Track Track
}

// Idle means nothing is playing right now.
type Idle struct{}

// Shutdown asks the publisher to stop. When Graceful is set the publisher
// restores the status it found at startup before it exits, otherwise it
// exits straight away without touching the remote status again.
type Shutdown struct {
	Graceful bool
}

func (Playing) message()  {}
func (Idle) message()     {}
func (Shutdown) message() {}

// FromTrack turns the result of a poll into a message
func FromTrack(t *Track) Message {
	if t == nil {
		return Idle{}
	}
	return Playing{Track: *t}
}

// Kind is a short, stable label for a message
func Kind(m Message) string {
	switch m := m.(type) {
	case Playing:
		return "playing"
	case Idle:
		return "idle"
	case Shutdown:
		if m.Graceful {
			return "shutdown"
		}
		return "abort"
	default:
		return "unknown"
	}
}
