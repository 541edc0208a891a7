package overlay

// EventKind classifies a structural or override change.
type EventKind int

const (
	// EventUnknown guards against zero-valued events.
	EventUnknown EventKind = iota
	// EventKeyAdded fires after a key (and its record) enters the store.
	EventKeyAdded
	// EventKeyRemoved fires after a key and every override for it left the store.
	EventKeyRemoved
	// EventBaseChanged fires after the base value of an existing key changed.
	EventBaseChanged
	// EventOverrideSet fires after a view set or replaced its override.
	EventOverrideSet
	// EventOverrideRemoved fires after a view dropped its override.
	EventOverrideRemoved
)

func (k EventKind) String() string {
	switch k {
	case EventKeyAdded:
		return "key.added"
	case EventKeyRemoved:
		return "key.removed"
	case EventBaseChanged:
		return "key.updated"
	case EventOverrideSet:
		return "override.updated"
	case EventOverrideRemoved:
		return "override.removed"
	default:
		return "unknown"
	}
}

// Event describes a committed mutation. View is the zero ViewID for
// store-level events. Removed carries the dropped override on
// EventOverrideRemoved and is nil otherwise.
type Event[K comparable] struct {
	Kind    EventKind
	Key     K
	View    ViewID
	Removed any
}

// Observer receives events synchronously after the mutation took effect.
type Observer[K comparable] interface {
	Notify(Event[K])
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc[K comparable] func(Event[K])

// Notify implements Observer.
func (f ObserverFunc[K]) Notify(event Event[K]) {
	if f != nil {
		f(event)
	}
}

type observerEntry[K comparable] struct {
	id       uint64
	observer Observer[K]
}

// observerList fans out events in registration order.
type observerList[K comparable] struct {
	entries []observerEntry[K]
	nextID  uint64
}

func (l *observerList[K]) add(observer Observer[K]) func() {
	if observer == nil {
		return func() {}
	}
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, observerEntry[K]{id: id, observer: observer})
	return func() {
		for i, entry := range l.entries {
			if entry.id == id {
				l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

func (l *observerList[K]) notify(event Event[K]) {
	if len(l.entries) == 0 {
		return
	}
	// observers may cancel themselves while being notified
	snapshot := l.entries
	for _, entry := range snapshot {
		entry.observer.Notify(event)
	}
}

func (l *observerList[K]) len() int {
	return len(l.entries)
}
