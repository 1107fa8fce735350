package progress

// Event is one parsed key[=value] unit from the progress connection.
type Event struct {
	Key      string
	Value    string
	HasValue bool
}

// Handler consumes progress events. Implementations are invoked from the
// listener's connection goroutine, one event at a time, in wire order.
type Handler interface {
	HandleEvent(Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(Event)

func (f HandlerFunc) HandleEvent(event Event) { f(event) }
