package holoware

// SpanArgs carries the parsed positional and keyword arguments of the tag
// that referenced a bound class, for the lifecycle methods below. Handle is
// copied from the span; the parser never sets a handle on a Class span, so
// for a ClassSpan it is empty.
type SpanArgs struct {
	Handle string
	Kargs  []string
	Kwargs map[string]string
}

// ClassFactory constructs one instance of a registered class for a single
// ClassSpan occurrence. Most registered classes only need this.
type ClassFactory func(args SpanArgs) (any, error)

// HoloInitializer is implemented by a class that needs a second
// initialization pass once all instantiation-phase bindings exist — the
// holoware analogue of a post-construct hook.
type HoloInitializer interface {
	HoloInit(args SpanArgs) (any, error)
}

// Holoer is implemented by a class that injects text directly, instead of
// delegating to a nested indented Template body.
type Holoer interface {
	Holo(phore *Phore, args SpanArgs) (string, error)
}

// HoloEnder is implemented by a class that needs to run cleanup once the
// whole template walk has finished.
type HoloEnder interface {
	HoloEnd(args SpanArgs) error
}

// capabilities resolves which of the three optional lifecycle interfaces an
// instance implements, once, right after construction. This is the whole
// of the dispatch: a static type switch per call site, never a reflection
// walk over method names or an embedding hierarchy.
type capabilities struct {
	holoInit HoloInitializer
	holo     Holoer
	holoEnd  HoloEnder
}

func resolveCapabilities(instance any) capabilities {
	var c capabilities
	if hi, ok := instance.(HoloInitializer); ok {
		c.holoInit = hi
	}
	if h, ok := instance.(Holoer); ok {
		c.holo = h
	}
	if he, ok := instance.(HoloEnder); ok {
		c.holoEnd = he
	}
	return c
}
