package holoware

// Rollout is the append-only sequence of contexts produced by evaluating a
// Template: one context per training sample, separated by context-reset
// spans. Rollout and Phore are kept as two distinct types on purpose —
// Rollout is the durable record a caller inspects after evaluation, Phore
// is the mutable run state the Evaluator drives while producing it.
type Rollout struct {
	Contexts []*Context
}

// NewRollout returns a Rollout seeded with one empty context, matching the
// implicit first context every template starts in before any reset span.
func NewRollout() *Rollout {
	return &Rollout{Contexts: []*Context{{}}}
}

// ActiveContext returns the context currently being written to.
func (r *Rollout) ActiveContext() *Context {
	if len(r.Contexts) == 0 {
		r.Contexts = append(r.Contexts, &Context{})
	}
	return r.Contexts[len(r.Contexts)-1]
}

// NewContext starts a fresh context, ending the active one.
func (r *Rollout) NewContext() *Context {
	ctx := &Context{}
	r.Contexts = append(r.Contexts, ctx)
	return ctx
}

// AddFrag appends a fragment to the active context.
func (r *Rollout) AddFrag(role string, mask FragMask, text string) Frag {
	return r.ActiveContext().AddFrag(role, text, mask)
}

// TrainedContexts returns the Contexts at the indices a Template's
// TrainedContexts() named, skipping any index beyond what this rollout
// actually produced (a template walk that errored early, say).
func (r *Rollout) TrainedContexts(indices []int) []*Context {
	out := make([]*Context, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(r.Contexts) {
			out = append(out, r.Contexts[i])
		}
	}
	return out
}
