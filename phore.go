package holoware

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/holoware-dev/holoware-go/internal"
)

// Phore is the mutable state an Evaluator drives while walking one
// Template: the rollout being built, the data environment, resolved class
// bindings, and per-span fragment bookkeeping for the whitespace
// optimization pass. It implements internal.Phore, but is never imported
// by the internal package — the dependency points one way only.
//
// Phore is deliberately a separate type from Rollout: the Rollout is the
// durable record a caller inspects once evaluation finishes, Phore is the
// run-scoped machinery that produces it. Neither proxies attribute access
// to the other.
type Phore struct {
	mu sync.Mutex

	rollout  *Rollout
	env      map[string]any
	registry *ClassRegistry
	sampler  Sampler
	logger   *zap.Logger

	role string

	spanFragments map[int][]fragRef
	spanBindings  map[int]any
	spanCaps      map[int]capabilities
	activeSpanID  *int
	errs          []error
}

// NewPhore constructs run state for evaluating against rollout, using env
// as the data environment, registry to resolve ClassSpan bindings, and
// sampler to service SampleSpans.
func NewPhore(rollout *Rollout, env map[string]any, registry *ClassRegistry, sampler Sampler, logger *zap.Logger) *Phore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if env == nil {
		env = map[string]any{}
	}
	return &Phore{
		rollout:       rollout,
		env:           env,
		registry:      registry,
		sampler:       sampler,
		logger:        logger,
		role:          RoleSystem,
		spanFragments: make(map[int][]fragRef),
		spanBindings:  make(map[int]any),
		spanCaps:      make(map[int]capabilities),
	}
}

func (p *Phore) CurrentRole() string { return p.role }

func (p *Phore) SetRole(role string) { p.role = role }

func (p *Phore) ResetContext() { p.rollout.NewContext() }

// fragRef points at one fragment still live inside a Context's Fragments
// slice, so PadSpan and the evaluator's whitespace pass mutate the same
// storage ToAPIMessages/ToCompletionString later read, instead of a
// detached copy.
type fragRef struct {
	ctx *Context
	idx int
}

func (r fragRef) get() *Frag { return &r.ctx.Fragments[r.idx] }

func (p *Phore) recordFrag(spanID int, ref fragRef) {
	p.spanFragments[spanID] = append(p.spanFragments[spanID], ref)
}

func (p *Phore) addFrag(text string, mask FragMask) {
	ctx := p.rollout.ActiveContext()
	idx := len(ctx.Fragments)
	ctx.AddFrag(p.role, text, mask)
	if p.activeSpanID != nil {
		p.recordFrag(*p.activeSpanID, fragRef{ctx: ctx, idx: idx})
	}
}

func (p *Phore) AddFrozen(text string) {
	p.addFrag(text, FragFrozen)
}

func (p *Phore) AddReinforced(text string) {
	p.addFrag(text, FragReinforce)
}

// BeginSpan is called by the Evaluator immediately before dispatching a
// span, so fragments it produces can be attributed for PadSpan/SpanText.
func (p *Phore) BeginSpan(spanID int) {
	id := spanID
	p.activeSpanID = &id
}

func (p *Phore) SpanText(spanID int) string {
	refs, ok := p.spanFragments[spanID]
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, ref := range refs {
		b.WriteString(ref.get().Text)
	}
	return b.String()
}

func (p *Phore) PadSpan(spanID int, leadingNewlines, trailingNewlines int) {
	refs, ok := p.spanFragments[spanID]
	if !ok || len(refs) == 0 {
		return
	}
	if leadingNewlines > 0 {
		first := refs[0].get()
		first.Text = strings.Repeat("\n", leadingNewlines) + first.Text
	}
	if trailingNewlines > 0 {
		last := refs[len(refs)-1].get()
		last.Text = last.Text + strings.Repeat("\n", trailingNewlines)
	}
}

// RewriteSpanText writes the given text into the first fragment a span
// produced, keeping that fragment's role and mask, and empties the text of
// the span's remaining fragments (they stay in the context). Used by the
// think-tag collapse, which operates on a span's full rendered text rather
// than per-fragment.
func (p *Phore) RewriteSpanText(spanID int, text string) {
	refs, ok := p.spanFragments[spanID]
	if !ok || len(refs) == 0 {
		return
	}
	first := refs[0].get()
	first.Text = text
	for _, ref := range refs[1:] {
		ref.get().Text = ""
	}
}

func (p *Phore) LookupVar(id string) (string, bool) {
	v, ok := p.env[id]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

func (p *Phore) AssignVar(id, value string) {
	p.env[id] = value
}

func (p *Phore) ResolveClass(name string) (internal.ClassHandle, bool) {
	if v, ok := p.env[name]; ok {
		return v, true
	}
	if p.registry == nil {
		return nil, false
	}
	return p.registry.lookup(name)
}

func (p *Phore) BoundInstance(spanID int) (any, bool) {
	v, ok := p.spanBindings[spanID]
	return v, ok
}

func (p *Phore) BindInstance(spanID int, instance any) {
	p.spanBindings[spanID] = instance
	p.spanCaps[spanID] = resolveCapabilities(instance)
}

func (p *Phore) HasHolo(spanID int) bool {
	return p.spanCaps[spanID].holo != nil
}

func spanArgsOf(span *internal.Span) SpanArgs {
	return SpanArgs{Handle: span.Handle, Kargs: span.Kargs, Kwargs: span.Kwargs}
}

func (p *Phore) InitInstance(ctx context.Context, handle internal.ClassHandle, span *internal.Span) (any, error) {
	switch h := handle.(type) {
	case *classEntry:
		if h.holostatic {
			return h.static, nil
		}
		if h.factory == nil {
			return nil, newClassNotFoundError(span.ClassName)
		}
		return h.factory(spanArgsOf(span))
	default:
		// A class resolved directly from the data environment is used as-is.
		return handle, nil
	}
}

func (p *Phore) HoloInit(ctx context.Context, instance any, span *internal.Span) (any, error) {
	caps := resolveCapabilities(instance)
	if caps.holoInit == nil {
		return nil, nil
	}
	return caps.holoInit.HoloInit(spanArgsOf(span))
}

func (p *Phore) Holo(ctx context.Context, instance any, span *internal.Span) (string, error) {
	caps, ok := p.spanCaps[span.ID]
	if !ok {
		caps = resolveCapabilities(instance)
	}
	if caps.holo == nil {
		return "", nil
	}
	return caps.holo.Holo(p, spanArgsOf(span))
}

func (p *Phore) HoloEnd(ctx context.Context, instance any, span *internal.Span) error {
	caps := resolveCapabilities(instance)
	if caps.holoEnd == nil {
		return nil
	}
	return caps.holoEnd.HoloEnd(spanArgsOf(span))
}

func (p *Phore) Sample(ctx context.Context, stopSequences []string) (string, error) {
	if p.sampler == nil {
		return "", newSamplerMissingError()
	}
	text, err := p.sampler.Sample(ctx, p.rollout, stopSequences)
	if err != nil {
		return "", newSampleError(err)
	}
	return text, nil
}

func (p *Phore) RecordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs = append(p.errs, err)
}

func (p *Phore) ErrorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.errs)
}

// Errors returns every error recorded during instantiation or sampling.
func (p *Phore) Errors() []error {
	return p.errs
}

// Rollout returns the rollout this run is writing to.
func (p *Phore) Rollout() *Rollout { return p.rollout }

// RunHoloEnd invokes HoloEnd on every bound instance that implements it,
// the finalization-phase bookend to instantiation's HoloInit.
func (p *Phore) RunHoloEnd(ctx context.Context, tmpl *internal.Template) error {
	for _, span := range tmpl.Spans {
		instance, ok := p.spanBindings[span.ID]
		if !ok {
			continue
		}
		if err := p.HoloEnd(ctx, instance, span); err != nil {
			return err
		}
	}
	return nil
}
