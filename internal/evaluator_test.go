package internal

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePhore is a minimal, in-memory internal.Phore for exercising the
// Evaluator without pulling in the root package (which imports internal,
// so a real Phore can't be used from here without a cycle).
type fakePhore struct {
	role      string
	fragments map[int][]string
	bindings  map[int]any
	sampleFn  func(stopSequences []string) (string, error)
	resolveFn func(name string) (ClassHandle, bool)
	errs      []error
}

func newFakePhore() *fakePhore {
	return &fakePhore{
		role:      RoleSystem,
		fragments: map[int][]string{},
		bindings:  map[int]any{},
	}
}

func (p *fakePhore) CurrentRole() string   { return p.role }
func (p *fakePhore) SetRole(role string)   { p.role = role }
func (p *fakePhore) ResetContext()         {}
func (p *fakePhore) BeginSpan(spanID int)  {}
func (p *fakePhore) AddFrozen(text string) { p.activeAppend(text) }
func (p *fakePhore) AddReinforced(text string) {
	p.activeAppend(text)
}

var currentSpanKey int = -1

func (p *fakePhore) activeAppend(text string) {
	p.fragments[currentSpanKey] = append(p.fragments[currentSpanKey], text)
}

func (p *fakePhore) SpanText(spanID int) string {
	return strings.Join(p.fragments[spanID], "")
}
func (p *fakePhore) PadSpan(spanID int, leadingNewlines, trailingNewlines int) {}

func (p *fakePhore) RewriteSpanText(spanID int, text string) {
	p.fragments[spanID] = []string{text}
}

func (p *fakePhore) LookupVar(id string) (string, bool) { return "", false }
func (p *fakePhore) AssignVar(id, value string)         {}

func (p *fakePhore) ResolveClass(name string) (ClassHandle, bool) {
	if p.resolveFn != nil {
		return p.resolveFn(name)
	}
	return nil, false
}
func (p *fakePhore) BoundInstance(spanID int) (any, bool) {
	v, ok := p.bindings[spanID]
	return v, ok
}
func (p *fakePhore) BindInstance(spanID int, instance any) { p.bindings[spanID] = instance }
func (p *fakePhore) HasHolo(spanID int) bool                { return false }
func (p *fakePhore) InitInstance(ctx context.Context, handle ClassHandle, span *Span) (any, error) {
	return handle, nil
}
func (p *fakePhore) HoloInit(ctx context.Context, instance any, span *Span) (any, error) {
	return nil, nil
}
func (p *fakePhore) Holo(ctx context.Context, instance any, span *Span) (string, error) {
	return "", nil
}
func (p *fakePhore) HoloEnd(ctx context.Context, instance any, span *Span) error { return nil }

func (p *fakePhore) Sample(ctx context.Context, stopSequences []string) (string, error) {
	if p.sampleFn != nil {
		return p.sampleFn(stopSequences)
	}
	return "sampled", nil
}

func (p *fakePhore) RecordError(err error) { p.errs = append(p.errs, err) }
func (p *fakePhore) ErrorCount() int       { return len(p.errs) }

func TestEvaluator_TextSpan(t *testing.T) {
	tmpl, err := NewParser("hello there", nil).Parse()
	require.NoError(t, err)

	phore := newFakePhore()
	// fakePhore.activeAppend keys everything under one bucket since
	// BeginSpan is a no-op here; good enough to assert total rendered text.
	err = NewEvaluator(nil).Evaluate(context.Background(), tmpl, phore)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(phore.fragments[-1], ""), "hello there")
}

func TestEvaluator_SampleSpanWithFence(t *testing.T) {
	tmpl, err := NewParser(`<|o_o fence=answer|>`, nil).Parse()
	require.NoError(t, err)

	phore := newFakePhore()
	phore.sampleFn = func(stop []string) (string, error) {
		assert.Equal(t, []string{"</answer>"}, stop)
		return "42", nil
	}

	err = NewEvaluator(nil).Evaluate(context.Background(), tmpl, phore)
	require.NoError(t, err)
	rendered := strings.Join(phore.fragments[-1], "")
	assert.Contains(t, rendered, "<answer>")
	assert.Contains(t, rendered, "42")
	assert.Contains(t, rendered, "</answer>")
}

func TestEvaluator_ClassSpanWithoutBodyOrHoloErrors(t *testing.T) {
	tmpl := &Template{Spans: []*Span{
		{ID: 0, Kind: SpanEgo, Role: RoleSystem},
		{ID: 1, Kind: SpanClass, ClassName: "Bare"},
	}}
	phore := newFakePhore()
	phore.resolveFn = func(name string) (ClassHandle, bool) { return name, true }
	err := NewEvaluator(nil).Evaluate(context.Background(), tmpl, phore)
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, ErrKindEmptyClassSpan, pe.Kind)
}

func TestEvaluator_ClassSpanWithBodyRecurses(t *testing.T) {
	body := &Template{Spans: []*Span{
		{ID: 10, Kind: SpanText, Text: "nested"},
	}}
	tmpl := &Template{Spans: []*Span{
		{ID: 0, Kind: SpanEgo, Role: RoleSystem},
		{ID: 1, Kind: SpanClass, ClassName: "Wrapper", Body: body},
	}}
	phore := newFakePhore()
	phore.resolveFn = func(name string) (ClassHandle, bool) { return name, true }

	err := NewEvaluator(nil).Evaluate(context.Background(), tmpl, phore)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(phore.fragments[-1], ""), "nested")
}
