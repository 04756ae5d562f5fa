package holoware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holoware-dev/holoware-go/internal"
)

func TestPhore_DefaultsToSystemRole(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	assert.Equal(t, RoleSystem, p.CurrentRole())
}

func TestPhore_AddFrozenAndReinforced(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	p.SetRole(RoleUser)
	p.BeginSpan(1)
	p.AddFrozen("hi")
	p.AddReinforced(" there")

	assert.Equal(t, "hi there", p.SpanText(1))
	assert.Len(t, p.Rollout().ActiveContext().Fragments, 2)
}

func TestPhore_PadSpan(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	p.BeginSpan(1)
	p.AddFrozen("body")
	p.PadSpan(1, 2, 1)
	assert.Equal(t, "\n\nbody\n", p.SpanText(1))
}

func TestPhore_PadSpan_NoFragmentsIsNoOp(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	p.PadSpan(99, 2, 2)
	assert.Equal(t, "", p.SpanText(99))
}

func TestPhore_LookupAndAssignVar(t *testing.T) {
	p := NewPhore(NewRollout(), map[string]any{"name": "ada"}, nil, nil, nil)
	v, ok := p.LookupVar("name")
	require.True(t, ok)
	assert.Equal(t, "ada", v)

	_, ok = p.LookupVar("missing")
	assert.False(t, ok)

	p.AssignVar("greeting", "hi")
	v, ok = p.LookupVar("greeting")
	require.True(t, ok)
	assert.Equal(t, "hi", v)
}

func TestPhore_ResolveClass_PrefersEnvOverRegistry(t *testing.T) {
	registry := NewClassRegistry()
	require.NoError(t, registry.RegisterClass("Tool", func(SpanArgs) (any, error) { return "from-registry", nil }))

	p := NewPhore(NewRollout(), map[string]any{"Tool": "from-env"}, registry, nil, nil)
	handle, ok := p.ResolveClass("Tool")
	require.True(t, ok)
	assert.Equal(t, "from-env", handle)
}

func TestPhore_ResolveClass_FallsBackToRegistry(t *testing.T) {
	registry := NewClassRegistry()
	require.NoError(t, registry.RegisterClass("Tool", func(SpanArgs) (any, error) { return "instance", nil }))

	p := NewPhore(NewRollout(), nil, registry, nil, nil)
	handle, ok := p.ResolveClass("Tool")
	require.True(t, ok)

	instance, err := p.InitInstance(context.Background(), handle, &internal.Span{})
	require.NoError(t, err)
	assert.Equal(t, "instance", instance)
}

func TestPhore_BindInstance_ResolvesCapabilities(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	p.BindInstance(1, capHoloOnly{})
	assert.True(t, p.HasHolo(1))

	instance, ok := p.BoundInstance(1)
	require.True(t, ok)
	assert.Equal(t, capHoloOnly{}, instance)
}

func TestPhore_Sample_NoSamplerErrors(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	_, err := p.Sample(context.Background(), nil)
	assert.Error(t, err)
}

type stubSampler struct {
	text string
	err  error
}

func (s stubSampler) Sample(ctx context.Context, rollout *Rollout, stopSequences []string) (string, error) {
	return s.text, s.err
}

func TestPhore_Sample_DelegatesToSampler(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, stubSampler{text: "answer"}, nil)
	text, err := p.Sample(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestPhore_RecordErrorAndErrorCount(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	assert.Equal(t, 0, p.ErrorCount())
	p.RecordError(assert.AnError)
	p.RecordError(assert.AnError)
	assert.Equal(t, 2, p.ErrorCount())
	assert.Len(t, p.Errors(), 2)
}

func TestPhore_RunHoloEnd_InvokesOnBoundInstances(t *testing.T) {
	p := NewPhore(NewRollout(), nil, nil, nil, nil)
	p.BindInstance(1, capEndOnly{})

	tmpl := &internal.Template{Spans: []*internal.Span{{ID: 1, Kind: internal.SpanClass}}}
	err := p.RunHoloEnd(context.Background(), tmpl)
	assert.NoError(t, err)
}
