package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, source string) *Template {
	t.Helper()
	tmpl, err := NewParser(source, nil).Parse()
	require.NoError(t, err)
	return tmpl
}

func TestParser_PlainTextAloneNeedsNoRole(t *testing.T) {
	// Plain text with no special span never needs an explicit role: a
	// fresh Phore already defaults to the system role, so the parser
	// leaves it as a single Text span.
	tmpl := parse(t, "hello there")
	require.Len(t, tmpl.Spans, 1)
	assert.Equal(t, SpanText, tmpl.Spans[0].Kind)
	assert.Equal(t, "hello there", tmpl.Spans[0].Text)
}

func TestParser_LeadingTextGetsImplicitSystemRoleBeforeObjSpan(t *testing.T) {
	tmpl := parse(t, "hello <|name|>")
	require.Len(t, tmpl.Spans, 3)
	assert.Equal(t, SpanEgo, tmpl.Spans[0].Kind)
	assert.Equal(t, RoleSystem, tmpl.Spans[0].Role)
	assert.Equal(t, SpanText, tmpl.Spans[1].Kind)
	assert.Equal(t, SpanObj, tmpl.Spans[2].Kind)
}

func TestParser_EgoSigils(t *testing.T) {
	tmpl := parse(t, "<|x_x|>sys<|o_o|>user says hi<|@_@|>assistant replies")
	var roles []string
	for _, s := range tmpl.Spans {
		if s.Kind == SpanEgo {
			roles = append(roles, s.Role)
		}
	}
	assert.Equal(t, []string{RoleSystem, RoleUser, RoleAssistant}, roles)
}

func TestParser_DuplicateConsecutiveEgoIsNoOp(t *testing.T) {
	tmpl := parse(t, "<|o_o|>a<|o_o|>b")
	var egoCount int
	for _, s := range tmpl.Spans {
		if s.Kind == SpanEgo {
			egoCount++
		}
	}
	assert.Equal(t, 1, egoCount)
}

func TestParser_ResetSigils(t *testing.T) {
	tmpl := parse(t, "<|o_o|>a<|+++|>b<|===|>c")
	var resets []*Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanReset {
			resets = append(resets, s)
		}
	}
	require.Len(t, resets, 2)
	assert.True(t, resets[0].Train)
	assert.False(t, resets[1].Train)
}

func TestParser_ResetClearsEgoRequiringReassignment(t *testing.T) {
	_, err := NewParser("<|o_o|>a<|+++|><|Foo|>", nil).Parse()
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, ErrKindNoRoleForSpan, pe.Kind)
}

func TestParser_ObjSpan(t *testing.T) {
	tmpl := parse(t, "<|o_o|><|name|>")
	var obj *Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanObj {
			obj = s
		}
	}
	require.NotNil(t, obj)
	assert.Equal(t, []string{"name"}, obj.VarIDs)
}

func TestParser_ObjSpanMultipleIDs(t *testing.T) {
	tmpl := parse(t, "<|o_o|><|name|age|>")
	var obj *Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanObj {
			obj = s
		}
	}
	require.NotNil(t, obj)
	assert.Equal(t, []string{"name", "age"}, obj.VarIDs)
}

func TestParser_ClassSpanWithKargsAndKwargs(t *testing.T) {
	tmpl := parse(t, `<|o_o|><|Tool arg1 key=value|>`)
	var class *Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanClass {
			class = s
		}
	}
	require.NotNil(t, class)
	assert.Equal(t, "Tool", class.ClassName)
	assert.Equal(t, []string{"arg1"}, class.Kargs)
	assert.Equal(t, "value", class.Kwargs["key"])
}

func TestParser_ClassSpanWithIndentedBody(t *testing.T) {
	source := "<|o_o|><|Tool|>\n  nested text\n  <|name|>\nafter"
	tmpl := parse(t, source)
	var class *Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanClass {
			class = s
		}
	}
	require.NotNil(t, class)
	require.NotNil(t, class.Body)
	assert.NotEmpty(t, class.Body.Spans)
}

func TestParser_SampleSpanWithFence(t *testing.T) {
	tmpl := parse(t, `<|o_o fence=answer|>`)
	var sample *Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanSample {
			sample = s
		}
	}
	require.NotNil(t, sample)
	assert.Equal(t, "answer", sample.Fence)
}

func TestParser_SampleSpanWithAngleAttrShorthand(t *testing.T) {
	tmpl := parse(t, `<|o_o <>thought|>`)
	var sample *Span
	for _, s := range tmpl.Spans {
		if s.Kind == SpanSample {
			sample = s
		}
	}
	require.NotNil(t, sample)
	assert.Equal(t, "thought", sample.Fence)
}

func TestParser_EmptyAngleAttrErrors(t *testing.T) {
	_, err := NewParser(`<|o_o <>|>`, nil).Parse()
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, ErrKindEmptyAngleAttr, pe.Kind)
}

func TestParser_UnclosedTagErrors(t *testing.T) {
	_, err := NewParser(`<|o_o`, nil).Parse()
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, ErrKindUnclosedTag, pe.Kind)
}

func TestParser_EscapedTagIsLiteralText(t *testing.T) {
	tmpl := parse(t, `plain \<|o_o|> text`)
	var hasLiteral bool
	for _, s := range tmpl.Spans {
		if s.Kind == SpanText && s.Text == "plain <|o_o|> text" {
			hasLiteral = true
		}
	}
	assert.True(t, hasLiteral)
}

func TestFilterComments(t *testing.T) {
	out := FilterComments("line one\n  # a comment\nline two")
	assert.Equal(t, "line one\n\nline two", out)
}

func TestParser_TrainedContexts(t *testing.T) {
	tmpl := parse(t, "<|o_o|>a<|+++|>b<|===|>c")
	assert.Equal(t, []int{1}, tmpl.TrainedContexts())
}
