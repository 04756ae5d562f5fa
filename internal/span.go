package internal

import (
	"fmt"
	"strings"
)

// SpanKind is the closed set of span variants from spec.md §3.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanEgo
	SpanReset
	SpanObj
	SpanClass
	SpanSample
)

func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "Text"
	case SpanEgo:
		return "Ego"
	case SpanReset:
		return "Reset"
	case SpanObj:
		return "Obj"
	case SpanClass:
		return "Class"
	case SpanSample:
		return "Sample"
	default:
		return "Unknown"
	}
}

// Span is one node of a compiled Template's span tree. Every span carries a
// machine-unique ID (stable across one evaluation) and parsed
// positional/keyword arguments; Ego and Sample spans may also carry a human
// handle (the ":id" suffix on a tag base).
type Span struct {
	ID   int
	Kind SpanKind
	Pos  Position

	// Human-assigned identifier via "<|base:id ...|>". The parser sets it only
	// on Ego and Sample spans; for Obj and Class tags the ":id" suffix stays
	// part of the var id or class name.
	Handle string

	Kargs  []string
	Kwargs map[string]string

	// Text
	Text string

	// Ego
	Role string

	// Reset
	Train bool

	// Obj
	VarIDs []string

	// Class
	ClassName string
	Body      *Template // nil unless an indented body was attached

	// Sample
	Fence string
}

func (s *Span) String() string {
	switch s.Kind {
	case SpanText:
		return fmt.Sprintf("Text(%q)", ellipse(s.Text, 30))
	case SpanEgo:
		return fmt.Sprintf("Ego(%s)", s.Role)
	case SpanReset:
		return fmt.Sprintf("Reset(train=%v)", s.Train)
	case SpanObj:
		return fmt.Sprintf("Obj(%s)", strings.Join(s.VarIDs, "|"))
	case SpanClass:
		return fmt.Sprintf("Class(%s)", s.ClassName)
	case SpanSample:
		return fmt.Sprintf("Sample(fence=%s)", s.Fence)
	default:
		return "Span(?)"
	}
}

func ellipse(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Template is the compiled form of one DSL source file: metadata plus an
// ordered list of spans. A Template may be nested as a Class span's Body.
type Template struct {
	Name     string
	Path     string
	Spans    []*Span
}

// TrainedContexts returns the indices of contexts that follow a
// training-enabled Reset, per spec.md §3/§8 and the original implementation's
// trained_contexts property: the counter only advances on non-leading resets,
// so the implicit first context has index 0.
func (t *Template) TrainedContexts() []int {
	var out []int
	current := 0
	for i, s := range t.Spans {
		if s.Kind == SpanReset {
			if i > 0 {
				current++
			}
			if s.Train {
				out = append(out, current)
			}
		}
	}
	return out
}

// ObjIDs returns every variable id referenced by an Obj span in this template.
func (t *Template) ObjIDs() []string {
	var ids []string
	for _, s := range t.Spans {
		if s.Kind == SpanObj {
			ids = append(ids, s.VarIDs...)
		}
	}
	return ids
}

// Dump renders a plain-text indented tree of the span list for debugging,
// the non-terminal-UI analogue of the original implementation's rich tree view.
func (t *Template) Dump() string {
	var sb strings.Builder
	t.dump(&sb, 0)
	return sb.String()
}

func (t *Template) dump(sb *strings.Builder, depth int) {
	indent := strings.Repeat("  ", depth)
	for i, s := range t.Spans {
		fmt.Fprintf(sb, "%s[%d] %s\n", indent, i, s.String())
		if s.Kind == SpanClass && s.Body != nil {
			s.Body.dump(sb, depth+1)
		}
	}
}
