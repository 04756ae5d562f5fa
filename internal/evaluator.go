package internal

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Phore is the interface the Evaluator drives during a walk. The concrete
// implementation (the root package's Phore type) owns the rollout, the
// environment, and the class registry; the evaluator only ever talks to it
// through this seam, so internal never imports the root package.
type Phore interface {
	CurrentRole() string
	SetRole(role string)
	ResetContext()

	BeginSpan(spanID int)
	AddFrozen(text string)
	AddReinforced(text string)
	SpanText(spanID int) string
	PadSpan(spanID int, leadingNewlines, trailingNewlines int)
	RewriteSpanText(spanID int, text string)

	LookupVar(id string) (string, bool)
	AssignVar(id, value string)

	ResolveClass(name string) (ClassHandle, bool)
	BoundInstance(spanID int) (any, bool)
	BindInstance(spanID int, instance any)
	HasHolo(spanID int) bool
	InitInstance(ctx context.Context, handle ClassHandle, span *Span) (any, error)
	HoloInit(ctx context.Context, instance any, span *Span) (any, error)
	Holo(ctx context.Context, instance any, span *Span) (string, error)
	HoloEnd(ctx context.Context, instance any, span *Span) error

	Sample(ctx context.Context, stopSequences []string) (string, error)

	RecordError(err error)
	ErrorCount() int
}

// ClassHandle is an opaque reference to a registered bound-object type,
// resolved once by the Phore at registration time; the evaluator never
// inspects it, only passes it back for instantiation.
type ClassHandle any

var thinkTagPattern = regexp.MustCompile(`<think>\s*\n*\s*</think>`)

// Evaluator walks a Template's span tree through its three lifecycle
// phases: instantiation, main, and finalization.
type Evaluator struct {
	logger *zap.Logger
}

func NewEvaluator(logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{logger: logger}
}

// Evaluate runs all three phases of the template against phore.
func (e *Evaluator) Evaluate(ctx context.Context, tmpl *Template, phore Phore) error {
	e.logger.Debug(LogMsgEvaluatorStart, zap.Int(LogFieldSpans, len(tmpl.Spans)))

	if err := e.instantiate(ctx, tmpl, phore); err != nil {
		return err
	}
	if err := e.main(ctx, tmpl, phore); err != nil {
		return err
	}
	if err := e.finalize(ctx, tmpl, phore); err != nil {
		return err
	}

	e.logger.Debug(LogMsgEvaluatorEnd)
	return nil
}

// instantiate resolves every ClassSpan's bound class and constructs an
// instance (or binds the class itself for a static/holostatic registration),
// running the constructor and holo_init capabilities if present.
func (e *Evaluator) instantiate(ctx context.Context, tmpl *Template, phore Phore) error {
	e.logger.Debug(LogMsgPhaseStart, zap.String(LogFieldPhase, "instantiation"))
	for _, span := range tmpl.Spans {
		if span.Kind != SpanClass {
			continue
		}
		handle, ok := phore.ResolveClass(span.ClassName)
		if !ok {
			return NewClassSpanError(ErrKindClassNotFound, "class not found: "+span.ClassName, span.ClassName, span.Pos)
		}

		instance, err := phore.InitInstance(ctx, handle, span)
		if err != nil {
			phore.RecordError(err)
			continue
		}
		phore.BindInstance(span.ID, instance)

		updated, err := phore.HoloInit(ctx, instance, span)
		if err != nil {
			phore.RecordError(err)
			continue
		}
		if updated != nil {
			phore.BindInstance(span.ID, updated)
		}
	}
	return nil
}

// main walks every span in order, dispatching to its handler, then runs the
// whitespace optimization and think-tag collapse passes over the trailing
// window of already-rendered spans.
func (e *Evaluator) main(ctx context.Context, tmpl *Template, phore Phore) error {
	e.logger.Debug(LogMsgPhaseStart, zap.String(LogFieldPhase, "main"))
	for i, span := range tmpl.Spans {
		if err := e.dispatch(ctx, span, phore); err != nil {
			return err
		}
		// Span i has just been rendered, so the window centered on i-1
		// (left neighbor i-2, right neighbor i) is the most recent triple
		// whose text is fully available.
		e.optimizeBlock(tmpl, i-2, phore)
	}
	if phore.ErrorCount() > 0 {
		return NewParseError(ErrKindInstantiationFailed, "one or more classes failed to instantiate or samples failed", Position{})
	}
	return nil
}

// finalize re-scans every SampleSpan's rendered text and collapses an
// empty <think></think> pair down to its canonical form.
func (e *Evaluator) finalize(ctx context.Context, tmpl *Template, phore Phore) error {
	for _, span := range tmpl.Spans {
		if span.Kind != SpanSample {
			continue
		}
		text := phore.SpanText(span.ID)
		if text == "" {
			continue
		}
		if collapsed := thinkTagPattern.ReplaceAllString(text, "<think></think>"); collapsed != text {
			phore.RewriteSpanText(span.ID, collapsed)
			e.logger.Debug(LogMsgThinkCollapse, zap.Int(LogFieldSpan, span.ID))
		}
	}
	return nil
}

func (e *Evaluator) dispatch(ctx context.Context, span *Span, phore Phore) error {
	e.logger.Debug(LogMsgSpanDispatched, zap.Int(LogFieldSpan, span.ID), zap.String(LogFieldClass, span.Kind.String()))
	phore.BeginSpan(span.ID)

	switch span.Kind {
	case SpanText:
		phore.AddFrozen(span.Text)

	case SpanObj:
		for _, id := range span.VarIDs {
			value, ok := phore.LookupVar(id)
			if !ok {
				continue
			}
			phore.AddFrozen("<obj id=" + id + ">")
			phore.AddFrozen(value)
			phore.AddFrozen("</obj>")
			phore.AddFrozen("\n")
		}

	case SpanSample:
		return e.dispatchSample(ctx, span, phore)

	case SpanReset:
		phore.ResetContext()
		phore.SetRole(RoleSystem)

	case SpanEgo:
		phore.SetRole(span.Role)

	case SpanClass:
		return e.dispatchClass(ctx, span, phore)
	}
	return nil
}

func (e *Evaluator) dispatchSample(ctx context.Context, span *Span, phore Phore) error {
	if span.Fence != "" {
		phore.AddFrozen("<" + span.Fence + ">")
	}

	var stopSequences []string
	if span.Fence != "" {
		stopSequences = append(stopSequences, "</"+span.Fence+">")
	}

	sample, err := phore.Sample(ctx, stopSequences)
	if err != nil {
		e.logger.Debug(LogMsgSampleFailed, zap.String("error", err.Error()))
		phore.RecordError(err)
		return nil
	}

	text := sample
	if span.Fence != "" {
		closeTag := "</" + span.Fence + ">"
		if !strings.HasSuffix(sample, closeTag) {
			text = sample + closeTag
		}
	}
	phore.AddReinforced(text)

	if span.Handle != "" {
		payload := stripFence(sample, span.Fence)
		phore.AssignVar(span.Handle, strings.TrimSpace(payload))
	}
	return nil
}

func stripFence(payload, fence string) string {
	if fence == "" {
		return payload
	}
	open := "<" + fence + ">"
	closeTag := "</" + fence + ">"
	if strings.HasPrefix(payload, open) && strings.HasSuffix(payload, closeTag) {
		return payload[len(open) : len(payload)-len(closeTag)]
	}
	payload = strings.TrimSuffix(payload, closeTag)
	payload = strings.TrimPrefix(payload, open)
	return payload
}

func (e *Evaluator) dispatchClass(ctx context.Context, span *Span, phore Phore) error {
	instance, ok := phore.BoundInstance(span.ID)
	if ok && instance != nil && phore.HasHolo(span.ID) {
		text, err := phore.Holo(ctx, instance, span)
		if err != nil {
			return err
		}
		if text != "" {
			phore.AddFrozen(text)
		}
		return nil
	}
	if span.Body != nil {
		return e.Evaluate(ctx, span.Body, phore)
	}
	return NewClassSpanError(ErrKindEmptyClassSpan, "nothing to be done for class span "+span.ClassName, span.ClassName, span.Pos)
}

// optimizeBlock implements the 3-span sliding window whitespace fixup: when
// the middle span of the window looks like it renders a tag-shaped block
// (an <obj>/<think>/... pair), it ensures at least three newlines separate
// it from its rendered neighbors on both sides.
func (e *Evaluator) optimizeBlock(tmpl *Template, i int, phore Phore) {
	if i < 0 || i+2 >= len(tmpl.Spans) {
		return
	}
	s1 := strings.TrimSpace(phore.SpanText(tmpl.Spans[i].ID))
	s2 := phore.SpanText(tmpl.Spans[i+1].ID)
	s3 := strings.TrimSpace(phore.SpanText(tmpl.Spans[i+2].ID))
	trimmed2 := strings.TrimSpace(s2)

	if !looksLikeTagBlock(trimmed2) {
		return
	}

	lc := countTrailingNewlines(s1) + countLeadingNewlines(s2)
	rc := countTrailingNewlines(s2) + countLeadingNewlines(s3)

	leadPad := 3 - lc
	if leadPad < 0 {
		leadPad = 0
	}
	trailPad := 3 - rc
	if trailPad < 0 {
		trailPad = 0
	}
	if leadPad == 0 && trailPad == 0 {
		return
	}

	e.logger.Debug(LogMsgWhitespaceOpt, zap.Int(LogFieldSpan, tmpl.Spans[i+1].ID))
	phore.PadSpan(tmpl.Spans[i+1].ID, leadPad, trailPad)
}

var tagBlockPattern = regexp.MustCompile(`(?s)<(\w+)[^>]*>.*?</\w+>|<obj\s+id=.*?>`)

func looksLikeTagBlock(s string) bool {
	return tagBlockPattern.MatchString(s)
}

func countTrailingNewlines(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\n'; i-- {
		n++
	}
	return n
}

func countLeadingNewlines(s string) int {
	n := 0
	for i := 0; i < len(s) && s[i] == '\n'; i++ {
		n++
	}
	return n
}
