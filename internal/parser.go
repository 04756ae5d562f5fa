package internal

import (
	"strings"

	"go.uber.org/zap"
)

// egoSigils maps a role sigil to its normalized role name.
var egoSigils = map[string]string{
	SigilUser:      RoleUser,
	SigilAssistant: RoleAssistant,
	SigilSystem:    RoleSystem,
}

// Parser turns DSL source into a Template by walking it with a single
// cursor, in the style of a recursive-descent parser over raw source: the
// same (source, cursor) -> (*Template, newCursor) shape is used both at the
// top level and recursively for an indented class body.
type Parser struct {
	source string
	pos    int
	lex    *Lexer
	ware   *Template
	ego    string
	nextID int
	logger *zap.Logger
}

// NewParser constructs a parser over already comment-filtered source.
func NewParser(source string, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldSource, len(source)))
	return &Parser{
		source: source,
		lex:    NewLexer(source, logger),
		ware:   &Template{},
		logger: logger,
	}
}

// Parse runs the parser to completion and returns the resulting Template.
func (p *Parser) Parse() (*Template, error) {
	p.logger.Debug(LogMsgParseStart)

	for p.pos < len(p.source) {
		nextStart := p.lex.FindNextTagStart(p.pos)
		if nextStart == -1 {
			if err := p.parseText(p.source[p.pos:]); err != nil {
				return nil, err
			}
			break
		}

		if nextStart > p.pos {
			if err := p.parseText(p.source[p.pos:nextStart]); err != nil {
				return nil, err
			}
		}

		body, newPos, err := p.lex.ReadTagBody(nextStart + len(TagOpen))
		if err != nil {
			return nil, err
		}
		p.pos = newPos

		if err := p.parseSpanTag(body); err != nil {
			return nil, err
		}
	}

	p.finalizeTextSpans()
	p.logger.Debug(LogMsgParseEnd, zap.Int(LogFieldSpans, len(p.ware.Spans)))
	return p.ware, nil
}

func (p *Parser) parseText(text string) error {
	if text == "" {
		return nil
	}
	processed := UnescapeText(text)
	if processed == "" {
		return nil
	}
	return p.addSpan(&Span{Kind: SpanText, Text: processed})
}

// parseSpanTag dispatches one raw tag body to the grammar rule it matches,
// builds the resulting span(s), and for a ClassSpan attempts to consume a
// following indented block as its body.
func (p *Parser) parseSpanTag(raw string) error {
	tagContent := strings.TrimSpace(raw)
	if tagContent == "" {
		return nil
	}

	base, kargs, kwargs, err := parseSpanTagBody(tagContent)
	if err != nil {
		return err
	}
	if base == "" {
		return nil
	}

	switch {
	case isEgoOrSampler(base, kwargs):
		if err := p.buildEgoOrSampler(base, kargs, kwargs); err != nil {
			return err
		}
	case ResetSigils[base]:
		if err := p.addSpan(&Span{Kind: SpanReset, Train: base == TrainSigil}); err != nil {
			return err
		}
	case isUpperFirst(base):
		if err := p.addSpan(&Span{Kind: SpanClass, ClassName: base, Kargs: kargs, Kwargs: kwargs}); err != nil {
			return err
		}
	default:
		varIDs := splitVarIDs(base)
		if err := p.addSpan(&Span{Kind: SpanObj, VarIDs: varIDs, Kargs: kargs, Kwargs: kwargs}); err != nil {
			return err
		}
	}

	if last := p.lastSpan(); last != nil && last.Kind == SpanClass {
		body, newPos, err := p.parseIndentedBlock(p.pos)
		if err != nil {
			return err
		}
		if body != nil {
			last.Body = body
			p.pos = newPos
		}
	}
	return nil
}

// isEgoOrSampler matches a bare role sigil exactly, or any tag carrying a
// fence/angle-attr kwarg regardless of its base (a colon-suffixed role
// sigil, e.g. "o_o:id", only matches through the latter path).
func isEgoOrSampler(base string, kwargs map[string]string) bool {
	if _, ok := egoSigils[base]; ok {
		return true
	}
	if _, ok := kwargs[FenceKwarg]; ok {
		return true
	}
	if _, ok := kwargs[AngleAttrPrefix]; ok {
		return true
	}
	return false
}

func isUpperFirst(s string) bool {
	r := rune(s[0])
	return r >= 'A' && r <= 'Z'
}

func splitVarIDs(base string) []string {
	parts := strings.Split(base, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// buildEgoOrSampler handles "<|o_o|>"-style role sigils, optionally followed
// by a SampleSpan when the tag also carries a fence or angle-attr kwarg.
func (p *Parser) buildEgoOrSampler(base string, kargs []string, kwargs map[string]string) error {
	parts := strings.SplitN(base, ":", 2)
	sigil := parts[0]
	handle := ""
	if len(parts) > 1 {
		handle = parts[1]
	}

	role, ok := egoSigils[sigil]
	if !ok {
		role = sigil
	}
	if err := p.addSpan(&Span{Kind: SpanEgo, Role: role, Handle: handle}); err != nil {
		return err
	}

	fence := kwargs[AngleAttrPrefix]
	if fence == "" {
		fence = kwargs[FenceKwarg]
	}
	sampleKwargs := map[string]string{}
	for k, v := range kwargs {
		if k == AngleAttrPrefix || k == FenceKwarg {
			continue
		}
		sampleKwargs[k] = v
	}

	if fence == "" {
		// No fence: bare kargs/kwargs on a role sigil carry no sampler meaning.
		return nil
	}

	return p.addSpan(&Span{Kind: SpanSample, Handle: handle, Fence: fence, Kargs: kargs, Kwargs: sampleKwargs})
}

// addSpan applies the shared merge/ego-tracking rules the original grammar
// enforces on every appended span, then appends it when it survives.
func (p *Parser) addSpan(span *Span) error {
	last := p.lastSpan()
	isText := span.Kind == SpanText

	if p.ego == "" && (span.Kind == SpanSample || span.Kind == SpanObj || span.Kind == SpanClass) {
		p.insertImplicitSystemEgo()
		if p.ego == "" {
			return NewParseError(ErrKindNoRoleForSpan, "cannot have "+span.Kind.String()+" span before a role is set", Position{})
		}
	}

	switch span.Kind {
	case SpanEgo:
		if p.ego == span.Role {
			return nil
		}
		p.ego = span.Role
	case SpanReset:
		p.ego = ""
	}

	if isText && last != nil && last.Kind == SpanText {
		last.Text += span.Text
		return nil
	}

	if isText && last != nil && last.Kind != SpanText {
		span.Text = strings.TrimLeft(span.Text, " \t\r\n")
	}

	if isText && strings.TrimSpace(span.Text) == "" {
		return nil
	}

	span.ID = p.nextID
	p.nextID++
	p.ware.Spans = append(p.ware.Spans, span)
	return nil
}

// insertImplicitSystemEgo gives a template that opens with bare text (no
// explicit role sigil) an implicit system role, mirroring a reader's
// assumption that unattributed leading prose addresses the system.
func (p *Parser) insertImplicitSystemEgo() {
	if p.ego != "" {
		return
	}
	if len(p.ware.Spans) == 0 {
		return
	}
	first := p.ware.Spans[0]
	if first.Kind == SpanEgo || first.Kind == SpanReset {
		return
	}
	if first.Kind == SpanText && strings.TrimSpace(first.Text) != "" {
		egoSpan := &Span{Kind: SpanEgo, Role: RoleSystem, ID: p.nextID}
		p.nextID++
		p.ware.Spans = append([]*Span{egoSpan}, p.ware.Spans...)
		p.ego = RoleSystem
	}
}

func (p *Parser) lastSpan() *Span {
	if len(p.ware.Spans) == 0 {
		return nil
	}
	return p.ware.Spans[len(p.ware.Spans)-1]
}

// finalizeTextSpans merges any TextSpans left adjacent by the recursive
// parse (e.g. across a no-op tag) into one.
func (p *Parser) finalizeTextSpans() {
	merged := p.ware.Spans[:0]
	for _, s := range p.ware.Spans {
		if s.Kind == SpanText && len(merged) > 0 && merged[len(merged)-1].Kind == SpanText {
			merged[len(merged)-1].Text += s.Text
			continue
		}
		merged = append(merged, s)
	}
	p.ware.Spans = merged
}

// parseIndentedBlock reads the indented lines immediately following a class
// tag's own line, dedents them, and recursively parses them as the class's
// body template. It returns (nil, startPos) when no indented block follows.
func (p *Parser) parseIndentedBlock(startPos int) (*Template, int, error) {
	content, endPos := readIndentedBlockContent(p.source, startPos)
	if content == "" {
		return nil, startPos, nil
	}

	dedented := dedent(content)
	if strings.TrimSpace(dedented) == "" {
		return nil, endPos, nil
	}

	child := NewParser(dedented, p.logger)
	body, err := child.Parse()
	if err != nil {
		return nil, startPos, err
	}
	return body, endPos, nil
}

func readIndentedBlockContent(source string, startPos int) (string, int) {
	rest := source[startPos:]
	lines := splitLinesKeepEnds(rest)
	if len(lines) == 0 {
		return "", startPos
	}

	idx := 0
	pos := startPos
	if strings.TrimSpace(lines[0]) == "" {
		pos += len(lines[0])
		idx++
		if idx >= len(lines) {
			return "", pos
		}
	}

	firstLine := lines[idx]
	indentation := len(firstLine) - len(strings.TrimLeft(firstLine, " "))
	if indentation == 0 {
		return "", startPos
	}

	var block strings.Builder
	current := pos
	for ; idx < len(lines); idx++ {
		line := lines[idx]
		if strings.TrimSpace(line) == "" {
			block.WriteString(line)
			current += len(line)
			continue
		}
		lineIndent := len(line) - len(strings.TrimLeft(line, " "))
		if lineIndent >= indentation {
			block.WriteString(line)
			current += len(line)
		} else {
			break
		}
	}

	if block.Len() == 0 {
		return "", startPos
	}
	return block.String(), current
}

// splitLinesKeepEnds splits s into lines, each retaining its trailing
// newline (matching Python's str.splitlines(keepends=True)).
func splitLinesKeepEnds(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// dedent removes the common leading-space prefix shared by every
// non-blank line, the same normalization textwrap.dedent performs.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if common == -1 || indent < common {
			common = indent
		}
	}
	if common <= 0 {
		return s
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		if len(line) >= common {
			lines[i] = line[common:]
		} else {
			lines[i] = strings.TrimLeft(line, " ")
		}
	}
	return strings.Join(lines, "\n")
}

// FilterComments strips full-line comments (lines whose trimmed content
// starts with "#") from source before parsing.
func FilterComments(source string) string {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// parseSpanTagBody shell-tokenizes a tag's raw content into its base token
// plus positional and keyword arguments, honoring single/double quoting and
// the "<>value" angle-attribute shorthand.
func parseSpanTagBody(tag string) (string, []string, map[string]string, error) {
	parts, err := shellSplit(tag)
	if err != nil {
		return "", nil, nil, err
	}
	if len(parts) == 0 {
		return "", nil, nil, nil
	}

	base := parts[0]
	var kargs []string
	kwargs := map[string]string{}

	for _, part := range parts[1:] {
		switch {
		case strings.Contains(part, "="):
			kv := strings.SplitN(part, "=", 2)
			kwargs[kv[0]] = kv[1]
		case strings.HasPrefix(part, AngleAttrPrefix):
			if len(part) > len(AngleAttrPrefix) {
				kwargs[AngleAttrPrefix] = part[len(AngleAttrPrefix):]
			} else {
				return "", nil, nil, NewParseError(ErrKindEmptyAngleAttr, "empty <> attribute", Position{})
			}
		default:
			kargs = append(kargs, part)
		}
	}

	return base, kargs, kwargs, nil
}
