package holoware

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/holoware-dev/holoware-go/internal"
)

// yamlFrontmatterDelimiter marks the opening and closing line of an
// optional metadata block at the top of a template source file.
const yamlFrontmatterDelimiter = "---"

// Template is the compiled, evaluable form of one template source: an
// internal.Template span tree plus whatever descriptive metadata its
// optional YAML frontmatter declared. The evaluator never reads Metadata;
// it exists purely for callers (a loader, a CLI, an agent framework) that
// want to know the model/inputs a template was authored against.
type Template struct {
	Name     string
	Path     string
	Metadata map[string]any

	tree      *internal.Template
	rawSource string
}

// Compile parses source (after stripping any YAML frontmatter and
// full-line comments) into a Template. name is attached for error
// messages and cache keys; it need not be a filesystem path.
func Compile(name, source string) (*Template, error) {
	meta, body, err := splitFrontmatter(source)
	if err != nil {
		return nil, err
	}

	filtered := internal.FilterComments(body)
	parser := internal.NewParser(filtered, nil)
	tree, err := parser.Parse()
	if err != nil {
		return nil, wrapParseError(err)
	}
	tree.Name = name

	return &Template{
		Name:      name,
		Metadata:  meta,
		tree:      tree,
		rawSource: source,
	}, nil
}

// splitFrontmatter extracts an optional "---\nkey: value\n---\n" metadata
// block from the head of source, the same shape the teacher's v2.1
// document parser recognizes, generalized to a plain key/value map since a
// holoware template has no fixed schema for its header.
func splitFrontmatter(source string) (map[string]any, string, error) {
	content := strings.TrimLeft(source, "\xef\xbb\xbf")
	trimmedLeading := strings.TrimLeft(content, " \t\r\n")
	if !strings.HasPrefix(trimmedLeading, yamlFrontmatterDelimiter) {
		return nil, source, nil
	}

	leadWS := content[:len(content)-len(trimmedLeading)]
	afterOpening := trimmedLeading[len(yamlFrontmatterDelimiter):]
	afterOpening = strings.TrimPrefix(afterOpening, "\r\n")
	afterOpening = strings.TrimPrefix(afterOpening, "\n")

	closeIdx := strings.Index(afterOpening, "\n"+yamlFrontmatterDelimiter)
	if closeIdx == -1 {
		return nil, "", wrapParseError(internal.NewParseError(internal.ErrKindUnclosedTag, ErrMsgFrontmatterInvalid, internal.Position{}))
	}

	fmYAML := afterOpening[:closeIdx]
	rest := afterOpening[closeIdx+len("\n"+yamlFrontmatterDelimiter):]
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	var meta map[string]any
	if strings.TrimSpace(fmYAML) != "" {
		if err := yaml.Unmarshal([]byte(fmYAML), &meta); err != nil {
			return nil, "", cuserrFrontmatterError(err)
		}
	}

	_ = leadWS
	return meta, rest, nil
}

// Dump renders a plain-text indented tree of the template's spans.
func (t *Template) Dump() string {
	return t.tree.Dump()
}

// TrainedContexts returns the indices of contexts produced by a
// training-enabled reset.
func (t *Template) TrainedContexts() []int {
	return t.tree.TrainedContexts()
}

// ObjIDs returns every variable id referenced by an Obj span.
func (t *Template) ObjIDs() []string {
	return t.tree.ObjIDs()
}
