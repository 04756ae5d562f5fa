package holoware

import (
	"fmt"
	"regexp"
	"strings"
)

// APIMessage is one chat-style message in OpenAI's role/content shape.
type APIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AutoMask picks the FragMask to apply when building a Context from
// already-rendered chat messages (e.g. loading a prior conversation).
type AutoMask int

const (
	MaskFreezeAll AutoMask = iota
	MaskReinforceAll
	MaskReinforceUser
	MaskReinforceAssistant
)

func (m AutoMask) maskFor(role string) FragMask {
	switch m {
	case MaskReinforceAll:
		return FragReinforce
	case MaskReinforceUser:
		if role == RoleUser {
			return FragReinforce
		}
		return FragFrozen
	case MaskReinforceAssistant:
		if role == RoleAssistant {
			return FragReinforce
		}
		return FragFrozen
	default:
		return FragFrozen
	}
}

// Context is one append-only log of rendered fragments, the unit a
// ContextReset span starts afresh. It is intentionally a plain data holder,
// never a delegate for Rollout or Phore state.
type Context struct {
	Fragments FragList
}

// AddFrag appends one fragment and returns it.
func (c *Context) AddFrag(role, text string, mask FragMask) Frag {
	frag := Frag{Text: text, Role: role, Mask: mask}
	c.Fragments = append(c.Fragments, frag)
	return frag
}

func (c *Context) AddFrozen(role, text string) Frag {
	return c.AddFrag(role, text, FragFrozen)
}

func (c *Context) AddReinforced(role, text string) Frag {
	return c.AddFrag(role, text, FragReinforce)
}

func normalizeRole(raw string, isFirst bool) string {
	switch raw {
	case RoleSystem, RoleUser, RoleAssistant:
		return raw
	}
	if raw == "" && isFirst {
		return RoleSystem
	}
	return RoleUser
}

// ToAPIMessages aggregates consecutive fragments that share a normalized
// role into one chat message each. When renderDry is true, empty messages
// produced by masked-out scaffolding are kept rather than dropped, so a
// dry-run view can show the full turn structure.
func (c *Context) ToAPIMessages(renderDry bool) []APIMessage {
	var messages []APIMessage
	var texts []string
	currentRole := ""
	haveRole := false

	flush := func() {
		if !haveRole {
			return
		}
		s := strings.TrimSpace(strings.Join(texts, ""))
		if s != "" || renderDry {
			messages = append(messages, APIMessage{Role: currentRole, Content: s})
		}
	}

	for i, frag := range c.Fragments {
		role := normalizeRole(frag.Role, i == 0)
		if !haveRole {
			haveRole = true
			currentRole = role
			texts = []string{frag.Text}
			continue
		}
		if role == currentRole {
			texts = append(texts, frag.Text)
			continue
		}
		flush()
		currentRole = role
		texts = []string{frag.Text}
	}
	flush()

	return messages
}

// ToCompletionString renders the context as completion-style delimited
// text using the legacy "<|im_start|>role ... <|im_end|>" block format. If
// the final fragment is an empty-content assistant turn, the string ends
// with an open assistant header to cue generation.
func (c *Context) ToCompletionString() string {
	messages := c.ToAPIMessages(false)
	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		blocks = append(blocks, fmt.Sprintf("<|im_start|>%s\n%s\n<|im_end|>", msg.Role, msg.Content))
	}

	if len(c.Fragments) > 0 {
		last := c.Fragments[len(c.Fragments)-1]
		lastRole := normalizeRole(last.Role, len(c.Fragments) == 1)
		if lastRole == RoleAssistant && last.Text == "" {
			return strings.Join(append(blocks, "<|im_start|>assistant"), "\n")
		}
	}

	return strings.Join(blocks, "\n")
}

var delimitedBlockPattern = regexp.MustCompile(`(?s)<\|im_start\|>(?P<role>[^\r\n]+)\r?\n(?P<content>.*?)\r?\n<\|im_end\|>`)

// FromDelimitedText parses completion-style delimited text, as produced by
// ToCompletionString, back into a Context.
func FromDelimitedText(text string, masking AutoMask) (*Context, error) {
	matches := delimitedBlockPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, cuserrNoDelimitedText()
	}

	messages := make([]APIMessage, 0, len(matches))
	for _, m := range matches {
		messages = append(messages, APIMessage{Role: strings.TrimSpace(m[1]), Content: m[2]})
	}
	return FromAPIMessages(messages, masking), nil
}

// FromAPIMessages builds a Context from chat-style messages, applying the
// given AutoMask to decide which fragments get trained on.
func FromAPIMessages(messages []APIMessage, masking AutoMask) *Context {
	ctx := &Context{}
	for _, msg := range messages {
		ctx.AddFrag(msg.Role, msg.Content, masking.maskFor(msg.Role))
	}
	return ctx
}

// ExtractXMLTag searches backwards through the rendered messages of the
// given role for the last occurrence of <tag>...</tag> and returns its
// inner content. With an empty tag, it returns the last matching message's
// content verbatim.
func (c *Context) ExtractXMLTag(tag, role string) (string, bool) {
	messages := c.ToAPIMessages(false)

	if tag == "" {
		for i := len(messages) - 1; i >= 0; i-- {
			if role == "" || messages[i].Role == role {
				return strings.TrimSpace(messages[i].Content), true
			}
		}
		return "", false
	}

	t := strings.ToLower(tag)
	pattern := regexp.MustCompile(`(?s)<` + t + `>\s*(.*?)\s*(?:</` + t + `>|$)`)

	for i := len(messages) - 1; i >= 0; i-- {
		if role != "" && messages[i].Role != role {
			continue
		}
		all := pattern.FindAllStringSubmatch(messages[i].Content, -1)
		if len(all) > 0 {
			return strings.TrimSpace(all[len(all)-1][1]), true
		}
	}
	return "", false
}

var (
	jsonFencePattern  = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{[^{}]*(?:\{[^{}]*}[^{}]*)*}`)
)

// ExtractMarkdownJSON finds the last message from role and pulls a JSON
// payload out of it, preferring a fenced ```json block over a bare object.
func (c *Context) ExtractMarkdownJSON(role string) (string, bool) {
	messages := c.ToAPIMessages(false)

	var content string
	found := false
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == role {
			content = messages[i].Content
			found = true
			break
		}
	}
	if !found || content == "" {
		return "", false
	}

	if m := jsonFencePattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := jsonObjectPattern.FindString(content); m != "" {
		return m, true
	}
	return "", false
}
