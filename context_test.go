package holoware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_ToAPIMessages_AggregatesConsecutiveRoles(t *testing.T) {
	c := &Context{}
	c.AddFrozen(RoleSystem, "be helpful")
	c.AddFrozen(RoleUser, "hi ")
	c.AddFrozen(RoleUser, "there")
	c.AddReinforced(RoleAssistant, "hello!")

	messages := c.ToAPIMessages(false)
	require.Len(t, messages, 3)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, RoleUser, messages[1].Role)
	assert.Equal(t, "hi there", messages[1].Content)
	assert.Equal(t, RoleAssistant, messages[2].Role)
}

func TestContext_ToAPIMessages_DropsEmptyUnlessDryRun(t *testing.T) {
	c := &Context{}
	c.AddFrozen(RoleUser, "")

	assert.Empty(t, c.ToAPIMessages(false))
	assert.Len(t, c.ToAPIMessages(true), 1)
}

func TestContext_ToCompletionString_OpenAssistantHeaderForGeneration(t *testing.T) {
	c := &Context{}
	c.AddFrozen(RoleUser, "question")
	c.AddFrozen(RoleAssistant, "")

	s := c.ToCompletionString()
	assert.Contains(t, s, "<|im_start|>assistant")
	assert.NotContains(t, s, "<|im_end|>\n<|im_start|>assistant\n\n<|im_end|>")
}

func TestFromDelimitedText_RoundTrip(t *testing.T) {
	c := &Context{}
	c.AddFrozen(RoleSystem, "be helpful")
	c.AddFrozen(RoleUser, "hi")
	c.AddReinforced(RoleAssistant, "hello")

	text := c.ToCompletionString()
	parsed, err := FromDelimitedText(text, MaskFreezeAll)
	require.NoError(t, err)

	messages := parsed.ToAPIMessages(false)
	require.Len(t, messages, 3)
	assert.Equal(t, "hello", messages[2].Content)
}

func TestFromDelimitedText_NoMatchesErrors(t *testing.T) {
	_, err := FromDelimitedText("no delimiters here", MaskFreezeAll)
	require.Error(t, err)
}

func TestFromAPIMessages_MasksByAutoMaskPolicy(t *testing.T) {
	messages := []APIMessage{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "usr"},
		{Role: RoleAssistant, Content: "asst"},
	}

	c := FromAPIMessages(messages, MaskReinforceAssistant)
	assert.Equal(t, FragFrozen, c.Fragments[0].Mask)
	assert.Equal(t, FragFrozen, c.Fragments[1].Mask)
	assert.Equal(t, FragReinforce, c.Fragments[2].Mask)
}

func TestContext_ExtractXMLTag(t *testing.T) {
	c := &Context{}
	c.AddReinforced(RoleAssistant, "<answer>42</answer>")

	got, ok := c.ExtractXMLTag("answer", RoleAssistant)
	require.True(t, ok)
	assert.Equal(t, "42", got)

	_, ok = c.ExtractXMLTag("missing", RoleAssistant)
	assert.False(t, ok)
}

func TestContext_ExtractMarkdownJSON_PrefersFencedBlock(t *testing.T) {
	c := &Context{}
	c.AddReinforced(RoleAssistant, "before ```json\n{\"a\":1}\n``` after")

	got, ok := c.ExtractMarkdownJSON(RoleAssistant)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, got)
}

func TestContext_ExtractMarkdownJSON_FallsBackToBareObject(t *testing.T) {
	c := &Context{}
	c.AddReinforced(RoleAssistant, `here is {"a":1} inline`)

	got, ok := c.ExtractMarkdownJSON(RoleAssistant)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, got)
}
