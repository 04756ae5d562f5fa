package holoware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_NoFrontmatter(t *testing.T) {
	tmpl, err := Compile("greet", "<|o_o|>hello <|name|>")
	require.NoError(t, err)
	assert.Nil(t, tmpl.Metadata)
	assert.Equal(t, "greet", tmpl.Name)
	assert.Equal(t, []string{"name"}, tmpl.ObjIDs())
}

func TestCompile_WithFrontmatter(t *testing.T) {
	source := "---\nmodel: gpt-4o\nexecution:\n  temperature: 0.2\n---\n<|o_o|>hello"
	tmpl, err := Compile("greet", source)
	require.NoError(t, err)
	require.NotNil(t, tmpl.Metadata)
	assert.Equal(t, "gpt-4o", tmpl.Metadata["model"])

	cfg, err := ExecutionConfigFromMetadata(tmpl.Metadata)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.InDelta(t, 0.2, *cfg.Temperature, 0.0001)
}

func TestCompile_UnclosedFrontmatterErrors(t *testing.T) {
	_, err := Compile("bad", "---\nmodel: gpt-4o\n<|o_o|>hi")
	assert.Error(t, err)
}

func TestCompile_InvalidYAMLFrontmatterErrors(t *testing.T) {
	_, err := Compile("bad", "---\nfoo: [1, 2\n---\nhi")
	assert.Error(t, err)
}

func TestCompile_PropagatesParseErrors(t *testing.T) {
	_, err := Compile("bad", "<|o_o")
	assert.Error(t, err)
}

func TestTemplate_TrainedContexts(t *testing.T) {
	tmpl, err := Compile("t", "<|o_o|>a<|+++|>b")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, tmpl.TrainedContexts())
}

func TestTemplate_Dump(t *testing.T) {
	tmpl, err := Compile("t", "<|o_o|>hello")
	require.NoError(t, err)
	assert.Contains(t, tmpl.Dump(), "Ego")
}
