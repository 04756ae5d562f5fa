package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellSplit_Basic(t *testing.T) {
	tokens, err := shellSplit("foo bar baz")
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar", "baz"}, tokens)
}

func TestShellSplit_SingleQuotesAreLiteral(t *testing.T) {
	tokens, err := shellSplit(`'hello world' 'no\nescape'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world", `no\nescape`}, tokens)
}

func TestShellSplit_DoubleQuotesEscapeBackslashAndQuote(t *testing.T) {
	tokens, err := shellSplit(`"a \"quoted\" word" "a\\b"`)
	require.NoError(t, err)
	assert.Equal(t, []string{`a "quoted" word`, `a\b`}, tokens)
}

func TestShellSplit_UnquotedBackslashEscapesNextRune(t *testing.T) {
	tokens, err := shellSplit(`foo\ bar baz`)
	require.NoError(t, err)
	assert.Equal(t, []string{"foo bar", "baz"}, tokens)
}

func TestShellSplit_UnterminatedQuoteErrors(t *testing.T) {
	_, err := shellSplit(`"unterminated`)
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok)
	assert.Equal(t, ErrKindQuoteError, pe.Kind)
}

func TestShellSplit_Empty(t *testing.T) {
	tokens, err := shellSplit("   ")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestShellSplit_AdjacentQuotesJoinOneToken(t *testing.T) {
	tokens, err := shellSplit(`foo'bar'"baz"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"foobarbaz"}, tokens)
}
