package internal

import (
	"strings"

	"go.uber.org/zap"
)

// Lexer performs the single forward-pass, escape-aware scanning the Parser
// needs to locate tag boundaries. It holds no parse state of its own; every
// method takes the position to scan from and returns the position reached,
// so the Parser can freely interleave scanning with indentation-sensitive
// source slicing.
type Lexer struct {
	source string
	logger *zap.Logger
}

func NewLexer(source string, logger *zap.Logger) *Lexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgLexerCreated, zap.Int(LogFieldSource, len(source)))
	return &Lexer{source: source, logger: logger}
}

// FindNextTagStart returns the byte offset of the next unescaped "<|" at or
// after from, or -1 if none remains. A run of backslashes immediately before
// "<|" escapes it only when that run has odd length.
func (l *Lexer) FindNextTagStart(from int) int {
	pos := from
	for {
		found := strings.Index(l.source[pos:], TagOpen)
		if found == -1 {
			return -1
		}
		found += pos

		n := 0
		for i := found - 1; i >= 0 && l.source[i] == '\\'; i-- {
			n++
		}
		if n%2 == 1 {
			pos = found + 1
			continue
		}
		return found
	}
}

// ReadTagBody reads raw tag content starting right after an opening "<|" at
// tagBodyStart, up to the matching "|>". It returns the raw body and the
// offset immediately after the closing delimiter.
func (l *Lexer) ReadTagBody(tagBodyStart int) (string, int, error) {
	end := strings.Index(l.source[tagBodyStart:], TagClose)
	if end == -1 {
		return "", tagBodyStart, NewParseError(ErrKindUnclosedTag, "unclosed tag", l.PositionAt(tagBodyStart))
	}
	end += tagBodyStart
	return l.source[tagBodyStart:end], end + len(TagClose), nil
}

// PositionAt computes the line/column for a byte offset in the source.
func (l *Lexer) PositionAt(offset int) Position {
	line, col := 1, 1
	for i := 0; i < offset && i < len(l.source); i++ {
		if l.source[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Offset: offset, Line: line, Column: col}
}

// UnescapeText replaces escaped delimiters with their literal form, the way
// the Parser does for a finished slice of plain text: "\\\\" collapses to a
// single backslash and "\\<|" collapses to a literal "<|".
func UnescapeText(text string) string {
	text = strings.ReplaceAll(text, `\\`, `\`)
	text = strings.ReplaceAll(text, `\`+TagOpen, TagOpen)
	return text
}
