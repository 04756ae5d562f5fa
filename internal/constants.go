package internal

// Role names used by ego spans and fragment normalization.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Ego sigils recognized by the grammar.
const (
	SigilUser      = "o_o"
	SigilAssistant = "@_@"
	SigilSystem    = "x_x"
)

// Reset sigils. Only TrainSigil marks the following context for training;
// every other sigil in ResetSigils produces an identical train=false reset.
const (
	TrainSigil = "+++"
)

// ResetSigils is the closed set of bases recognized as context resets.
var ResetSigils = map[string]bool{
	"+++":  true,
	"===":  true,
	"---":  true,
	"^^^":  true,
	"###":  true,
	"@@@":  true,
	`"""`:  true,
	"***":  true,
	"%%%":  true,
}

// Tag delimiters.
const (
	TagOpen  = "<|"
	TagClose = "|>"
)

const (
	AngleAttrPrefix = "<>"
	FenceKwarg      = "fence"
)

// Log message constants (no magic strings at call sites).
const (
	LogMsgLexerCreated    = "lexer created"
	LogMsgTokenizerStart  = "tokenizer start"
	LogMsgTokenizerEnd    = "tokenizer end"
	LogMsgParserCreated   = "parser created"
	LogMsgParseStart      = "parse start"
	LogMsgParseEnd        = "parse end"
	LogMsgSpanAppended    = "span appended"
	LogMsgEvaluatorStart  = "evaluator start"
	LogMsgEvaluatorEnd    = "evaluator end"
	LogMsgPhaseStart      = "phase start"
	LogMsgSpanDispatched  = "span dispatched"
	LogMsgClassBound      = "class bound"
	LogMsgSampleFailed    = "sample failed"
	LogMsgWhitespaceOpt   = "whitespace optimization applied"
	LogMsgThinkCollapse   = "think tag collapsed"
)

const (
	LogFieldSource = "source_len"
	LogFieldTokens = "token_count"
	LogFieldSpans  = "span_count"
	LogFieldSpan   = "span_index"
	LogFieldRole   = "role"
	LogFieldClass  = "class_name"
	LogFieldPhase  = "phase"
)
