package holoware

import (
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/holoware-dev/holoware-go/internal"
)

// Error message constants (no magic strings at call sites).
const (
	ErrMsgUnclosedTag        = "unclosed tag"
	ErrMsgEmptyAngleAttr     = "empty <> attribute"
	ErrMsgNoRoleForSpan      = "span requires a role to be set before it"
	ErrMsgClassNotFound      = "class not found in environment or registry"
	ErrMsgClassAlreadyExists = "class already registered"
	ErrMsgNothingToDo        = "nothing to be done for class span"
	ErrMsgSampleFailed       = "sampling failed"
	ErrMsgSamplerMissing     = "no sampler configured for engine"
	ErrMsgTemplateNotFound   = "template not found"
	ErrMsgTemplateEmpty      = "template source is empty"
	ErrMsgNoDelimitedText    = "no delimited messages found in text"
	ErrMsgCacheMiss          = "template not present in cache"
	ErrMsgInstantiation      = "failed to instantiate one or more bound classes"
	ErrMsgMaxDepthExceeded   = "class span nesting exceeds configured max depth"
	ErrMsgFrontmatterInvalid   = "invalid YAML frontmatter"
	ErrMsgCacheEmptyDSN        = "postgres cache: empty connection string"
	ErrMsgCacheConnFailed      = "postgres cache: connection failed"
	ErrMsgCacheMigrationFailed = "postgres cache: migration failed"

	ErrMsgTemperatureOutOfRange       = "temperature must be between 0.0 and 2.0"
	ErrMsgTopPOutOfRange              = "top_p must be between 0.0 and 1.0"
	ErrMsgMaxTokensNotPositive        = "max_tokens must be positive"
	ErrMsgTopKNegative                = "top_k must be non-negative"
	ErrMsgMinPOutOfRange              = "min_p must be between 0.0 and 1.0"
	ErrMsgRepetitionPenaltyOutOfRange = "repetition_penalty must be positive"
	ErrMsgLogprobsOutOfRange          = "logprobs must be between 0 and 20"
	ErrMsgStopTokenIDNegative         = "stop_token_ids must be non-negative"
	ErrMsgLogitBiasOutOfRange         = "logit_bias values must be between -100 and 100"
	ErrMsgThinkingBudgetNotPositive   = "thinking.budget_tokens must be positive"
)

// Error code constants for categorization.
const (
	ErrCodeParse      = "HOLOWARE_PARSE"
	ErrCodeEval       = "HOLOWARE_EVAL"
	ErrCodeRegistry   = "HOLOWARE_REGISTRY"
	ErrCodeSample     = "HOLOWARE_SAMPLE"
	ErrCodeLoader     = "HOLOWARE_LOADER"
	ErrCodeCache      = "HOLOWARE_CACHE"
	ErrCodeRender     = "HOLOWARE_RENDER"
	ErrCodeExecution  = "HOLOWARE_EXECUTION"
)

// Metadata keys attached to cuserr errors via WithMetadata.
const (
	MetaKeyLine      = "line"
	MetaKeyColumn    = "column"
	MetaKeyOffset    = "offset"
	MetaKeyClassName = "class_name"
	MetaKeyTemplate  = "template"
	MetaKeySpanID    = "span_id"
)

// wrapParseError converts an internal.ParseError into a cuserr error
// carrying the same position metadata, choosing the cuserr category and
// message per the failure's ErrorKind so distinct parse/eval failure modes
// don't collapse into one generic validation error.
func wrapParseError(err error) error {
	pe, ok := err.(*internal.ParseError)
	if !ok {
		return err
	}

	switch pe.Kind {
	case internal.ErrKindClassNotFound:
		return cuserr.NewNotFoundError(ErrCodeRegistry, ErrMsgClassNotFound).
			WithMetadata(MetaKeyClassName, pe.ClassName).
			WithMetadata(MetaKeyLine, strconv.Itoa(pe.Pos.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(pe.Pos.Column))
	case internal.ErrKindEmptyClassSpan:
		return cuserr.NewValidationError(ErrCodeEval, ErrMsgNothingToDo).
			WithMetadata(MetaKeyClassName, pe.ClassName).
			WithMetadata(MetaKeyLine, strconv.Itoa(pe.Pos.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(pe.Pos.Column))
	case internal.ErrKindInstantiationFailed:
		return cuserr.NewInternalError(ErrCodeEval, nil).
			WithMetadata("message", pe.Message)
	default:
		return cuserr.NewValidationError(ErrCodeParse, pe.Message).
			WithMetadata(MetaKeyLine, strconv.Itoa(pe.Pos.Line)).
			WithMetadata(MetaKeyColumn, strconv.Itoa(pe.Pos.Column)).
			WithMetadata(MetaKeyOffset, strconv.Itoa(pe.Pos.Offset))
	}
}

func newClassNotFoundError(className string) error {
	return cuserr.NewNotFoundError(ErrCodeRegistry, ErrMsgClassNotFound).
		WithMetadata(MetaKeyClassName, className)
}

func newClassAlreadyExistsError(className string) error {
	return cuserr.NewValidationError(ErrCodeRegistry, ErrMsgClassAlreadyExists).
		WithMetadata(MetaKeyClassName, className)
}

func newSampleError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeSample, ErrMsgSampleFailed)
}

func newSamplerMissingError() error {
	return cuserr.NewValidationError(ErrCodeSample, ErrMsgSamplerMissing)
}

func newTemplateNotFoundError(name string) error {
	return cuserr.NewNotFoundError(ErrCodeLoader, ErrMsgTemplateNotFound).
		WithMetadata(MetaKeyTemplate, name)
}

func newCacheMissError(name string) error {
	return cuserr.NewNotFoundError(ErrCodeCache, ErrMsgCacheMiss).
		WithMetadata(MetaKeyTemplate, name)
}

func newInstantiationError(count int) error {
	return cuserr.NewInternalError(ErrCodeEval, nil).
		WithMetadata("error_count", strconv.Itoa(count))
}

func cuserrNoDelimitedText() error {
	return cuserr.NewValidationError(ErrCodeRender, ErrMsgNoDelimitedText)
}

func cuserrFrontmatterError(cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeParse, ErrMsgFrontmatterInvalid)
}

func newParseEmptyError() *internal.ParseError {
	return internal.NewParseError(internal.ErrKindUnclosedTag, ErrMsgTemplateEmpty, internal.Position{})
}

func newExecutionValidationError(msg string) error {
	return cuserr.NewValidationError(ErrCodeExecution, msg)
}

func cuserrCacheErr(msg string, cause error) error {
	if cause == nil {
		return cuserr.NewValidationError(ErrCodeCache, msg)
	}
	return cuserr.WrapStdError(cause, ErrCodeCache, msg)
}
