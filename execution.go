package holoware

import "gopkg.in/yaml.v3"

// ExecutionConfig carries the model/provider and sampling parameters a
// template's YAML frontmatter declares under an "execution:" key. The
// evaluator never reads it; it exists for callers that build a Sampler for
// a template and want the author's intended knobs applied to it.
type ExecutionConfig struct {
	Provider string `yaml:"provider,omitempty" json:"provider,omitempty"`
	Model    string `yaml:"model,omitempty" json:"model,omitempty"`

	Temperature   *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens     *int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	TopP          *float64 `yaml:"top_p,omitempty" json:"top_p,omitempty"`
	TopK          *int     `yaml:"top_k,omitempty" json:"top_k,omitempty"`
	StopSequences []string `yaml:"stop_sequences,omitempty" json:"stop_sequences,omitempty"`

	MinP              *float64           `yaml:"min_p,omitempty" json:"min_p,omitempty"`
	RepetitionPenalty *float64           `yaml:"repetition_penalty,omitempty" json:"repetition_penalty,omitempty"`
	Seed              *int               `yaml:"seed,omitempty" json:"seed,omitempty"`
	Logprobs          *int               `yaml:"logprobs,omitempty" json:"logprobs,omitempty"`
	StopTokenIDs      []int              `yaml:"stop_token_ids,omitempty" json:"stop_token_ids,omitempty"`
	LogitBias         map[string]float64 `yaml:"logit_bias,omitempty" json:"logit_bias,omitempty"`

	Thinking *ThinkingConfig `yaml:"thinking,omitempty" json:"thinking,omitempty"`
}

// ThinkingConfig configures Anthropic extended thinking mode.
type ThinkingConfig struct {
	Enabled      bool `yaml:"enabled" json:"enabled"`
	BudgetTokens *int `yaml:"budget_tokens,omitempty" json:"budget_tokens,omitempty"`
}

// Provider identifiers recognized by GetEffectiveProvider's inference.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderVLLM      = "vllm"
)

// Parameter map keys shared by ToMap and the per-provider converters.
const (
	ParamKeyTemperature       = "temperature"
	ParamKeyMaxTokens         = "max_tokens"
	ParamKeyTopP              = "top_p"
	ParamKeyStop              = "stop"
	ParamKeyMinP              = "min_p"
	ParamKeyRepetitionPenalty = "repetition_penalty"
	ParamKeySeed              = "seed"
	ParamKeyLogprobs          = "logprobs"
	ParamKeyTopLogprobs       = "top_logprobs"
	ParamKeyStopTokenIDs      = "stop_token_ids"
	ParamKeyLogitBias         = "logit_bias"
)

// ExecutionConfigFromMetadata decodes the "execution" key of a Template's
// frontmatter metadata into an ExecutionConfig, via a YAML marshal/remarshal
// round trip so the same struct tags used for a standalone execution block
// apply to the nested map[string]any yaml.Unmarshal already produced.
func ExecutionConfigFromMetadata(meta map[string]any) (*ExecutionConfig, error) {
	raw, ok := meta[MetaFieldExecution]
	if !ok {
		return nil, nil
	}
	return decodeExecutionConfig(raw)
}

// decodeExecutionConfig re-marshals an already-decoded YAML value back to
// bytes and unmarshals it into ExecutionConfig, so a nested frontmatter
// block (already a map[string]any after the outer yaml.Unmarshal) picks up
// ExecutionConfig's yaml struct tags without a second parse of raw source.
func decodeExecutionConfig(raw any) (*ExecutionConfig, error) {
	bytes, err := yaml.Marshal(raw)
	if err != nil {
		return nil, cuserrFrontmatterError(err)
	}
	var cfg ExecutionConfig
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return nil, cuserrFrontmatterError(err)
	}
	return &cfg, nil
}

// Validate checks numeric parameters against the ranges their provider
// APIs accept.
func (e *ExecutionConfig) Validate() error {
	if e == nil {
		return nil
	}
	if e.Temperature != nil && (*e.Temperature < 0.0 || *e.Temperature > 2.0) {
		return newExecutionValidationError(ErrMsgTemperatureOutOfRange)
	}
	if e.TopP != nil && (*e.TopP < 0.0 || *e.TopP > 1.0) {
		return newExecutionValidationError(ErrMsgTopPOutOfRange)
	}
	if e.MaxTokens != nil && *e.MaxTokens <= 0 {
		return newExecutionValidationError(ErrMsgMaxTokensNotPositive)
	}
	if e.TopK != nil && *e.TopK < 0 {
		return newExecutionValidationError(ErrMsgTopKNegative)
	}
	if e.MinP != nil && (*e.MinP < 0.0 || *e.MinP > 1.0) {
		return newExecutionValidationError(ErrMsgMinPOutOfRange)
	}
	if e.RepetitionPenalty != nil && *e.RepetitionPenalty <= 0.0 {
		return newExecutionValidationError(ErrMsgRepetitionPenaltyOutOfRange)
	}
	if e.Logprobs != nil && (*e.Logprobs < 0 || *e.Logprobs > 20) {
		return newExecutionValidationError(ErrMsgLogprobsOutOfRange)
	}
	for _, id := range e.StopTokenIDs {
		if id < 0 {
			return newExecutionValidationError(ErrMsgStopTokenIDNegative)
		}
	}
	for _, v := range e.LogitBias {
		if v < -100.0 || v > 100.0 {
			return newExecutionValidationError(ErrMsgLogitBiasOutOfRange)
		}
	}
	if e.Thinking != nil && e.Thinking.Enabled && e.Thinking.BudgetTokens != nil && *e.Thinking.BudgetTokens <= 0 {
		return newExecutionValidationError(ErrMsgThinkingBudgetNotPositive)
	}
	return nil
}

// Clone deep-copies the config.
func (e *ExecutionConfig) Clone() *ExecutionConfig {
	if e == nil {
		return nil
	}
	clone := &ExecutionConfig{Provider: e.Provider, Model: e.Model}
	clone.Temperature = coalesceFloat64Ptr(e.Temperature, nil)
	clone.MaxTokens = coalesceIntPtr(e.MaxTokens, nil)
	clone.TopP = coalesceFloat64Ptr(e.TopP, nil)
	clone.TopK = coalesceIntPtr(e.TopK, nil)
	if e.StopSequences != nil {
		clone.StopSequences = append([]string(nil), e.StopSequences...)
	}
	clone.MinP = coalesceFloat64Ptr(e.MinP, nil)
	clone.RepetitionPenalty = coalesceFloat64Ptr(e.RepetitionPenalty, nil)
	clone.Seed = coalesceIntPtr(e.Seed, nil)
	clone.Logprobs = coalesceIntPtr(e.Logprobs, nil)
	if e.StopTokenIDs != nil {
		clone.StopTokenIDs = append([]int(nil), e.StopTokenIDs...)
	}
	if e.LogitBias != nil {
		clone.LogitBias = make(map[string]float64, len(e.LogitBias))
		for k, v := range e.LogitBias {
			clone.LogitBias[k] = v
		}
	}
	if e.Thinking != nil {
		t := *e.Thinking
		t.BudgetTokens = coalesceIntPtr(e.Thinking.BudgetTokens, nil)
		clone.Thinking = &t
	}
	return clone
}

// Merge returns a new config with other's non-nil/non-zero fields
// overriding the receiver's, leaving both inputs untouched. Used to layer
// a template's declared execution block under a caller-supplied override.
func (e *ExecutionConfig) Merge(other *ExecutionConfig) *ExecutionConfig {
	if e == nil && other == nil {
		return nil
	}
	if e == nil {
		return other.Clone()
	}
	if other == nil {
		return e.Clone()
	}

	result := e.Clone()
	if other.Provider != "" {
		result.Provider = other.Provider
	}
	if other.Model != "" {
		result.Model = other.Model
	}
	result.Temperature = coalesceFloat64Ptr(other.Temperature, result.Temperature)
	result.MaxTokens = coalesceIntPtr(other.MaxTokens, result.MaxTokens)
	result.TopP = coalesceFloat64Ptr(other.TopP, result.TopP)
	result.TopK = coalesceIntPtr(other.TopK, result.TopK)
	if len(other.StopSequences) > 0 {
		result.StopSequences = append([]string(nil), other.StopSequences...)
	}
	result.MinP = coalesceFloat64Ptr(other.MinP, result.MinP)
	result.RepetitionPenalty = coalesceFloat64Ptr(other.RepetitionPenalty, result.RepetitionPenalty)
	result.Seed = coalesceIntPtr(other.Seed, result.Seed)
	result.Logprobs = coalesceIntPtr(other.Logprobs, result.Logprobs)
	if len(other.StopTokenIDs) > 0 {
		result.StopTokenIDs = append([]int(nil), other.StopTokenIDs...)
	}
	if len(other.LogitBias) > 0 {
		if result.LogitBias == nil {
			result.LogitBias = make(map[string]float64, len(other.LogitBias))
		}
		for k, v := range other.LogitBias {
			result.LogitBias[k] = v
		}
	}
	if other.Thinking != nil {
		result.Thinking = other.Thinking.clone()
	}
	return result
}

func (t *ThinkingConfig) clone() *ThinkingConfig {
	if t == nil {
		return nil
	}
	c := &ThinkingConfig{Enabled: t.Enabled}
	c.BudgetTokens = coalesceIntPtr(t.BudgetTokens, nil)
	return c
}

func coalesceFloat64Ptr(a, b *float64) *float64 {
	if a != nil {
		v := *a
		return &v
	}
	if b != nil {
		v := *b
		return &v
	}
	return nil
}

func coalesceIntPtr(a, b *int) *int {
	if a != nil {
		v := *a
		return &v
	}
	if b != nil {
		v := *b
		return &v
	}
	return nil
}

// GetEffectiveProvider returns the explicit provider if set, otherwise
// infers one from configuration shape or the model name.
func (e *ExecutionConfig) GetEffectiveProvider() string {
	if e == nil {
		return ""
	}
	if e.Provider != "" {
		return e.Provider
	}
	if e.MinP != nil || e.RepetitionPenalty != nil || len(e.StopTokenIDs) > 0 {
		return ProviderVLLM
	}
	if e.Thinking != nil && e.Thinking.Enabled {
		return ProviderAnthropic
	}
	switch {
	case isOpenAIModel(e.Model):
		return ProviderOpenAI
	case isAnthropicModel(e.Model):
		return ProviderAnthropic
	case isGeminiModel(e.Model):
		return ProviderGemini
	}
	return ""
}

func isOpenAIModel(model string) bool {
	return hasAnyPrefix(model, "gpt-", "o1", "o3", "o4", "chatgpt-")
}

func isAnthropicModel(model string) bool {
	return hasAnyPrefix(model, "claude-")
}

func isGeminiModel(model string) bool {
	return hasAnyPrefix(model, "gemini-")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

// ToMap converts the execution config to a provider-neutral parameter map,
// including only parameters that were explicitly set.
func (e *ExecutionConfig) ToMap() map[string]any {
	if e == nil {
		return nil
	}
	result := make(map[string]any)
	if e.Temperature != nil {
		result[ParamKeyTemperature] = *e.Temperature
	}
	if e.MaxTokens != nil {
		result[ParamKeyMaxTokens] = *e.MaxTokens
	}
	if e.TopP != nil {
		result[ParamKeyTopP] = *e.TopP
	}
	if len(e.StopSequences) > 0 {
		result[ParamKeyStop] = e.StopSequences
	}
	if e.MinP != nil {
		result[ParamKeyMinP] = *e.MinP
	}
	if e.RepetitionPenalty != nil {
		result[ParamKeyRepetitionPenalty] = *e.RepetitionPenalty
	}
	if e.Seed != nil {
		result[ParamKeySeed] = *e.Seed
	}
	if e.Logprobs != nil {
		result[ParamKeyLogprobs] = *e.Logprobs
	}
	if len(e.StopTokenIDs) > 0 {
		result[ParamKeyStopTokenIDs] = e.StopTokenIDs
	}
	if len(e.LogitBias) > 0 {
		result[ParamKeyLogitBias] = e.LogitBias
	}
	return result
}

// ToOpenAI converts the execution config to Chat Completions request
// parameters, the shape OpenAISampler's caller applies before dispatch.
func (e *ExecutionConfig) ToOpenAI() map[string]any {
	if e == nil {
		return nil
	}
	result := e.ToMap()
	if e.Model != "" {
		result["model"] = e.Model
	}
	if e.Logprobs != nil {
		result[ParamKeyLogprobs] = true
		result[ParamKeyTopLogprobs] = *e.Logprobs
	}
	return result
}

// ToAnthropic converts the execution config to Messages API request
// parameters, including extended thinking when enabled.
func (e *ExecutionConfig) ToAnthropic() map[string]any {
	if e == nil {
		return nil
	}
	result := make(map[string]any)
	if e.Model != "" {
		result["model"] = e.Model
	}
	if e.Temperature != nil {
		result[ParamKeyTemperature] = *e.Temperature
	}
	if e.MaxTokens != nil {
		result["max_tokens"] = *e.MaxTokens
	}
	if e.TopP != nil {
		result[ParamKeyTopP] = *e.TopP
	}
	if e.TopK != nil {
		result["top_k"] = *e.TopK
	}
	if len(e.StopSequences) > 0 {
		result["stop_sequences"] = e.StopSequences
	}
	if e.Thinking != nil && e.Thinking.Enabled {
		thinking := map[string]any{"type": "enabled"}
		if e.Thinking.BudgetTokens != nil {
			thinking["budget_tokens"] = *e.Thinking.BudgetTokens
		}
		result["thinking"] = thinking
	}
	return result
}
