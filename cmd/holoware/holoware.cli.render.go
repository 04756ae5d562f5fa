package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"

	"github.com/holoware-dev/holoware-go"
	"github.com/holoware-dev/holoware-go/samplers"
)

// renderConfig holds parsed render command configuration.
type renderConfig struct {
	templatePath string
	envJSON      string
	envFilePath  string
	outputPath   string
	format       string
	provider     string
	model        string
}

// renderOutput is the JSON shape emitted by "render -F json".
type renderOutput struct {
	Messages []holoware.APIMessage `json:"messages"`
}

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseRenderFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingTemplate, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	env, err := loadEnv(cfg.envJSON, cfg.envFilePath)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidJSON, err)
		return ExitCodeInputError
	}

	sampler, err := buildSampler(cfg.provider, cfg.model)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgInvalidProvider, err)
		return ExitCodeUsageError
	}

	engine := holoware.New(holoware.WithSampler(sampler))
	rollout, err := engine.EvaluateSource(context.Background(), cfg.templatePath, string(source), env)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgEvaluateFailed, err)
		return ExitCodeError
	}

	messages := rollout.ActiveContext().ToAPIMessages(false)

	var out []byte
	if cfg.format == OutputFormatJSON {
		out, err = json.MarshalIndent(renderOutput{Messages: messages}, "", "  ")
		if err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgJSONMarshalFailed, err)
			return ExitCodeError
		}
		out = append(out, '\n')
	} else {
		out = []byte(renderMessagesText(messages))
	}

	if err := writeOutput(cfg.outputPath, out, stdout); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func renderMessagesText(messages []holoware.APIMessage) string {
	s := ""
	for _, m := range messages {
		s += fmt.Sprintf("--- %s ---\n%s\n\n", m.Role, m.Content)
	}
	return s
}

func parseRenderFlags(args []string) (*renderConfig, error) {
	fs := flag.NewFlagSet(CmdNameRender, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &renderConfig{}
	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.envJSON, FlagEnv, "", "")
	fs.StringVar(&cfg.envJSON, FlagEnvShort, "", "")
	fs.StringVar(&cfg.envFilePath, FlagEnvFile, "", "")
	fs.StringVar(&cfg.envFilePath, FlagEnvFileShort, "", "")
	fs.StringVar(&cfg.outputPath, FlagOutput, FlagDefaultOutput, "")
	fs.StringVar(&cfg.outputPath, FlagOutputShort, FlagDefaultOutput, "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")
	fs.StringVar(&cfg.provider, FlagProvider, FlagDefaultProvider, "")
	fs.StringVar(&cfg.provider, FlagProviderShort, FlagDefaultProvider, "")
	fs.StringVar(&cfg.model, FlagModel, "", "")
	fs.StringVar(&cfg.model, FlagModelShort, "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	if cfg.format != OutputFormatText && cfg.format != OutputFormatJSON {
		return nil, errors.New(ErrMsgInvalidFormat)
	}
	return cfg, nil
}

func loadEnv(jsonStr, filePath string) (map[string]any, error) {
	var raw []byte
	switch {
	case filePath != "":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		raw = data
	case jsonStr != "":
		raw = []byte(jsonStr)
	default:
		return map[string]any{}, nil
	}

	var env map[string]any
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return env, nil
}

// dryRunSampler answers every SampleSpan with its fence name (or an empty
// string when unfenced), letting a template's turn structure be
// inspected without any provider credentials.
type dryRunSampler struct{}

func (dryRunSampler) Sample(ctx context.Context, rollout *holoware.Rollout, stopSequences []string) (string, error) {
	for _, stop := range stopSequences {
		if fence, ok := strings.CutPrefix(stop, "</"); ok {
			return strings.TrimSuffix(fence, ">"), nil
		}
	}
	return "", nil
}

func buildSampler(provider, model string) (holoware.Sampler, error) {
	switch provider {
	case "", ProviderDry:
		return dryRunSampler{}, nil
	case ProviderOpenAI:
		key := os.Getenv(EnvOpenAIAPIKey)
		if key == "" {
			return nil, errors.New(ErrMsgMissingAPIKey + ": " + EnvOpenAIAPIKey)
		}
		if model == "" {
			model = DefaultOpenAIModel
		}
		client := openai.NewClient(openaioption.WithAPIKey(key))
		return samplers.NewOpenAISampler(client, openai.ChatModel(model)), nil
	case ProviderAnthropic:
		key := os.Getenv(EnvAnthropicAPIKey)
		if key == "" {
			return nil, errors.New(ErrMsgMissingAPIKey + ": " + EnvAnthropicAPIKey)
		}
		if model == "" {
			model = DefaultAnthropicModel
		}
		client := anthropic.NewClient(anthropicoption.WithAPIKey(key))
		return samplers.NewAnthropicSampler(client, anthropic.Model(model), 1024), nil
	default:
		return nil, errors.New(ErrMsgInvalidProvider + ": " + provider)
	}
}
