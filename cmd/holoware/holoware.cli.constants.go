package main

// Command names
const (
	CmdNameRender   = "render"
	CmdNameValidate = "validate"
	CmdNameDump     = "dump"
	CmdNameVersion  = "version"
	CmdNameHelp     = "help"
)

// Flag names - long form
const (
	FlagTemplate = "template"
	FlagEnv      = "env"
	FlagEnvFile  = "env-file"
	FlagOutput   = "output"
	FlagFormat   = "format"
	FlagProvider = "provider"
	FlagModel    = "model"
)

// Flag names - short form
const (
	FlagTemplateShort = "t"
	FlagEnvShort      = "e"
	FlagEnvFileShort  = "f"
	FlagOutputShort   = "o"
	FlagFormatShort   = "F"
	FlagProviderShort = "p"
	FlagModelShort    = "m"
)

// Flag default values
const (
	FlagDefaultOutput   = "-" // stdout
	FlagDefaultFormat   = "text"
	FlagDefaultProvider = ProviderDry
)

// Output formats
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
)

// Sampler providers the render command can wire up
const (
	ProviderDry      = "dry"
	ProviderOpenAI   = "openai"
	ProviderAnthropic = "anthropic"
)

// Exit codes
const (
	ExitCodeSuccess         = 0
	ExitCodeError           = 1
	ExitCodeUsageError      = 2
	ExitCodeValidationError = 3
	ExitCodeInputError      = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Environment variables consulted for provider credentials
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// Default models used when --model is not given
const (
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-sonnet-latest"
)

// Error messages - ALL must be constants
const (
	ErrMsgNoCommand           = "no command specified"
	ErrMsgUnknownCommand      = "unknown command"
	ErrMsgMissingTemplate     = "template source required"
	ErrMsgInvalidJSON         = "invalid JSON env data"
	ErrMsgReadFileFailed      = "failed to read file"
	ErrMsgReadStdinFailed     = "failed to read from stdin"
	ErrMsgWriteOutputFailed   = "failed to write output"
	ErrMsgCompileFailed       = "template compilation failed"
	ErrMsgEvaluateFailed      = "template evaluation failed"
	ErrMsgInvalidFormat       = "invalid output format"
	ErrMsgInvalidProvider     = "invalid sampler provider"
	ErrMsgMissingAPIKey       = "missing API key for provider"
	ErrMsgJSONMarshalFailed   = "failed to marshal JSON"
)

// Format string constants
const (
	FmtErrorWithDetail = "%s: %s\n"
	FmtErrorWithCause  = "%s: %v\n"
	FmtNewline         = "\n"
)

// Help text
const (
	HelpMainUsage = `holoware - prompt template engine CLI

Usage:
    holoware <command> [options]

Commands:
    render      Compile and evaluate a template against env data
    validate    Check a template compiles without evaluating it
    dump        Print a template's parsed span tree
    version     Show version information
    help        Show help for a command

Use "holoware help <command>" for more information about a command.`

	HelpRenderUsage = `Compile and evaluate a template against env data

Usage:
    holoware render [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -e, --env <json>        JSON env object
    -f, --env-file <file>   JSON env file
    -o, --output <file>     Output file (default: stdout)
    -F, --format <format>   Output format: text, json (default: text)
    -p, --provider <name>   Sampler: dry, openai, anthropic (default: dry)
    -m, --model <name>      Model name for the chosen provider

The dry provider never calls a real model: it echoes the fence name (or
an empty string) for every SampleSpan, so a template's structure can be
inspected without API credentials.

Examples:
    holoware render -t greet.hol -e '{"name": "Ada"}'
    holoware render -t greet.hol -f env.json -p openai -m gpt-4o
    cat greet.hol | holoware render -t - -e '{}'`

	HelpValidateUsage = `Check a template compiles without evaluating it

Usage:
    holoware validate [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)
    -F, --format <format>   Output format: text, json (default: text)

Examples:
    holoware validate -t greet.hol
    cat greet.hol | holoware validate -t -`

	HelpDumpUsage = `Print a template's parsed span tree

Usage:
    holoware dump [options]

Options:
    -t, --template <file>   Template file (use "-" for stdin)

Examples:
    holoware dump -t greet.hol`

	HelpVersionUsage = `Show version information

Usage:
    holoware version [options]

Options:
    -F, --format <format>   Output format: text, json (default: text)`

	HelpHelpUsage = `Show help for a command

Usage:
    holoware help [command]

Commands:
    render      Show help for render command
    validate    Show help for validate command
    dump        Show help for dump command
    version     Show help for version command`
)

// Version output
const (
	VersionTextTemplate = "holoware version %s\nGo: %s"
	VersionUnknown      = "unknown"
)

// Validation output
const (
	ValidationTextSuccess = "Template is valid"
)

// CLI metadata
const (
	CLIName        = "holoware"
	CLIDescription = "prompt template engine CLI"
)
