package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/holoware-dev/holoware-go"
)

// validateConfig holds parsed validate command configuration.
type validateConfig struct {
	templatePath string
	format       string
}

type validationOutput struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

func runValidate(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseValidateFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingTemplate, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	_, compileErr := holoware.Compile(cfg.templatePath, string(source))

	if cfg.format == OutputFormatJSON {
		return outputValidationJSON(compileErr, stdout)
	}
	return outputValidationText(compileErr, stdout)
}

func parseValidateFlags(args []string) (*validateConfig, error) {
	fs := flag.NewFlagSet(CmdNameValidate, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &validateConfig{}
	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")
	fs.StringVar(&cfg.format, FlagFormat, FlagDefaultFormat, "")
	fs.StringVar(&cfg.format, FlagFormatShort, FlagDefaultFormat, "")

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

func outputValidationText(compileErr error, stdout io.Writer) int {
	if compileErr == nil {
		fmt.Fprintln(stdout, ValidationTextSuccess)
		return ExitCodeSuccess
	}
	fmt.Fprintf(stdout, FmtErrorWithCause, ErrMsgCompileFailed, compileErr)
	return ExitCodeValidationError
}

func outputValidationJSON(compileErr error, stdout io.Writer) int {
	output := validationOutput{Valid: compileErr == nil}
	if compileErr != nil {
		output.Error = compileErr.Error()
	}
	jsonBytes, _ := json.MarshalIndent(output, "", "  ")
	fmt.Fprintln(stdout, string(jsonBytes))
	if compileErr != nil {
		return ExitCodeValidationError
	}
	return ExitCodeSuccess
}
