package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/holoware-dev/holoware-go"
)

type dumpConfig struct {
	templatePath string
}

func runDump(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseDumpFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgMissingTemplate, err)
		return ExitCodeUsageError
	}

	source, err := readInput(cfg.templatePath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgReadFileFailed, err)
		return ExitCodeInputError
	}

	tmpl, err := holoware.Compile(cfg.templatePath, string(source))
	if err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgCompileFailed, err)
		return ExitCodeError
	}

	if _, err := io.WriteString(stdout, tmpl.Dump()); err != nil {
		fmt.Fprintf(stderr, FmtErrorWithCause, ErrMsgWriteOutputFailed, err)
		return ExitCodeError
	}
	return ExitCodeSuccess
}

func parseDumpFlags(args []string) (*dumpConfig, error) {
	fs := flag.NewFlagSet(CmdNameDump, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	cfg := &dumpConfig{}
	fs.StringVar(&cfg.templatePath, FlagTemplate, "", "")
	fs.StringVar(&cfg.templatePath, FlagTemplateShort, "", "")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if cfg.templatePath == "" {
		return nil, errors.New(ErrMsgMissingTemplate)
	}
	return cfg, nil
}
