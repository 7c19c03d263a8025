package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/subhransupk/shelfcure-sub008/internal/bootstrap"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/sequence"
	"github.com/subhransupk/shelfcure-sub008/internal/domain/shared"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/config"
	"github.com/subhransupk/shelfcure-sub008/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	exitOK       = 0
	exitError    = 1
	exitFindings = 2
)

// outcome is what a command hands back for printing. Findings marks a
// result that needs operator attention.
type outcome struct {
	Result   any
	Findings bool
}

type command struct {
	name    string
	usage   string
	flags   func(fs *flag.FlagSet, a *cmdArgs)
	execute func(ctx context.Context, svc *bootstrap.Services, a *cmdArgs) (outcome, error)
}

type cmdArgs struct {
	tenant   string
	supplier string
	actor    string
	note     string
	scope    string
	value    int64
}

func (a *cmdArgs) tenantID() (uuid.UUID, error) {
	return parseRequiredID("tenant", a.tenant)
}

func (a *cmdArgs) supplierID() (uuid.UUID, error) {
	return parseRequiredID("supplier", a.supplier)
}

func (a *cmdArgs) optionalTenant() (*uuid.UUID, error) {
	if a.tenant == "" {
		return nil, nil
	}
	id, err := a.tenantID()
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (a *cmdArgs) actorID() (*uuid.UUID, error) {
	if a.actor == "" {
		return nil, nil
	}
	id, err := parseRequiredID("actor", a.actor)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func (a *cmdArgs) scopeKey() (sequence.ScopeKey, error) {
	key := sequence.ScopeKey(a.scope)
	if err := key.Validate(); err != nil {
		return "", err
	}
	return key, nil
}

func parseRequiredID(name, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, shared.NewValidationError(fmt.Sprintf("-%s is required", name))
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, shared.NewValidationError(fmt.Sprintf("-%s must be a UUID", name))
	}
	return id, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("ledgerctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	configPath := global.String("config", "", "Path to config file")
	logLevel := global.String("log-level", "warn", "Log level written to stderr")
	global.Usage = func() { printUsage(stderr) }
	if err := global.Parse(args); err != nil {
		return exitError
	}
	if global.NArg() == 0 {
		printUsage(stderr)
		return exitError
	}

	cmd, ok := commands[global.Arg(0)]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", global.Arg(0))
		printUsage(stderr)
		return exitError
	}

	var a cmdArgs
	fs := flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	cmd.flags(fs, &a)
	if err := fs.Parse(global.Args()[1:]); err != nil {
		return exitError
	}

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fail(stdout, err)
	}
	log, err := logger.New(&logger.Config{
		Level:      *logLevel,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fail(stdout, err)
	}
	defer func() {
		_ = log.Sync()
	}()

	svc, err := bootstrap.Open(ctx, cfg, log)
	if err != nil {
		return fail(stdout, err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Warn("Error closing database", zap.Error(err))
		}
	}()

	out, err := cmd.execute(ctx, svc, &a)
	if err != nil {
		return fail(stdout, err)
	}
	if err := writeJSON(stdout, out.Result); err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if out.Findings {
		return exitFindings
	}
	return exitOK
}

type errorOutput struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func fail(w io.Writer, err error) int {
	var out errorOutput
	out.Error.Code = "INTERNAL_ERROR"
	out.Error.Message = err.Error()
	var de *shared.DomainError
	if errors.As(err, &de) {
		out.Error.Code = de.Code
		out.Error.Message = de.Message
	}
	_ = writeJSON(w, out)
	return exitError
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Usage: ledgerctl [-config file] [-log-level level] <command> [flags]\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-18s %s\n", name, commands[name].usage)
	}
	b.WriteString("\nExit codes: 0 clean, 1 error, 2 drift or duplicates found\n")
	fmt.Fprint(w, b.String())
}
