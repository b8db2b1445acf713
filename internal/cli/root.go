package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flyfishxu/aurora/internal/compiler"
	"github.com/flyfishxu/aurora/internal/diagnostics"
	"github.com/flyfishxu/aurora/internal/frontend/lexer"
)

const version = "0.7.0"

// RootOptions holds the flags of the aurora command.
type RootOptions struct {
	ShowVersion bool
	Debug       bool
	Trace       bool
	LogLevel    string
	LexOnly     bool
	EmitLLVM    bool
	Output      string
	TypeDemo    bool
}

var logLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "off": true,
}

// NewRootCommand creates the aurora command:
// aurora [flags] <file.aur>
// The resolved exit code is written through exitCode.
func NewRootCommand(exitCode *int) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "aurora [flags] <file.aur>",
		Short: "The Aurora language compiler",
		Long: `Aurora - A Modern LLVM-Powered Language

Compiles Aurora source to LLVM IR and runs it, returning the
program's result as the process exit code.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := run(opts, args, cmd)
			*exitCode = code
			return err
		},
	}

	cmd.Flags().BoolVarP(&opts.ShowVersion, "version", "v", false, "show version information")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "enable debug mode (same as --log-level debug)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "enable trace mode (most verbose)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "off", "log level: trace|debug|info|warn|error|off")
	cmd.Flags().BoolVar(&opts.LexOnly, "lex", false, "show lexer tokens only")
	cmd.Flags().BoolVar(&opts.EmitLLVM, "emit-llvm", false, "emit LLVM IR to file (default output.ll)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file for --emit-llvm")
	cmd.Flags().BoolVar(&opts.TypeDemo, "type-demo", false, "show type system demo")

	return cmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	exitCode := 0
	cmd := NewRootCommand(&exitCode)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

func run(opts *RootOptions, args []string, cmd *cobra.Command) (int, error) {
	if opts.ShowVersion {
		printVersion(cmd)
		return 0, nil
	}

	if opts.TypeDemo {
		demonstrateTypeSystem(cmd)
		return 0, nil
	}

	if !logLevels[opts.LogLevel] {
		return 1, fmt.Errorf("invalid log level: %s", opts.LogLevel)
	}

	if len(args) < 1 {
		cmd.Usage()
		return 1, fmt.Errorf("no input file specified")
	}
	filename := args[0]

	debug := opts.Debug || opts.Trace ||
		opts.LogLevel == "debug" || opts.LogLevel == "trace"

	if opts.LexOnly {
		return lexOnly(filename)
	}

	result := compiler.Compile(&compiler.Options{
		EntryFile: filename,
		EmitLLVM:  opts.EmitLLVM,
		Output:    opts.Output,
		Args:      args[1:],
		Debug:     debug,
	})

	return result.ExitCode, nil
}

// lexOnly dumps the token stream and exits.
func lexOnly(filename string) (int, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return 1, fmt.Errorf("cannot open file: %s", filename)
	}

	diag := diagnostics.NewBag()
	diag.AddSourceContent(filename, string(content))

	lex := lexer.New(filename, string(content), diag)
	lex.Tokenize(true)

	diag.EmitAll()
	if diag.HasErrors() {
		return 1, nil
	}
	return 0, nil
}

func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Aurora version %s\n", version)
	fmt.Fprintln(out, "Copyright (c) 2025 Aurora Project")
}
