package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/VladMinzatu/calltree/internal/config"
	"github.com/VladMinzatu/calltree/internal/exporter"
	"github.com/VladMinzatu/calltree/internal/pprof"
	"github.com/VladMinzatu/calltree/internal/symbolizer"
	"github.com/VladMinzatu/calltree/internal/trace"
	"github.com/spf13/cobra"
)

const usage = "Usage: calltree <binary name>"

var errUsage = errors.New("missing binary argument")

// NewRootCmd builds the calltree command. Rendered output goes to the
// command's stdout, logs to stderr.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:   "calltree <binary>",
		Short: "Render a function enter/exit trace as an indented call tree",
		Long: `calltree reads the trace written by a program built with function
instrumentation and prints every enter and exit as an indented call tree,
resolving addresses to demangled names from the binary's symbol table.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				fmt.Fprintln(cmd.ErrOrStderr(), usage)
				return errUsage
			}
			cfg, err := config.Load(v, args[0])
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel})))
			return run(cfg, cmd.OutOrStdout())
		},
	}

	flags := rootCmd.Flags()
	flags.String(config.KeyTrace, config.DefaultTracePath, "trace stream to read")
	flags.String(config.KeyFIFO, "", "named pipe to create when missing (defaults to --trace)")
	flags.Bool(config.KeyNoFIFO, false, "do not create a named pipe before reading")
	flags.String(config.KeyLister, config.ListerNm, "symbol listing source: nm, elf or file")
	flags.String(config.KeySymbolsFile, "", "captured \"nm -o\" listing, used with --lister=file")
	flags.String(config.KeyDemangler, config.DemanglerCxxFilt, "demangler: c++filt, itanium or none")
	flags.StringSlice(config.KeyDemangleOptions, nil, fmt.Sprintf("itanium demangler options %v", symbolizer.DemangleOptions))
	flags.String(config.KeyIndent, config.DefaultIndentUnit, "indentation unit per call level")
	flags.String(config.KeyFolded, "", "write call paths in folded stack format to this file")
	flags.String(config.KeyPprof, "", "write call counts as a pprof profile to this file")
	flags.String(config.KeyLogLevel, "warn", "log level: debug, info, warn or error")
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
	return rootCmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errUsage) {
			slog.Error("calltree failed", "error", err)
		}
		return 1
	}
	return 0
}

func run(cfg *config.Config, out io.Writer) error {
	if !cfg.NoFIFO {
		if _, err := trace.EnsureFIFO(cfg.FIFOPath); err != nil {
			return err
		}
	}

	lister, err := newLister(cfg)
	if err != nil {
		return err
	}
	demangler, err := newDemangler(cfg)
	if err != nil {
		return err
	}
	table, err := symbolizer.BuildTable(lister, demangler, cfg.Binary)
	if err != nil {
		return fmt.Errorf("building symbol table: %w", err)
	}

	stream, err := trace.OpenStream(cfg.TracePath)
	if err != nil {
		return err
	}
	defer stream.Close()

	done := make(chan struct{})
	defer close(done)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	go func() {
		select {
		case <-stop:
			// unblocks the pending read so exports still get written
			stream.Close()
		case <-done:
		}
	}()

	opts := []trace.Option{trace.WithIndent(cfg.Indent)}
	var paths *exporter.CallPaths
	if cfg.FoldedPath != "" || cfg.PprofPath != "" {
		paths = exporter.NewCallPaths()
		opts = append(opts, trace.WithObserver(paths))
	}

	r := trace.NewRenderer(table, out, opts...)
	if err := r.Render(trace.NewLineReader(stream)); err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	s := r.Stats()
	slog.Info("Trace rendered", "records", s.Records, "events", s.Events, "unresolved", s.Unresolved,
		"malformed", s.Malformed, "underflows", s.Underflows, "maxDepth", s.MaxDepth, "openFrames", s.Depth)

	if paths == nil {
		return nil
	}
	paths.Flush()
	if cfg.FoldedPath != "" {
		if err := exporter.WriteFoldedStacksToFile(paths.Paths(), cfg.FoldedPath); err != nil {
			return fmt.Errorf("writing folded stacks: %w", err)
		}
	}
	if cfg.PprofPath != "" {
		if err := pprof.WriteProfileFile(pprof.BuildCallProfile(paths.Paths()), cfg.PprofPath); err != nil {
			return fmt.Errorf("writing pprof profile: %w", err)
		}
	}
	return nil
}

func newLister(cfg *config.Config) (symbolizer.SymbolLister, error) {
	switch cfg.Lister {
	case config.ListerNm:
		return symbolizer.NewNmLister(), nil
	case config.ListerElf:
		return symbolizer.NewElfLister(), nil
	case config.ListerFile:
		return symbolizer.NewFileLister(cfg.SymbolsFile), nil
	}
	return nil, fmt.Errorf("unknown lister %q", cfg.Lister)
}

func newDemangler(cfg *config.Config) (symbolizer.Demangler, error) {
	switch cfg.Demangler {
	case config.DemanglerCxxFilt:
		return symbolizer.NewCxxFilt(), nil
	case config.DemanglerItanium:
		return symbolizer.NewItaniumDemangler(cfg.DemangleOptions...)
	case config.DemanglerNone:
		return symbolizer.NopDemangler{}, nil
	}
	return nil, fmt.Errorf("unknown demangler %q", cfg.Demangler)
}
