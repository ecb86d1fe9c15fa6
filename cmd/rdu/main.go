package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bamsammich/rdu/internal/config"
	"github.com/bamsammich/rdu/internal/engine"
	"github.com/bamsammich/rdu/internal/filter"
	"github.com/bamsammich/rdu/internal/stats"
	"github.com/bamsammich/rdu/internal/transport"
	"github.com/bamsammich/rdu/internal/ui"
)

var version = "dev"

var (
	_ pflag.Value = strategyFlag{}
	_ pflag.Value = (*filterFlag)(nil)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// strategyFlag is a pflag.Value that validates the strategy name at parse
// time.
type strategyFlag struct {
	s *engine.Strategy
}

func (f strategyFlag) String() string {
	if f.s == nil {
		return engine.DefaultStrategy.String()
	}
	return f.s.String()
}

func (strategyFlag) Type() string { return "strategy" }

func (f strategyFlag) Set(val string) error {
	s, err := engine.ParseStrategy(val)
	if err != nil {
		return err
	}
	*f.s = s
	return nil
}

// filterFlag is a pflag.Value that keeps --exclude and --include rules in
// command-line order on a shared chain.
type filterFlag struct {
	chain   *filter.Chain
	include bool
}

func (*filterFlag) String() string { return "" }
func (*filterFlag) Type() string   { return "pattern" }

func (f *filterFlag) Set(val string) error {
	if f.include {
		return f.chain.AddInclude(val)
	}
	return f.chain.AddExclude(val)
}

type options struct {
	chain         *filter.Chain
	strategy      engine.Strategy
	workers       int
	rateLimit     float64
	humanReadable bool
	si            bool
	progress      bool
	verbose       bool
	quiet         bool
	showVersion   bool
	logFile       string
	excludeFrom   string
	minSize       string
	maxSize       string
	sshKeyFile    string
	sshPort       int
}

func (o *options) sizeFormat() ui.SizeFormat {
	switch {
	case o.si:
		return ui.Decimal
	case o.humanReadable:
		return ui.Binary
	default:
		return ui.Raw
	}
}

// app carries the state shared between the root command and subcommands.
type app struct {
	stdout  io.Writer
	stderr  io.Writer
	closers []io.Closer
	opts    options
}

func run(args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	defer a.close()

	rootCmd := a.rootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	opts := &a.opts
	opts.strategy = engine.DefaultStrategy
	opts.chain = filter.NewChain()

	rootCmd := &cobra.Command{
		Use:   "rdu [flags] [dir]",
		Short: "Report the total apparent size of regular files under a directory",
		Long: `rdu walks a directory tree without following symlinks and prints the sum
of the apparent sizes of every regular file beneath it. The root may be a
local path or a remote [user@]host:path reached over SFTP.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintf(a.stdout, "rdu %s\n", version)
				return nil
			}
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return a.scan(root)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&opts.workers, "workers", "n", engine.DefaultWorkers(),
		"worker count for pool; in-flight cap for eventloop (0 = uncapped)")
	pf.Float64Var(&opts.rateLimit, "rate-limit", 0, "cap metadata operations per second (0 = unlimited)")
	pf.BoolVarP(&opts.humanReadable, "human-readable", "H", false, "print sizes in powers of 1024 (KiB, MiB, ...)")
	pf.BoolVar(&opts.si, "si", false, "print sizes in powers of 1000 (kB, MB, ...)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	pf.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except the result and errors")
	pf.StringVar(&opts.logFile, "log", "", "write structured JSON log to FILE")
	pf.Var(&filterFlag{chain: opts.chain}, "exclude", "skip entries matching PATTERN (repeatable)")
	pf.Var(&filterFlag{chain: opts.chain, include: true}, "include",
		"keep entries matching PATTERN even if a later --exclude matches (repeatable)")
	pf.StringVar(&opts.excludeFrom, "exclude-from", "", "read exclude/include rules from FILE")
	pf.StringVar(&opts.minSize, "min-size", "", "ignore files smaller than SIZE (e.g. 4K, 1M)")
	pf.StringVar(&opts.maxSize, "max-size", "", "ignore files larger than SIZE (e.g. 1G)")
	pf.StringVar(&opts.sshKeyFile, "ssh-key", "", "SSH private key file (default: auto-detect)")
	pf.IntVar(&opts.sshPort, "ssh-port", transport.DefaultSSHPort, "SSH port")

	rootCmd.Flags().Var(strategyFlag{s: &opts.strategy}, "strategy",
		"traversal strategy: sequential, fanout, pool or eventloop")
	rootCmd.Flags().BoolVar(&opts.progress, "progress", false, "report progress on stderr while scanning")
	rootCmd.Flags().BoolVar(&opts.showVersion, "version", false, "print version and exit")

	rootCmd.AddCommand(a.compareCmd())
	rootCmd.AddCommand(newDocsCmd())

	return rootCmd
}

// setup configures logging, then folds config file defaults into flags the
// user did not set.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := a.setupLogging(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "path", config.Path(), "error", err)
	}
	if err := applyConfigDefaults(cmd, cfg, &a.opts); err != nil {
		return fmt.Errorf("config %s: %w", config.Path(), err)
	}

	if a.opts.rateLimit < 0 {
		return fmt.Errorf("invalid --rate-limit %g: must not be negative", a.opts.rateLimit)
	}
	if a.opts.workers < 0 {
		return fmt.Errorf("invalid --workers %d: must not be negative", a.opts.workers)
	}
	return a.opts.loadFilters()
}

// loadFilters completes the chain with rules from --exclude-from and the
// size bounds.
func (o *options) loadFilters() error {
	if o.excludeFrom != "" {
		if err := o.chain.LoadFile(o.excludeFrom); err != nil {
			return err
		}
	}
	if o.minSize != "" {
		n, err := filter.ParseSize(o.minSize)
		if err != nil {
			return fmt.Errorf("invalid --min-size: %w", err)
		}
		o.chain.SetMinSize(n)
	}
	if o.maxSize != "" {
		n, err := filter.ParseSize(o.maxSize)
		if err != nil {
			return fmt.Errorf("invalid --max-size: %w", err)
		}
		o.chain.SetMaxSize(n)
	}
	return nil
}

func (a *app) setupLogging() error {
	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	} else if !a.opts.quiet {
		level = slog.LevelInfo
	}

	var handler slog.Handler = slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level})
	if a.opts.logFile != "" {
		lf, err := os.Create(a.opts.logFile)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.closers = append(a.closers, lf)
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug}).
			WithAttrs([]slog.Attr{slog.String("run_id", uuid.NewString())})
		handler = ui.NewMultiHandler(handler, jsonHandler)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// applyConfigDefaults applies config file defaults for flags not explicitly
// set on the CLI.
func applyConfigDefaults(cmd *cobra.Command, cfg config.Config, opts *options) error {
	d := cfg.Defaults
	changed := cmd.Flags().Changed

	if !changed("strategy") && d.Strategy != nil {
		s, err := engine.ParseStrategy(*d.Strategy)
		if err != nil {
			return err
		}
		opts.strategy = s
	}
	if !changed("workers") && d.Workers != nil {
		opts.workers = *d.Workers
	}
	if !changed("human-readable") && d.HumanReadable != nil {
		opts.humanReadable = *d.HumanReadable
	}
	if !changed("si") && d.SI != nil {
		opts.si = *d.SI
	}
	if !changed("rate-limit") && d.RateLimit != nil {
		opts.rateLimit = *d.RateLimit
	}
	if !changed("ssh-key") && cfg.SSH.KeyFile != nil {
		opts.sshKeyFile = *cfg.SSH.KeyFile
	}
	if !changed("ssh-port") && cfg.SSH.Port != nil {
		opts.sshPort = *cfg.SSH.Port
	}
	return nil
}

// openSource returns the Source for a root argument along with the path to
// walk on it.
//
//nolint:ireturn // Source is local or SFTP, optionally throttled and filtered
func (a *app) openSource(arg string) (transport.Source, string, error) {
	loc := transport.ParseLocation(arg)
	src, err := transport.Open(loc, transport.SSHOpts{
		KeyFile: a.opts.sshKeyFile,
		Port:    a.opts.sshPort,
	})
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", loc, err)
	}
	if a.opts.rateLimit > 0 {
		src = transport.NewThrottled(src, a.opts.rateLimit)
	}
	if !a.opts.chain.Empty() {
		src = filter.Wrap(src, loc.Path, a.opts.chain)
	}
	return src, loc.Path, nil
}

func (a *app) scan(arg string) error {
	src, root, err := a.openSource(arg)
	if err != nil {
		slog.Error("scan failed", "root", arg, "error", err)
		return &exitError{code: 1}
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	stopProgress := a.startProgress(ctx, collector)

	result := engine.Run(ctx, engine.Config{
		Source:   src,
		Stats:    collector,
		Strategy: a.opts.strategy,
		Workers:  a.opts.workers,
	}, root)
	stopProgress()

	if a.opts.verbose && !a.opts.quiet {
		fmt.Fprintln(a.stderr, ui.CompletionSummary(result.Stats, a.opts.sizeFormat()))
	}
	if result.Err != nil {
		slog.Error("scan failed",
			"root", arg,
			"kind", transport.KindOf(result.Err).String(),
			"error", result.Err,
		)
		return &exitError{code: 1}
	}

	fmt.Fprintln(a.stdout, ui.SummaryLine(result.Total, a.opts.sizeFormat(), arg))
	return nil
}

// startProgress launches the progress reporter when requested and returns a
// function that stops it and waits for the line to be cleared.
func (a *app) startProgress(ctx context.Context, c *stats.Collector) func() {
	if !a.opts.progress || a.opts.quiet {
		return func() {}
	}

	tty, width := ui.Terminal(a.stderr)

	slots := 0
	switch a.opts.strategy {
	case engine.Pool:
		slots = a.opts.workers
		if slots <= 0 {
			slots = engine.DefaultWorkers()
		}
	case engine.EventLoop:
		slots = a.opts.workers
	}

	p := ui.NewProgress(ui.ProgressConfig{
		Writer: a.stderr,
		Stats:  c,
		Format: a.opts.sizeFormat(),
		Slots:  slots,
		Width:  width,
		TTY:    tty,
	})

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
