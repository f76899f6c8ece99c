package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/crillab/gophereuf/euf"
	"github.com/crillab/gophereuf/explain"
	"github.com/crillab/gophereuf/internal/config"
	"github.com/crillab/gophereuf/internal/metrics"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

type flags struct {
	configPath string
	verbose    bool
	display    bool
	minimize   string
	maxSteps   uint64
	timeout    time.Duration
	jobs       int
	metrics    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "gophereuf [flags] FILE...",
		Short: "Check the consistency of sets of ground literals",
		Long: `Check whether the equalities, disequalities and boolean literals asserted in each file
have a model in the theory of uninterpreted functions and constructors.
For each file, the status is printed and, if the file is inconsistent, the literals explaining why.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.config(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "print statistics")
	fl.BoolVar(&f.display, "display", false, "print the state of the graph after each check")
	fl.StringVar(&f.minimize, "minimize", config.MinimizeNone, "minimize cores (none, deletion or insertion)")
	fl.Uint64Var(&f.maxSteps, "max-steps", 0, "maximum number of merges per file, 0 for no limit")
	fl.DurationVar(&f.timeout, "timeout", 0, "maximum duration of each check, 0 for no limit")
	fl.IntVar(&f.jobs, "jobs", 1, "number of files checked in parallel")
	fl.StringVar(&f.metrics, "metrics", "", "write statistics to this Prometheus textfile")
	fl.StringVar(&f.logLevel, "log-level", "warning", "log level (trace, debug, info, warning, error)")
	return cmd
}

// config loads the configuration file, if any, and applies the flags that were set.
func (f flags) config(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return cfg, err
		}
	}
	fl := cmd.Flags()
	if fl.Changed("minimize") {
		cfg.Minimize = f.minimize
	}
	if fl.Changed("max-steps") {
		cfg.MaxSteps = f.maxSteps
	}
	if fl.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if fl.Changed("jobs") {
		cfg.Jobs = f.jobs
	}
	if fl.Changed("metrics") {
		cfg.Metrics.Path = f.metrics
	}
	if fl.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func newLogger(cfg config.Log, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	lvl, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		lvl = logrus.WarnLevel
	}
	log.SetLevel(lvl)
	format := cfg.Format
	if format == config.FormatAuto {
		format = config.FormatJSON
		if f, ok := out.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = config.FormatText
		}
	}
	if format == config.FormatJSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// run checks the files concurrently and prints the reports in the order of files.
func run(ctx context.Context, cfg config.Config, f flags, files []string, out, errOut io.Writer) error {
	log := newLogger(cfg.Log, errOut)
	var rec *metrics.Recorder
	if cfg.Metrics.Path != "" {
		rec = metrics.New(cfg.Metrics.Namespace)
	}
	reports := make([]bytes.Buffer, len(files))
	var g errgroup.Group
	g.SetLimit(cfg.Jobs)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			c := checker{cfg: cfg, flags: f, log: log.WithField("file", path), rec: rec}
			return c.checkFile(ctx, path, &reports[i])
		})
	}
	err := g.Wait()
	for i := range reports {
		if _, werr := reports[i].WriteTo(out); werr != nil && err == nil {
			err = werr
		}
	}
	if rec != nil {
		if merr := rec.WriteTextfile(cfg.Metrics.Path); merr != nil && err == nil {
			err = merr
		}
	}
	return err
}

type checker struct {
	cfg   config.Config
	flags flags
	log   logrus.FieldLogger
	rec   *metrics.Recorder
}

func parse(path string) (*explain.Problem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %q", path)
	}
	defer f.Close()
	pb, err := explain.ParseProblem(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse %q", path)
	}
	return pb, nil
}

func (c checker) checkFile(ctx context.Context, path string, w io.Writer) error {
	fmt.Fprintf(w, "c %s\n", path)
	pb, err := parse(path)
	if err != nil {
		c.log.WithError(err).Error("could not check file")
		return err
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	var display bytes.Buffer
	pb.Options = explain.Options{Log: c.log, MaxSteps: c.cfg.MaxSteps, Irrelevant: !c.cfg.DefaultRelevant}
	if c.flags.display {
		pb.Options.Display = &display
	}
	start := time.Now()
	res, err := pb.Check(ctx)
	if err != nil {
		return errors.Wrapf(err, "could not check %q", path)
	}
	c.log.WithFields(logrus.Fields{"status": res.Status, "duration": time.Since(start)}).Info("checked")
	if c.rec != nil {
		for k, v := range res.Stats {
			c.rec.Update(k, v)
		}
		c.rec.Observe(res.Status.String(), time.Since(start))
	}
	sc := bufio.NewScanner(&display)
	for sc.Scan() {
		fmt.Fprintf(w, "c %s\n", sc.Text())
	}
	fmt.Fprintf(w, "s %s\n", res.Status)
	if res.Status == explain.Inconsistent {
		core := pb.Sub(res.Core)
		if mus := c.minimize(ctx, pb); mus != nil {
			core = mus
		}
		for _, lit := range core.Lits {
			fmt.Fprintf(w, "e %s\n", lit)
		}
	}
	if c.flags.verbose {
		keys := make([]string, 0, len(res.Stats))
		for k := range res.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "c %s: %d\n", k, res.Stats[k])
		}
	}
	return nil
}

// minimize returns a MUS of pb according to the configuration, or nil if none is wanted or
// it could not be computed in time.
func (c checker) minimize(ctx context.Context, pb *explain.Problem) *explain.Problem {
	var (
		mus *explain.Problem
		err error
	)
	switch c.cfg.Minimize {
	case config.MinimizeDeletion:
		mus, err = pb.MUSDeletion(ctx)
	case config.MinimizeInsertion:
		mus, err = pb.MUSInsertion(ctx)
	default:
		return nil
	}
	if err != nil {
		entry := c.log.WithError(err)
		if errors.Is(err, euf.ErrIncomplete) {
			entry.Warn("core not minimized")
		} else {
			entry.Error("core not minimized")
		}
		return nil
	}
	return mus
}
