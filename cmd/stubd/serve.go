package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getstubd/stubd/pkg/config"
	"github.com/getstubd/stubd/pkg/logging"
	"github.com/getstubd/stubd/pkg/server"
)

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	rules        []string
	host         string
	port         int
	printURL     bool
	logLevel     string
	logFormat    string
	noRecord     bool
	maxLog       int
	drainTimeout time.Duration
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve [rule-file...]",
	Short: "Run the mock server in the foreground",
	Long: `Run the mock server in the foreground until SIGTERM/SIGINT.

Rules are loaded from the given files and --rules patterns (globs with **
support). On shutdown every rule's call-count expectation is verified;
violations are reported and set a non-zero exit code.`,
	Example: `  # Serve rules from a file
  stubd serve mocks.yaml

  # Serve every rule file under a directory, auto-assign a port
  stubd serve --rules 'rules/**/*.yaml' --port 0 --print-url

  # JSON logs for CI parsing
  stubd serve mocks.yaml --log-format json`,
	RunE: runServe,
}

func init() {
	f := &serveFlagVals

	serveCmd.Flags().StringSliceVarP(&f.rules, "rules", "r", nil, "Rule file or glob pattern (repeatable)")
	serveCmd.Flags().StringVar(&f.host, "host", "127.0.0.1", "Bind address")
	serveCmd.Flags().IntVarP(&f.port, "port", "p", 4280, "HTTP server port (0 = OS auto-assign)")
	serveCmd.Flags().BoolVar(&f.printURL, "print-url", false, "Print the server URL to stdout on startup")
	serveCmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
	serveCmd.Flags().BoolVar(&f.noRecord, "no-record", false, "Disable request recording")
	serveCmd.Flags().IntVar(&f.maxLog, "max-log-entries", 0, "Bound the request log (0 = unbounded)")
	serveCmd.Flags().DurationVar(&f.drainTimeout, "drain-timeout", server.DefaultDrainTimeout, "In-flight request drain bound at shutdown")
}

func runServe(_ *cobra.Command, args []string) error {
	f := &serveFlagVals

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(f.logLevel),
		Format: logging.ParseFormat(f.logFormat),
	})

	opts := []server.Option{
		server.WithHost(f.host),
		server.WithPort(f.port),
		server.WithLogger(log.With("component", "server")),
		server.WithDrainTimeout(f.drainTimeout),
		server.WithRecording(!f.noRecord),
	}
	if f.maxLog > 0 {
		opts = append(opts, server.WithRequestLogLimit(f.maxLog))
	}
	srv := server.New(opts...)

	ruleCount, err := mountRuleFiles(srv, append(args, f.rules...))
	if err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		var bindErr *server.BindError
		if errors.As(err, &bindErr) {
			return fmt.Errorf("%s is already in use — try --port 0 for auto-assign", bindErr.Addr)
		}
		return fmt.Errorf("failed to start server: %w", err)
	}

	if f.printURL {
		fmt.Println(srv.URL())
	}
	log.Info("server started", "addr", srv.Addr(), "rules", ruleCount)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	if err := srv.Stop(); err != nil {
		return err
	}
	return nil
}

// mountRuleFiles loads every rule file matching the given patterns, in
// sorted path order per pattern, and mounts the rules globally. Relative
// bodyFile paths resolve against each rule file's directory.
func mountRuleFiles(srv *server.Server, patterns []string) (int, error) {
	count := 0
	for _, pattern := range patterns {
		matches, err := config.ExpandGlob(pattern)
		if err != nil {
			return 0, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return 0, fmt.Errorf("no rule files match %q", pattern)
		}
		sort.Strings(matches)

		for _, path := range matches {
			cfgs, err := config.LoadFile(path)
			if err != nil {
				return 0, err
			}
			for i, cfg := range cfgs {
				r, err := cfg.ToRule(filepath.Dir(path))
				if err != nil {
					return 0, fmt.Errorf("%s: rule %d: %w", path, i, err)
				}
				srv.Mount(r)
				count++
			}
		}
	}
	return count, nil
}
