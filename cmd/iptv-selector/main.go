package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alorle/iptv-selector/config"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

// configError marks failures that stem from invalid configuration.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// options holds the command-line flags shared by every command.
type options struct {
	configPath    string
	mode          string
	output        string
	candidates    []string
	candidateList string
	reference     string
	logLevel      string
	dbPath        string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)

	var cerr *configError
	if errors.As(err, &cerr) {
		return exitConfig
	}
	return exitFailed
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "iptv-selector",
		Short:         "Select the best IPTV playlist and publish a normalized channel lineup",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file (default config.yaml or $CONFIG_FILE)")
	flags.StringVar(&opts.mode, "mode", "", "Selection mode: speed or fallback")
	flags.StringVarP(&opts.output, "output", "o", "", "Output playlist path")
	flags.StringSliceVar(&opts.candidates, "candidate", nil, "Candidate playlist URL (repeatable)")
	flags.StringVar(&opts.candidateList, "candidate-list", "", "URL of the candidate list; \"none\" disables it")
	flags.StringVar(&opts.reference, "reference", "", "Reference channel probed in each candidate")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.dbPath, "db", "", "Probe history database path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate candidates once and write the output playlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runOnce(cmd, opts)
		},
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the playlist over HTTP and refresh it on a schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored probe outcomes per candidate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts, stdout)
		},
	}
	historyCmd.Flags().Duration("window", 0, "Only include probes newer than this (0 = all)")
	historyCmd.Flags().String("source", "", "Print the recent records of one source instead of summaries")
	historyCmd.Flags().Int("limit", 20, "Maximum number of records printed with --source")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			cfg.Print(stdout)
			return nil
		},
	}

	root.AddCommand(runCmd, serveCmd, historyCmd, configCmd)
	return root
}

// loadConfig loads file and environment configuration and applies the
// flags that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, &configError{err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = opts.mode
	}
	if flags.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if flags.Changed("candidate") {
		cfg.Candidates = opts.candidates
	}
	if flags.Changed("candidate-list") {
		cfg.CandidateList.URL = opts.candidateList
		if opts.candidateList == "none" {
			cfg.CandidateList.URL = ""
		}
	}
	if flags.Changed("reference") {
		cfg.Probe.ReferenceChannel = opts.reference
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath = opts.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, &configError{err: err}
	}
	return cfg, nil
}
