package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"restbench/internal/api"
	"restbench/internal/collection"
	"restbench/internal/config"
	"restbench/internal/executor"
	"restbench/internal/history"
	"restbench/internal/session"
	"restbench/internal/workbench"
)

var rootCmd = &cobra.Command{
	Use:   "restbench",
	Short: "A workbench for composing and organizing HTTP requests",
	Long: `restbench is a client-side workbench for API testing.

Requests are dispatched through the backend proxy. With a session present,
every dispatch lands in the remote history, and requests can be organized
into named collections.

Examples:
  restbench get https://api.example.com/users
  restbench post https://api.example.com/users -d '{"name": "John"}'
  restbench history
  restbench collection list`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers and debug logs")
}

// app bundles the stores and glue commands operate on. Each invocation
// builds a fresh one, the way the original shell constructed its providers
// once per session.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	session *session.FileProvider
	client  *api.Client
	exec    *executor.Executor
	history *history.Store
	cols    *collection.Store
	bench   *workbench.Session
}

func newApp(cmd *cobra.Command) (*app, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)

	cfg := config.Load()

	sess, err := session.NewFileProvider()
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.BaseURL, cfg.Timeout, sess, log)
	exec := executor.New(client, log)
	hist := history.NewStore(client, sess, log)
	cols := collection.NewStore(client, sess, log)

	return &app{
		cfg:     cfg,
		log:     log,
		session: sess,
		client:  client,
		exec:    exec,
		history: hist,
		cols:    cols,
		bench:   workbench.NewSession(exec, hist, sess, log),
	}, nil
}
