package main // Entry point package

import (
	"os" // process exit codes

	"github.com/joho/godotenv"       // loads .env into the environment
	"github.com/labstack/gommon/log" // application logger
	"github.com/spf13/cobra"         // command line parsing

	"github.com/iliyamo/eco-adventures-backend/internal/config" // Internal config loader
)

var rootCmd = &cobra.Command{
	Use:   "eco-adventures",
	Short: "Eco Adventures course and registration API",
	Long: `Backend for the eco-adventures site: course catalogue, instructors,
activities, FAQs and course registrations with seat accounting.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

// newLogger builds the JSON-capable gommon logger shared by echo, the
// services and the event consumer.
func newLogger(cfg config.Config) *log.Logger {
	logger := log.New("eco")
	logger.SetLevel(cfg.LogLvl())
	logger.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`)
	return logger
}

func main() {
	// A missing .env is fine; real deployments set variables directly.
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
