package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/headlines"
	"github.com/pders01/headlines/internal/paging"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/session"
	"github.com/pders01/headlines/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	flagConfig   string
	flagCountry  string
	flagPageSize int
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "headlines",
	Short:         "Top news headlines in your terminal",
	Long:          "headlines pages through the top headlines of a news API or RSS feed in a terminal UI.",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		tui.WriteBanner(out, Version)
		fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagCountry, "country", "", "two-letter country code (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagPageSize, "page-size", 0, "headlines per request (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error, off")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	if flagCountry != "" {
		cfg.API.Country = flagCountry
	}
	if flagPageSize != 0 {
		cfg.API.PageSize = flagPageSize
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}
}

func newClient(cfg *config.Config) headlines.Client {
	if cfg.Source.Kind == config.SourceFeed {
		return headlines.NewFeedClient(cfg)
	}
	return headlines.NewNewsAPIClient(cfg)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return err
	}
	setupLogging(cfg)
	defer debuglog.Close()
	tui.ApplyTheme(cfg.UI.Colors)

	registry := session.NewRegistry(newClient(cfg))
	defer registry.CloseAll()

	scope := session.NewScope()
	fc := paging.FetchConfigFrom(cfg)
	loader := registry.Attach(scope, fc)
	defer registry.Detach(scope, fc)

	index, err := search.NewIndex()
	if err != nil {
		debuglog.Warnf("search disabled: %v", err)
		index = nil
	} else {
		defer index.Close()
	}

	app := tui.NewApp(cfg, loader, index)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
