// Package cirag wires the command-line interface.
package cirag

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/cirag/internal/appconfig"
	"github.com/mwiater/cirag/internal/engine"
	"github.com/mwiater/cirag/internal/logging"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// app carries state shared by every subcommand of one root command.
type app struct {
	v          *viper.Viper
	cfgFile    string
	cfg        appconfig.Config
	newRuntime func(appconfig.Config) (*engine.Runtime, error)
}

func defaultRuntime(cfg appconfig.Config) (*engine.Runtime, error) {
	return engine.New(cfg)
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New(), newRuntime: defaultRuntime}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "cirag",
		Short:         "cirag answers questions about customer complaints from a retrieved corpus",
		SilenceUsage:  true,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig(logConsole(cmd))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (JSON, or YAML by extension)")
	flags.Bool("debug", false, "log request payloads")
	flags.Bool("jsonMode", false, "print machine-readable JSON")
	flags.Bool("metrics", true, "collect Prometheus metrics")
	flags.String("logFile", "", "path to the log file")
	flags.String("assetsDir", "", "directory holding the corpus and index")

	_ = a.v.BindPFlag("debug", flags.Lookup("debug"))
	_ = a.v.BindPFlag("jsonMode", flags.Lookup("jsonMode"))
	_ = a.v.BindPFlag("metrics", flags.Lookup("metrics"))
	_ = a.v.BindPFlag("logFile", flags.Lookup("logFile"))
	_ = a.v.BindPFlag("assets.dir", flags.Lookup("assetsDir"))

	root.AddCommand(
		a.serveCmd(),
		a.askCmd(),
		a.retrieveCmd(),
		a.uiCmd(),
		a.healthCmd(),
		a.assetsCmd(),
		a.configCmd(),
	)
	return root
}

// logConsole picks where log lines are echoed. Stdout belongs to command
// output, and the terminal UI owns the whole screen.
func logConsole(cmd *cobra.Command) io.Writer {
	if cmd.Name() == "ui" {
		return nil
	}
	return os.Stderr
}

// loadConfig resolves flags over file over defaults into a.cfg.
func (a *app) loadConfig(console io.Writer) error {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := registerDefaults(a.v, appconfig.Defaults()); err != nil {
		return err
	}
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	var cfg appconfig.Config
	if err := a.v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.ConfigPath = a.v.ConfigFileUsed()
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}
	a.cfg = cfg

	if err := logging.Init(cfg.LogFilePath(), console); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetDebug(cfg.Debug)
	return nil
}

// registerDefaults flattens cfg into dotted viper defaults so a partial
// config file only overrides the keys it names.
func registerDefaults(v *viper.Viper, cfg appconfig.Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decode defaults: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			setDefaults(v, full, nested)
			continue
		}
		v.SetDefault(full, val)
	}
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	defer logging.Close()
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
