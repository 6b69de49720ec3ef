package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-idom/internal/dom"
	"github.com/goliatone/go-idom/internal/report"
	"github.com/goliatone/go-idom/pkg/config"
	"github.com/goliatone/go-idom/pkg/engine"
	"github.com/goliatone/go-idom/pkg/token"
)

// cliConfig is what viper resolves from flags, IDOM_* variables and the
// config file.
type cliConfig struct {
	Preset      string `mapstructure:"preset"`
	Conventions string `mapstructure:"conventions"`
	Sanitize    string `mapstructure:"sanitize"`
	Debug       bool   `mapstructure:"debug"`
	NoColor     bool   `mapstructure:"no_color"`
}

type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     cliConfig
	logger  *slog.Logger
}

func newRootCmd(version string) *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "idom",
		Short:        "Populate, clone and inspect idom nodes in HTML documents",
		Long:         `idom caches the nodes of an HTML document and runs populate, clone and depopulate operations against them, printing the resulting markup.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default: .idom.yaml, then ~/.config/idom/config.yaml)")
	flags.String("preset", "idom", "markup conventions preset (idom or natty)")
	flags.String("conventions", "", "YAML or JSON file overriding markup conventions")
	flags.String("sanitize", "none", "sanitise string values: none, html or strict")
	flags.Bool("debug", false, "log engine operations to stderr")
	flags.Bool("no-color", false, "disable coloured output")

	_ = a.v.BindPFlag("preset", flags.Lookup("preset"))
	_ = a.v.BindPFlag("conventions", flags.Lookup("conventions"))
	_ = a.v.BindPFlag("sanitize", flags.Lookup("sanitize"))
	_ = a.v.BindPFlag("debug", flags.Lookup("debug"))
	_ = a.v.BindPFlag("no_color", flags.Lookup("no-color"))

	root.AddCommand(
		newRenderCmd(a),
		newRunCmd(a),
		newInspectCmd(a),
		newCloneCmd(a),
	)
	root.SetErrPrefix("idom:")
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.v.SetEnvPrefix("IDOM")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if _, err := os.Stat(".idom.yaml"); err == nil {
		a.v.SetConfigFile(".idom.yaml")
	} else {
		home, _ := os.UserHomeDir()
		a.v.AddConfigPath(filepath.Join(home, ".config", "idom"))
		a.v.SetConfigName("config")
		a.v.SetConfigType("yaml")
	}
	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	if err := a.v.Unmarshal(&a.cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	if a.cfg.NoColor {
		report.DisableColor()
	}
	level := slog.LevelWarn
	if a.cfg.Debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func (a *app) conventions() (config.Config, error) {
	if a.cfg.Conventions != "" {
		return config.Load(a.cfg.Conventions)
	}
	preset := a.cfg.Preset
	if preset == "" {
		preset = "idom"
	}
	cfg, ok := config.Preset(preset)
	if !ok {
		return config.Config{}, fmt.Errorf("unknown preset %q", preset)
	}
	return cfg, nil
}

func (a *app) sanitizer() (token.Sanitizer, error) {
	switch strings.ToLower(a.cfg.Sanitize) {
	case "", "none":
		return nil, nil
	case "html":
		return token.HTMLSanitizer(), nil
	case "strict":
		return token.StrictSanitizer(), nil
	}
	return nil, fmt.Errorf("unknown sanitizer %q", a.cfg.Sanitize)
}

// open parses path and returns an engine that has not cached yet.
func (a *app) open(path string) (*engine.Engine, error) {
	if path == "" {
		return nil, fmt.Errorf("--doc is required")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, err
	}
	cfg, err := a.conventions()
	if err != nil {
		return nil, err
	}
	sanitizer, err := a.sanitizer()
	if err != nil {
		return nil, err
	}
	options := []engine.Option{engine.WithConfig(cfg), engine.WithLogger(a.logger)}
	if sanitizer != nil {
		options = append(options, engine.WithSanitizer(sanitizer))
	}
	return engine.New(doc, options...), nil
}

// load opens and caches path.
func (a *app) load(path string, presets token.Data) (*engine.Engine, error) {
	e, err := a.open(path)
	if err != nil {
		return nil, err
	}
	if err := e.Cache(presets); err != nil {
		return nil, err
	}
	return e, nil
}

// readJSON accepts inline JSON, "-" for stdin, or a file path.
func readJSON(cmd *cobra.Command, arg string) ([]byte, error) {
	arg = strings.TrimSpace(arg)
	switch {
	case arg == "":
		return nil, nil
	case strings.HasPrefix(arg, "{"):
		return []byte(arg), nil
	case arg == "-":
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(arg)
}

func writeOutput(cmd *cobra.Command, path, markup string) error {
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), markup)
		return err
	}
	if err := os.WriteFile(path, []byte(markup+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	report.OK(cmd.ErrOrStderr(), "written to %s", path)
	return nil
}

// newCloneID returns a random id that is a valid base name.
func newCloneID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
