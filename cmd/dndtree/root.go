package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/dndtree/pkg/config"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/policy"
	"github.com/vanderheijden86/dndtree/pkg/session"
	"gopkg.in/yaml.v3"
)

// App carries global flags and the resolved settings to every command.
type App struct {
	ConfigPath  string
	LogLevel    string
	Format      string
	Indentation float64

	Config config.Config
	Logger *logrus.Entry
}

func newRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "dndtree",
		Short:         "Flatten, project and rearrange trees of keyed nodes",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Browse and rearrange a tree interactively
  dndtree tui plan.yaml

  # Where would "e" land if dragged over "d" and one level right?
  dndtree project plan.json --active e --over d --offset 48

  # Apply that move to the file
  dndtree move plan.json --active e --over d --offset 48 --write

  # Validate every tree file below the project root
  dndtree check
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("DNDTREE_CONFIG", ""), "Path to config.yaml (default: nearest .dndtree/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("DNDTREE_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Format for stdin input and tree output (json|yaml)")
	cmd.PersistentFlags().Float64Var(&app.Indentation, "indentation", 0, "Offset units per depth level (overrides config)")

	cmd.AddCommand(newFlattenCmd(app))
	cmd.AddCommand(newBuildCmd(app))
	cmd.AddCommand(newProjectCmd(app))
	cmd.AddCommand(newMoveCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newCountCmd(app))
	cmd.AddCommand(newCheckCmd(app))
	cmd.AddCommand(newDiffCmd(app))
	cmd.AddCommand(newExportCmd(app))
	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newTUICmd(app))

	return cmd
}

// setup configures logging and loads settings. Flags win over the file.
func (a *App) setup(cmd *cobra.Command) error {
	level, err := logrus.ParseLevel(a.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	logger.SetLevel(level)
	a.Logger = logrus.NewEntry(logger)

	if _, err := loader.ParseFormat(a.Format); err != nil {
		return err
	}

	if a.ConfigPath != "" {
		a.Config, err = config.Load(a.ConfigPath)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err != nil {
			return err
		}
		a.Config, err = config.LoadFrom(wd)
	}
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("indentation") {
		a.Config.Indentation = a.Indentation
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	a.Logger.WithField("config", a.Config.Path).Debug("Settings loaded")
	return nil
}

func (a *App) format() loader.Format {
	f, _ := loader.ParseFormat(a.Format)
	return f
}

// readTree loads a nested tree from path, or from stdin when path is "-".
func (a *App) readTree(cmd *cobra.Command, path string) ([]model.TreeNode, error) {
	if path == "-" {
		return loader.ReadTree(cmd.InOrStdin(), a.format())
	}
	return loader.LoadTree(path)
}

func (a *App) readFlat(cmd *cobra.Command, path string) (model.FlatList, error) {
	if path == "-" {
		return loader.ReadFlat(cmd.InOrStdin(), a.format())
	}
	return loader.LoadFlat(path)
}

// controller builds a session over roots using the configured policy.
// With no explicit expanded keys every container is open.
func (a *App) controller(roots []model.TreeNode, expanded []string) *session.Controller {
	opts := session.Options{
		Indentation: a.Config.Indentation,
		Policy:      policy.FromRules(a.Config.Policy),
		Logger:      a.Logger,
	}
	if len(expanded) == 0 {
		opts.ExpandAll = true
	}
	for _, k := range expanded {
		opts.Expanded = append(opts.Expanded, model.Key(k))
	}
	return session.New(roots, opts)
}

// writeOut writes v in the selected output format.
func (a *App) writeOut(w io.Writer, v any) error {
	if a.format() == loader.FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
