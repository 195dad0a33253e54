package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/dndtree/pkg/config"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/policy"
	"github.com/vanderheijden86/dndtree/pkg/session"
	"github.com/vanderheijden86/dndtree/pkg/ui"
	"github.com/vanderheijden86/dndtree/pkg/watcher"
	"golang.org/x/term"
)

const logFileName = "dndtree.log"

func newTUICmd(app *App) *cobra.Command {
	var autoSave, noWatch bool
	var depth int
	cmd := &cobra.Command{
		Use:   "tui [FILE]",
		Short: "Browse and rearrange a tree interactively",
		Long: `Open FILE in the interactive tree view. Without FILE, tree files below
the project root are offered in a picker.

Space grabs the selected node, j/k choose the drop row, h/l change the
depth, enter drops and esc cancels. The mouse can drag rows too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("tui needs an interactive terminal; use flatten, project or move in scripts")
			}

			closeLog, err := app.logToFile()
			if err != nil {
				return err
			}
			defer closeLog()

			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				path, err = pickTreeFile(depth)
				if err != nil || path == "" {
					return err
				}
			}
			return runTUI(app, path, autoSave, !noWatch)
		},
	}
	cmd.Flags().BoolVarP(&autoSave, "autosave", "a", false, "Save the file after every move or removal")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the file when it changes on disk")
	cmd.Flags().IntVar(&depth, "depth", 3, "Directory depth to search when no file is given")
	return cmd
}

// logToFile sends log output to the state directory while the terminal
// belongs to the UI.
func (a *App) logToFile() (func(), error) {
	dir := a.Config.StateDir
	if dir == "" {
		dir = config.DirName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, logFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	prev := a.Logger.Logger.Out
	a.Logger.Logger.SetOutput(f)
	return func() {
		a.Logger.Logger.SetOutput(prev)
		f.Close()
	}, nil
}

// pickTreeFile finds tree files below the project root and, when there is
// more than one, lets the user choose. An empty path means the user quit.
func pickTreeFile(depth int) (string, error) {
	root, ok := config.DetectRoot()
	if !ok {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	files := config.DiscoverTreeFiles(root, depth)
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no tree files found below %s", root)
	case 1:
		return files[0], nil
	}

	picker := ui.NewFilePicker(ui.NewFileEntries(root, files), ui.DefaultTheme(lipgloss.DefaultRenderer()))
	final, err := tea.NewProgram(picker, tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	if chosen := final.(ui.FilePickerModel).Chosen(); chosen != nil {
		return chosen.Path, nil
	}
	return "", nil
}

func runTUI(app *App, path string, autoSave, watch bool) error {
	roots, err := loader.LoadTree(path)
	if err != nil {
		return err
	}
	cfg := app.Config

	// Keyboard and mouse offsets are measured in terminal cells, so one
	// depth level is one guide column wide.
	ctrl := session.New(roots, session.Options{
		Indentation: float64(cfg.Columns),
		Policy:      policy.FromRules(cfg.Policy),
		Expanded:    cfg.ExpandedKeys(),
		ExpandAll:   cfg.ExpandAll,
		Logger:      app.Logger,
	})
	ctrl.OnCommit(func(ev session.CommitEvent) {
		app.Logger.WithFields(logrus.Fields{
			"op":    ev.Op,
			"key":   ev.ActiveKey,
			"nodes": len(ev.Flat),
		}).Info("Tree changed")
	})

	opts := ui.Options{
		Path:     path,
		StateDir: cfg.StateDir,
		Columns:  cfg.Columns,
		AutoSave: autoSave,
		Logger:   app.Logger,
	}
	if watch {
		w, err := watcher.New(path, watcher.DefaultDebounce, app.Logger)
		if err != nil {
			return err
		}
		defer w.Stop()
		opts.Changes = w.Subscribe()
		if err := w.Start(); err != nil {
			app.Logger.WithError(err).Warn("Live reload disabled")
			opts.Changes = nil
		}
	}

	m := ui.NewTreeModel(ctrl, ui.DefaultTheme(lipgloss.DefaultRenderer()), opts)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
