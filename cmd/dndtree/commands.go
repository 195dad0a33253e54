package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vanderheijden86/dndtree/pkg/config"
	"github.com/vanderheijden86/dndtree/pkg/drift"
	"github.com/vanderheijden86/dndtree/pkg/export"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/session"
	"github.com/vanderheijden86/dndtree/pkg/tree"
)

func newFlattenCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "flatten FILE",
		Short: "Print the pre-order flat list of a nested tree (FILE may be -)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			return loader.WriteFlat(cmd.OutOrStdout(), app.format(), tree.FlattenTree(roots))
		},
	}
}

func newBuildCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "build FILE",
		Short: "Rebuild a nested tree from a flat list (FILE may be -)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flat, err := app.readFlat(cmd, args[0])
			if err != nil {
				return err
			}
			return loader.WriteTree(cmd.OutOrStdout(), app.format(), tree.BuildTree(flat))
		},
	}
}

// dragFlags are shared by project and move.
type dragFlags struct {
	active   string
	over     string
	offset   float64
	expanded []string
}

func (f *dragFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.active, "active", "", "Key of the dragged node")
	cmd.Flags().StringVar(&f.over, "over", "", "Key of the node under the pointer (default: --active)")
	cmd.Flags().Float64Var(&f.offset, "offset", 0, "Horizontal pointer offset since the drag started")
	cmd.Flags().StringSliceVar(&f.expanded, "expanded", nil, "Expanded container keys (default: all)")
	_ = cmd.MarkFlagRequired("active")
}

// drag runs a full drag gesture and returns the session before it ends.
func (f *dragFlags) drag(ctrl *session.Controller) (session.DragSession, error) {
	s := ctrl.Start(model.Key(f.active))
	if !s.Dragging() {
		return s, fmt.Errorf("node %q is not visible", f.active)
	}
	if f.over != "" {
		s = ctrl.Over(s, model.Key(f.over))
	}
	return ctrl.Move(s, f.offset), nil
}

type projectionResult struct {
	Active     model.Key        `json:"active" yaml:"active"`
	Over       model.Key        `json:"over" yaml:"over"`
	Offset     float64          `json:"offset" yaml:"offset"`
	Valid      bool             `json:"valid" yaml:"valid"`
	Projection *tree.Projection `json:"projection" yaml:"projection"`
	Moving     int              `json:"moving" yaml:"moving"`
}

func newProjectCmd(app *App) *cobra.Command {
	var flags dragFlags
	cmd := &cobra.Command{
		Use:   "project FILE",
		Short: "Show where a dragged node would land without changing anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			ctrl := app.controller(roots, flags.expanded)
			s, err := flags.drag(ctrl)
			if err != nil {
				return err
			}
			ctrl.Cancel(s)
			return app.writeOut(cmd.OutOrStdout(), projectionResult{
				Active:     s.ActiveKey,
				Over:       s.OverKey,
				Offset:     s.Offset,
				Valid:      s.Projection != nil,
				Projection: s.Projection,
				Moving:     ctrl.DragCount(s.ActiveKey),
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// logChanges reports what each commit changed relative to the tree before it.
func logChanges(ctrl *session.Controller, logger *logrus.Entry) {
	before := ctrl.Roots()
	ctrl.OnCommit(func(ev session.CommitEvent) {
		r := drift.NewCalculator(before, ev.Roots, nil).Calculate()
		for _, alert := range r.Alerts {
			logger.WithFields(logrus.Fields{
				"op":   ev.Op,
				"type": alert.Type,
				"keys": alert.Keys,
			}).Info(alert.Message)
		}
		before = ev.Roots
	})
}

// commitOutput writes the changed tree back to path or prints it.
func commitOutput(cmd *cobra.Command, app *App, path string, write bool, roots []model.TreeNode) error {
	if write {
		if path == "-" {
			return errors.New("--write needs a file, not stdin")
		}
		if err := loader.SaveTree(path, roots); err != nil {
			return err
		}
		app.Logger.WithField("path", path).Info("Tree saved")
		return nil
	}
	return loader.WriteTree(cmd.OutOrStdout(), app.format(), roots)
}

func newMoveCmd(app *App) *cobra.Command {
	var flags dragFlags
	var write bool
	cmd := &cobra.Command{
		Use:   "move FILE",
		Short: "Drag a node and drop it at the projected position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			ctrl := app.controller(roots, flags.expanded)
			logChanges(ctrl, app.Logger)
			s, err := flags.drag(ctrl)
			if err != nil {
				return err
			}
			_, res := ctrl.End(s)
			if !res.Committed {
				return fmt.Errorf("no valid drop target for %q over %q at offset %v", s.ActiveKey, s.OverKey, s.Offset)
			}
			return commitOutput(cmd, app, args[0], write, res.Roots)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to FILE")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "remove FILE KEY",
		Short: "Delete a node and its whole subtree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			ctrl := app.controller(roots, nil)
			logChanges(ctrl, app.Logger)
			if !ctrl.Remove(model.Key(args[1])) {
				return fmt.Errorf("node %q not found", args[1])
			}
			return commitOutput(cmd, app, args[0], write, ctrl.Roots())
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write the result back to FILE")
	return cmd
}

type countResult struct {
	Key      model.Key `json:"key" yaml:"key"`
	Children int       `json:"children" yaml:"children"`
	Moving   int       `json:"moving" yaml:"moving"`
}

func newCountCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "count FILE KEY",
		Short: "Count the descendants that travel with KEY when it is dragged",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			key := model.Key(args[1])
			if _, ok := tree.FindItemDeep(roots, key); !ok {
				return fmt.Errorf("node %q not found", key)
			}
			ctrl := app.controller(roots, nil)
			return app.writeOut(cmd.OutOrStdout(), countResult{
				Key:      key,
				Children: ctrl.ChildCount(key),
				Moving:   ctrl.DragCount(key),
			})
		},
	}
}

func newDiffCmd(app *App) *cobra.Command {
	var cfg drift.Config
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "diff BASELINE CURRENT",
		Short: "Report structural changes between two versions of a tree",
		Long: `Compare CURRENT against BASELINE and list added, removed, moved,
reordered and retitled nodes.

Exit codes: 0 = no drift or info only, 1 = critical (invalid tree),
2 = warning (nodes removed).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			// Structural problems in the current tree become alerts, not
			// load errors.
			current, err := loader.LoadTreeUnchecked(args[1])
			if err != nil {
				return err
			}
			r := drift.NewCalculator(base, current, &cfg).Calculate()
			if asJSON {
				if err := app.writeOut(cmd.OutOrStdout(), r); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), r.Summary())
			}
			if code := r.ExitCode(); code != 0 {
				return &exitError{code: code}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cfg.IgnoreOrder, "ignore-order", false, "Do not report sibling reordering")
	cmd.Flags().BoolVar(&cfg.IgnoreTitles, "ignore-titles", false, "Do not report title changes")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as structured output")
	return cmd
}

func newExportCmd(app *App) *cobra.Command {
	var kind, out, title string
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Render a tree as a Markdown report, outline or Mermaid graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := app.readTree(cmd, args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = filepath.Base(args[0])
			}
			var content string
			switch kind {
			case "md", "markdown":
				content, err = export.GenerateMarkdown(roots, title)
				if err != nil {
					return err
				}
			case "outline":
				content = export.Outline(roots)
			case "mermaid":
				content = export.Mermaid(roots)
			default:
				return fmt.Errorf("unknown export kind %q (md|outline|mermaid)", kind)
			}
			if out == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}
			return os.WriteFile(out, []byte(content), 0o644)
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "md", "Export kind (md|outline|mermaid)")
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "Report title (default: file name)")
	return cmd
}

type initResult struct {
	Config    string `json:"config" yaml:"config"`
	Created   bool   `json:"created" yaml:"created"`
	Gitignore bool   `json:"gitignore" yaml:"gitignore"`
}

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init [DIR]",
		Short: "Create .dndtree/config.yaml and ignore local tree state in git",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			dir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			res := initResult{Config: filepath.Join(dir, config.DirName, config.FileName)}
			if _, err := os.Stat(res.Config); errors.Is(err, os.ErrNotExist) {
				if err := config.Save(res.Config, config.Default()); err != nil {
					return err
				}
				res.Created = true
			} else if err != nil {
				return err
			}

			if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
				if err := loader.EnsureStateIgnored(dir); err != nil {
					app.Logger.WithError(err).Warn("Could not update .gitignore")
				} else {
					res.Gitignore = true
				}
			}
			return app.writeOut(cmd.OutOrStdout(), res)
		},
	}
}
