package main

import (
	"context"
	"errors"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/vanderheijden86/dndtree/pkg/config"
	"github.com/vanderheijden86/dndtree/pkg/loader"
	"github.com/vanderheijden86/dndtree/pkg/model"
	"github.com/vanderheijden86/dndtree/pkg/tree"
	"golang.org/x/sync/errgroup"
)

// fileReport is the check outcome for one file.
type fileReport struct {
	Path     string   `json:"path" yaml:"path"`
	Valid    bool     `json:"valid" yaml:"valid"`
	Nodes    int      `json:"nodes" yaml:"nodes"`
	Problems []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

type checkReport struct {
	Files   []fileReport `json:"files" yaml:"files"`
	Invalid int          `json:"invalid" yaml:"invalid"`
}

func newCheckCmd(app *App) *cobra.Command {
	var flat bool
	var depth, jobs int
	cmd := &cobra.Command{
		Use:   "check [FILE...]",
		Short: "Validate tree files (default: every tree file below the project root)",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				root, ok := config.DetectRoot()
				if !ok {
					wd, err := os.Getwd()
					if err != nil {
						return err
					}
					root = wd
				}
				paths = config.DiscoverTreeFiles(root, depth)
				app.Logger.WithField("root", root).Debugf("Discovered %d tree files", len(paths))
			}

			report, err := checkFiles(cmd.Context(), paths, flat, jobs)
			if err != nil {
				return err
			}
			if err := app.writeOut(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if report.Invalid > 0 {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "Files hold flat lists instead of nested trees")
	cmd.Flags().IntVar(&depth, "depth", 3, "Directory depth to search when no files are given")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Files to check in parallel")
	return cmd
}

// checkFiles validates paths concurrently. Invalid files are reported, not
// returned as errors; only cancellation stops the run.
func checkFiles(ctx context.Context, paths []string, flat bool, jobs int) (checkReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs <= 0 {
		jobs = 1
	}
	reports := make([]fileReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = checkFile(path, flat)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return checkReport{}, err
	}

	report := checkReport{Files: reports}
	for _, r := range reports {
		if !r.Valid {
			report.Invalid++
		}
	}
	return report, nil
}

func checkFile(path string, flat bool) fileReport {
	r := fileReport{Path: path}
	var list model.FlatList
	var err error
	if flat {
		list, err = loader.LoadFlat(path)
	} else {
		var roots []model.TreeNode
		roots, err = loader.LoadTree(path)
		list = tree.FlattenTree(roots)
	}
	if err == nil {
		r.Valid = true
		r.Nodes = len(list)
		return r
	}

	var verr *tree.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			r.Problems = append(r.Problems, p.String())
		}
	} else {
		r.Problems = []string{err.Error()}
	}
	return r
}
