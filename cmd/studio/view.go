package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"physicell-studio/internal/viewer"
)

var (
	viewOutputDir string
	viewFrame     int
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Open the 3D viewer on a simulation output directory",
	Long: `Opens a window rendering the cell population of one output frame as
3D spheres. Arrow keys switch frames; the output directory is watched so a
frame being rewritten by a running simulation refreshes on screen.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		dir := viewOutputDir
		if dir == "" {
			dir = cfg.Viewer.OutputDir
		}

		v := viewer.New(cfg.Viewer, dir, viewFrame, logger)

		watcher, err := viewer.NewFrameWatcher(dir, logger)
		if err != nil {
			// The viewer is still usable without live reloads.
			logger.Warn("output directory watch unavailable", zap.Error(err))
		} else {
			v.WatchEvents(watcher.Events())
			watcher.Start()
			defer watcher.Stop()
		}

		return v.Run()
	},
}

func init() {
	viewCmd.Flags().StringVar(&viewOutputDir, "output", "", "simulation output directory (defaults to the configured one)")
	viewCmd.Flags().IntVar(&viewFrame, "frame", 0, "frame index to open")
}
