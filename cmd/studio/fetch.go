package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"physicell-studio/internal/fetch"
)

// defaultModel is the Boolean-model template, the release that is reliably
// present on every platform.
const defaultModel = "template_BM"

var fetchDir string

var fetchCmd = &cobra.Command{
	Use:   "fetch [model]",
	Short: "Download and unpack a pre-built simulation executable",
	Long: fmt.Sprintf(`Downloads the platform-specific release archive for a named model,
extracts the executable as %q and marks it executable.

Models available: %s`, fetch.BinaryName, strings.Join(fetch.DefaultCatalog().Models(), ", ")),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model := defaultModel
		if len(args) > 0 {
			model = args[0]
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog := fetch.NewCatalog(cfg.Fetch.PhysiCellVersion, cfg.Fetch.PhysiBoSSVersion)

		dir := fetchDir
		if dir == "" {
			dir = cfg.Fetch.InstallDir
		}

		fetcher := fetch.New(catalog, logger)
		installed, err := fetcher.Fetch(cmd.Context(), model, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "You can now run %s\n", installed)
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "install directory (defaults to the configured one)")
}
