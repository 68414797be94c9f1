package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/lehigh-university-libraries/collager/internal/imageset"
	"github.com/lehigh-university-libraries/collager/internal/layout"
	"github.com/lehigh-university-libraries/collager/internal/report"
	"github.com/spf13/cobra"
)

func newPlanCmd(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan [folder]",
		Short: "Show which cell each image would be placed in",
		Long: `Collects the images in a folder and prints the grid layout a build would use,
without composing anything. HEIC files are transcoded as part of collection.`,
		Example: `  # Print the plan for the upload folder
  collager plan

  # Export the plan for analysis
  collager plan ./photos --output plan.parquet`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			dir := cfg.UploadDir
			if len(args) == 1 {
				dir = args[0]
			}

			collector := imageset.NewCollector(cfg.MotifName())
			collector.Normalizer.MaxPixels = cfg.MaxSourcePixels
			set, err := collector.Collect(dir)
			if err != nil {
				return err
			}

			shape := layout.Plan(len(set.Paths))
			cells := layout.Cells(set.Paths, shape)

			fmt.Printf("Layout: %s (%d images, %d cells)\n", shape, len(set.Paths), shape.Capacity())
			for _, c := range cells {
				if c.Dropped {
					fmt.Printf("  [%d] %-40s left out\n", c.Index+1, filepath.Base(c.Path))
					continue
				}
				fmt.Printf("  [%d] %-40s row %d, col %d\n", c.Index+1, filepath.Base(c.Path), c.Row, c.Col)
			}
			for _, s := range set.Skipped {
				fmt.Printf("  Skipped %s: %v\n", s.Path, s.Err)
			}

			if output != "" {
				if err := report.WritePlan(output, cells); err != nil {
					return err
				}
				fmt.Printf("\nPlan saved to: %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Export the plan (.parquet, .jsonl or .yaml)")

	return cmd
}
