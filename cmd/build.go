package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/collager/internal/collage"
	"github.com/lehigh-university-libraries/collager/internal/report"
	"github.com/spf13/cobra"
)

func newBuildCmd(opts *rootOptions) *cobra.Command {
	var output string
	var motif string
	var reportPath string
	var scale int
	var border int

	cmd := &cobra.Command{
		Use:   "build [folder]",
		Short: "Build a collage from the images in a folder",
		Long: `Builds one collage from the images in a folder (the configured upload folder by default).

Up to nine images are placed in lexicographic filename order; any beyond the grid are
left out. Images that cannot be decoded are skipped and listed in the summary.`,
		Example: `  # Build from the default upload folder
  collager build

  # Smaller cells and a thinner frame
  collager build ./photos --scale 1 --border 40 --output collage.jpg

  # Keep a YAML record of the build
  collager build ./photos --report build.yaml`,
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
			if cmd.Flags().Changed("scale") {
				cfg.ScaleFactor = scale
			}
			if cmd.Flags().Changed("border") {
				cfg.BorderThickness = border
			}
			if motif != "" {
				cfg.MotifPath = motif
			}
			if output == "" {
				output = cfg.OutputPath()
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			summary, err := collage.NewBuilder(cfg).Build(dir, output)
			if err != nil {
				return err
			}

			fmt.Println(summary.String())
			if summary.Dropped > 0 {
				fmt.Printf("  Left out (grid full): %d\n", summary.Dropped)
			}
			for _, s := range summary.Skipped {
				fmt.Printf("  Skipped %s: %s\n", s.Path, s.Reason)
			}
			fmt.Printf("  Output location: %s\n", output)

			if reportPath != "" {
				if err := report.SaveBuildYAML(reportPath, cfg, summary); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image path (defaults to the configured output folder)")
	cmd.Flags().StringVar(&motif, "motif", "", "Border motif image")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a YAML build report to this path")
	cmd.Flags().IntVar(&scale, "scale", 2, "Scale factor applied to the base cell size")
	cmd.Flags().IntVar(&border, "border", 80, "Border thickness in pixels")

	return cmd
}
