package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/collager/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	configPath string
	verbose    bool
}

// loadConfig layers the config file and COLLAGER_* environment over the defaults
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "collager",
		Short: "Compose a folder of photos into one framed grid collage",
		Long: `Collager turns the photos in an upload folder into a single collage image.

Photos are laid out in a 2x2, 3x2 or 3x3 grid depending on how many there are,
scaled into equal cells and framed with a decorative motif tiled along the edges.
HEIC photos are transcoded to JPEG automatically.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newBuildCmd(opts))
	cmd.AddCommand(newPlanCmd(opts))
	cmd.AddCommand(newServeCmd(opts))

	return cmd
}
