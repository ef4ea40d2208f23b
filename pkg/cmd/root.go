// Package cmd defines the ocp-upgrade-path command line.
package cmd

import (
	"context"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adfinis/ocp-upgrade-path/pkg/channels"
	"github.com/adfinis/ocp-upgrade-path/pkg/cincinnati"
	"github.com/adfinis/ocp-upgrade-path/pkg/config"
	"github.com/adfinis/ocp-upgrade-path/pkg/report"
	"github.com/adfinis/ocp-upgrade-path/pkg/types"
	"github.com/adfinis/ocp-upgrade-path/pkg/upgrade"
	"github.com/adfinis/ocp-upgrade-path/pkg/utils"
)

// newFetcher builds the graph client. For testing.
var newFetcher = func(cfg *config.Config) upgrade.Fetcher {
	return cincinnati.NewClient(cfg.GraphURL,
		cincinnati.WithTimeout(cfg.Timeout),
		cincinnati.WithQPS(cfg.QPS),
	)
}

// New returns the root command.
func New(version string) *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:   "ocp-upgrade-path [flags] CURRENT TARGET",
		Short: "Compute a shortest upgrade path between two OpenShift 4 releases",
		Long: `Compute a shortest upgrade path between two OpenShift 4 releases.

The upgrade graphs of every channel between the CURRENT and TARGET minor
releases are fetched from the update service and merged; each step of the
resulting path names the channel that recommends it.

TARGET may be a bare "major.minor" release, in which case the latest
version of that release's channel is used.`,
		Example: `  ocp-upgrade-path 4.10.3 4.12.1
  ocp-upgrade-path --fast 4.10.3 4.12
  ocp-upgrade-path --arch arm64 --output json 4.12.0 4.14`,
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd, cfg, types.Version(args[0]), types.Version(args[1]))
		},
	}

	flags := cmd.Flags()
	flags.Bool(config.KeyFast, false, `Include the "fast-4.*" channels.`)
	flags.Bool(config.KeyCandidate, false, `Include the "candidate-4.*" channels. This may produce unsupported upgrade paths and should not be used for production-grade clusters.`)
	flags.Bool(config.KeyEUS, false, `Include the "eus-4.*" channels of even minor releases.`)
	flags.String(config.KeyArch, "amd64", "The cluster CPU architecture.")
	flags.String(config.KeyGraphURL, cincinnati.DefaultURL, "Upgrade graph endpoint of the update service.")
	flags.Duration(config.KeyTimeout, cincinnati.DefaultTimeout, "Timeout for each channel graph request.")
	flags.Int(config.KeyParallel, 1, "Number of channel graphs to fetch concurrently.")
	flags.Float64(config.KeyQPS, 0, "Maximum requests per second to the update service (0 for no limit).")
	flags.StringP(config.KeyOutput, "o", report.FormatText, "Output format: "+strings.Join(report.Formats, ", ")+".")
	flags.String(config.KeyColor, utils.ColorAuto, "Colorize output: auto, always or never.")
	flags.String(config.KeyLogLevel, log.WarnLevel.String(), "Log level: debug, info, warn or error.")
	flags.String(config.KeyConfig, "", "Path to a config file (yaml, json or toml).")

	return cmd
}

func run(cmd *cobra.Command, cfg *config.Config, current, target types.Version) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	log.SetOutput(cmd.ErrOrStderr())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := upgrade.Plan(ctx, newFetcher(cfg), upgrade.Request{
		Current:     current,
		Target:      target,
		Tiers:       channels.Tiers(cfg.Fast, cfg.EUS, cfg.Candidate),
		Arch:        cfg.Arch,
		Parallelism: cfg.Parallel,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var f *os.File
	if file, ok := out.(*os.File); ok {
		f = file
	}
	color, err := utils.UseColor(cfg.Color, f)
	if err != nil {
		return err
	}
	return report.Render(out, res, report.Options{Format: cfg.Output, Color: color})
}
