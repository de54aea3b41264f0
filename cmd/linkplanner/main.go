package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", status.Convert(err).Message())
		os.Exit(1)
	}
}

type rootOptions struct {
	server      string
	presetsPath string
	jsonOutput  bool
	logLevel    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "linkplanner",
		Short:         "Point-to-point microwave link planning: budgets, Fresnel clearance and fade margins",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.server, "server", "", "Evaluate against a linkplanner-server gRPC address instead of in-process")
	flags.StringVar(&opts.presetsPath, "presets", "", "YAML presets file merged over the built-in presets (local mode)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level for local evaluation (debug, info, warn, error)")

	rootCmd.AddCommand(evaluateCmd(opts))
	rootCmd.AddCommand(presetCmd(opts))
	rootCmd.AddCommand(presetsCmd(opts))
	rootCmd.AddCommand(fadeMarginCmd(opts))

	return rootCmd
}

func evaluateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [scenario.yaml]",
		Short: "Analyse the hop described by a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, opts, args[0])
		},
	}
}

func presetCmd(opts *rootOptions) *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "preset [name]",
		Short: "Analyse an unobstructed hop using a named preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreset(cmd, opts, args[0], samples)
		},
	}

	cmd.Flags().IntVar(&samples, "samples", 0, "Number of Fresnel profile intervals (0 uses the default)")
	return cmd
}

func presetsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPresets(cmd, opts)
		},
	}
}

func fadeMarginCmd(opts *rootOptions) *cobra.Command {
	var (
		frequency   float64
		distance    float64
		climate     string
		reliability float64
	)

	cmd := &cobra.Command{
		Use:   "fade-margin",
		Short: "Estimate the Barnett-Vignant fade margin for a hop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := fadeRequest(frequency, distance, climate, reliability, cmd.Flags().Changed("reliability"))
			return runFadeMargin(cmd, opts, req)
		},
	}

	cmd.Flags().Float64Var(&frequency, "frequency", 0, "Carrier frequency in MHz")
	cmd.Flags().Float64Var(&distance, "distance", 0, "Hop length in metres")
	cmd.Flags().StringVar(&climate, "climate", "normal", "Fade climate: dry, normal or humid")
	cmd.Flags().Float64Var(&reliability, "reliability", 99.9, "Target reliability in percent")
	_ = cmd.MarkFlagRequired("frequency")
	_ = cmd.MarkFlagRequired("distance")
	return cmd
}
