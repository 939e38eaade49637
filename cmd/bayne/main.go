// Command bayne runs uncertainty-aware regression experiments from a JSON
// configuration file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bayne-ml/bayne/internal/config"
	"github.com/bayne-ml/bayne/internal/experiment"
)

const version = "v0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bayne",
		Short:         "Train and compare uncertainty-aware regression networks",
		Long:          "bayne trains point-estimate, MC-dropout, Bayes-by-Backprop and MMD\nvariational networks on synthetic heteroscedastic regression tasks,\ndriven by a JSON experiment file.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newValidateCmd(), newVersionCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every experiment record of a configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			exps, err := loadAndValidate(configPath)
			if err != nil {
				return err
			}

			opts := experiment.Options{
				Workers:     viper.GetInt("workers"),
				EvalSamples: viper.GetInt("samples"),
				Out:         cmd.OutOrStdout(),
			}

			summaries, err := experiment.Run(cmd.Context(), exps, opts)
			if err != nil {
				return err
			}

			if outPath != "" {
				data, err := json.MarshalIndent(summaries, "", "  ")
				if err != nil {
					return fmt.Errorf("encode results: %w", err)
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("write results: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/regression.json", "experiment file")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write per-record result summaries to this JSON file")
	cmd.Flags().Int("workers", 1, "concurrent seed runs per record")
	cmd.Flags().Int("samples", experiment.DefaultEvalSamples, "predictive samples at evaluation")

	// Flags can also come from BAYNE_WORKERS / BAYNE_SAMPLES.
	viper.SetEnvPrefix("bayne")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("samples", cmd.Flags().Lookup("samples"))

	return cmd
}

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an experiment file against the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			exps, err := loadAndValidate(configPath)
			if err != nil {
				return err
			}
			runs := 0
			for i := range exps {
				runs += exps[i].Runs()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records, %d runs\n", configPath, len(exps), runs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/regression.json", "experiment file")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bayne %s\n", version)
		},
	}
}

func loadAndValidate(path string) ([]config.Experiment, error) {
	exps, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateAll(exps); err != nil {
		return nil, err
	}
	return exps, nil
}
