package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/researchmesh/collector"
	"github.com/hupe1980/researchmesh/config"
	"github.com/hupe1980/researchmesh/core"
	"github.com/hupe1980/researchmesh/logging"
	"github.com/hupe1980/researchmesh/research"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "researchmesh",
		Short: "Hypothesis-validation metrics engine for multi-agent systems",
		Long: `researchmesh collects coordination metrics from multi-agent systems and
validates architecture hypotheses (on-demand context loading, hub-and-spoke
routing, contract-first handoffs) against configured targets.

The CLI reads a store populated by an instrumented host process and renders
reports, exports and the baseline document.`,
	}

	rootCmd.PersistentFlags().String("config", "researchmesh.toml", "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newBaselineCmd(),
		newReportCmd(),
		newExportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, logging.Logger) {
	logger := logging.NewSlogLogger(logging.LogLevelWarn, "text", false)
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("using default configuration", "error", err)
	}
	return cfg, logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("researchmesh version %s\n", version)
			}
		},
	}
}

func newBaselineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "baseline",
		Short: "Print the baseline reference document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadConfig(cmd)
			store, err := cfg.OpenStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			baseline, err := store.LoadBaseline()
			if err != nil {
				return fmt.Errorf("load baseline: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(baseline)
		},
	}
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Generate a research report over the stored metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadConfig(cmd)
			store, err := cfg.OpenStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			orch := research.New(func(o *research.Options) {
				o.Store = store
				o.Logger = logger
				o.Config = cfg.CollectorConfig()
			})
			if err := orch.Initialize(); err != nil {
				return fmt.Errorf("initialize orchestrator: %w", err)
			}
			defer orch.Shutdown(cmd.Context())

			report, err := orch.GenerateResearchReport()
			if err != nil {
				return fmt.Errorf("generate report: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Println(report.Summary)
			for _, h := range report.Hypotheses {
				status := "not validated"
				if h.Result.Validated {
					status = "validated"
				}
				fmt.Printf("  %-32s %s (confidence %.2f, %d samples)\n",
					h.Hypothesis, status, h.Result.Confidence, h.SampleSize)
			}
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		name      string
		format    string
		eventType string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored metrics of one collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger := loadConfig(cmd)
			store, err := cfg.OpenStore(logger)
			if err != nil {
				return err
			}
			defer store.Close()

			engine := collector.New(name, func(o *collector.Options) {
				o.Store = store
				o.Logger = logger
			})
			out, err := engine.Export(collector.Format(format), core.Filter{EventType: eventType})
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "collector", "context", "Collector to export (context, coordination, handoff)")
	cmd.Flags().StringVar(&format, "format", "json", "Export format (json, csv, markdown)")
	cmd.Flags().StringVar(&eventType, "event-type", "", "Only export records of this event type")
	return cmd
}
