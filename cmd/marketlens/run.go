package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketlens/internal/interfaces"
	"github.com/ternarybob/marketlens/internal/models"
	"github.com/ternarybob/marketlens/internal/services/export"
)

var runCmd = &cobra.Command{
	Use:   "run [request-file]",
	Short: "Run a market analysis",
	Long: `Run a market analysis from a YAML or JSON request file and/or --field flags.
The report is printed as JSON unless --output is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalysis,
}

var (
	runVariant        string
	runDepth          int
	runFields         []string
	runCustomSections []string
	runSkip           []string
	runOutput         string
	runQuiet          bool
)

func init() {
	runCmd.Flags().StringVar(&runVariant, "variant", "", "Analysis variant: detailed, unified, forensic, archaeological, visceral, complete")
	runCmd.Flags().IntVar(&runDepth, "depth", 0, "Depth level 1-10")
	runCmd.Flags().StringArrayVarP(&runFields, "field", "f", nil, "Request field as key=value (repeatable)")
	runCmd.Flags().StringArrayVar(&runCustomSections, "section", nil, "Custom section name (repeatable)")
	runCmd.Flags().StringSliceVar(&runSkip, "skip", nil, "Enrichments to disable: predictions, anti_objections, visual_proofs, mental_drivers, pre_pitch")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Write the report to this file; format from extension (.json, .md, .html, .pdf)")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print progress")
}

func runAnalysis(cmd *cobra.Command, args []string) error {
	file := &models.RequestFile{Request: models.AnalysisRequest{}, Options: models.DefaultConfigOptions("")}
	if len(args) == 1 {
		loaded, err := models.LoadRequestFile(args[0])
		if err != nil {
			return err
		}
		file = loaded
	}

	if err := applyRunFlags(cmd, file); err != nil {
		return err
	}

	analysisConfig, err := file.Config()
	if err != nil {
		return fmt.Errorf("invalid analysis configuration: %w", err)
	}

	var sink interfaces.ProgressSink
	if !runQuiet {
		sink = interfaces.ProgressFunc(func(ctx context.Context, event models.ProgressEvent) error {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %-14s %s\n", event.Percentage, event.State, event.Message)
			return nil
		})
	}

	run, runErr := application.RunService.Execute(cmd.Context(), file.Request, analysisConfig, sink)
	if runErr != nil {
		var envelope *models.ErrorEnvelope
		if errors.As(runErr, &envelope) {
			data, _ := json.MarshalIndent(envelope, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}
		if run != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "run %s failed\n", run.ID)
		}
		return runErr
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "run %s: %s, quality %.1f%% (%s)\n",
		run.ID, run.Status, run.Report.QualityMetrics.CompletenessScore, run.Report.QualityMetrics.Status)

	return writeReport(cmd, run, runOutput)
}

// applyRunFlags layers command-line values over the request file
func applyRunFlags(cmd *cobra.Command, file *models.RequestFile) error {
	if file.Request == nil {
		file.Request = models.AnalysisRequest{}
	}
	for _, kv := range runFields {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("invalid --field %q, want key=value", kv)
		}
		file.Request[strings.TrimSpace(key)] = value
	}

	if cmd.Flags().Changed("variant") {
		variant, err := models.ParseVariant(runVariant)
		if err != nil {
			return err
		}
		file.Options.Variant = variant
	}
	if file.Options.Variant == "" {
		file.Options.Variant = models.VariantUnified
	}
	if cmd.Flags().Changed("depth") {
		file.Options.DepthLevel = runDepth
	}
	if len(runCustomSections) > 0 {
		file.Options.CustomSections = append(file.Options.CustomSections, runCustomSections...)
	}
	for _, name := range runSkip {
		if err := disableEnrichment(&file.Options, models.Enrichment(strings.TrimSpace(name))); err != nil {
			return err
		}
	}
	return nil
}

func disableEnrichment(opts *models.ConfigOptions, name models.Enrichment) error {
	switch name {
	case models.EnrichmentPredictions:
		opts.IncludePredictions = false
	case models.EnrichmentAntiObjections:
		opts.IncludeAntiObjections = false
	case models.EnrichmentVisualProofs:
		opts.IncludeVisualProofs = false
	case models.EnrichmentMentalDrivers:
		opts.IncludeMentalDrivers = false
	case models.EnrichmentPrePitch:
		opts.IncludePrePitch = false
	default:
		return fmt.Errorf("unknown enrichment %q", name)
	}
	return nil
}

// writeReport writes the run's report to path, or as JSON to stdout when path is empty
func writeReport(cmd *cobra.Command, run *models.RunRecord, path string) error {
	format := export.FormatJSON
	if path != "" {
		parsed, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
		if err != nil {
			return err
		}
		format = parsed
	}

	data, err := application.ExportService.Render(run.Report, export.Title(run), format)
	if err != nil {
		return err
	}

	if path == "" {
		_, err = cmd.OutOrStdout().Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "report written to %s\n", path)
	return nil
}
