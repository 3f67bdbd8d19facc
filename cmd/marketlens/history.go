package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/marketlens/internal/services/export"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded analysis runs, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := application.RunService.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tVARIANT\tSTATUS\tPROGRESS\tQUALITY\tDURATION")
		for _, run := range runs {
			quality := "-"
			if run.Report != nil {
				quality = fmt.Sprintf("%.1f%% %s", run.Report.QualityMetrics.CompletenessScore, run.Report.QualityMetrics.Status)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\t%s\t%s\n",
				run.ID,
				run.StartedAt.Format("2006-01-02 15:04"),
				run.Variant,
				run.Status,
				run.LastPercentage,
				quality,
				run.Duration().Round(time.Second),
			)
		}
		return w.Flush()
	},
}

var showProgress bool

var showCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a recorded run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if showProgress {
			trail, err := application.RunService.Progress(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, event := range trail {
				fmt.Fprintf(cmd.OutOrStdout(), "%s [%3d%%] %-14s %s\n",
					event.Timestamp.Format("15:04:05.000"), event.Percentage, event.State, event.Message)
			}
			return nil
		}

		run, err := application.RunService.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Export a completed run's report as markdown, HTML, PDF or JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		run, err := application.RunService.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if run.Report == nil {
			return fmt.Errorf("run %s has no report (status %s)", run.ID, run.Status)
		}

		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		output := exportOutput
		if output == "" {
			output = fmt.Sprintf("%s.%s", run.ID, format)
		}
		return writeReport(cmd, run, output)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run and its progress trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := application.RunService.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list (0 = all)")
	showCmd.Flags().BoolVar(&showProgress, "progress", false, "Print the progress trail instead of the record")
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "Export format: md, html, pdf, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path (default <run-id>.<format>)")
}
