package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/dto"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/repository"
	"github.com/jeanclaudder2024/Petrodeal2-sub003/internal/service"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	funnelProgram uint
	funnelTop     int
)

//nolint:gochecknoglobals // Cobra boilerplate
var funnelCmd = &cobra.Command{
	Use:   "funnel",
	Short: "Print the candidate funnel report",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}

		analytics := service.NewFunnelAnalyticsService(repository.NewCandidateRepository(db), nil, 0, newLogger())

		var programID *uint
		if funnelProgram > 0 {
			programID = &funnelProgram
		}
		report, err := analytics.Funnel(context.Background(), programID, funnelTop)
		if err != nil {
			return err
		}

		renderFunnel(cmd.OutOrStdout(), report)
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	funnelCmd.Flags().UintVar(&funnelProgram, "program", 0, "Restrict the report to one program id")
	funnelCmd.Flags().IntVar(&funnelTop, "top", 5, "Number of entries in each breakdown")
	rootCmd.AddCommand(funnelCmd)
}

func renderFunnel(w io.Writer, report dto.FunnelResponse) {
	heading := color.New(color.FgYellow, color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s (%d candidates)\n", heading("Pipeline funnel"), report.TotalCandidates)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Status", "Reached"})
	for _, step := range report.Funnel {
		table.Append([]string{step.Status, strconv.FormatInt(step.Count, 10)})
	}
	table.Render()

	fmt.Fprintln(w, heading("\nRates"))
	rates := tablewriter.NewWriter(w)
	rates.SetHeader([]string{"Metric", "Value"})
	rates.Append([]string{"Pass rate", formatRate(report.PassRate)})
	rates.Append([]string{"Completion rate", formatRate(report.CompletionRate)})
	rates.Append([]string{"Conversion rate", formatRate(report.ConversionRate)})
	rates.Render()

	renderBuckets(w, heading("\nTop countries"), "Country", report.TopCountries)
	renderBuckets(w, heading("\nTop areas of interest"), "Area", report.TopInterests)
	renderBuckets(w, heading("\nTop languages"), "Language", report.TopLanguages)
}

func renderBuckets(w io.Writer, title, column string, buckets []dto.Bucket) {
	fmt.Fprintln(w, title)
	if len(buckets) == 0 {
		fmt.Fprintln(w, color.HiBlackString("no data"))
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{column, "Candidates"})
	for _, bucket := range buckets {
		table.Append([]string{bucket.Label, strconv.FormatInt(bucket.Count, 10)})
	}
	table.Render()
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.2f%%", rate*100)
}
