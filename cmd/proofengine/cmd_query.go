package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/proofengine/internal/report"
)

var (
	queryFlags      rangeFlags
	regulationFlags rangeFlags
	summaryFlags    rangeFlags
)

var queryCmd = &cobra.Command{
	Use:   "query <id>",
	Short: "Execute one compliance query",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var regulationCmd = &cobra.Command{
	Use:   "regulation <regulation>",
	Short: "Execute every query tagged with a regulation",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegulation,
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Execute every query and print the compliance summary",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	queryFlags.register(queryCmd)
	regulationFlags.register(regulationCmd)
	summaryFlags.register(summaryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	tr, err := queryFlags.timeRange()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeQuietly(a, "evidence store")

	res, err := a.engine.ExecuteQuery(cmd.Context(), args[0], tr)
	if err != nil {
		return err
	}
	return emit(cmd.OutOrStdout(), queryFlags.output, res, func(m report.Mode) string {
		return report.Result(res, m)
	})
}

func runRegulation(cmd *cobra.Command, args []string) error {
	tr, err := regulationFlags.timeRange()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeQuietly(a, "evidence store")

	results := a.engine.ExecuteAllForRegulation(cmd.Context(), args[0], tr)
	if len(results) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "no results for regulation %q\n", args[0])
	}
	return emit(cmd.OutOrStdout(), regulationFlags.output, results, func(m report.Mode) string {
		return report.Results(results, m)
	})
}

func runSummary(cmd *cobra.Command, _ []string) error {
	tr, err := summaryFlags.timeRange()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer closeQuietly(a, "evidence store")

	sum := a.engine.GetComplianceSummary(cmd.Context(), tr)
	return emit(cmd.OutOrStdout(), summaryFlags.output, sum, func(m report.Mode) string {
		return report.Summary(sum, m)
	})
}
