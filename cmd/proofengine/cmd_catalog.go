package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the query catalog",
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load, validate and compile the catalog file",
	Args:  cobra.NoArgs,
	RunE:  runCatalogValidate,
}

func init() {
	catalogCmd.AddCommand(catalogValidateCmd)
}

func runCatalogValidate(cmd *cobra.Command, _ []string) error {
	_, cat, err := loadCatalog(rootFlags.configPath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d queries OK\n", rootFlags.configPath, cat.Len())
	for _, reg := range cat.Regulations() {
		fmt.Fprintf(out, "  %-12s %d\n", reg, len(cat.List(reg)))
	}
	return nil
}
