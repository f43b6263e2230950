package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyaneshwarpardhi/proofengine/internal/evidence"
	"github.com/gyaneshwarpardhi/proofengine/internal/store"
)

var evidenceCmd = &cobra.Command{
	Use:   "evidence",
	Short: "Manage the local evidence store",
}

var evidenceImportCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a JSON array of evidence nodes into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvidenceImport,
}

func init() {
	evidenceCmd.AddCommand(evidenceImportCmd)
}

func runEvidenceImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read evidence: %w", err)
	}
	var nodes []evidence.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return fmt.Errorf("parse evidence %s: %w", args[0], err)
	}

	st, err := store.Open(rootFlags.dbPath)
	if err != nil {
		return err
	}
	defer closeQuietly(st, "evidence store")

	if err := st.Insert(cmd.Context(), nodes...); err != nil {
		return err
	}
	total, err := st.Count(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d nodes into %s (%d total)\n", len(nodes), rootFlags.dbPath, total)
	return nil
}
