package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jacksmith/verso/internal/model"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Export the cart",
	Long: `Export the cart.

The json format is the saved snapshot, indented; it is what "verso edit"
opens. The yaml format adds subtotals and the total and is a one-way export.

Examples:
  verso dump
  verso dump --format=yaml`,
	Args: cobra.NoArgs,
	RunE: runDump,
}

var dumpFormat string

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "f", "json", "output format (json or yaml)")
	dumpCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	if dumpFormat != "json" && dumpFormat != "yaml" {
		return fmt.Errorf("invalid format %q (expected json or yaml)", dumpFormat)
	}

	sess, err := openSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	items := sess.store.Items()
	var data []byte
	if dumpFormat == "yaml" {
		data, err = model.MarshalCartYAML(items)
	} else {
		data, err = snapshotJSON(items)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

// snapshotJSON returns the cart snapshot indented for reading and editing.
func snapshotJSON(items []model.LineItem) ([]byte, error) {
	data, err := model.EncodeCart(items)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to format cart: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
