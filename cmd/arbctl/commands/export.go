package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codyseavey/grading-arbitrage/internal/export"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one page of the product list to an XLSX file",
	RunE:  runExport,
}

func init() {
	addListFlags(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "products.xlsx", "output file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	_, result, err := queryList(cmd.Context(), cmd, store)
	if err != nil {
		return err
	}

	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("create %s: %w", exportOut, err)
	}
	if err := export.WriteListXLSX(f, result); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", exportOut, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d products to %s\n", len(result.List), exportOut)
	return nil
}
