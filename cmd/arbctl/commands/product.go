package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/codyseavey/grading-arbitrage/internal/services"
)

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Print the detail view of one product as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runProduct,
}

func init() {
	rootCmd.AddCommand(productCmd)
}

func runProduct(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	detail, err := services.NewProductDetailService(store).GetDetail(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(detail)
}
