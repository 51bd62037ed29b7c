package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/codyseavey/grading-arbitrage/internal/models"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

var (
	listPage  int
	listQuery string
	listJSON  bool
)

var rangeFlags = []struct {
	flag, param, usage string
}{
	{"min-profit", "minProfit", "minimum expected profit (yen)"},
	{"min-roi", "minRoi", "minimum ROI (%)"},
	{"min-psa10", "minPsa10", "minimum latest PSA10 price"},
	{"max-psa10", "maxPsa10", "maximum latest PSA10 price"},
	{"min-base", "minBase", "minimum latest raw price"},
	{"max-base", "maxBase", "maximum latest raw price"},
	{"min-year", "minYear", "earliest release year"},
	{"max-year", "maxYear", "latest release year"},
	{"min-psa10-rate", "minPsa10Rate", "minimum PSA10 gem rate (%)"},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print one page of the product list",
	RunE:  runList,
}

func init() {
	addListFlags(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the raw JSON result")
	rootCmd.AddCommand(listCmd)
}

// addListFlags registers the list query flags shared by list and export
func addListFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("sort", "", "sort key (defaults to the saved list preference)")
	f.String("order", "", "asc or desc (defaults to the saved list preference)")
	f.IntVar(&listPage, "page", 1, "page number")
	f.StringVarP(&listQuery, "query", "q", "", "free-text filter on name, description and product code")
	f.Bool("pokeca", false, "only Pokémon cards")
	f.Bool("onepiece", false, "only One Piece cards")
	f.Bool("favorite", false, "only favourites")
	f.Bool("include-blacklisted", false, "include blacklisted products")
	f.String("sales-destination", "", "mercari or snkrdunk")
	for _, r := range rangeFlags {
		f.String(r.flag, "", r.usage)
	}
}

// listValues renders the flags as list query parameters so the CLI goes
// through the same coercion as the HTTP endpoint. Flags left unset are
// omitted so the saved list preferences apply.
func listValues(cmd *cobra.Command) url.Values {
	f := cmd.Flags()
	v := url.Values{}
	v.Set("page", strconv.Itoa(listPage))
	v.Set("q", listQuery)
	for flag, param := range map[string]string{
		"sort":              "sort",
		"order":             "order",
		"sales-destination": "sales_destination",
	} {
		if val, err := f.GetString(flag); err == nil && f.Changed(flag) {
			v.Set(param, val)
		}
	}
	for flag, param := range map[string]string{
		"pokeca":              "brand_pokeca",
		"onepiece":            "brand_onepiece",
		"favorite":            "favorite",
		"include-blacklisted": "include_blacklisted",
	} {
		if on, err := f.GetBool(flag); err == nil && f.Changed(flag) {
			v.Set(param, "0")
			if on {
				v.Set(param, "1")
			}
		}
	}
	for _, r := range rangeFlags {
		if val, err := f.GetString(r.flag); err == nil && val != "" {
			v.Set(r.param, val)
		}
	}
	return v
}

func queryList(ctx context.Context, cmd *cobra.Command, store services.Store) (models.ListParams, models.ListResult, error) {
	prefs, fees, err := services.NewSettingsService(store).ListSettings(ctx)
	params := services.ParseListParamsWith(listValues(cmd), prefs)
	if err != nil {
		return params, models.ListResult{}, err
	}
	result := services.NewProductsListService(store).ListProducts(ctx, params, fees)
	if result.Error != nil {
		return params, result, fmt.Errorf("list failed (%s): %s", result.Error.Code, result.Error.Message)
	}
	return params, result, nil
}

func runList(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	params, result, err := queryList(cmd.Context(), cmd, store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if listJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	printTable(out, result)
	fmt.Fprintf(out, "\npage %d/%d, %d products\n", params.Page, result.TotalPages, result.TotalCount)
	if params.Page < result.TotalPages {
		next := params
		next.Page++
		fmt.Fprintf(out, "next: ?%s\n", services.ListParamsValues(next).Encode())
	}
	return nil
}

func printTable(w io.Writer, result models.ListResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPROFIT\tROI\tLIQ\tPSA10\tBASE\tRATE\tTREND")
	for _, it := range result.List {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d%%\t%s\t%.0f\t%.0f\t%s\t%s\n",
			it.Item.ID, it.Item.NameJP, it.Stats.ExpectedProfit, it.Stats.ROI, it.Stats.Liquidity,
			it.Stats.LatestPSA10, it.Stats.LatestBase, percent(it.Stats.PSA10Rate), percent(it.Stats.RecentTrend))
	}
	tw.Flush()
}

func percent(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v) + "%"
}
