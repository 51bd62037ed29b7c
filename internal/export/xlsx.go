// Package export renders product list pages as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/codyseavey/grading-arbitrage/internal/models"
	"github.com/codyseavey/grading-arbitrage/internal/services"
)

// SheetName is the name of the single worksheet
const SheetName = "products"

var header = []any{
	"商品ID", "商品名", "ブランド", "発売日", "予想利益", "ROI(%)", "流動性",
	"PSA10 最新", "素体 最新", "PSA10取得率(%)", "値動き(%)", "更新日",
}

func optional(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// Row returns the cell values for one list item, in header order
func Row(item models.ListItem) []any {
	p, st := item.Item, item.Stats
	return []any{
		p.ID,
		p.NameJP,
		p.Brand,
		services.FormatReleaseDate(p.ReleaseDate),
		st.ExpectedProfit,
		st.ROI,
		string(st.Liquidity),
		st.LatestPSA10,
		st.LatestBase,
		optional(st.PSA10Rate),
		optional(st.RecentTrend),
		p.LastUpdated,
	}
}

// WriteListXLSX writes one list page as an XLSX workbook. A failed list
// (result.Error set) is refused so that an empty file is never mistaken for
// "no matches".
func WriteListXLSX(w io.Writer, result models.ListResult) error {
	if result.Error != nil {
		return fmt.Errorf("list failed: %s", result.Error.Message)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}

	for i, item := range result.List {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := Row(item)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
