package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"farmops/internal/domain"
)

// WriteInventoryXLSX writes a workbook with an Items sheet and a
// Transactions sheet.
func WriteInventoryXLSX(w io.Writer, items []domain.Item, txs []domain.TransactionView) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const itemsSheet = "Items"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), itemsSheet); err != nil {
		return fmt.Errorf("rename items sheet: %w", err)
	}

	header := []interface{}{
		"id", "name", "sku", "category", "unit", "unit_factor",
		"quantity", "avg_cost", "inventory_value", "reorder_level", "target_level", "last_updated",
	}
	if err := f.SetSheetRow(itemsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write items header: %w", err)
	}
	row := 2
	for _, item := range items {
		cells := []interface{}{
			item.ID,
			item.Name,
			deref(item.SKU),
			deref(item.Category),
			deref(item.Unit),
			item.UnitFactor,
			item.Quantity,
			item.AvgCost,
			item.Quantity * item.AvgCost,
			item.ReorderLevel,
			item.TargetLevel,
			item.UpdatedAt.Format(time.RFC3339),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("item cell name: %w", err)
		}
		if err := f.SetSheetRow(itemsSheet, cell, &cells); err != nil {
			return fmt.Errorf("write item row %d: %w", row, err)
		}
		row++
	}

	const txSheet = "Transactions"
	if _, err := f.NewSheet(txSheet); err != nil {
		return fmt.Errorf("create transactions sheet: %w", err)
	}
	txHeader := []interface{}{
		"id", "date", "item", "sku", "type", "quantity", "unit_price", "total", "profit", "party", "note",
	}
	if err := f.SetSheetRow(txSheet, "A1", &txHeader); err != nil {
		return fmt.Errorf("write transactions header: %w", err)
	}
	row = 2
	for _, txn := range txs {
		cells := []interface{}{
			txn.ID,
			txn.CreatedAt.Format(time.RFC3339),
			txn.ItemName,
			deref(txn.ItemSKU),
			string(txn.Type),
			txn.Quantity,
			txn.UnitPrice,
			txn.Total,
			txn.Profit,
			txn.Party,
			txn.Note,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("transaction cell name: %w", err)
		}
		if err := f.SetSheetRow(txSheet, cell, &cells); err != nil {
			return fmt.Errorf("write transaction row %d: %w", row, err)
		}
		row++
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
