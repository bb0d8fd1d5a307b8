// Package export renders the item set, transaction history and sensor
// readings in tabular form for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"farmops/internal/domain"
)

func WriteItemsCSV(w io.Writer, items []domain.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"ID", "Name", "SKU", "Category", "Unit", "Unit Factor",
		"Quantity", "Avg Cost", "Inventory Value", "Reorder Level", "Target Level", "Last Updated",
	}); err != nil {
		return fmt.Errorf("write items header: %w", err)
	}
	for _, item := range items {
		record := []string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			deref(item.SKU),
			deref(item.Category),
			deref(item.Unit),
			formatFloat(item.UnitFactor),
			formatFloat(item.Quantity),
			formatFloat(item.AvgCost),
			formatFloat(item.Quantity * item.AvgCost),
			formatFloat(item.ReorderLevel),
			formatFloat(item.TargetLevel),
			item.UpdatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write item row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteTransactionsCSV(w io.Writer, txs []domain.TransactionView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"ID", "Date", "Item", "SKU", "Type", "Quantity", "Unit Price", "Total", "Profit", "Party", "Note",
	}); err != nil {
		return fmt.Errorf("write transactions header: %w", err)
	}
	for _, txn := range txs {
		record := []string{
			strconv.FormatInt(txn.ID, 10),
			txn.CreatedAt.Format(time.RFC3339),
			txn.ItemName,
			deref(txn.ItemSKU),
			string(txn.Type),
			formatFloat(txn.Quantity),
			formatFloat(txn.UnitPrice),
			formatFloat(txn.Total),
			formatFloat(txn.Profit),
			txn.Party,
			txn.Note,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteReadingsCSV(w io.Writer, readings []domain.Reading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"Timestamp", "Temperature (°C)", "Humidity (%)", "Ammonia (ppm)", "Light (lux)",
	}); err != nil {
		return fmt.Errorf("write readings header: %w", err)
	}
	for _, reading := range readings {
		record := []string{
			reading.CreatedAt.Format(time.RFC3339),
			formatFloat(reading.Temperature),
			formatFloat(reading.Humidity),
			strconv.Itoa(reading.Ammonia),
			strconv.Itoa(reading.Light),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write reading row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
