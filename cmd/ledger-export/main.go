// ledger-export writes a batch's stock ledger (or every batch's) to an xlsx
// file for finance review.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/ledger-export [--batch-id <uuid>] [--out ledger.xlsx]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/supplyline/procurement_backend/config"
	"github.com/xuri/excelize/v2"
)

type ledgerRow struct {
	EntryId      string
	BatchId      string
	Sku          string
	LocationId   string
	MovementType string
	Quantity     int
	Reason       string
	CreatedAt    string
}

func main() {
	batchID := flag.String("batch-id", "", "Optional: export only this batch")
	out := flag.String("out", "ledger.xlsx", "Output file path")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	sql := `
SELECT
    sle.id AS entry_id,
    sle.batch_id,
    b.sku,
    sle.location_id,
    sle.movement_type,
    sle.quantity,
    sle.reason,
    DATE_FORMAT(sle.created_at, '%Y-%m-%d %H:%i:%s') AS created_at
FROM
    stock_ledger_entries sle
    JOIN batches b ON b.id = sle.batch_id
`
	args := []interface{}{}
	if strings.TrimSpace(*batchID) != "" {
		sql += "WHERE sle.batch_id = ?\n"
		args = append(args, strings.TrimSpace(*batchID))
	}
	sql += "ORDER BY sle.batch_id, sle.created_at"

	var rows []*ledgerRow
	if err := db.Raw(sql, args...).Scan(&rows).Error; err != nil {
		fmt.Fprintf(os.Stderr, "query ledger: %v\n", err)
		os.Exit(1)
	}

	f := excelize.NewFile()
	if _, err := f.NewSheet("Sheet1"); err != nil {
		fmt.Fprintf(os.Stderr, "new sheet: %v\n", err)
		os.Exit(1)
	}

	// Add headers
	f.SetCellValue("Sheet1", "A1", "EntryId")
	f.SetCellValue("Sheet1", "B1", "BatchId")
	f.SetCellValue("Sheet1", "C1", "Sku")
	f.SetCellValue("Sheet1", "D1", "LocationId")
	f.SetCellValue("Sheet1", "E1", "MovementType")
	f.SetCellValue("Sheet1", "F1", "Quantity")
	f.SetCellValue("Sheet1", "G1", "Reason")
	f.SetCellValue("Sheet1", "H1", "CreatedAt")

	// Add data
	for i, row := range rows {
		f.SetCellValue("Sheet1", "A"+fmt.Sprint(i+2), row.EntryId)
		f.SetCellValue("Sheet1", "B"+fmt.Sprint(i+2), row.BatchId)
		f.SetCellValue("Sheet1", "C"+fmt.Sprint(i+2), row.Sku)
		f.SetCellValue("Sheet1", "D"+fmt.Sprint(i+2), row.LocationId)
		f.SetCellValue("Sheet1", "E"+fmt.Sprint(i+2), row.MovementType)
		f.SetCellValue("Sheet1", "F"+fmt.Sprint(i+2), row.Quantity)
		f.SetCellValue("Sheet1", "G"+fmt.Sprint(i+2), row.Reason)
		f.SetCellValue("Sheet1", "H"+fmt.Sprint(i+2), row.CreatedAt)
	}

	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d ledger entries to %s\n", len(rows), *out)
}
