// batch-rebuild recomputes Batch.Quantity and TotalCost from the stock ledger
// for one batch or for every active batch. Use it after a manual ledger fix or
// a suspected drift between the quantity cache and the ledger balance.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/batch-rebuild [--batch-id <uuid>] [--dry-run]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/workflow"
)

func main() {
	batchID := flag.String("batch-id", "", "Optional: rebuild only this batch")
	dryRun := flag.Bool("dry-run", false, "Report drift without writing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	logger := logrus.New()

	var batches []*models.Batch
	query := db.Model(&models.Batch{})
	if strings.TrimSpace(*batchID) != "" {
		query = query.Where("id = ?", strings.TrimSpace(*batchID))
	} else {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&batches).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list batches: %v\n", err)
		os.Exit(1)
	}
	if len(batches) == 0 {
		fmt.Println("no batches matched")
		return
	}

	drifted := 0
	for _, batch := range batches {
		tx := db.Begin()
		if err := workflow.AcquireBatchPostingLock(tx, batch.ID); err != nil {
			tx.Rollback()
			fmt.Fprintf(os.Stderr, "batch %s: %v\n", batch.ID, err)
			os.Exit(1)
		}

		balance, err := models.BatchBalance(tx, batch.ID)
		if err != nil {
			workflow.ReleaseBatchPostingLock(tx, batch.ID)
			tx.Rollback()
			fmt.Fprintf(os.Stderr, "batch %s: %v\n", batch.ID, err)
			os.Exit(1)
		}

		wantTotal := models.RoundMoney(batch.UnitCost.Mul(decimal.NewFromInt(int64(balance))))
		if balance == batch.Quantity && wantTotal.Equal(batch.TotalCost) {
			workflow.ReleaseBatchPostingLock(tx, batch.ID)
			tx.Rollback()
			continue
		}

		drifted++
		logger.WithFields(logrus.Fields{
			"batch_id":      batch.ID,
			"quantity":      batch.Quantity,
			"balance":       balance,
			"total_cost":    batch.TotalCost,
			"rebuilt_total": wantTotal,
		}).Warn("quantity cache drifted from ledger balance")

		if *dryRun {
			workflow.ReleaseBatchPostingLock(tx, batch.ID)
			tx.Rollback()
			continue
		}

		err = tx.Model(batch).Updates(map[string]interface{}{
			"Quantity":  balance,
			"TotalCost": wantTotal,
		}).Error
		workflow.ReleaseBatchPostingLock(tx, batch.ID)
		if err != nil {
			tx.Rollback()
			fmt.Fprintf(os.Stderr, "batch %s: %v\n", batch.ID, err)
			os.Exit(1)
		}
		if err := tx.Commit().Error; err != nil {
			fmt.Fprintf(os.Stderr, "batch %s: commit: %v\n", batch.ID, err)
			os.Exit(1)
		}
	}

	fmt.Printf("checked %d batches, %d drifted\n", len(batches), drifted)
	if *dryRun && drifted > 0 {
		os.Exit(3)
	}
}
