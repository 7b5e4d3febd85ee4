// seed-dev populates a development database with an operator user, one
// supplier's purchase order walked forward to production_complete, and a
// received batch, so the API is exercisable immediately after startup.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
	"github.com/supplyline/procurement_backend/workflow"
)

const (
	seedUsername = "devops"
	seedPassword = "devops-password"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if err := models.MigrateTable(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetUsernameInContext(ctx, seedUsername)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	var existing models.User
	err := db.WithContext(ctx).Where("username = ?", seedUsername).First(&existing).Error
	if err == nil {
		fmt.Println("seed user already exists; nothing to do")
		return
	}

	if _, err := models.CreateUser(ctx, &models.NewUser{
		Username: seedUsername,
		Password: seedPassword,
		FullName: "Dev Operator",
		Role:     "admin",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "create user: %v\n", err)
		os.Exit(1)
	}

	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: 1,
		OrderDate:  time.Now().AddDate(0, 0, -30),
		Notes:      "seed order",
		Details: []models.NewPurchaseOrderDetail{
			{Sku: "WIDGET-RED", ProductName: "Red Widget", DetailQty: 1000, DetailUnitRate: decimal.NewFromFloat(2.50)},
			{Sku: "WIDGET-BLUE", ProductName: "Blue Widget", DetailQty: 500, DetailUnitRate: decimal.NewFromFloat(3.25)},
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create purchase order: %v\n", err)
		os.Exit(1)
	}

	// Walk the order forward until batches can be received against it.
	for _, status := range []string{
		"sent", "awaiting_invoice", "invoice_received",
		"confirmed", "production_complete",
	} {
		if _, err := workflow.ApplyPurchaseOrderStatus(ctx, &workflow.PurchaseOrderStatusInput{
			PurchaseOrderId: po.ID,
			TargetStatus:    status,
			Note:            "seed",
		}); err != nil {
			fmt.Fprintf(os.Stderr, "apply status %s: %v\n", status, err)
			os.Exit(1)
		}
	}

	batch, err := models.CreateBatchForPurchaseOrder(ctx, &models.NewBatch{
		PurchaseOrderId: po.ID,
		Sku:             "WIDGET-RED",
		ProductName:     "Red Widget",
		Quantity:        1000,
		UnitCost:        decimal.NewFromFloat(2.50),
		LocationId:      "FACTORY-CN-01",
		Note:            "seed batch",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create batch: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded user %s, purchase order %s, batch %s\n", seedUsername, po.PoNumber, batch.ID)
}
