package models

import "github.com/supplyline/procurement_backend/config"

// MigrateTable runs the auto migrations for every table the service owns.
// Order matters for foreign key creation.
func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&PoSequence{},
		&PurchaseOrder{},
		&PurchaseOrderDetail{},
		&PurchaseOrderStatusEvent{},
		&Batch{},
		&BatchStageEvent{},
		&StockLedgerEntry{},
		&Allocation{},
		&ReconciliationReport{},
		&Document{},
	)
}
