package models

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/supplyline/procurement_backend/config"
)

// ReconciliationReport records one comparison of a marketplace batch's ledger
// quantity against the quantity the marketplace reported. Reports are
// append-only facts; recording one never moves stock. Resolving a discrepancy
// is a separate, explicit adjustment.
type ReconciliationReport struct {
	ID               string               `gorm:"size:36;primary_key" json:"id"` // uuid
	BatchId          string               `gorm:"size:36;index;not null" json:"batch_id"`
	ExpectedQuantity int                  `gorm:"not null" json:"expected_quantity"`
	ReportedQuantity int                  `gorm:"not null" json:"reported_quantity"`
	Discrepancy      int                  `gorm:"not null" json:"discrepancy"`
	Status           ReconciliationStatus `gorm:"type:enum('matched','discrepancy');not null;index" json:"status"`
	Source           string               `gorm:"size:100" json:"source"`
	Resolved         *bool                `gorm:"not null;default:false;index" json:"resolved"`
	ResolutionNote   string               `gorm:"type:text" json:"resolution_note"`
	ResolvedAt       *time.Time           `gorm:"default:null" json:"resolved_at"`
	CreatedAt        time.Time            `gorm:"autoCreateTime" json:"created_at"`
}

// Reconcile compares an expected quantity against a reported one. Pure:
// discrepancy = reported - expected, status is matched only on exact equality.
func Reconcile(batchId string, expected, reported int) ReconciliationReport {
	report := ReconciliationReport{
		ID:               uuid.NewString(),
		BatchId:          batchId,
		ExpectedQuantity: expected,
		ReportedQuantity: reported,
		Discrepancy:      reported - expected,
		Status:           ReconciliationStatusMatched,
	}
	if report.Discrepancy != 0 {
		report.Status = ReconciliationStatusDiscrepancy
	}
	return report
}

// HasOpenDiscrepancy reports whether the batch has an unresolved discrepancy
// report on file.
func HasOpenDiscrepancy(ctx context.Context, batchId string) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&ReconciliationReport{}).
		Where("batch_id = ? AND status = ? AND resolved = ?", batchId, ReconciliationStatusDiscrepancy, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func GetReconciliationReports(ctx context.Context, batchId string, unresolvedOnly bool) ([]*ReconciliationReport, error) {
	db := config.GetDB()
	var results []*ReconciliationReport
	dbCtx := db.WithContext(ctx).Where("batch_id = ?", batchId)
	if unresolvedOnly {
		dbCtx = dbCtx.Where("status = ? AND resolved = ?", ReconciliationStatusDiscrepancy, false)
	}
	err := dbCtx.Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
