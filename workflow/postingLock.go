package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/bsm/redislock"
	"github.com/supplyline/procurement_backend/config"
	"gorm.io/gorm"
)

// AcquireBatchPostingLock serializes ledger writes per batch across instances
// using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB that will do the posting transaction.
func AcquireBatchPostingLock(tx *gorm.DB, batchId string) error {
	lockName := fmt.Sprintf("batch:%s", batchId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for batch_id=%s", batchId)
	}
	return nil
}

func ReleaseBatchPostingLock(tx *gorm.DB, batchId string) {
	lockName := fmt.Sprintf("batch:%s", batchId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireBatchPostingLocks takes the per-batch locks in sorted id order so two
// multi-batch operations (merge, split) can never deadlock against each other.
// Returns the sorted ids actually locked; release them in the same order.
func AcquireBatchPostingLocks(tx *gorm.DB, batchIds []string) ([]string, error) {
	sorted := append([]string(nil), batchIds...)
	sort.Strings(sorted)
	for i, id := range sorted {
		if err := AcquireBatchPostingLock(tx, id); err != nil {
			for _, locked := range sorted[:i] {
				ReleaseBatchPostingLock(tx, locked)
			}
			return nil, err
		}
	}
	return sorted, nil
}

func ReleaseBatchPostingLocks(tx *gorm.DB, batchIds []string) {
	for _, id := range batchIds {
		ReleaseBatchPostingLock(tx, id)
	}
}

// AcquirePurchaseOrderLock serializes status transitions per purchase order.
func AcquirePurchaseOrderLock(tx *gorm.DB, purchaseOrderId int) error {
	lockName := fmt.Sprintf("purchase_order:%d", purchaseOrderId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock for purchase_order_id=%d", purchaseOrderId)
	}
	return nil
}

func ReleasePurchaseOrderLock(tx *gorm.DB, purchaseOrderId int) {
	lockName := fmt.Sprintf("purchase_order:%d", purchaseOrderId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// acquireRedisGuard is a best-effort second fence in front of the MySQL
// advisory lock. Returns nil when redis is down or the key is contended; the
// advisory lock remains the real serialization point.
func acquireRedisGuard(ctx context.Context, key string) *redislock.Lock {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil
	}
	lock, err := locker.Obtain(ctx, "guard:"+key, 30*time.Second, nil)
	if err != nil {
		return nil
	}
	return lock
}

func releaseRedisGuard(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	_ = lock.Release(ctx)
}
