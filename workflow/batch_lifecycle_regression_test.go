package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/supplyline/procurement_backend/config"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
	"github.com/supplyline/procurement_backend/workflow"
)

func TestBatchLifecycleEndToEnd(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "procurement_test")
	t.Setenv("STRICT_LEDGER_BALANCE_CHECK", "true")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	if err := models.MigrateTable(); err != nil {
		t.Fatalf("MigrateTable: %v", err)
	}

	ctx = utils.SetUsernameInContext(ctx, "test@local")
	ctx = utils.SetUserNameInContext(ctx, "Test")

	// 1) Purchase order walked forward until receiving is allowed.
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: 1,
		OrderDate:  time.Now().AddDate(0, 0, -14),
		Details: []models.NewPurchaseOrderDetail{
			{Sku: "STAPLER-001", ProductName: "Stapler", DetailQty: 1000, DetailUnitRate: decimal.RequireFromString("2.50")},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if po.CurrentStatus != models.PurchaseOrderStatusDraft {
		t.Fatalf("new purchase order status = %s", po.CurrentStatus)
	}

	// Batch creation against a draft order must be rejected.
	if _, err := models.CreateBatchForPurchaseOrder(ctx, &models.NewBatch{
		PurchaseOrderId: po.ID,
		Sku:             "STAPLER-001",
		ProductName:     "Stapler",
		Quantity:        1000,
		UnitCost:        decimal.RequireFromString("2.50"),
	}); err == nil {
		t.Fatal("expected batch creation against draft order to fail")
	}

	// Skipping ahead is illegal.
	if _, err := workflow.ApplyPurchaseOrderStatus(ctx, &workflow.PurchaseOrderStatusInput{
		PurchaseOrderId: po.ID,
		TargetStatus:    "received",
	}); !errors.Is(err, models.ErrIllegalTransition) {
		t.Fatalf("draft -> received: got %v, want ErrIllegalTransition", err)
	}

	// Unknown order and unknown status come back as sentinels, not raw errors.
	if _, err := workflow.ApplyPurchaseOrderStatus(ctx, &workflow.PurchaseOrderStatusInput{
		PurchaseOrderId: 999999,
		TargetStatus:    "sent",
	}); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("missing order: got %v, want ErrorRecordNotFound", err)
	}
	if _, err := workflow.ApplyPurchaseOrderStatus(ctx, &workflow.PurchaseOrderStatusInput{
		PurchaseOrderId: po.ID,
		TargetStatus:    "shipped",
	}); !errors.Is(err, models.ErrUnknownStatus) {
		t.Fatalf("unknown status: got %v, want ErrUnknownStatus", err)
	}

	for _, status := range []string{"sent", "awaiting_invoice", "invoice_received", "confirmed", "production_complete"} {
		if _, err := workflow.ApplyPurchaseOrderStatus(ctx, &workflow.PurchaseOrderStatusInput{
			PurchaseOrderId: po.ID,
			TargetStatus:    status,
		}); err != nil {
			t.Fatalf("ApplyPurchaseOrderStatus(%s): %v", status, err)
		}
	}

	// 2) Receive a batch; opening receipt must satisfy the ledger invariant.
	batch, err := models.CreateBatchForPurchaseOrder(ctx, &models.NewBatch{
		PurchaseOrderId: po.ID,
		Sku:             "STAPLER-001",
		ProductName:     "Stapler",
		Quantity:        1000,
		UnitCost:        decimal.RequireFromString("2.50"),
		LocationId:      "FACTORY-CN-01",
	})
	if err != nil {
		t.Fatalf("CreateBatchForPurchaseOrder: %v", err)
	}
	if batch.Quantity != 1000 || !batch.TotalCost.Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("batch after receipt: qty=%d total=%s", batch.Quantity, batch.TotalCost)
	}

	// 3) Allocate 300, then check availability limits further allocation.
	alloc, err := workflow.AllocateStock(ctx, &models.NewAllocation{
		BatchId:         batch.ID,
		TransferDraftId: "TRANSFER-1",
		Quantity:        300,
	})
	if err != nil {
		t.Fatalf("AllocateStock: %v", err)
	}
	if _, err := workflow.AllocateStock(ctx, &models.NewAllocation{
		BatchId:         batch.ID,
		TransferDraftId: "TRANSFER-2",
		Quantity:        800,
	}); !errors.Is(err, models.ErrInsufficientAvailable) {
		t.Fatalf("over-allocation: got %v, want ErrInsufficientAvailable", err)
	}

	// 4) Splitting away reserved stock is rejected; splitting within the
	// unallocated remainder conserves cost.
	if _, err := workflow.SplitBatch(ctx, &workflow.SplitBatchInput{
		BatchId:       batch.ID,
		SplitQuantity: 750,
	}); !errors.Is(err, models.ErrBatchOverAllocated) {
		t.Fatalf("split into reserved stock: got %v, want ErrBatchOverAllocated", err)
	}

	child, err := workflow.SplitBatch(ctx, &workflow.SplitBatchInput{
		BatchId:       batch.ID,
		SplitQuantity: 400,
	})
	if err != nil {
		t.Fatalf("SplitBatch: %v", err)
	}
	parent, err := models.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("GetBatch(parent): %v", err)
	}
	if child.Quantity != 400 || parent.Quantity != 600 {
		t.Fatalf("split quantities: child=%d parent=%d", child.Quantity, parent.Quantity)
	}
	if !child.TotalCost.Add(parent.TotalCost).Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("split does not conserve cost: %s + %s", child.TotalCost, parent.TotalCost)
	}

	// 5) Merge is blocked by the open allocation; after release it succeeds.
	if _, err := workflow.MergeBatches(ctx, &workflow.MergeBatchesInput{
		BatchIds: []string{parent.ID, child.ID},
	}); !errors.Is(err, models.ErrOpenAllocationsBlockMerge) {
		t.Fatalf("merge with open allocation: got %v, want ErrOpenAllocationsBlockMerge", err)
	}
	if _, err := workflow.ReleaseAllocation(ctx, alloc.ID); err != nil {
		t.Fatalf("ReleaseAllocation: %v", err)
	}
	merged, err := workflow.MergeBatches(ctx, &workflow.MergeBatchesInput{
		BatchIds: []string{parent.ID, child.ID},
	})
	if err != nil {
		t.Fatalf("MergeBatches: %v", err)
	}
	if merged.Quantity != 1000 || !merged.TotalCost.Equal(decimal.RequireFromString("2500.00")) {
		t.Fatalf("merged batch: qty=%d total=%s", merged.Quantity, merged.TotalCost)
	}
	if !merged.UnitCost.Equal(decimal.RequireFromString("2.50")) {
		t.Fatalf("merged unit cost = %s", merged.UnitCost)
	}

	// Source batches are retired with zeroed ledger balances.
	for _, id := range []string{parent.ID, child.ID} {
		src, err := models.GetBatch(ctx, id)
		if err != nil {
			t.Fatalf("GetBatch(%s): %v", id, err)
		}
		if src.Active != nil && *src.Active {
			t.Fatalf("source batch %s still active after merge", id)
		}
		if src.Quantity != 0 {
			t.Fatalf("source batch %s quantity = %d after merge", id, src.Quantity)
		}
	}

	// 6) Walk the merged batch to marketplace and reconcile a shortfall.
	for _, stage := range []string{"factory", "inspected", "ready_to_ship", "in_transit", "warehouse", "marketplace"} {
		if _, err := workflow.TransitionBatchStage(ctx, &workflow.StageTransitionInput{
			BatchId: merged.ID,
			Stage:   stage,
		}); err != nil {
			t.Fatalf("TransitionBatchStage(%s): %v", stage, err)
		}
	}
	current, err := models.GetBatch(ctx, merged.ID)
	if err != nil {
		t.Fatalf("GetBatch(merged): %v", err)
	}
	if current.ActualArrival == nil {
		t.Fatal("warehouse arrival did not stamp ActualArrival")
	}

	report, err := workflow.RecordReconciliation(ctx, &workflow.ReconcileInput{
		BatchId:          merged.ID,
		ReportedQuantity: 985,
		Source:           "marketplace-sync",
	})
	if err != nil {
		t.Fatalf("RecordReconciliation: %v", err)
	}
	if report.Status != models.ReconciliationStatusDiscrepancy || report.Discrepancy != -15 {
		t.Fatalf("report: status=%s discrepancy=%d", report.Status, report.Discrepancy)
	}

	// Recording the report must not have moved stock.
	afterReport, _ := models.GetBatch(ctx, merged.ID)
	if afterReport.Quantity != 1000 {
		t.Fatalf("reconciliation report moved stock: qty=%d", afterReport.Quantity)
	}

	// 7) A shrinkage resolve must not undercut open reservations.
	blocker, err := workflow.AllocateStock(ctx, &models.NewAllocation{
		BatchId:         merged.ID,
		TransferDraftId: "TRANSFER-3",
		Quantity:        300,
	})
	if err != nil {
		t.Fatalf("AllocateStock(blocker): %v", err)
	}
	lowReport, err := workflow.RecordReconciliation(ctx, &workflow.ReconcileInput{
		BatchId:          merged.ID,
		ReportedQuantity: 200,
		Source:           "marketplace-sync",
	})
	if err != nil {
		t.Fatalf("RecordReconciliation(low): %v", err)
	}
	if _, err := workflow.ResolveReconciliation(ctx, &workflow.ResolveReconciliationInput{
		ReportId: lowReport.ID,
		Note:     "shrinkage below reserved stock",
	}); !errors.Is(err, models.ErrBatchOverAllocated) {
		t.Fatalf("resolve undercutting open allocation: got %v, want ErrBatchOverAllocated", err)
	}
	undercut, _ := models.GetBatch(ctx, merged.ID)
	if undercut.Quantity != 1000 {
		t.Fatalf("blocked resolve moved stock: qty=%d", undercut.Quantity)
	}
	if _, err := workflow.ReleaseAllocation(ctx, blocker.ID); err != nil {
		t.Fatalf("ReleaseAllocation(blocker): %v", err)
	}

	// 8) Resolving posts the adjustment and the ledger rebalances.
	if _, err := workflow.ResolveReconciliation(ctx, &workflow.ResolveReconciliationInput{
		ReportId: report.ID,
		Note:     "marketplace shrinkage confirmed",
	}); err != nil {
		t.Fatalf("ResolveReconciliation: %v", err)
	}
	resolved, err := models.GetBatch(ctx, merged.ID)
	if err != nil {
		t.Fatalf("GetBatch(resolved): %v", err)
	}
	if resolved.Quantity != 985 {
		t.Fatalf("quantity after adjustment = %d, want 985", resolved.Quantity)
	}

	db := config.GetDB()
	balance, err := models.BatchBalance(db, merged.ID)
	if err != nil {
		t.Fatalf("BatchBalance: %v", err)
	}
	if balance != resolved.Quantity {
		t.Fatalf("ledger balance %d != quantity %d", balance, resolved.Quantity)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("procurement-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("procurement-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=procurement_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
