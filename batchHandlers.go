package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/utils"
	"github.com/supplyline/procurement_backend/workflow"
)

// domainStatus maps a workflow failure onto the HTTP status the caller should
// see: precondition violations are 422, unknown entities 404, everything else
// 500.
func domainStatus(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound),
		errors.Is(err, models.ErrAllocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInvalidMovement),
		errors.Is(err, models.ErrInsufficientAvailable),
		errors.Is(err, models.ErrInvalidSplitQuantity),
		errors.Is(err, models.ErrBatchOverAllocated),
		errors.Is(err, models.ErrOpenAllocationsBlockMerge),
		errors.Is(err, models.ErrInactiveBatch),
		errors.Is(err, models.ErrUnknownStage),
		errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, models.ErrIllegalTransition):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func abortWithDomainError(c *gin.Context, err error) {
	status := domainStatus(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func createBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewBatch
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		batch, err := models.CreateBatchForPurchaseOrder(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, batch)
	}
}

func getBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		batch, err := models.GetBatch(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func listBatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var stage *models.BatchStage
		if s := c.Query("stage"); s != "" {
			parsed, err := models.ParseBatchStage(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			stage = &parsed
		}
		var sku *string
		if s := c.Query("sku"); s != "" {
			sku = &s
		}
		var purchaseOrderId *int
		if id, ok := intQuery(c, "purchase_order_id"); ok {
			purchaseOrderId = &id
		}
		activeOnly := c.Query("active_only") != "false"

		batches, err := models.GetBatches(c.Request.Context(), stage, sku, purchaseOrderId, activeOnly)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, batches)
	}
}

func getBatchLedgerHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := models.GetBatchLedger(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

func transitionBatchStageHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.StageTransitionInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.BatchId = c.Param("id")
		batch, err := workflow.TransitionBatchStage(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, batch)
	}
}

func splitBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.SplitBatchInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.BatchId = c.Param("id")
		child, err := workflow.SplitBatch(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, child)
	}
}

func mergeBatchesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.MergeBatchesInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		merged, err := workflow.MergeBatches(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, merged)
	}
}

func allocateStockHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewAllocation
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		allocation, err := workflow.AllocateStock(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, allocation)
	}
}

func commitAllocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		allocation, err := workflow.CommitAllocation(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, allocation)
	}
}

func releaseAllocationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		allocation, err := workflow.ReleaseAllocation(c.Request.Context(), c.Param("id"))
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, allocation)
	}
}

func listAllocationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		openOnly := c.Query("open_only") == "true"
		allocations, err := models.GetBatchAllocations(c.Request.Context(), c.Param("id"), openOnly)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, allocations)
	}
}

func listReconciliationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		unresolvedOnly := c.Query("unresolved_only") == "true"
		reports, err := models.GetReconciliationReports(c.Request.Context(), c.Param("id"), unresolvedOnly)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, reports)
	}
}

func recordReconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.ReconcileInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Source == "" {
			if service, ok := utils.GetServiceNameFromContext(c.Request.Context()); ok {
				input.Source = service
			}
		}
		report, err := workflow.RecordReconciliation(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, report)
	}
}

func resolveReconciliationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input workflow.ResolveReconciliationInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.ReportId = c.Param("id")
		report, err := workflow.ResolveReconciliation(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
