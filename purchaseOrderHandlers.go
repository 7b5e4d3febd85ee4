package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/supplyline/procurement_backend/models"
	"github.com/supplyline/procurement_backend/workflow"
)

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func intParam(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Param(name))
}

func createPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPurchaseOrder
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		po, err := models.CreatePurchaseOrder(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusCreated, po)
	}
}

func getPurchaseOrderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := intParam(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase order id"})
			return
		}
		po, err := models.GetPurchaseOrder(c.Request.Context(), id)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, po)
	}
}

func listPurchaseOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var poNumber *string
		if s := c.Query("po_number"); s != "" {
			poNumber = &s
		}
		var status *models.PurchaseOrderStatus
		if s := c.Query("status"); s != "" {
			parsed, err := models.ParsePurchaseOrderStatus(s)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			status = &parsed
		}
		var supplierId *int
		if id, ok := intQuery(c, "supplier_id"); ok {
			supplierId = &id
		}

		orders, err := models.GetPurchaseOrders(c.Request.Context(), poNumber, status, supplierId)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

func applyPurchaseOrderStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := intParam(c, "id")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase order id"})
			return
		}
		var input workflow.PurchaseOrderStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		input.PurchaseOrderId = id
		po, err := workflow.ApplyPurchaseOrderStatus(c.Request.Context(), &input)
		if err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, po)
	}
}
