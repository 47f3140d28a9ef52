package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/sales"
)

type stockCheckRequest struct {
	Items []models.CartLine `json:"items"`
}

// checkStock answers whether the cart can be served right now. Unavailable
// stock is a normal answer, not an error.
func (h *handler) checkStock(c *gin.Context) {
	var req stockCheckRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.Stock.Check(c.Request.Context(), req.Items)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"available": true})
		return
	}

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		fail(c, err)
		return
	}
	switch appErr.Code {
	case apperror.CodeInsufficientStock, apperror.CodeBusinessRule, apperror.CodeNotFound:
		c.JSON(http.StatusOK, gin.H{
			"available": false,
			"error":     appErr.Message,
			"details":   appErr.Details,
		})
	default:
		fail(c, err)
	}
}

func (h *handler) checkout(c *gin.Context) {
	var req sales.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.Sales.Checkout(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sale)
}

func (h *handler) listSales(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fail(c, apperror.NewValidation("invalid limit"))
			return
		}
		limit = n
	}

	status := models.SaleStatus(c.Query("status"))
	page, err := h.Sales.ListSales(c.Request.Context(), status, c.Query("cursor"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *handler) getSale(c *gin.Context) {
	id, ok := saleID(c)
	if !ok {
		return
	}

	sale, err := h.Sales.GetSale(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

type statusRequest struct {
	Status models.SaleStatus `json:"status" binding:"required"`
}

func (h *handler) changeSaleStatus(c *gin.Context) {
	id, ok := saleID(c)
	if !ok {
		return
	}

	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	sale, err := h.Sales.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}
