package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safar/cafe-pos/internal/catalog"
)

func (h *handler) listProducts(c *gin.Context) {
	products, err := h.Catalog.ListActive(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handler) listDeletedProducts(c *gin.Context) {
	products, err := h.Catalog.ListDeleted(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handler) inventorySummary(c *gin.Context) {
	summary, err := h.Catalog.Summary(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *handler) getProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	product, err := h.Catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handler) createProduct(c *gin.Context) {
	var in catalog.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *handler) updateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var in catalog.ProductInput
	if !bindJSON(c, &in) {
		return
	}

	product, err := h.Catalog.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handler) deleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.Catalog.SoftDelete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) restoreProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	if err := h.Catalog.Restore(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	product, err := h.Catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

func (h *handler) adjustStock(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}

	var req adjustStockRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.Catalog.AdjustQuantity(c.Request.Context(), id, req.Delta)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
