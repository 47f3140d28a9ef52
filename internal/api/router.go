// Package api exposes the catalog, checkout and reports over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/catalog"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/report"
	"github.com/safar/cafe-pos/internal/sales"
	"github.com/safar/cafe-pos/internal/store"
)

type CatalogService interface {
	ListActive(ctx context.Context) ([]models.Product, error)
	ListDeleted(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, in catalog.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id int64, in catalog.ProductInput) (*models.Product, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	AdjustQuantity(ctx context.Context, id int64, delta int) (*models.Product, error)
	Summary(ctx context.Context) (*store.InventorySummary, error)
}

type SalesService interface {
	Checkout(ctx context.Context, req sales.CheckoutRequest) (*models.CompletedSale, error)
	GetSale(ctx context.Context, id uuid.UUID) (*models.CompletedSale, error)
	ListSales(ctx context.Context, status models.SaleStatus, cursor string, limit int) (*store.CursorPage, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, next models.SaleStatus) (*models.Sale, error)
}

type StockChecker interface {
	Check(ctx context.Context, lines []models.CartLine) error
}

type ReportService interface {
	ParseRange(from, to string) (report.DateRange, error)
	ProductSales(ctx context.Context, rng report.DateRange) (*report.ProductReport, error)
	Stats(ctx context.Context, rng report.DateRange) (*report.Stats, error)
	Diagnostics(ctx context.Context) (*report.Diagnostics, error)
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Services struct {
	Catalog CatalogService
	Sales   SalesService
	Stock   StockChecker
	Reports ReportService
	DB      Pinger
}

type handler struct {
	Services
	log *zap.Logger
}

func NewRouter(svc Services, log *zap.Logger) *gin.Engine {
	h := &handler{Services: svc, log: log.Named("api")}

	r := gin.New()
	r.Use(RequestLogger(h.log), ErrorHandler(h.log), Recovery(h.log))

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")

	products := v1.Group("/products")
	products.GET("", h.listProducts)
	products.GET("/deleted", h.listDeletedProducts)
	products.GET("/summary", h.inventorySummary)
	products.GET("/:id", h.getProduct)
	products.POST("", h.createProduct)
	products.PATCH("/:id", h.updateProduct)
	products.DELETE("/:id", h.deleteProduct)
	products.POST("/:id/restore", h.restoreProduct)
	products.POST("/:id/stock", h.adjustStock)

	v1.POST("/stock/check", h.checkStock)

	salesGroup := v1.Group("/sales")
	salesGroup.POST("", h.checkout)
	salesGroup.GET("", h.listSales)
	salesGroup.GET("/:id", h.getSale)
	salesGroup.PATCH("/:id/status", h.changeSaleStatus)

	reports := v1.Group("/reports")
	reports.GET("/products", h.productReport)
	reports.GET("/products.csv", h.productReportCSV)
	reports.GET("/stats", h.salesStats)

	v1.GET("/diagnostics", h.diagnostics)

	return r
}

func (h *handler) health(c *gin.Context) {
	if err := h.DB.PingContext(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail attaches err for ErrorHandler and stops the chain.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		fail(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperror.NewValidation("invalid product id"))
		return 0, false
	}
	return id, true
}

func saleID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		fail(c, apperror.NewValidation("invalid sale id"))
		return uuid.Nil, false
	}
	return id, true
}
