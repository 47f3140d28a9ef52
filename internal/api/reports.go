package api

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/report"
)

func (h *handler) productReport(c *gin.Context) {
	rep, ok := h.buildProductReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *handler) productReportCSV(c *gin.Context) {
	rep, ok := h.buildProductReport(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep); err != nil {
		fail(c, apperror.NewInternal(err))
		return
	}

	filename := fmt.Sprintf("sales_%s_%s.csv", c.Query("from"), c.Query("to"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *handler) buildProductReport(c *gin.Context) (*report.ProductReport, bool) {
	rng, err := h.Reports.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		fail(c, err)
		return nil, false
	}

	rep, err := h.Reports.ProductSales(c.Request.Context(), rng)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return rep, true
}

func (h *handler) salesStats(c *gin.Context) {
	rng, err := h.Reports.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		fail(c, err)
		return
	}

	stats, err := h.Reports.Stats(c.Request.Context(), rng)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *handler) diagnostics(c *gin.Context) {
	d, err := h.Reports.Diagnostics(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
