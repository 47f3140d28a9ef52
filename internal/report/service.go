// Package report aggregates sold lines into per-product sales figures.
//
// Databases migrated before the sales header existed only have a flat
// sale_items table. The service probes for the sales relation on first use
// and keeps the matching Source for the life of the process.
package report

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/safar/cafe-pos/internal/apperror"
	"github.com/safar/cafe-pos/internal/models"
	"github.com/safar/cafe-pos/internal/store"
)

var errInvertedRange = errors.New("from must not be after to")

type Repository interface {
	SalesRelationExists(ctx context.Context) (bool, error)
	ListCompletedLines(ctx context.Context, from, to time.Time) ([]store.SoldLine, error)
	ListLegacyLines(ctx context.Context) ([]store.SoldLine, error)
	GetSalesStats(ctx context.Context, from, to time.Time) (*store.SalesStats, error)
	Diagnose(ctx context.Context) (*store.Diagnostics, error)
}

type ProductReport struct {
	Strategy     string                `json:"strategy"`
	Rows         []models.ProductSales `json:"rows"`
	TotalUnits   int                   `json:"total_units"`
	TotalRevenue decimal.Decimal       `json:"total_revenue"`
}

type Stats struct {
	store.SalesStats
	Strategy       string          `json:"strategy"`
	AverageTicket  decimal.Decimal `json:"average_ticket"`
	AllTimeRevenue decimal.Decimal `json:"all_time_revenue"`
}

type Diagnostics struct {
	store.Diagnostics
	Strategy string `json:"strategy"`
}

type Service struct {
	repo Repository
	loc  *time.Location
	log  *zap.Logger

	mu     sync.Mutex
	source Source
}

func NewService(repo Repository, loc *time.Location, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		loc:  loc,
		log:  log.Named("report"),
	}
}

// ParseRange parses query dates in the store's time zone.
func (s *Service) ParseRange(from, to string) (DateRange, error) {
	rng, err := ParseDateRange(from, to, s.loc)
	if err != nil {
		return DateRange{}, apperror.NewValidation("dates must be YYYY-MM-DD with from not after to").WithCause(err)
	}
	return rng, nil
}

// Source returns the report source, probing the schema on the first call.
// A failed probe is not remembered.
func (s *Service) Source(ctx context.Context) (Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.source != nil {
		return s.source, nil
	}

	exists, err := s.repo.SalesRelationExists(ctx)
	if err != nil {
		return nil, err
	}

	if exists {
		s.source = joinedSource{repo: s.repo}
	} else {
		s.source = legacySource{repo: s.repo}
		s.log.Warn("sales relation missing, using legacy sale_items report")
	}
	s.log.Info("report source selected", zap.String("strategy", s.source.Name()))

	return s.source, nil
}

// ProductSales aggregates sold units and revenue per product over rng, which
// must be bounded on both sides.
func (s *Service) ProductSales(ctx context.Context, rng DateRange) (*ProductReport, error) {
	if !rng.bounded() {
		return nil, apperror.NewValidation("from and to are required")
	}

	src, err := s.Source(ctx)
	if err != nil {
		s.log.Error("probe report source failed", zap.Error(err))
		return nil, apperror.NewInternal(err)
	}

	lines, err := src.Lines(ctx, rng)
	if err != nil {
		s.log.Error("read sold lines failed", zap.String("strategy", src.Name()), zap.Error(err))
		return nil, apperror.NewInternal(err)
	}

	rows := Aggregate(lines)
	report := &ProductReport{
		Strategy:     src.Name(),
		Rows:         rows,
		TotalRevenue: decimal.Zero,
	}
	for _, row := range rows {
		report.TotalUnits += row.QuantitySold
		report.TotalRevenue = report.TotalRevenue.Add(row.TotalSold)
	}

	return report, nil
}

// Aggregate groups lines by product in first-seen order, then sorts by
// revenue descending. Ties keep first-seen order.
func Aggregate(lines []store.SoldLine) []models.ProductSales {
	rows := []models.ProductSales{}
	index := make(map[int64]int)

	for _, line := range lines {
		i, ok := index[line.ProductID]
		if !ok {
			i = len(rows)
			index[line.ProductID] = i
			rows = append(rows, models.ProductSales{
				ProductID: line.ProductID,
				Product:   line.ProductName,
				Price:     line.UnitPrice,
				TotalSold: decimal.Zero,
			})
		}
		rows[i].QuantitySold += line.Quantity
		rows[i].TotalSold = rows[i].TotalSold.Add(line.Amount)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].TotalSold.GreaterThan(rows[b].TotalSold)
	})
	return rows
}

type csvRow struct {
	ProductID    int64  `csv:"product_id"`
	Product      string `csv:"product"`
	Price        string `csv:"price"`
	QuantitySold int    `csv:"quantity_sold"`
	TotalSold    string `csv:"total_sold"`
}

// WriteCSV writes the aggregated rows of the report as CSV with a header line.
func WriteCSV(w io.Writer, report *ProductReport) error {
	rows := make([]csvRow, 0, len(report.Rows))
	for _, r := range report.Rows {
		rows = append(rows, csvRow{
			ProductID:    r.ProductID,
			Product:      r.Product,
			Price:        r.Price.StringFixed(2),
			QuantitySold: r.QuantitySold,
			TotalSold:    r.TotalSold.StringFixed(2),
		})
	}
	return gocsv.Marshal(rows, w)
}

// Stats totals completed sales in rng. Either side of rng may be open. The
// legacy schema has no sale headers, so its stats are empty.
func (s *Service) Stats(ctx context.Context, rng DateRange) (*Stats, error) {
	src, err := s.Source(ctx)
	if err != nil {
		s.log.Error("probe report source failed", zap.Error(err))
		return nil, apperror.NewInternal(err)
	}
	if src.Name() == StrategyLegacy {
		return &Stats{
			SalesStats:     store.SalesStats{Revenue: decimal.Zero},
			Strategy:       StrategyLegacy,
			AverageTicket:  decimal.Zero,
			AllTimeRevenue: decimal.Zero,
		}, nil
	}

	ranged, err := s.repo.GetSalesStats(ctx, rng.From, rng.To)
	if err != nil {
		s.log.Error("sales stats failed", zap.Error(err))
		return nil, apperror.NewInternal(err)
	}

	all := ranged
	if !rng.From.IsZero() || !rng.To.IsZero() {
		if all, err = s.repo.GetSalesStats(ctx, time.Time{}, time.Time{}); err != nil {
			s.log.Error("all-time sales stats failed", zap.Error(err))
			return nil, apperror.NewInternal(err)
		}
	}

	stats := &Stats{
		SalesStats:     *ranged,
		Strategy:       src.Name(),
		AverageTicket:  decimal.Zero,
		AllTimeRevenue: all.Revenue,
	}
	if ranged.SaleCount > 0 {
		stats.AverageTicket = ranged.Revenue.DivRound(decimal.NewFromInt(ranged.SaleCount), 2)
	}
	return stats, nil
}

// Diagnostics reports the state of the sales relations and the active
// report strategy, "unknown" when the probe fails.
func (s *Service) Diagnostics(ctx context.Context) (*Diagnostics, error) {
	d, err := s.repo.Diagnose(ctx)
	if err != nil {
		s.log.Error("diagnostics failed", zap.Error(err))
		return nil, apperror.NewInternal(err)
	}

	out := &Diagnostics{Diagnostics: *d, Strategy: "unknown"}
	if src, err := s.Source(ctx); err != nil {
		s.log.Warn("probe report source failed", zap.Error(err))
	} else {
		out.Strategy = src.Name()
	}
	return out, nil
}
