package report

import (
	"context"
	"time"

	"github.com/safar/cafe-pos/internal/store"
)

const (
	StrategyJoined = "joined"
	StrategyLegacy = "legacy"
)

// Source yields the sold lines a product report is built from.
type Source interface {
	Name() string
	Lines(ctx context.Context, rng DateRange) ([]store.SoldLine, error)
}

// joinedSource reads lines of completed sales through the sales header.
type joinedSource struct {
	repo Repository
}

func (s joinedSource) Name() string { return StrategyJoined }

func (s joinedSource) Lines(ctx context.Context, rng DateRange) ([]store.SoldLine, error) {
	return s.repo.ListCompletedLines(ctx, rng.From, rng.To)
}

// legacySource reads the flat sale_items table of databases that predate the
// sales header. It has neither status nor timestamp, so the range is ignored.
type legacySource struct {
	repo Repository
}

func (s legacySource) Name() string { return StrategyLegacy }

func (s legacySource) Lines(ctx context.Context, _ DateRange) ([]store.SoldLine, error) {
	return s.repo.ListLegacyLines(ctx)
}

// DateRange is a half-open interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

const dateLayout = "2006-01-02"

// ParseDateRange turns two calendar days into [from 00:00, to+1 00:00) in
// loc. An empty side stays zero, meaning unbounded.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	var rng DateRange

	if from != "" {
		d, err := time.ParseInLocation(dateLayout, from, loc)
		if err != nil {
			return DateRange{}, err
		}
		rng.From = d
	}
	if to != "" {
		d, err := time.ParseInLocation(dateLayout, to, loc)
		if err != nil {
			return DateRange{}, err
		}
		rng.To = d.AddDate(0, 0, 1)
	}

	if !rng.From.IsZero() && !rng.To.IsZero() && !rng.From.Before(rng.To) {
		return DateRange{}, errInvertedRange
	}
	return rng, nil
}

func (r DateRange) bounded() bool {
	return !r.From.IsZero() && !r.To.IsZero()
}
