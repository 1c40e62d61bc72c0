package accounting

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/ledger"
)

// MeanPriceInRange returns the day-weighted average price of a product
// between start and end.
//
// The price in effect at start plus every change strictly inside the range
// form the price curve. With no such record the current price is returned,
// with exactly one its price is returned. Otherwise each calendar day after
// the start day up to and including the end day contributes the price active
// on it, and the mean is rounded half-up to whole currency units.
func (s *Service) MeanPriceInRange(ctx context.Context, productID id.ID, start, end time.Time) (int64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, apperror.NewInvalidData("start and end must be valid timestamps")
	}
	if !end.After(start) {
		return 0, apperror.NewInvalidData("end must be after start").
			WithDetail("start", start).
			WithDetail("end", end)
	}

	var mean int64
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetProduct(ctx, productID); err != nil {
			return err
		}

		before, err := s.repo.GetLatestPriceAtOrBefore(ctx, productID, start)
		if err != nil {
			return fmt.Errorf("get price before range: %w", err)
		}
		within, err := s.repo.ListPricesBetween(ctx, productID, start, end)
		if err != nil {
			return fmt.Errorf("list prices in range: %w", err)
		}

		changes := priceChanges(before, within)
		switch len(changes) {
		case 0:
			current, err := s.repo.GetLatestPrice(ctx, productID)
			if err != nil {
				return fmt.Errorf("get current price: %w", err)
			}
			if current != nil {
				mean = current.Price
			}
		case 1:
			mean = changes[0].Price
		default:
			mean = dayWeightedMean(breakpoints(changes, s.location), startOfDay(start, s.location), startOfDay(end, s.location))
		}
		return nil
	})
	return mean, err
}

// pricePoint is the price that becomes active on day.
type pricePoint struct {
	day   time.Time
	price int64
}

// priceChanges returns before followed by within, ordered by timestamp then id.
// The input slice is left untouched.
func priceChanges(before *ledger.PriceRecord, within []ledger.PriceRecord) []ledger.PriceRecord {
	sorted := slices.Clone(within)
	slices.SortStableFunc(sorted, func(a, b ledger.PriceRecord) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return id.Compare(a.ID, b.ID)
	})

	if before == nil {
		return sorted
	}
	return append([]ledger.PriceRecord{*before}, sorted...)
}

// breakpoints maps ordered changes onto calendar days.
// Several changes on one day collapse into the last of them.
func breakpoints(changes []ledger.PriceRecord, loc *time.Location) []pricePoint {
	points := make([]pricePoint, 0, len(changes))
	for _, c := range changes {
		day := startOfDay(c.Timestamp, loc)
		if n := len(points); n > 0 && points[n-1].day.Equal(day) {
			points[n-1].price = c.Price
			continue
		}
		points = append(points, pricePoint{day: day, price: c.Price})
	}
	return points
}

// dayWeightedMean walks from the first breakpoint to endDay one day at a time.
// Days after startDay add the active price to the sum.
// If no day is counted the last active price is returned.
func dayWeightedMean(points []pricePoint, startDay, endDay time.Time) int64 {
	if len(points) == 0 {
		return 0
	}

	var sum, days int64
	active := points[0].price
	next := 0
	for day := points[0].day; !day.After(endDay); day = nextDay(day) {
		for next < len(points) && !points[next].day.After(day) {
			active = points[next].price
			next++
		}
		if day.After(startDay) {
			sum += active
			days++
		}
	}

	if days == 0 {
		return active
	}
	return roundHalfUp(sum, days)
}

// roundHalfUp divides and rounds to the nearest integer, ties away from zero.
func roundHalfUp(sum, days int64) int64 {
	return decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(days)).
		Round(0).
		IntPart()
}

// nextDay returns midnight of the following calendar day.
func nextDay(day time.Time) time.Time {
	return startOfDay(day.AddDate(0, 0, 1), day.Location())
}

// startOfDay truncates t to midnight of its calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
