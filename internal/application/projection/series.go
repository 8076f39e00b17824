package projection

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// ProjectedHolding pairs one committed holding with the project figures its
// valuation needs. The projector never reads the clock or the database: every
// date is an explicit parameter, so a series is replayable for any asOf.
type ProjectedHolding struct {
	HoldingID              uuid.UUID
	StocksPurchased        int
	PurchaseDate           time.Time
	BonusPercentageApplied float64
	StockPrice             float64
	StockProfitPerUnit     float64
	ProfitCollectDate      time.Time
}

// HoldingPoint is one holding's projected value on one day.
type HoldingPoint struct {
	HoldingID uuid.UUID `json:"holding_id"`
	Value     float64   `json:"value"`
}

// Point is one day of the projected series.
type Point struct {
	Date       time.Time      `json:"date"`
	TotalValue float64        `json:"total_value"`
	PerHolding []HoldingPoint `json:"per_holding"`
}

// day truncates to a UTC calendar day; the series has day granularity.
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// progressRatio is the elapsed fraction between purchase and collect date,
// clamped to [0,1]. A zero or negative span counts as fully matured.
func progressRatio(purchase, collect, d time.Time) float64 {
	den := collect.Sub(purchase)
	if den <= 0 {
		return 1
	}
	r := float64(d.Sub(purchase)) / float64(den)
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// HoldingValueAt returns the holding's projected value on day d: the paid
// base plus profit accrued linearly toward the profit-collection date,
// rounded to the nearest integer currency unit for display. A holding not yet
// purchased on d, or one with malformed data, contributes zero rather than
// poisoning the whole series.
func HoldingValueAt(h ProjectedHolding, d time.Time) float64 {
	if h.StocksPurchased <= 0 || h.PurchaseDate.IsZero() || h.ProfitCollectDate.IsZero() {
		return 0
	}
	purchase := day(h.PurchaseDate)
	collect := day(h.ProfitCollectDate)
	d = day(d)
	if d.Before(purchase) {
		return 0
	}
	if collect.Before(purchase) {
		return 0
	}
	base := float64(h.StocksPurchased) * h.StockPrice
	maturityProfit := float64(h.StocksPurchased) * h.StockProfitPerUnit * (1 + h.BonusPercentageApplied/100)
	return math.Round(base + maturityProfit*progressRatio(purchase, collect, d))
}

// Series produces one point per day in [from, to] inclusive, aggregating all
// holdings active on each day.
func Series(holdings []ProjectedHolding, from, to time.Time) []Point {
	from, to = day(from), day(to)
	if to.Before(from) {
		from, to = to, from
	}

	var points []Point
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		p := Point{Date: d, PerHolding: make([]HoldingPoint, 0, len(holdings))}
		for _, h := range holdings {
			v := HoldingValueAt(h, d)
			p.PerHolding = append(p.PerHolding, HoldingPoint{HoldingID: h.HoldingID, Value: v})
			p.TotalValue += v
		}
		points = append(points, p)
	}
	return points
}

// Downsample reduces a daily series to at most max display points. The first
// and last point are always kept — they anchor the displayed growth — and the
// interior is sampled evenly.
func Downsample(points []Point, max int) []Point {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return []Point{points[len(points)-1]}
	}
	out := make([]Point, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	last := -1
	for i := 0; i < max; i++ {
		idx := int(math.Round(float64(i) * step))
		if idx <= last {
			idx = last + 1
		}
		if idx > len(points)-1 {
			idx = len(points) - 1
		}
		out = append(out, points[idx])
		last = idx
	}
	return out
}

// GrowthPercent is the relative change over the series, 0 when the series is
// empty or starts from a zero value.
func GrowthPercent(points []Point) float64 {
	if len(points) == 0 {
		return 0
	}
	first := points[0].TotalValue
	last := points[len(points)-1].TotalValue
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}
