package projection

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testHolding(stocks int, bonus float64, purchase, collect time.Time) ProjectedHolding {
	return ProjectedHolding{
		HoldingID:              uuid.New(),
		StocksPurchased:        stocks,
		PurchaseDate:           purchase,
		BonusPercentageApplied: bonus,
		StockPrice:             10,
		StockProfitPerUnit:     2,
		ProfitCollectDate:      collect,
	}
}

// 5 stocks at price 10, profit 2/unit, 100-day horizon: 50 paid, 10 profit
// at maturity. Day 0 = 50, day 50 = 55, day 100 = 60.
func TestHoldingValueAt_LinearAccrual(t *testing.T) {
	purchase := date(2026, time.January, 1)
	h := testHolding(5, 0, purchase, purchase.AddDate(0, 0, 100))

	assert.Equal(t, 50.0, HoldingValueAt(h, purchase))
	assert.Equal(t, 55.0, HoldingValueAt(h, purchase.AddDate(0, 0, 50)))
	assert.Equal(t, 60.0, HoldingValueAt(h, purchase.AddDate(0, 0, 100)))
	// Clamped past maturity.
	assert.Equal(t, 60.0, HoldingValueAt(h, purchase.AddDate(0, 0, 150)))
}

func TestHoldingValueAt_BonusMultipliesProfit(t *testing.T) {
	purchase := date(2026, time.January, 1)
	h := testHolding(5, 10, purchase, purchase.AddDate(0, 0, 100))

	// Maturity profit 10 * 1.10 = 11.
	assert.Equal(t, 61.0, HoldingValueAt(h, purchase.AddDate(0, 0, 100)))
}

func TestHoldingValueAt_BeforePurchaseIsZero(t *testing.T) {
	purchase := date(2026, time.March, 1)
	h := testHolding(5, 0, purchase, purchase.AddDate(0, 0, 100))

	assert.Equal(t, 0.0, HoldingValueAt(h, purchase.AddDate(0, 0, -1)))
}

// Purchase date equal to the collect date counts as fully matured.
func TestHoldingValueAt_ZeroSpanFullyMatured(t *testing.T) {
	purchase := date(2026, time.January, 1)
	h := testHolding(5, 0, purchase, purchase)

	assert.Equal(t, 60.0, HoldingValueAt(h, purchase))
}

// Malformed holdings contribute zero instead of aborting the series.
func TestHoldingValueAt_MalformedContributesZero(t *testing.T) {
	purchase := date(2026, time.January, 10)
	inverted := testHolding(5, 0, purchase, purchase.AddDate(0, 0, -30))
	assert.Equal(t, 0.0, HoldingValueAt(inverted, purchase))

	var zeroDates ProjectedHolding
	zeroDates.StocksPurchased = 5
	assert.Equal(t, 0.0, HoldingValueAt(zeroDates, purchase))
}

func TestHoldingValueAt_Monotonic(t *testing.T) {
	purchase := date(2026, time.January, 1)
	h := testHolding(7, 0, purchase, purchase.AddDate(0, 0, 100))

	prev := -1.0
	for d := 0; d <= 110; d++ {
		v := HoldingValueAt(h, purchase.AddDate(0, 0, d))
		assert.GreaterOrEqual(t, v, prev, "value dropped on day %d", d)
		prev = v
	}
	assert.Equal(t, float64(7*10), HoldingValueAt(h, purchase))
	assert.Equal(t, float64(7*10+7*2), prev)
}

func TestSeries_AggregatesActiveHoldings(t *testing.T) {
	start := date(2026, time.January, 1)
	early := testHolding(5, 0, start, start.AddDate(0, 0, 100))
	late := testHolding(5, 0, start.AddDate(0, 0, 10), start.AddDate(0, 0, 110))

	points := Series([]ProjectedHolding{early, late}, start, start.AddDate(0, 0, 20))
	require.Len(t, points, 21)

	// Day 0: only the early holding has value.
	assert.Equal(t, 50.0, points[0].TotalValue)
	require.Len(t, points[0].PerHolding, 2)
	assert.Equal(t, 0.0, points[0].PerHolding[1].Value)

	// Day 10: both active, late one at its base.
	assert.Equal(t, HoldingValueAt(early, start.AddDate(0, 0, 10))+50.0, points[10].TotalValue)
}

func TestSeries_SwapsInvertedRange(t *testing.T) {
	start := date(2026, time.January, 1)
	h := testHolding(5, 0, start, start.AddDate(0, 0, 100))

	points := Series([]ProjectedHolding{h}, start.AddDate(0, 0, 5), start)
	require.Len(t, points, 6)
	assert.Equal(t, start, points[0].Date)
}

func TestDownsample_KeepsEndpoints(t *testing.T) {
	start := date(2026, time.January, 1)
	h := testHolding(5, 0, start, start.AddDate(0, 0, 100))
	points := Series([]ProjectedHolding{h}, start, start.AddDate(0, 0, 100))
	require.Len(t, points, 101)

	down := Downsample(points, 25)
	require.Len(t, down, 25)
	assert.Equal(t, points[0].Date, down[0].Date)
	assert.Equal(t, points[len(points)-1].Date, down[len(down)-1].Date)

	// Still strictly ordered.
	for i := 1; i < len(down); i++ {
		assert.True(t, down[i].Date.After(down[i-1].Date))
	}
}

func TestDownsample_NoopWhenWithinBound(t *testing.T) {
	start := date(2026, time.January, 1)
	h := testHolding(5, 0, start, start.AddDate(0, 0, 100))
	points := Series([]ProjectedHolding{h}, start, start.AddDate(0, 0, 10))

	assert.Len(t, Downsample(points, 0), len(points))
	assert.Len(t, Downsample(points, 50), len(points))
}

func TestGrowthPercent(t *testing.T) {
	start := date(2026, time.January, 1)
	h := testHolding(5, 0, start, start.AddDate(0, 0, 100))
	points := Series([]ProjectedHolding{h}, start, start.AddDate(0, 0, 100))

	// 50 -> 60 over the full span.
	assert.InDelta(t, 20.0, GrowthPercent(points), 1e-9)
}

func TestGrowthPercent_ZeroStartGuard(t *testing.T) {
	assert.Equal(t, 0.0, GrowthPercent(nil))

	start := date(2026, time.January, 10)
	h := testHolding(5, 0, start, start.AddDate(0, 0, 100))
	// Range starts before the purchase: first point is zero.
	points := Series([]ProjectedHolding{h}, start.AddDate(0, 0, -5), start.AddDate(0, 0, 5))
	assert.Equal(t, 0.0, GrowthPercent(points))
}

func TestPresets_OmitWindowsLongerThanSpan(t *testing.T) {
	earliest := date(2026, time.June, 1)

	presets := Presets(earliest, earliest.AddDate(0, 0, 3))
	require.Len(t, presets, 1)
	assert.Equal(t, "all", presets[0].Key)
	assert.True(t, presets[0].Default)

	presets = Presets(earliest, earliest.AddDate(0, 0, 45))
	keys := make([]string, 0, len(presets))
	for _, p := range presets {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"all", "7d", "30d"}, keys)

	presets = Presets(earliest, earliest.AddDate(0, 0, 400))
	keys = keys[:0]
	for _, p := range presets {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"all", "7d", "30d", "90d", "1y"}, keys)
}

func TestPresetByKey_FallsBackToDefault(t *testing.T) {
	earliest := date(2026, time.June, 1)
	presets := Presets(earliest, earliest.AddDate(0, 0, 45))

	assert.Equal(t, "30d", PresetByKey(presets, "30d").Key)
	// Unknown and too-long windows fall back to the full span.
	assert.Equal(t, "all", PresetByKey(presets, "1y").Key)
	assert.Equal(t, "all", PresetByKey(presets, "").Key)
}
