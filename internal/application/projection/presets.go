package projection

import "time"

// RangePreset is one selectable chart range.
type RangePreset struct {
	Key     string    `json:"key"`
	Days    int       `json:"days"` // 0 = full span
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Default bool      `json:"default"`
}

var presetWindows = []struct {
	key  string
	days int
}{
	{"7d", 7},
	{"30d", 30},
	{"90d", 90},
	{"1y", 365},
}

// Presets returns the chart ranges that fit the span elapsed since the
// earliest purchase. Windows longer than the elapsed span are omitted ("last
// 7 days" makes no sense on day 3); the full span is always offered and is
// the default.
func Presets(earliestPurchase, asOf time.Time) []RangePreset {
	from, to := day(earliestPurchase), day(asOf)
	if to.Before(from) {
		to = from
	}
	elapsedDays := int(to.Sub(from).Hours() / 24)

	out := []RangePreset{{Key: "all", From: from, To: to, Default: true}}
	for _, w := range presetWindows {
		if elapsedDays >= w.days {
			out = append(out, RangePreset{
				Key:  w.key,
				Days: w.days,
				From: to.AddDate(0, 0, -w.days),
				To:   to,
			})
		}
	}
	return out
}

// PresetByKey finds a preset by key; falls back to the full-span default.
func PresetByKey(presets []RangePreset, key string) RangePreset {
	for _, p := range presets {
		if p.Key == key {
			return p
		}
	}
	for _, p := range presets {
		if p.Default {
			return p
		}
	}
	return presets[0]
}
