package format

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"github.com/qubicdash/qubicdash/server/internal/projection"
)

var utc8 = time.FixedZone("UTC+8", 8*3600)

func TestFixed(t *testing.T) {
	f := New(language.English, utc8)
	tests := []struct {
		name     string
		a        projection.Amount
		decimals int
		want     string
	}{
		{"grouping", projection.Of(1234567.891), 2, "1,234,567.89"},
		{"pads zeros", projection.Of(1234.5), 2, "1,234.50"},
		{"small price", projection.Of(0.000002134), 8, "0.00000213"},
		{"three decimals", projection.Of(120), 3, "120.000"},
		{"unavailable", projection.Unavailable(), 2, "N/A"},
		{"non-finite", projection.Of(math.Inf(1)), 2, "N/A"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.Fixed(tc.a, tc.decimals))
		})
	}
}

func TestFigureHelpers(t *testing.T) {
	f := New(language.English, nil)
	assert.Equal(t, "0.00000200", f.Price(projection.Of(0.000002)))
	assert.Equal(t, "89.58", f.Income(projection.Of(89.582210)))
	assert.Equal(t, "120.000", f.Solutions(projection.Of(120)))
	assert.Equal(t, "0.14", f.Luckiness(projection.Of(60.0/420.0)))
	assert.Equal(t, "N/A", f.Luckiness(projection.Unavailable()))
}

func TestPercent(t *testing.T) {
	f := New(language.English, nil)
	assert.Equal(t, "50.0%", f.Percent(0.5))
	assert.Equal(t, "120.0%", f.Percent(1.2))
	assert.Equal(t, "0.0%", f.Percent(0))
}

func TestGroupedAndRate(t *testing.T) {
	f := New(language.English, nil)
	assert.Equal(t, "7,414,904", f.Grouped(7414904))
	assert.Equal(t, "7.41 Mit/s", f.Rate(7414904, "it/s"))
}

func TestDate(t *testing.T) {
	f := New(language.English, utc8)
	start := time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-28 20:00:00", f.Date(start))
	assert.Equal(t, "2024-02-28 12:00:00", New(language.English, nil).Date(start))
}

func TestRemaining(t *testing.T) {
	f := New(language.English, nil)
	assert.Equal(t, "3 days 12 hours", f.Remaining(84*time.Hour+5*time.Minute+7*time.Second))
	assert.Equal(t, "< 1 minute", f.Remaining(30*time.Second))
	assert.Equal(t, "< 1 minute", f.Remaining(0))
}

func TestRemaining_Chinese(t *testing.T) {
	f := New(language.SimplifiedChinese, nil)
	assert.Equal(t, "3 天 12 小时", f.Remaining(84*time.Hour+5*time.Minute))
	assert.Equal(t, "1 天 5 分钟", f.Remaining(24*time.Hour+5*time.Minute))
	assert.Equal(t, "不到 1 分钟", f.Remaining(30*time.Second))

	f = New(language.English, nil)
	assert.Equal(t, "1 day 5 minutes", f.Remaining(24*time.Hour+5*time.Minute))
}
