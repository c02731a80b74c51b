package format

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/qubicdash/qubicdash/server/internal/projection"
)

// DateLayout is the layout dates are shown with.
const DateLayout = "2006-01-02 15:04:05"

// Display precision per figure.
const (
	PriceDecimals     = 8
	IncomeDecimals    = 2
	SolutionsDecimals = 3
	LuckinessDecimals = 2
	PercentDecimals   = 1
)

// durationUnits holds the duration words for one language.
type durationUnits struct {
	units    durafmt.Units
	lessThan string
}

func unit(word string) durafmt.Unit { return durafmt.Unit{Singular: word, Plural: word} }

var (
	englishUnits = durationUnits{
		units: durafmt.Units{
			Year:        durafmt.Unit{Singular: "year", Plural: "years"},
			Week:        durafmt.Unit{Singular: "week", Plural: "weeks"},
			Day:         durafmt.Unit{Singular: "day", Plural: "days"},
			Hour:        durafmt.Unit{Singular: "hour", Plural: "hours"},
			Minute:      durafmt.Unit{Singular: "minute", Plural: "minutes"},
			Second:      durafmt.Unit{Singular: "second", Plural: "seconds"},
			Millisecond: durafmt.Unit{Singular: "millisecond", Plural: "milliseconds"},
			Microsecond: durafmt.Unit{Singular: "microsecond", Plural: "microseconds"},
		},
		lessThan: "< 1 minute",
	}
	chineseUnits = durationUnits{
		units: durafmt.Units{
			Year:        unit("年"),
			Week:        unit("周"),
			Day:         unit("天"),
			Hour:        unit("小时"),
			Minute:      unit("分钟"),
			Second:      unit("秒"),
			Millisecond: unit("毫秒"),
			Microsecond: unit("微秒"),
		},
		lessThan: "不到 1 分钟",
	}
)

func unitsFor(tag language.Tag) durationUnits {
	if base, _ := tag.Base(); base.String() == "zh" {
		return chineseUnits
	}
	return englishUnits
}

// Formatter renders numbers for one language and dates in one zone.
type Formatter struct {
	printer  *message.Printer
	loc      *time.Location
	duration durationUnits
}

// New returns a Formatter for tag, showing dates in loc (UTC when nil).
func New(tag language.Tag, loc *time.Location) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{printer: message.NewPrinter(tag), loc: loc, duration: unitsFor(tag)}
}

// Fixed renders a with exactly decimals fraction digits and digit grouping,
// or "N/A".
func (f *Formatter) Fixed(a projection.Amount, decimals int) string {
	v, ok := a.Value()
	if !ok {
		return projection.NA
	}
	return f.printer.Sprint(number.Decimal(v, number.Scale(decimals)))
}

// Price renders a price.
func (f *Formatter) Price(a projection.Amount) string { return f.Fixed(a, PriceDecimals) }

// Income renders a currency income.
func (f *Formatter) Income(a projection.Amount) string { return f.Fixed(a, IncomeDecimals) }

// Solutions renders a solution count estimate.
func (f *Formatter) Solutions(a projection.Amount) string { return f.Fixed(a, SolutionsDecimals) }

// Luckiness renders the actual/expected ratio.
func (f *Formatter) Luckiness(a projection.Amount) string { return f.Fixed(a, LuckinessDecimals) }

// Percent renders a ratio (0.5) as a percentage ("50.0%").
func (f *Formatter) Percent(ratio float64) string {
	return f.Fixed(projection.Of(ratio*100), PercentDecimals) + "%"
}

// Grouped renders v with thousands separators and no forced precision.
func (f *Formatter) Grouped(v float64) string {
	return humanize.Commaf(v)
}

// Rate renders a per-second throughput in SI form ("7.41 Mit/s").
func (f *Formatter) Rate(v float64, unit string) string {
	return humanize.SIWithDigits(v, 2, unit)
}

// Date renders t in the formatter's zone.
func (f *Formatter) Date(t time.Time) string {
	return t.In(f.loc).Format(DateLayout)
}

// Remaining renders a duration as its two largest units in the formatter's
// language ("3 days 12 hours", "3 天 12 小时").
func (f *Formatter) Remaining(d time.Duration) string {
	if d < time.Minute {
		return f.duration.lessThan
	}
	return durafmt.Parse(d.Truncate(time.Minute)).LimitFirstN(2).Format(f.duration.units)
}
