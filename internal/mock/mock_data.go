// Package mock generates synthetic option chains for tests and demos.
package mock

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
	"github.com/eddiefleurent/scranton_backtest/internal/util"
)

// ChainGenerator produces a deterministic put chain over a random-walk underlying.
// Once a contract is listed it is quoted every trading day until it expires.
type ChainGenerator struct {
	rng            *rand.Rand
	listed         map[time.Time]map[int64]bool // expiration -> strikes
	start          time.Time
	currentPrice   float64
	midIV          float64 // annualized volatility, percent
	strikeBand     float64
	strikeInterval int64
	days           int
}

// NewChainGenerator creates a generator for days trading days starting at start.
// The same seed always yields the same table.
func NewChainGenerator(seed int64, start time.Time, days int) *ChainGenerator {
	rng := rand.New(rand.NewSource(seed)) // #nosec G404 -- reproducible synthetic data, not security sensitive
	return &ChainGenerator{
		rng:            rng,
		listed:         make(map[time.Time]map[int64]bool),
		start:          time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		currentPrice:   300.0 + rng.Float64()*10, // SPY around 300-310
		midIV:          12.0 + rng.Float64()*18,  // 12-30%
		strikeBand:     25,
		strikeInterval: 5,
		days:           days,
	}
}

// Generate walks the trading days and returns the resulting table.
func (g *ChainGenerator) Generate() (*quotes.Table, error) {
	if g.days <= 0 {
		return nil, fmt.Errorf("days must be > 0 (got %d)", g.days)
	}

	snapshots := make([]*quotes.Snapshot, 0, g.days)
	for date := g.start; len(snapshots) < g.days; date = date.AddDate(0, 0, 1) {
		if !isTradingDay(date) {
			continue
		}
		if len(snapshots) > 0 {
			g.step()
		}
		snapshots = append(snapshots, g.snapshot(date))
	}
	return quotes.NewTable(snapshots)
}

// step moves the underlying up to 1% and the volatility up to one point.
func (g *ChainGenerator) step() {
	g.currentPrice += (g.rng.Float64() - 0.5) * 2 * g.currentPrice * 0.01
	g.currentPrice = math.Max(float64(g.strikeInterval), g.currentPrice)
	g.midIV += (g.rng.Float64() - 0.5) * 2
	g.midIV = math.Max(10, math.Min(40, g.midIV)) // Keep between 10-40
}

func (g *ChainGenerator) snapshot(date time.Time) *quotes.Snapshot {
	underlying := math.Round(g.currentPrice*100) / 100

	for exp := range g.listed {
		if exp.Before(date) {
			delete(g.listed, exp)
		}
	}

	var rows []quotes.Row
	for _, exp := range g.expirations(date) {
		dte := int(exp.Sub(date).Hours() / 24)
		for _, strike := range g.list(exp, underlying) {
			rows = append(rows, g.row(underlying, strike, exp, dte))
		}
	}

	return &quotes.Snapshot{
		Date:           date,
		UnderlyingLast: decimal.NewFromFloat(underlying),
		Rows:           rows,
	}
}

// expirations returns the listed expirations plus this and next week's Friday
// and the next two monthly (third Friday) expirations, sorted.
func (g *ChainGenerator) expirations(date time.Time) []time.Time {
	set := make(map[time.Time]bool)
	for exp := range g.listed {
		set[exp] = true
	}

	friday := date.AddDate(0, 0, (int(time.Friday)-int(date.Weekday())+7)%7)
	set[friday] = true
	set[friday.AddDate(0, 0, 7)] = true

	monthly := thirdFriday(date.Year(), date.Month())
	if monthly.Before(date) {
		monthly = thirdFriday(date.Year(), date.Month()+1)
	}
	set[monthly] = true
	set[thirdFriday(monthly.Year(), monthly.Month()+1)] = true

	out := make([]time.Time, 0, len(set))
	for exp := range set {
		out = append(out, exp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// list extends the strikes listed for exp to cover the band around underlying.
func (g *ChainGenerator) list(exp time.Time, underlying float64) []int64 {
	strikes, ok := g.listed[exp]
	if !ok {
		strikes = make(map[int64]bool)
		g.listed[exp] = strikes
	}

	interval := float64(g.strikeInterval)
	lo := int64(math.Floor((underlying-g.strikeBand)/interval)) * g.strikeInterval
	hi := int64(math.Ceil((underlying+g.strikeBand)/interval)) * g.strikeInterval
	for k := lo; k <= hi; k += g.strikeInterval {
		if k > 0 {
			strikes[k] = true
		}
	}

	out := make([]int64, 0, len(strikes))
	for k := range strikes {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// row prices a put as intrinsic value plus a time value that decays with
// distance from the money.
func (g *ChainGenerator) row(underlying float64, strike int64, exp time.Time, dte int) quotes.Row {
	k := float64(strike)
	intrinsic := math.Max(0, k-underlying)
	distance := math.Abs(k - underlying)
	deltaDecay := math.Exp(-distance * 0.02) // Exponential decay

	vol := g.midIV / 100.0
	timeValue := vol * math.Sqrt(float64(dte)/365.0) * underlying * 0.4 * deltaDecay
	mid := intrinsic + timeValue

	spread := 0.10 // 10 cent spread
	return quotes.Row{
		Expiration:        exp,
		Strike:            decimal.NewFromInt(strike),
		Bid:               util.RoundToTick(decimal.NewFromFloat(math.Max(0, mid-spread/2)), util.PennyTick),
		Ask:               util.RoundToTick(decimal.NewFromFloat(mid+spread/2), util.PennyTick),
		StrikeDistance:    round(distance, 2),
		StrikeDistancePct: round(distance/underlying, 4),
		DTE:               dte,
	}
}

func round(x float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(places)
}

func isTradingDay(date time.Time) bool {
	return date.Weekday() != time.Saturday && date.Weekday() != time.Sunday
}

func thirdFriday(year int, month time.Month) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}
