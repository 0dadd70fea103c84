package backtest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

func point(date, value, marketValue string) Point {
	return Point{Date: day(date), Cash: d(value), Value: d(value), MarketValue: d(marketValue)}
}

func TestComputeStatistics_EmptyCurve(t *testing.T) {
	st, err := ComputeStatistics(models.NewWallet(d("100")), nil)
	require.NoError(t, err)
	assert.True(t, st.FinalCash.Equal(d("100")))
	assert.True(t, st.FinalMarketValue.Equal(d("100")))
	assert.True(t, st.MaxDrawdown.IsZero())
	assert.Zero(t, st.MeanDailyChange)
}

func TestComputeStatistics_DrawdownAndChanges(t *testing.T) {
	curve := []Point{
		point("2020-01-01", "10", "10"),
		point("2020-01-02", "12", "12"),
		point("2020-01-03", "9", "9"),
		point("2020-01-06", "11", "11"),
		point("2020-01-07", "8", "8"),
	}
	st, err := ComputeStatistics(models.NewWallet(decimal.Zero), curve)
	require.NoError(t, err)

	assert.True(t, st.MaxDrawdown.Equal(d("4")), "peak 12 to trough 8")
	assert.True(t, st.FinalValue.Equal(d("8")))
	// changes: +2, -3, +2, -3
	assert.InDelta(t, -0.5, st.MeanDailyChange, 1e-9)
	assert.InDelta(t, 2.5, st.StdDevDailyChange, 1e-9)
}

func TestComputeStatistics_TradeCounts(t *testing.T) {
	w := models.NewWallet(decimal.Zero)

	add := func(strike, exp string) *models.Position {
		p, err := models.NewPosition(models.NewPut(d(strike), day(exp)), -1, d("1"), day("2020-01-01"))
		require.NoError(t, err)
		w.AddPosition(p, true)
		return p
	}

	rolled := add("100", "2020-01-03")
	require.NoError(t, w.ClosePosition(rolled, day("2020-01-03"), d("-2")))

	worthless := add("100", "2020-01-10")
	require.NoError(t, w.ClosePosition(worthless, day("2020-01-10"), decimal.Zero))

	early := add("100", "2020-01-17")
	require.NoError(t, w.ClosePosition(early, day("2020-01-13"), d("-0.5")))

	add("100", "2020-01-10") // held through expiration with the underlying at 95
	add("100", "2020-01-17") // held through expiration with the underlying at 105
	add("100", "2020-01-20") // expires on the last tick out of the money
	add("102", "2020-01-20") // expires on the last tick in the money
	add("100", "2020-01-24") // still open

	curve := []Point{
		{Date: day("2020-01-03"), Underlying: d("97")},
		{Date: day("2020-01-10"), Underlying: d("95")},
		{Date: day("2020-01-17"), Underlying: d("105")},
		{Date: day("2020-01-20"), Underlying: d("101")},
	}

	st, err := ComputeStatistics(w, curve)
	require.NoError(t, err)
	assert.Equal(t, 8, st.TradesOpened)
	assert.Equal(t, 3, st.TradesClosed)
	assert.Equal(t, 1, st.Rolls)
	assert.Equal(t, 3, st.Lapses)
	assert.Equal(t, 2, st.Unsettled)
}

func TestComputeStatistics_ExpiryWithoutObservationIsUnsettled(t *testing.T) {
	w := models.NewWallet(decimal.Zero)
	p, err := models.NewPosition(models.NewPut(d("100"), day("2020-01-03")), -1, d("1"), day("2020-01-01"))
	require.NoError(t, err)
	w.AddPosition(p, true)

	st, err := ComputeStatistics(w, []Point{{Date: day("2020-01-06"), Underlying: d("120")}})
	require.NoError(t, err)
	assert.Equal(t, 0, st.Lapses)
	assert.Equal(t, 1, st.Unsettled)
}
