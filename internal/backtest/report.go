package backtest

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/eddiefleurent/scranton_backtest/internal/quotes"
)

var reportHeader = []string{
	"Strategy", "Cash", "Value", "Market Value", "Opened", "Closed",
	"Rolls", "Lapses", "Unsettled", "Max DD", "Mean Chg", "StdDev Chg", "Status",
}

// Report writes a summary table of the run to w.
func Report(w io.Writer, res *Result) error {
	if res == nil {
		return fmt.Errorf("no result to report")
	}
	if _, err := fmt.Fprintf(w, "Backtest %s to %s (%d ticks)\n",
		res.Start.Format(quotes.DateLayout), res.End.Format(quotes.DateLayout), res.Ticks); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(reportHeader)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, sr := range res.Strategies {
		st := sr.Statistics
		status := "ok"
		if sr.Halted && sr.HaltedAt != nil {
			status = "halted " + sr.HaltedAt.Format(quotes.DateLayout)
		}
		table.Append([]string{
			sr.Name,
			st.FinalCash.StringFixed(2),
			st.FinalValue.StringFixed(2),
			st.FinalMarketValue.StringFixed(2),
			fmt.Sprintf("%d", st.TradesOpened),
			fmt.Sprintf("%d", st.TradesClosed),
			fmt.Sprintf("%d", st.Rolls),
			fmt.Sprintf("%d", st.Lapses),
			fmt.Sprintf("%d", st.Unsettled),
			st.MaxDrawdown.StringFixed(2),
			fmt.Sprintf("%.4f", st.MeanDailyChange),
			fmt.Sprintf("%.4f", st.StdDevDailyChange),
			status,
		})
	}

	table.Render()
	return nil
}
