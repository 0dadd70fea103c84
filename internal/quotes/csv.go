package quotes

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Record is one row of the canonical quote CSV.
// Fields are kept as text so empty cells can be told apart from zeros.
type Record struct {
	QuoteDate         string `csv:"quote_date"`
	UnderlyingLast    string `csv:"underlying_last"`
	ExpireDate        string `csv:"expire_date"`
	DTE               string `csv:"dte"`
	Strike            string `csv:"strike"`
	PutBid            string `csv:"put_bid"`
	PutAsk            string `csv:"put_ask"`
	StrikeDistance    string `csv:"strike_distance"`
	StrikeDistancePct string `csv:"strike_distance_pct"`
}

func (r *Record) hasNull() bool {
	for _, v := range []string{r.QuoteDate, r.UnderlyingLast, r.ExpireDate, r.DTE, r.Strike,
		r.PutBid, r.PutAsk, r.StrikeDistance, r.StrikeDistancePct} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// parse converts the record into its quote date, underlying price and row.
func (r *Record) parse() (date QuoteKey, row Row, err error) {
	if date.Date, err = ParseDate(strings.TrimSpace(r.QuoteDate)); err != nil {
		return date, row, fmt.Errorf("quote_date: %w", err)
	}
	if date.Underlying, err = decimal.NewFromString(strings.TrimSpace(r.UnderlyingLast)); err != nil {
		return date, row, fmt.Errorf("underlying_last: %w", err)
	}
	if !date.Underlying.IsPositive() {
		return date, row, fmt.Errorf("underlying_last must be > 0 (got %s)", date.Underlying)
	}
	if row.Expiration, err = ParseDate(strings.TrimSpace(r.ExpireDate)); err != nil {
		return date, row, fmt.Errorf("expire_date: %w", err)
	}
	if row.DTE, err = parseDTE(r.DTE); err != nil {
		return date, row, fmt.Errorf("dte: %w", err)
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"strike", r.Strike, &row.Strike},
		{"put_bid", r.PutBid, &row.Bid},
		{"put_ask", r.PutAsk, &row.Ask},
		{"strike_distance", r.StrikeDistance, &row.StrikeDistance},
		{"strike_distance_pct", r.StrikeDistancePct, &row.StrikeDistancePct},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(strings.TrimSpace(f.raw)); err != nil {
			return date, row, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return date, row, row.Validate()
}

// parseDTE accepts whole day counts, including vendor forms like "7.0".
func parseDTE(raw string) (int, error) {
	dte, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !dte.IsInteger() {
		return 0, fmt.Errorf("%s is not a whole number of days", dte)
	}
	if dte.IsNegative() {
		return 0, fmt.Errorf("must be >= 0 (got %s)", dte)
	}
	return int(dte.IntPart()), nil
}

// QuoteKey identifies the snapshot a record belongs to.
type QuoteKey struct {
	Date       time.Time
	Underlying decimal.Decimal
}

// LoadStats counts what a load kept and dropped.
type LoadStats struct {
	Rows        int
	NullRows    int
	InvalidRows int
}

// Loader reads canonical quote CSV files.
type Loader struct {
	logger logrus.FieldLogger
}

// NewLoader creates a loader. A nil logger discards output.
func NewLoader(logger logrus.FieldLogger) *Loader {
	if logger == nil {
		l := logrus.New()
		l.Out = io.Discard
		logger = l
	}
	return &Loader{logger: logger}
}

// LoadCSV reads one file into a builder.
// Rows with empty fields or broken row invariants are dropped and counted.
func (l *Loader) LoadCSV(path string) (*Builder, LoadStats, error) {
	var stats LoadStats
	f, err := os.Open(path) // #nosec G304 -- path is a user-provided data file
	if err != nil {
		return nil, stats, fmt.Errorf("opening quotes file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []*Record
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, stats, fmt.Errorf("parsing quotes file %s: %w", path, err)
	}

	b := NewBuilder()
	for i, rec := range records {
		if rec.hasNull() {
			stats.NullRows++
			continue
		}
		key, row, err := rec.parse()
		if err != nil {
			stats.InvalidRows++
			l.logger.WithFields(logrus.Fields{"file": path, "line": i + 2}).Debugf("dropping row: %v", err)
			continue
		}
		if err := b.Add(key.Date, key.Underlying, row); err != nil {
			return nil, stats, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		stats.Rows++
	}

	if stats.NullRows > 0 || stats.InvalidRows > 0 {
		l.logger.WithFields(logrus.Fields{
			"file":    path,
			"kept":    stats.Rows,
			"null":    stats.NullRows,
			"invalid": stats.InvalidRows,
		}).Warn("dropped quote rows")
	}
	return b, stats, nil
}

// LoadFiles reads every file concurrently and builds one table.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (*Table, LoadStats, error) {
	var total LoadStats
	if len(paths) == 0 {
		return nil, total, fmt.Errorf("no quote files given")
	}

	builders := make([]*Builder, len(paths))
	stats := make([]LoadStats, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, s, err := l.LoadCSV(path)
			if err != nil {
				return err
			}
			builders[i], stats[i] = b, s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, total, err
	}

	merged := NewBuilder()
	for i, b := range builders {
		if err := merged.Merge(b); err != nil {
			return nil, total, fmt.Errorf("merging %s: %w", paths[i], err)
		}
		total.Rows += stats[i].Rows
		total.NullRows += stats[i].NullRows
		total.InvalidRows += stats[i].InvalidRows
	}
	if merged.Len() == 0 {
		return nil, total, fmt.Errorf("no usable quote rows in %d file(s)", len(paths))
	}

	table, err := merged.Build()
	if err != nil {
		return nil, total, fmt.Errorf("building quote table: %w", err)
	}
	l.logger.WithFields(logrus.Fields{
		"files": len(paths),
		"rows":  total.Rows,
		"dates": table.Len(),
	}).Info("loaded quote table")
	return table, total, nil
}

// RecordsFromTable flattens a table back into canonical records.
func RecordsFromTable(t *Table) []*Record {
	var out []*Record
	for _, s := range t.snapshots {
		for _, r := range s.Rows {
			out = append(out, &Record{
				QuoteDate:         s.Date.Format(DateLayout),
				UnderlyingLast:    s.UnderlyingLast.String(),
				ExpireDate:        r.Expiration.Format(DateLayout),
				DTE:               strconv.Itoa(r.DTE),
				Strike:            r.Strike.String(),
				PutBid:            r.Bid.String(),
				PutAsk:            r.Ask.String(),
				StrikeDistance:    r.StrikeDistance.String(),
				StrikeDistancePct: r.StrikeDistancePct.String(),
			})
		}
	}
	return out
}

// WriteCSV writes t as canonical CSV to path.
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path) // #nosec G304 -- path is a user-provided output file
	if err != nil {
		return fmt.Errorf("creating quotes file: %w", err)
	}
	if err := gocsv.MarshalFile(RecordsFromTable(t), f); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing quotes file: %w", err)
	}
	return f.Close()
}
