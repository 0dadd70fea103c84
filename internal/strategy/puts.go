package strategy

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eddiefleurent/scranton_backtest/internal/models"
)

// putWriter sells one put at a time and rolls it when it expires in the money.
type putWriter struct {
	*Base
	idealDTE      func(time.Time) int
	idealStrike   decimal.Decimal
	lastStrike    decimal.NullDecimal
	holdTheStrike bool
}

func newPutWriter(label string, m Venue, p Params, idealDTE func(time.Time) int) putWriter {
	name := fmt.Sprintf("%s(%s)", label, p.IdealStrike.StringFixed(2))
	if p.HoldTheStrike {
		name = fmt.Sprintf("%s(%s,hold)", label, p.IdealStrike.StringFixed(2))
	}
	return putWriter{
		Base:          NewBase(name, m, p.Capital),
		idealDTE:      idealDTE,
		idealStrike:   p.IdealStrike,
		holdTheStrike: p.HoldTheStrike,
	}
}

// HandleExpiringPositions closes an in-the-money expiring put and lets an
// out-of-the-money one lapse. Only one open position is ever allowed.
func (s *putWriter) HandleExpiringPositions(positions []*models.Position) error {
	date, err := s.market.CurrentDate()
	if err != nil {
		return err
	}
	if open := s.wallet.OpenPositions(date); len(open) != 1 {
		return models.Violation("%s supports one open position at a time, found %d", s.name, len(open))
	}
	underlying, err := s.market.UnderlyingLast()
	if err != nil {
		return err
	}
	for _, p := range positions {
		if p.Option.IsITM(underlying) {
			if _, err := s.ClosePosition(p); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleNoOpenPositions writes a new put.
func (s *putWriter) HandleNoOpenPositions() error {
	date, err := s.market.CurrentDate()
	if err != nil {
		return err
	}
	if open := s.wallet.OpenPositions(date); len(open) != 0 {
		return models.Violation("%s: entry with %d open positions", s.name, len(open))
	}
	strike, err := s.IdealStrike()
	if err != nil {
		return err
	}
	p, err := s.WritePut(strike, s.idealDTE(date))
	if err != nil {
		return err
	}
	s.lastStrike = decimal.NewNullDecimal(p.Option.Strike)
	return nil
}

// IdealStrike is the underlying times the strike multiplier, or the previous
// strike when holding it.
func (s *putWriter) IdealStrike() (decimal.Decimal, error) {
	if s.holdTheStrike && s.lastStrike.Valid {
		return s.lastStrike.Decimal, nil
	}
	underlying, err := s.market.UnderlyingLast()
	if err != nil {
		return decimal.Zero, err
	}
	return underlying.Mul(s.idealStrike), nil
}

// IdealDTE returns the target days to expiration for an entry today.
func (s *putWriter) IdealDTE() (int, error) {
	date, err := s.market.CurrentDate()
	if err != nil {
		return 0, err
	}
	return s.idealDTE(date), nil
}

// WeeklyPuts sells a put expiring on the coming Friday.
type WeeklyPuts struct {
	putWriter
}

// NewWeeklyPuts creates the weekly put seller.
func NewWeeklyPuts(m Venue, p Params) *WeeklyPuts {
	s := &WeeklyPuts{putWriter: newPutWriter("SellWeeklyPuts", m, p, DaysToFriday)}
	s.Bind(s)
	return s
}

// MonthlyPuts sells a put expiring on the next monthly (third Friday) expiration.
type MonthlyPuts struct {
	putWriter
}

// NewMonthlyPuts creates the monthly put seller.
func NewMonthlyPuts(m Venue, p Params) *MonthlyPuts {
	s := &MonthlyPuts{putWriter: newPutWriter("SellMonthlyPuts", m, p, DaysToMonthlyExpiration)}
	s.Bind(s)
	return s
}

// DaysToFriday returns the days until the next Friday. On a Friday it targets
// the following week instead of expiring the same day. Weekend dates count
// forward to the coming Friday (6 from Saturday, 5 from Sunday); end-of-day
// chains only carry trading days, so strategies never see them.
func DaysToFriday(date time.Time) int {
	days := (int(time.Friday) - int(date.Weekday()) + 7) % 7
	if days == 0 {
		return 7
	}
	return days
}

// DaysToMonthlyExpiration returns the days until the first third Friday strictly after date.
func DaysToMonthlyExpiration(date time.Time) int {
	exp := thirdFriday(date.Year(), date.Month(), date.Location())
	if !exp.After(date) {
		exp = thirdFriday(date.Year(), date.Month()+1, date.Location())
	}
	return int(exp.Sub(date).Hours() / 24)
}

func thirdFriday(year int, month time.Month, loc *time.Location) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}
