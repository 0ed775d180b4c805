package report

import (
	"strings"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"
)

type DateFilter string

const (
	FilterToday  DateFilter = "today"
	FilterWeek   DateFilter = "week"
	FilterMonth  DateFilter = "month"
	FilterCustom DateFilter = "custom"
	FilterAll    DateFilter = "all"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Window is a half-open reporting period [From, To). Timestamps are
// compared against From/To; expense days against FromDay/ToDay, which are
// UTC midnights of the local calendar days. A zero window means no bound.
type Window struct {
	From    time.Time
	To      time.Time
	FromDay time.Time
	ToDay   time.Time
}

func (w Window) Bounded() bool { return !w.From.IsZero() }

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResolveWindow turns a date filter into concrete bounds in loc.
func ResolveWindow(f Filter, now time.Time, loc *time.Location) (Window, error) {
	now = now.In(loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var from, to time.Time
	switch f.DateFilter {
	case "", FilterToday:
		from, to = midnight, midnight.AddDate(0, 0, 1)
	case FilterWeek:
		// weeks start on Monday
		offset := (int(now.Weekday()) + 6) % 7
		from = midnight.AddDate(0, 0, -offset)
		to = from.AddDate(0, 0, 7)
	case FilterMonth:
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		to = from.AddDate(0, 1, 0)
	case FilterAll:
		return Window{}, nil
	case FilterCustom:
		return customWindow(f, loc)
	default:
		return Window{}, apperr.Validation(apperr.MsgInvalidDateFilter, nil)
	}

	return Window{
		From:    from.UTC(),
		To:      to.UTC(),
		FromDay: day(from),
		ToDay:   day(to),
	}, nil
}

func customWindow(f Filter, loc *time.Location) (Window, error) {
	startDate := strings.TrimSpace(f.StartDate)
	endDate := strings.TrimSpace(f.EndDate)
	if startDate == "" || endDate == "" {
		return Window{}, apperr.Validation(apperr.MsgCustomRangeRequired, nil)
	}

	start, err := time.ParseInLocation(dateLayout, startDate, loc)
	if err != nil {
		return Window{}, apperr.Validation(apperr.MsgInvalidDate, map[string]any{"Field": "start_date"})
	}
	end, err := time.ParseInLocation(dateLayout, endDate, loc)
	if err != nil {
		return Window{}, apperr.Validation(apperr.MsgInvalidDate, map[string]any{"Field": "end_date"})
	}

	w := Window{
		FromDay: day(start),
		ToDay:   day(end).AddDate(0, 0, 1),
	}

	from := start
	if st := strings.TrimSpace(f.StartTime); st != "" {
		h, m, err := clock(st, "start_time")
		if err != nil {
			return Window{}, err
		}
		from = start.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
	}

	to := end.AddDate(0, 0, 1)
	if et := strings.TrimSpace(f.EndTime); et != "" {
		h, m, err := clock(et, "end_time")
		if err != nil {
			return Window{}, err
		}
		// end time is inclusive to the minute
		to = end.Add(time.Duration(h)*time.Hour + time.Duration(m+1)*time.Minute)
	}

	w.From = from.UTC()
	w.To = to.UTC()
	return w, nil
}

func clock(s, field string) (int, int, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, 0, apperr.Validation(apperr.MsgInvalidTime, map[string]any{"Field": field})
	}
	return t.Hour(), t.Minute(), nil
}
