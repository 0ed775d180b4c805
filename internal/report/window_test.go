package report

import (
	"testing"
	"time"

	"github.com/cmakhmud/smoking-shop/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baku = time.FixedZone("local", 4*3600)

func local(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, baku)
}

func TestResolveWindowToday(t *testing.T) {
	// 21:30 UTC on the 14th is 01:30 on the 15th in Baku
	now := time.Date(2024, 3, 14, 21, 30, 0, 0, time.UTC)

	w, err := ResolveWindow(Filter{DateFilter: FilterToday}, now, baku)
	require.NoError(t, err)
	assert.True(t, w.From.Equal(local(2024, 3, 15, 0, 0)))
	assert.True(t, w.To.Equal(local(2024, 3, 16, 0, 0)))
	assert.Equal(t, "2024-03-15", w.FromDay.Format(dateLayout))
	assert.Equal(t, "2024-03-16", w.ToDay.Format(dateLayout))

	def, err := ResolveWindow(Filter{}, now, baku)
	require.NoError(t, err)
	assert.Equal(t, w, def)
}

func TestResolveWindowWeekStartsMonday(t *testing.T) {
	// Sunday 17 March 2024, 10:00 local
	now := local(2024, 3, 17, 10, 0)

	w, err := ResolveWindow(Filter{DateFilter: FilterWeek}, now, baku)
	require.NoError(t, err)
	assert.True(t, w.From.Equal(local(2024, 3, 11, 0, 0)))
	assert.True(t, w.To.Equal(local(2024, 3, 18, 0, 0)))

	// Monday itself
	w, err = ResolveWindow(Filter{DateFilter: FilterWeek}, local(2024, 3, 18, 0, 5), baku)
	require.NoError(t, err)
	assert.True(t, w.From.Equal(local(2024, 3, 18, 0, 0)))
}

func TestResolveWindowMonth(t *testing.T) {
	w, err := ResolveWindow(Filter{DateFilter: FilterMonth}, local(2024, 12, 31, 23, 59), baku)
	require.NoError(t, err)
	assert.True(t, w.From.Equal(local(2024, 12, 1, 0, 0)))
	assert.True(t, w.To.Equal(local(2025, 1, 1, 0, 0)))
}

func TestResolveWindowCustom(t *testing.T) {
	now := local(2024, 3, 20, 12, 0)

	w, err := ResolveWindow(Filter{DateFilter: FilterCustom, StartDate: "2024-03-01", EndDate: "2024-03-10"}, now, baku)
	require.NoError(t, err)
	assert.True(t, w.From.Equal(local(2024, 3, 1, 0, 0)))
	assert.True(t, w.To.Equal(local(2024, 3, 11, 0, 0)))
	assert.Equal(t, "2024-03-11", w.ToDay.Format(dateLayout))

	w, err = ResolveWindow(Filter{
		DateFilter: FilterCustom, StartDate: "2024-03-01", EndDate: "2024-03-01",
		StartTime: "09:00", EndTime: "17:30",
	}, now, baku)
	require.NoError(t, err)
	assert.True(t, w.From.Equal(local(2024, 3, 1, 9, 0)))
	assert.True(t, w.To.Equal(local(2024, 3, 1, 17, 31)))
	assert.Equal(t, "2024-03-02", w.ToDay.Format(dateLayout))
}

func TestResolveWindowErrors(t *testing.T) {
	now := local(2024, 3, 20, 12, 0)

	_, err := ResolveWindow(Filter{DateFilter: FilterCustom, StartDate: "2024-03-01"}, now, baku)
	assert.True(t, apperr.Is(err, apperr.MsgCustomRangeRequired))

	_, err = ResolveWindow(Filter{DateFilter: FilterCustom, StartDate: "2024-03-01", EndDate: "03/10/2024"}, now, baku)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidDate))

	_, err = ResolveWindow(Filter{DateFilter: FilterCustom, StartDate: "2024-03-01", EndDate: "2024-03-02", StartTime: "9am"}, now, baku)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidTime))

	_, err = ResolveWindow(Filter{DateFilter: "yesterday"}, now, baku)
	assert.True(t, apperr.Is(err, apperr.MsgInvalidDateFilter))

	w, err := ResolveWindow(Filter{DateFilter: FilterAll}, now, baku)
	require.NoError(t, err)
	assert.False(t, w.Bounded())
}
