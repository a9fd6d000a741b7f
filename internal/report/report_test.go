package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/orderdesk/internal/model"
)

func history() []model.Order {
	return []model.Order{
		{ID: 1, Date: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), GrandTotal: 100.10},
		{ID: 2, Date: time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC), GrandTotal: 200.20},
		{ID: 3, Date: time.Date(2026, 5, 2, 0, 1, 0, 0, time.UTC), GrandTotal: 50},
		{ID: 4, Date: time.Date(2026, 5, 1, 22, 0, 0, 0, time.FixedZone("UTC-3", -3*3600)), GrandTotal: 10},
	}
}

func TestBuild_ByDay(t *testing.T) {
	day, err := ParseDate("2026-05-01")
	require.NoError(t, err)

	r := Build(history(), day)

	assert.Equal(t, "2026-05-01", r.Date)
	assert.Equal(t, 2, r.TotalOrders)
	assert.Equal(t, 300.30, r.TotalSales)
	require.Len(t, r.Orders, 2)
	assert.Equal(t, int64(2), r.Orders[0].ID, "newest first")
	assert.Equal(t, int64(1), r.Orders[1].ID)
}

func TestBuild_UsesUTCDate(t *testing.T) {
	day, err := ParseDate("2026-05-02")
	require.NoError(t, err)

	r := Build(history(), day)
	assert.Equal(t, 2, r.TotalOrders)
	assert.Equal(t, 60.0, r.TotalSales)
}

func TestBuild_NoFilter(t *testing.T) {
	r := Build(history(), time.Time{})

	assert.Empty(t, r.Date)
	assert.Equal(t, 4, r.TotalOrders)
	assert.Equal(t, 360.30, r.TotalSales)
	assert.Equal(t, int64(4), r.Orders[0].ID)
}

func TestBuild_Empty(t *testing.T) {
	r := Build(nil, time.Time{})

	assert.Zero(t, r.TotalOrders)
	assert.Zero(t, r.TotalSales)
	assert.NotNil(t, r.Orders)
}

func TestFilter_DoesNotReorderInput(t *testing.T) {
	orders := history()
	Build(orders, time.Time{})
	assert.Equal(t, int64(1), orders[0].ID)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("01/05/2026")
	assert.Error(t, err)
}
