package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2023-01-01", "2023-01-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), r.End)

	_, err = ParseDateRange("2023-02-01", "2023-01-01")
	assert.Error(t, err)

	_, err = ParseDateRange("01/01/2023", "2023-01-31")
	assert.Error(t, err)
}

func TestDateRangeContains(t *testing.T) {
	r, err := ParseDateRange("2023-01-10", "2023-01-20")
	require.NoError(t, err)

	assert.True(t, r.Contains(time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2023, 1, 20, 23, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2023, 1, 9, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2023, 1, 21, 0, 0, 0, 0, time.UTC)))
}

func TestIsBusinessDay(t *testing.T) {
	// 2023-01-02 is a Monday.
	for i := 0; i < 5; i++ {
		d := time.Date(2023, 1, 2+i, 0, 0, 0, 0, time.UTC)
		assert.True(t, IsBusinessDay(d), d.Weekday().String())
	}
	assert.False(t, IsBusinessDay(time.Date(2023, 1, 7, 0, 0, 0, 0, time.UTC))) // Saturday
	assert.False(t, IsBusinessDay(time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC))) // Sunday
}

func TestSegmentNaming(t *testing.T) {
	seg := Segment{Instrument: "nifty", PeriodLabel: "2023-01"}
	assert.Equal(t, "nifty_2023-01", seg.Key())
	assert.Equal(t, "nifty_2023-01.parquet", seg.ArtifactName())
}

func TestBuildDataset_ColumnOrder(t *testing.T) {
	required := []string{"symbol", "date", "close"}
	days := [][]Record{
		{{"symbol": "nifty", "date": "2023-01-02", "close": "18100.5", "zeta": "x"}},
		{{"symbol": "nifty", "date": "2023-01-03", "close": "18150.0", "alpha": "y"}},
	}

	ds := BuildDataset(days, required)
	require.Len(t, ds.Records, 2)
	// Required columns first in configured order, extras sorted after.
	assert.Equal(t, []string{"symbol", "date", "close", "alpha", "zeta"}, ds.Columns)
}

func TestBuildDataset_Empty(t *testing.T) {
	ds := BuildDataset(nil, DefaultRequiredColumns)
	assert.True(t, ds.Empty())
	assert.Nil(t, ds.Columns)

	ds = BuildDataset([][]Record{{}, {}}, DefaultRequiredColumns)
	assert.True(t, ds.Empty())
}

func TestBuildDataset_PreservesDateOrder(t *testing.T) {
	days := [][]Record{
		{{"date": "2023-01-02", "time": "09:15"}, {"date": "2023-01-02", "time": "09:16"}},
		{{"date": "2023-01-03", "time": "09:15"}},
	}
	ds := BuildDataset(days, []string{"date", "time"})
	require.Len(t, ds.Records, 3)
	assert.Equal(t, "2023-01-02", ds.Records[0]["date"])
	assert.Equal(t, "09:16", ds.Records[1]["time"])
	assert.Equal(t, "2023-01-03", ds.Records[2]["date"])
}
