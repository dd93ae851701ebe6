package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"histpull/internal/model"
)

func TestValidate(t *testing.T) {
	required := []string{"symbol", "date", "close"}

	t.Run("empty dataset passes", func(t *testing.T) {
		assert.NoError(t, Validate(model.Dataset{}, required))
	})

	t.Run("all required present", func(t *testing.T) {
		ds := model.Dataset{
			Columns: []string{"symbol", "date", "close"},
			Records: []model.Record{{"symbol": "nifty", "date": "2023-01-02", "close": "18100"}},
		}
		assert.NoError(t, Validate(ds, required))
	})

	t.Run("extra columns allowed", func(t *testing.T) {
		ds := model.Dataset{
			Columns: []string{"symbol", "date", "close", "vwap"},
			Records: []model.Record{{"symbol": "nifty", "date": "2023-01-02", "close": "18100", "vwap": "18090"}},
		}
		assert.NoError(t, Validate(ds, required))
	})

	t.Run("missing columns reported", func(t *testing.T) {
		ds := model.Dataset{
			Columns: []string{"symbol"},
			Records: []model.Record{{"symbol": "nifty"}},
		}
		err := Validate(ds, required)
		require.Error(t, err)

		var missing *MissingColumnsError
		require.True(t, errors.As(err, &missing))
		assert.Equal(t, []string{"date", "close"}, missing.Columns)
		assert.Contains(t, err.Error(), "date, close")
	})
}
