package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableSetAndAddColumn(t *testing.T) {
	tbl, err := New("id_building", "energy_gas_kbtu")
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]string{"B1", "1200"}))
	require.NoError(t, tbl.AppendRow([]string{"B2", ""}))

	require.ErrorIs(t, tbl.Set(0, "hvac_pct_gas", Number(0.5)), ErrUnknownColumn)
	tbl.AddColumn("hvac_pct_gas")
	tbl.AddColumn("hvac_pct_gas")
	assert.Len(t, tbl.ColumnNames(), 3)
	require.NoError(t, tbl.Set(0, "hvac_pct_gas", Number(0.5)))
	require.ErrorIs(t, tbl.Set(5, "hvac_pct_gas", Number(0.5)), ErrRowOutOfRange)

	assert.Equal(t, "0.5", tbl.Row(0).Text("hvac_pct_gas"))
	assert.True(t, tbl.Row(1).Value("hvac_pct_gas").IsNull())
	assert.True(t, tbl.Row(1).Value("not_a_column").IsNull())
}

func TestTableCloneIsDeep(t *testing.T) {
	tbl, err := New("a")
	require.NoError(t, err)
	require.NoError(t, tbl.AppendRow([]string{"1"}))
	cp := tbl.Clone()
	require.NoError(t, cp.Set(0, "a", Number(2)))
	require.NoError(t, cp.DeleteRow(0))
	assert.Equal(t, "1", tbl.Row(0).Text("a"))
	assert.Equal(t, 1, tbl.RowCount())
	assert.Equal(t, 0, cp.RowCount())
}

func TestValueParsing(t *testing.T) {
	for _, raw := range []string{"", "  ", "NaN", "null", "None", "N/A"} {
		assert.True(t, String(raw).IsNull(), "%q", raw)
	}
	f, ok := String(" 1,250.5 ").Float()
	require.True(t, ok)
	assert.InDelta(t, 1250.5, f, 1e-9)
	_, ok = String("Office").Float()
	assert.False(t, ok)
	assert.True(t, Number(0).Equal(String("0")))
	assert.True(t, Null().Equal(Number(math.NaN())))
	assert.Equal(t, "0.3261", Number(0.3261).Text())
}
