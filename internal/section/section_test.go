package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	rec := ParseRecord([][]string{
		{"controller_version", "7.0.25"},
		{"update_available", "0"},
		{"short"},
		{"update_available", "1"},
	})

	assert.Equal(t, "7.0.25", rec.Get("controller_version"))
	assert.Equal(t, "1", rec.Get("update_available"), "last write wins")
	assert.Equal(t, "", rec.Get("cloudkey_version"))
	assert.Len(t, rec, 2)
}

func TestParseTableRoundTrip(t *testing.T) {
	rows := [][]string{
		{"10", "port_idx", "10"},
		{"10", "name", "Port 10"},
		{"2", "port_idx", "2"},
		{"2", "poe_enable", "1"},
		{"default", "desc", "Default"},
	}
	tbl := ParseTable(rows)

	for _, row := range rows {
		assert.Equal(t, row[2], tbl[row[0]][row[1]])
		assert.Equal(t, row[2], tbl.Get(row[0]).Get(row[1]))
	}

	assert.Equal(t, "", tbl.Get("10").Get("poe_enable"))
	assert.Equal(t, "", tbl.Get("missing").Get("name"))
	assert.Equal(t, []string{"10", "2", "default"}, tbl.IDs())
}

func TestParseTableSkipsShortRows(t *testing.T) {
	tbl := ParseTable([][]string{{"1", "only-two"}, {}, {"1", "name", "x"}})
	require.Len(t, tbl, 1)
	assert.Equal(t, "x", tbl.Get("1").Get("name"))
}

func TestSafeInt(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"42", 0, 42},
		{" -7 ", 0, -7},
		{"", 0, 0},
		{"", -1, -1},
		{"1.5", 0, 0},
		{"abc", 3, 3},
		{"0x10", 0, 0},
		{"99999999999999999999999", 5, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeInt(tt.in, tt.def), "SafeInt(%q, %d)", tt.in, tt.def)
	}
}

func TestSafeFloat(t *testing.T) {
	assert.Equal(t, 41.5, SafeFloat("41.5", 0))
	assert.Equal(t, 0.0, SafeFloat("", 0))
	assert.Equal(t, -1.0, SafeFloat("n/a", -1))
	assert.Equal(t, 12.0, SafeFloat("12", 0))
}

func TestRecordAccessors(t *testing.T) {
	rec := Record{"jumbo": "1", "speed": "1000", "temp": "48.25", "empty": ""}

	assert.True(t, rec.Bool("jumbo"))
	assert.False(t, rec.Bool("missing"))
	assert.Equal(t, 1000, rec.Int("speed", 0))
	assert.Equal(t, -1, rec.Int("missing", -1))
	assert.Equal(t, 48.25, rec.Float("temp", 0))
	assert.True(t, rec.Has("speed"))
	assert.False(t, rec.Has("empty"))
	assert.Equal(t, "", rec.GetOr("empty", "fallback"))
	assert.Equal(t, "fallback", rec.GetOr("missing", "fallback"))

	_, ok := rec.Lookup("empty")
	assert.True(t, ok)
}

func TestTableFind(t *testing.T) {
	tbl := Table{
		"a": {"radio": "na"},
		"b": {"radio": "ng"},
	}
	rec, ok := tbl.Find(func(r Record) bool { return r.Get("radio") == "ng" })
	require.True(t, ok)
	assert.Equal(t, "ng", rec.Get("radio"))

	_, ok = tbl.Find(func(r Record) bool { return r.Get("radio") == "6e" })
	assert.False(t, ok)
}
