package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unifimon/internal/checkapi"
)

func TestBuild(t *testing.T) {
	tree := Build([]checkapi.InventoryRow{
		checkapi.Attributes{Path: []string{"hardware", "system"}, InventoryAttributes: map[string]any{"vendor": "ubiquiti"}},
		checkapi.Attributes{Path: []string{"hardware", "system"}, InventoryAttributes: map[string]any{"model": "US24P250"}},
		checkapi.TableRow{
			Path:             []string{"networking", "interfaces"},
			KeyColumns:       map[string]any{"index": 1},
			InventoryColumns: map[string]any{"alias": "Port 1"},
		},
		checkapi.TableRow{
			Path:             []string{"networking", "interfaces"},
			KeyColumns:       map[string]any{"index": 2},
			InventoryColumns: map[string]any{"alias": "Port 2"},
		},
		checkapi.TableRow{
			Path:             []string{"networking", "interfaces"},
			KeyColumns:       map[string]any{"index": 1},
			InventoryColumns: map[string]any{"speed": 1000},
		},
	})

	assert.Equal(t, []string{"hardware/system", "networking/interfaces"}, tree.Paths())

	sys, ok := tree.Get("hardware", "system")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"vendor": "ubiquiti", "model": "US24P250"}, sys.Attributes)

	ifs, ok := tree.Get("networking", "interfaces")
	require.True(t, ok)
	require.Len(t, ifs.Table, 2)
	assert.Equal(t, Row{"index": 1, "alias": "Port 1", "speed": 1000}, ifs.Table[0])

	_, ok = tree.Get("software")
	assert.False(t, ok)
}

func TestEmpty(t *testing.T) {
	assert.True(t, New().Empty())
	assert.True(t, Build(nil).Empty())
}
