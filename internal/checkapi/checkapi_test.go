package checkapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorst(t *testing.T) {
	tests := []struct {
		name   string
		states []State
		want   State
	}{
		{name: "none", want: OK},
		{name: "warn over ok", states: []State{OK, Warn}, want: Warn},
		{name: "unknown over warn", states: []State{Warn, Unknown, OK}, want: Unknown},
		{name: "crit over unknown", states: []State{Unknown, Crit, Warn}, want: Crit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Worst(tt.states...))
		})
	}
}

func TestStateText(t *testing.T) {
	assert.Equal(t, "(!)", Warn.Marker())
	assert.Equal(t, "(!!)", Crit.Marker())
	assert.Equal(t, "(?)", Unknown.Marker())
	assert.Empty(t, OK.Marker())
	assert.Equal(t, "unknown", State(7).Label())
}

func TestMetricPerfData(t *testing.T) {
	tests := []struct {
		name   string
		metric Metric
		want   string
	}{
		{name: "plain", metric: Metric{Name: "user_sta", Value: 14}, want: "user_sta=14"},
		{name: "levels", metric: Metric{Name: "temp", Value: 41.5, Levels: &Levels{Warn: 60, Crit: 70}}, want: "temp=41.5;60;70"},
		{
			name:   "boundaries",
			metric: Metric{Name: "satisfaction", Value: 98, Boundaries: &Boundaries{Min: Float(0), Max: Float(100)}},
			want:   "satisfaction=98;;;0;100",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.metric.PerfData())
		})
	}
}

func TestParams(t *testing.T) {
	base := Params{"portstates": []any{"1"}, "item_appearance": "index"}
	merged := base.Merge(Params{"item_appearance": "alias", "ignore_alarms": "true"})

	assert.Equal(t, "index", base.String("item_appearance", ""), "merge copies")
	assert.Equal(t, "alias", merged.String("item_appearance", ""))
	assert.Equal(t, "fallback", merged.String("missing", "fallback"))
	assert.True(t, merged.Bool("ignore_alarms"))
	assert.Equal(t, []string{"1"}, merged.Strings("portstates"))

	f, ok := Params{"speed": 1000}.Float("speed")
	require.True(t, ok)
	assert.Equal(t, 1000.0, f)
	_, ok = Params{}.Float("speed")
	assert.False(t, ok)
}

func TestParamsLevels(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *Levels
	}{
		{name: "list", value: []any{0.01, 0.1}, want: &Levels{Warn: 0.01, Crit: 0.1}},
		{name: "ints", value: []any{5, 10}, want: &Levels{Warn: 5, Crit: 10}},
		{name: "map", value: map[string]any{"warn": 1.0, "crit": 2.0}, want: &Levels{Warn: 1, Crit: 2}},
		{name: "short list", value: []any{1.0}},
		{name: "missing crit", value: map[string]any{"warn": 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Params{"errors": tt.value}.Levels("errors")
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckLevels(t *testing.T) {
	levels := &Levels{Warn: 10, Crit: 20}
	assert.Equal(t, OK, CheckLevels(9.9, levels))
	assert.Equal(t, Warn, CheckLevels(10, levels))
	assert.Equal(t, Crit, CheckLevels(25, levels))
	assert.Equal(t, OK, CheckLevels(1e9, nil))
	assert.Equal(t, &Levels{Warn: 20, Crit: 40}, levels.Scale(2))
}
