package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	cases := []struct {
		in   string
		want Spec
	}{
		{"80x24", Spec{Cols: 80, Rows: 24, HasSize: true}},
		{"100X40+10+20", Spec{Cols: 100, Rows: 40, HasSize: true, X: 10, Y: 20, HasPosition: true}},
		{"+0-5", Spec{X: 0, Y: -5, HasPosition: true, YNegative: true}},
		{"132x50-1+2", Spec{Cols: 132, Rows: 50, HasSize: true, X: -1, Y: 2, HasPosition: true, XNegative: true}},
	}
	for _, c := range cases {
		got, err := ParseSpec(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	for _, bad := range []string{"", "80", "80x", "x24", "80x24+1", "big", "80x24 "} {
		_, err := ParseSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestApplyGeometry(t *testing.T) {
	c, win, _ := newCoordinator(t, Options{})

	require.NoError(t, c.ApplyGeometry("100x30+7+8"))
	s := win.Snapshot()
	assert.Equal(t, 100, s.Cols)
	assert.Equal(t, 30, s.Rows)
	assert.Equal(t, 7, s.X)
	assert.Equal(t, 8, s.Y)
}

func TestApplyGeometryFallsBackToGrid(t *testing.T) {
	c, win, grid := newCoordinator(t, Options{})
	grid.cols, grid.rows = 90, 33

	assert.Error(t, c.ApplyGeometry("nonsense"))
	s := win.Snapshot()
	assert.Equal(t, 90, s.Cols)
	assert.Equal(t, 33, s.Rows)

	win.ResizeToGeometry(1, 1)
	require.NoError(t, c.ApplyGeometry(""))
	assert.Equal(t, 90, win.Snapshot().Cols)
}
