package simplify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopDeviations(t *testing.T) {
	// chord 0-4 is flat at 0, chord 4-6 is flat at 0
	p := makeProfile(
		[]float64{0, 1, 2, 3, 4, 5, 6},
		[]float64{0, 2, -5, 1, 0, 3, 0},
	)
	kept := []bool{true, false, false, false, true, false, true}

	devs, err := TopDeviations(p, kept, 3)
	require.NoError(t, err)
	assert.Equal(t, []Deviation{
		{Value: 5, Index: 2},
		{Value: 3, Index: 5},
		{Value: 2, Index: 1},
	}, devs)
}

func TestTopDeviationsDeduplicatesSharedEndpoints(t *testing.T) {
	p := makeProfile([]float64{0, 1, 2}, []float64{0, 0, 0})
	kept := []bool{true, true, true}

	devs, err := TopDeviations(p, kept, 10)
	require.NoError(t, err)

	// index 1 closes the first chord and opens the second but is reported once
	require.Len(t, devs, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{devs[0].Index, devs[1].Index, devs[2].Index})
	for _, d := range devs {
		assert.Zero(t, d.Value)
	}
}

func TestTopDeviationsSlopedChord(t *testing.T) {
	p := makeProfile([]float64{0, 10, 20}, []float64{0, 8, 10})
	kept := []bool{true, false, true}

	devs, err := TopDeviations(p, kept, 1)
	require.NoError(t, err)
	require.Len(t, devs, 1)
	assert.Equal(t, 1, devs[0].Index)
	assert.InDelta(t, 3.0, devs[0].Value, 1e-12)
}

func TestTopDeviationsEdgeCases(t *testing.T) {
	p := makeProfile([]float64{0, 1}, []float64{0, 1})

	devs, err := TopDeviations(p, []bool{true, true}, 0)
	require.NoError(t, err)
	assert.Empty(t, devs)

	devs, err = TopDeviations(p[:0], []bool{}, 5)
	require.NoError(t, err)
	assert.Empty(t, devs)

	_, err = TopDeviations(p, []bool{true}, 5)
	assert.Error(t, err)
}
