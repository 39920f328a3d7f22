package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultCases(t *testing.T) {
	cases, err := loadCases("")
	require.NoError(t, err)
	require.Len(t, cases, 6)
	assert.Equal(t, "simple component", cases[0].Name)
	assert.Equal(t, 600000, cases[0].Iterations)
	assert.Equal(t, 0.2, cases[0].ReadFraction)
}

func TestLoadCasesRejectsBadInput(t *testing.T) {
	_, err := loadCases("testdata/missing.yaml")
	assert.Error(t, err)

	bad := benchmarkTestConfig{Name: "x", Width: 1, TotalLayers: 1, NSources: 1, Iterations: 1}
	assert.Error(t, bad.validate())
}

// node i sums sources i and i+1, wrapping around
func TestGraphMatchesDirectComputation(t *testing.T) {
	counter := new(int64)
	graph := benchmarkMakeGraph(&benchmarkMakeGraphConfig{
		counter:        counter,
		width:          3,
		totalLayers:    2,
		nSources:       2,
		staticFraction: 1,
	})
	require.Len(t, graph.layers, 1)

	res, err := benchmarkRunGraph(&benchmarkRunGraphConfig{
		graph:        graph,
		iterations:   3,
		readFraction: 1,
	})
	require.NoError(t, err)

	// sources end as 0, 2, 4; every node sums two neighbours, every source is read twice
	assert.Equal(t, 2*(0+2+4), res.sum)

	again, err := benchmarkRunGraph(&benchmarkRunGraphConfig{
		graph:        graph,
		iterations:   3,
		readFraction: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, res.fingerprint, again.fingerprint)
}

// should only recompute nodes whose sources changed
func TestGraphMemoizes(t *testing.T) {
	counter := new(int64)
	graph := benchmarkMakeGraph(&benchmarkMakeGraphConfig{
		counter:        counter,
		width:          4,
		totalLayers:    2,
		nSources:       1,
		staticFraction: 1,
	})
	for _, n := range graph.layers[0] {
		_, err := n.Value()
		require.NoError(t, err)
	}
	assert.Equal(t, int64(4), *counter)

	require.NoError(t, graph.sources[0].Set("v", 10))
	for _, n := range graph.layers[0] {
		_, err := n.Value()
		require.NoError(t, err)
	}
	assert.Equal(t, int64(5), *counter)
}
