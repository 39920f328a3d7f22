package main

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/mxydl2009/vue3-responsive/pkg/reactivity"
)

type node = *reactivity.ComputedValue[int]

type benchmarkGraph struct {
	rs      *reactivity.ReactiveSystem
	sources []*reactivity.Object
	layers  [][]node
}

type benchmarkMakeGraphConfig struct {
	counter                      *int64
	width, totalLayers, nSources int
	staticFraction               float64
}

func sourceReader(src *reactivity.Object) func() (int, error) {
	return func() (int, error) {
		return reactivity.Field[int](src, "v"), nil
	}
}

func benchmarkMakeGraph(cfg *benchmarkMakeGraphConfig) *benchmarkGraph {
	rs := reactivity.NewReactiveSystem()
	graph := &benchmarkGraph{rs: rs, sources: make([]*reactivity.Object, cfg.width)}

	prevRow := make([]func() (int, error), cfg.width)
	for i := range graph.sources {
		graph.sources[i] = reactivity.NewObject(rs, map[string]any{"v": i})
		prevRow[i] = sourceReader(graph.sources[i])
	}

	random := rand.New(rand.NewSource(0))
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := makeBenchmarkRow(rs, prevRow, cfg, random)
		graph.layers = append(graph.layers, row)

		prevRow = make([]func() (int, error), len(row))
		for i, n := range row {
			prevRow[i] = n.Value
		}
	}
	return graph
}

func makeBenchmarkRow(rs *reactivity.ReactiveSystem, sources []func() (int, error), cfg *benchmarkMakeGraphConfig, random *rand.Rand) []node {
	row := make([]node, len(sources))

	for myDex := range sources {
		mySources := make([]func() (int, error), 0, cfg.nSources)
		for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
			mySources = append(mySources, sources[(myDex+sourceDex)%len(sources)])
		}

		staticNode := random.Float64() < cfg.staticFraction
		if staticNode || len(mySources) < 2 {
			// static node, always reference sources
			row[myDex] = reactivity.Computed(rs, func() (int, error) {
				*cfg.counter++
				sum := 0
				for _, source := range mySources {
					v, err := source()
					if err != nil {
						return 0, err
					}
					sum += v
				}
				return sum, nil
			})
			continue
		}

		first, tail := mySources[0], mySources[1:]
		row[myDex] = reactivity.Computed(rs, func() (int, error) {
			*cfg.counter++
			sum, err := first()
			if err != nil {
				return 0, err
			}
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)

			for i := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				v, err := tail[i]()
				if err != nil {
					return 0, err
				}
				sum += v
			}
			return sum, nil
		})
	}
	return row
}

type benchmarkRunGraphConfig struct {
	graph        *benchmarkGraph
	iterations   int
	readFraction float64
}

type runResult struct {
	sum         int
	fingerprint uint64
}

// Execute the graph by writing one of the sources and reading some or all
// of the leaves. Returns the sum of the read leaves and a hash of their
// final values.
func benchmarkRunGraph(cfg *benchmarkRunGraphConfig) (runResult, error) {
	random := rand.New(rand.NewSource(0))
	leaves := cfg.graph.layers[len(cfg.graph.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := benchmarkRemoveElems(leaves, skipCount, random)

	sources := cfg.graph.sources
	for i := 0; i < cfg.iterations; i++ {
		sourceDex := i % len(sources)
		if err := sources[sourceDex].Set("v", i+sourceDex); err != nil {
			return runResult{}, err
		}

		for _, leaf := range readLeaves {
			if _, err := leaf.Value(); err != nil {
				return runResult{}, err
			}
		}
	}

	var res runResult
	digest := xxhash.New()
	buf := make([]byte, 0, 20)
	for _, leaf := range readLeaves {
		v, err := leaf.Value()
		if err != nil {
			return runResult{}, err
		}
		res.sum += v
		buf = strconv.AppendInt(buf[:0], int64(v), 10)
		digest.Write(append(buf, ','))
	}
	res.fingerprint = digest.Sum64()
	return res, nil
}

func benchmarkRemoveElems[T any](src []T, rmCount int, rand *rand.Rand) []T {
	copyWithRemovals := make([]T, len(src))
	copy(copyWithRemovals, src)
	for i := 0; i < rmCount; i++ {
		rmDex := rand.Intn(len(copyWithRemovals))
		copyWithRemovals[rmDex] = copyWithRemovals[len(copyWithRemovals)-1]
		copyWithRemovals = copyWithRemovals[:len(copyWithRemovals)-1]
	}
	return copyWithRemovals
}
