package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mxydl2009/vue3-responsive/pkg/reactivity"
	"github.com/mxydl2009/vue3-responsive/pkg/rxmetrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

const (
	itersKey      = "iters"
	maxSizeKey    = "max-size"
	cpuProfileKey = "cpuprofile"
	metricsKey    = "metrics"
)

var sizes = []int{1, 10, 100, 1_000}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Propagate writes through w x h chains of computed values",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "Writes per graph",
				Value: 100,
			},
			&cli.IntFlag{
				Name:  maxSizeKey,
				Usage: "Skip graphs wider or deeper than this",
				Value: 1_000,
			},
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to this file",
			},
			&cli.BoolFlag{
				Name:  metricsKey,
				Usage: "Print engine counters after the run",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("error while creating profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	collector := rxmetrics.New("benchmark")
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector)

	iters := int(cmd.Int(itersKey))
	maxSize := int(cmd.Int(maxSizeKey))

	log.Printf("warming up")
	if _, err := propagate(10, 10, iters, nil); err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("Propagate")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "effect runs"})

	for _, w := range sizes {
		for _, h := range sizes {
			if w > maxSize || h > maxSize {
				continue
			}
			var opts []reactivity.Option
			if cmd.Bool(metricsKey) {
				opts = append(opts, reactivity.WithInstrumentation(collector))
			}
			res, err := propagate(w, h, iters, opts)
			if err != nil {
				return fmt.Errorf("propagate %d * %d: %w", w, h, err)
			}

			calc := res.tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("propagate: %d * %d", w, h),
				calc.Time.Avg,
				calc.Time.Min,
				calc.Time.P75,
				calc.Time.P99,
				calc.Time.Max,
				humanize.Comma(int64(res.effectRuns)),
			})
		}
	}
	tbl.Render()

	if cmd.Bool(metricsKey) {
		return renderMetrics(reg)
	}
	return nil
}

type propagateResult struct {
	tach       *tachymeter.Tachymeter
	effectRuns int
}

// propagate builds w chains of h computed values over one source, each
// chain observed by an effect, then times iters writes to the source.
func propagate(w, h, iters int, opts []reactivity.Option) (*propagateResult, error) {
	rs := reactivity.NewReactiveSystem(opts...)
	src := reactivity.NewObject(rs, map[string]any{"v": 1})
	res := &propagateResult{tach: tachymeter.New(&tachymeter.Config{Size: iters})}

	for i := 0; i < w; i++ {
		read := func() (int, error) {
			return reactivity.Field[int](src, "v"), nil
		}
		for j := 0; j < h; j++ {
			prev := read
			read = reactivity.Computed(rs, func() (int, error) {
				v, err := prev()
				return v + 1, err
			}).Value
		}

		last := read
		if _, err := reactivity.RegisterEffect(rs, func() (any, error) {
			res.effectRuns++
			return last()
		}, reactivity.EffectOptions{}); err != nil {
			return nil, err
		}
	}

	for i := 0; i < iters; i++ {
		start := time.Now()
		if err := src.Set("v", reactivity.Field[int](src, "v")+1); err != nil {
			return nil, err
		}
		res.tach.AddTime(time.Since(start))
	}
	return res, nil
}

func renderMetrics(reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	tbl := table.NewWriter()
	tbl.SetTitle("Engine counters")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"metric", "value"})
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%s}", lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				tbl.AppendRow(table.Row{name, humanize.Comma(int64(m.GetCounter().GetValue()))})
			case m.GetHistogram() != nil:
				tbl.AppendRow(table.Row{name + " (count)", humanize.Comma(int64(m.GetHistogram().GetSampleCount()))})
			}
		}
	}
	tbl.Render()
	return nil
}
