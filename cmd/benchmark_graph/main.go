package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	configKey  = "config"
	repeatsKey = "repeats"
	onlyKey    = "only"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_graph",
		Usage: "Run layered dependency graph benchmarks against the reactivity engine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  configKey,
				Usage: "YAML file with benchmark cases, defaults to the built-in set",
			},
			&cli.IntFlag{
				Name:  repeatsKey,
				Usage: "Timed runs per case, the best one is reported",
				Value: 5,
			},
			&cli.StringFlag{
				Name:  onlyKey,
				Usage: "Only run cases whose name contains this string",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type results struct {
	sum         int
	count       int64
	fingerprint uint64
	duration    time.Duration
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting graph benchmark, please wait...")
	defer log.Print("Finished graph benchmark")

	cases, err := loadCases(cmd.String(configKey))
	if err != nil {
		return err
	}
	testRepeats := int(cmd.Int(repeatsKey))
	if testRepeats < 1 {
		testRepeats = 1
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate", "sum", "fingerprint", "title",
	})

	only := cmd.String(onlyKey)
	for _, cfg := range cases {
		if only != "" && !strings.Contains(cfg.Name, only) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Printf("Running '%s' config", cfg.Name)
		counter := new(int64)
		graph := benchmarkMakeGraph(&benchmarkMakeGraphConfig{
			counter:        counter,
			width:          cfg.Width,
			totalLayers:    cfg.TotalLayers,
			nSources:       cfg.NSources,
			staticFraction: cfg.StaticFraction,
		})

		runOnce := func() (runResult, error) {
			return benchmarkRunGraph(&benchmarkRunGraphConfig{
				graph:        graph,
				iterations:   cfg.Iterations,
				readFraction: cfg.ReadFraction,
			})
		}
		// run once to warm up
		warm, err := runOnce()
		if err != nil {
			return fmt.Errorf("case %q: %w", cfg.Name, err)
		}

		best := &results{duration: time.Hour}
		for i := 0; i < testRepeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d %d%%", cfg.Name, i+1, testRepeats, (i+1)*100/testRepeats)
			*counter = 0
			start := time.Now()
			res, err := runOnce()
			duration := time.Since(start)
			if err != nil {
				return fmt.Errorf("case %q: %w", cfg.Name, err)
			}
			if res.fingerprint != warm.fingerprint {
				return fmt.Errorf("case %q: run %d produced different leaf values (%x != %x)", cfg.Name, i+1, res.fingerprint, warm.fingerprint)
			}

			if duration < best.duration {
				best = &results{
					sum:         res.sum,
					count:       *counter,
					fingerprint: res.fingerprint,
					duration:    duration,
				}
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.Width, cfg.TotalLayers), // size
			fmt.Sprint(cfg.NSources),                         // nSources
			fmt.Sprint(cfg.ReadFraction),                     // read%
			fmt.Sprint(cfg.StaticFraction),                   // static%
			humanize.Comma(int64(cfg.Iterations)),            // nTimes
			cfg.Name,                                         // test
			fmt.Sprint(best.duration),                        // time
			humanize.Comma(int64(updateRate)),                // updateRate
			humanize.Comma(int64(best.sum)),                  // sum
			fmt.Sprintf("%016x", best.fingerprint),           // fingerprint
			makeTitle(cfg),                                   // title
		})
	}
	table.Render()
	return nil
}

func makeTitle(cfg benchmarkTestConfig) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%dx%d %d sources", cfg.Width, cfg.TotalLayers, cfg.NSources))
	if cfg.StaticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.ReadFraction < 1 {
		sb.WriteString(fmt.Sprintf(" read %0.2f%%", 100*cfg.ReadFraction))
	}
	return sb.String()
}
