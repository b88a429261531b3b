// Package main provides tsbench, an in-process micro-benchmark harness for
// the series package: insert, lookup, and cursor-scan throughput, alone and
// under concurrent reader/writer load.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/tailscale/hujson"

	"github.com/go-tseries/tseries/series"
)

// Config holds all benchmark configuration. Loaded from a JSONC config file
// (if present) and then overridden by explicit CLI flags, following
// config.go's load-then-override precedence.
type Config struct {
	OutDir  string `json:"out_dir,omitempty"`
	Counts  []int  `json:"counts,omitempty"`
	Readers int    `json:"readers,omitempty"`
	Warmup  int    `json:"warmup,omitempty"`
	Runs    int    `json:"runs,omitempty"`
}

// ConfigFileName is the default config file name, read from the working
// directory if present.
const ConfigFileName = ".tsbench.json"

// DefaultConfig returns the baseline configuration before any file or CLI
// override is applied.
func DefaultConfig() Config {
	return Config{
		OutDir:  ".benchmarks",
		Counts:  []int{1_000, 100_000},
		Readers: 4,
		Warmup:  2,
		Runs:    5,
	}
}

// BenchResult holds one named measurement's aggregate timing.
type BenchResult struct {
	Label string
	N     int
	Mean  time.Duration
	Min   time.Duration
	Max   time.Duration
}

func main() {
	cfg := DefaultConfig()

	fileCfg, cfgPath, err := loadConfigFile(ConfigFileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg = mergeConfig(cfg, fileCfg)

	outDir := flag.String("out", cfg.OutDir, "Output directory for the report")
	countsStr := flag.String("counts", joinInts(cfg.Counts), "Comma-separated list of series sizes to benchmark")
	readers := flag.Int("readers", cfg.Readers, "Concurrent reader (cursor) goroutines during the mixed-load benchmark")
	warmup := flag.Int("warmup", cfg.Warmup, "Warmup iterations discarded before timing")
	runs := flag.Int("runs", cfg.Runs, "Timed iterations averaged per measurement")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, "Usage: tsbench [flags]\n\n")
		fmt.Fprint(os.Stderr, "Benchmarks series insert, lookup, and cursor-scan throughput.\n\n")
		fmt.Fprint(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg.OutDir = *outDir
	cfg.Readers = *readers
	cfg.Warmup = *warmup
	cfg.Runs = *runs

	counts, err := parseCounts(*countsStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Counts = counts

	if err := os.MkdirAll(cfg.OutDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	var results []BenchResult

	for _, n := range cfg.Counts {
		results = append(results, benchInsert(cfg, n))
		results = append(results, benchLookup(cfg, n))
		results = append(results, benchScan(cfg, n))
		results = append(results, benchMixedLoad(cfg, n))
	}

	report := renderReport(cfg, cfgPath, results)

	outFile := filepath.Join(cfg.OutDir, fmt.Sprintf("tsbench_%d.md", time.Now().Unix()))
	if err := os.WriteFile(outFile, []byte(report), 0o640); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "wrote %s\n", outFile)
	fmt.Fprint(os.Stdout, report)
}

// loadConfigFile reads path as JSONC via hujson.Standardize, mirroring
// config.go's parseConfig. A missing file is not an error: it returns a
// zero Config and an empty path.
func loadConfigFile(path string) (Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, "", nil
		}

		return Config{}, "", fmt.Errorf("reading %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, "", fmt.Errorf("invalid JSONC in %s: %w", path, err)
	}

	var fileCfg Config
	if err := json.Unmarshal(standardized, &fileCfg); err != nil {
		return Config{}, "", fmt.Errorf("parsing %s: %w", path, err)
	}

	return fileCfg, path, nil
}

// mergeConfig overlays non-zero fields of override onto base.
func mergeConfig(base, override Config) Config {
	if override.OutDir != "" {
		base.OutDir = override.OutDir
	}

	if len(override.Counts) > 0 {
		base.Counts = override.Counts
	}

	if override.Readers != 0 {
		base.Readers = override.Readers
	}

	if override.Warmup != 0 {
		base.Warmup = override.Warmup
	}

	if override.Runs != 0 {
		base.Runs = override.Runs
	}

	return base
}

func parseCounts(s string) ([]int, error) {
	var counts []int

	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid count %q: %w", part, err)
		}

		counts = append(counts, n)
	}

	if len(counts) == 0 {
		return nil, fmt.Errorf("no counts specified")
	}

	return counts, nil
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ",")
}

// timeRuns runs fn warmup+runs times, discarding the warmup iterations, and
// returns the mean/min/max of the timed ones.
func timeRuns(label string, n, warmup, runs int, fn func()) BenchResult {
	for range warmup {
		fn()
	}

	var total time.Duration

	min := time.Duration(1<<63 - 1)
	max := time.Duration(0)

	for range runs {
		start := time.Now()
		fn()
		elapsed := time.Since(start)

		total += elapsed
		if elapsed < min {
			min = elapsed
		}

		if elapsed > max {
			max = elapsed
		}
	}

	return BenchResult{
		Label: label,
		N:     n,
		Mean:  total / time.Duration(runs),
		Min:   min,
		Max:   max,
	}
}

// benchInsert times AddLast-ing n strictly increasing keys into a fresh
// series.
func benchInsert(cfg Config, n int) BenchResult {
	return timeRuns(fmt.Sprintf("insert/%d", n), n, cfg.Warmup, cfg.Runs, func() {
		s := series.New[int64, int64](series.Int64Comparer{})

		for i := range int64(n) {
			_ = s.AddLast(i, i)
		}
	})
}

// benchLookup times n random-key Get calls against a pre-populated series of
// size n.
func benchLookup(cfg Config, n int) BenchResult {
	s := series.New[int64, int64](series.Int64Comparer{})
	for i := range int64(n) {
		_ = s.AddLast(i, i)
	}

	rng := rand.New(rand.NewSource(1))

	return timeRuns(fmt.Sprintf("lookup/%d", n), n, cfg.Warmup, cfg.Runs, func() {
		for range n {
			k := int64(rng.Intn(n))
			_, _ = s.Get(k)
		}
	})
}

// benchScan times a single full forward cursor walk over a sealed series of
// size n.
func benchScan(cfg Config, n int) BenchResult {
	s := series.New[int64, int64](series.Int64Comparer{})
	for i := range int64(n) {
		_ = s.AddLast(i, i)
	}

	s.Complete()

	return timeRuns(fmt.Sprintf("scan/%d", n), n, cfg.Warmup, cfg.Runs, func() {
		c := s.NewCursor()
		for {
			ok, err := c.MoveNext()
			if err != nil || !ok {
				break
			}
		}
	})
}

// benchMixedLoad times a tail-append writer racing cfg.Readers concurrent
// cursors walking the series, exercising the orderVersion fast path (plain
// appends never invalidate an in-flight cursor).
func benchMixedLoad(cfg Config, n int) BenchResult {
	return timeRuns(fmt.Sprintf("mixed-load/%d", n), n, cfg.Warmup, cfg.Runs, func() {
		s := series.New[int64, int64](series.Int64Comparer{})

		var wg sync.WaitGroup

		ctx, cancel := context.WithCancel(context.Background())

		for range cfg.Readers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				c := s.NewCursor()

				for {
					for {
						ok, err := c.MoveNext()
						if err != nil {
							return
						}

						if !ok {
							break
						}
					}

					if sealed, err := c.Wait(ctx); err != nil || sealed {
						return
					}
				}
			}()
		}

		for i := range int64(n) {
			_ = s.AddLast(i, i)
		}

		s.Complete()
		wg.Wait()
		cancel()
	})
}

func renderReport(cfg Config, cfgPath string, results []BenchResult) string {
	var sb strings.Builder

	sb.WriteString("# tsbench report\n\n")
	sb.WriteString(fmt.Sprintf("- counts: %s\n", joinInts(cfg.Counts)))
	sb.WriteString(fmt.Sprintf("- readers: %d\n", cfg.Readers))
	sb.WriteString(fmt.Sprintf("- warmup: %d, runs: %d\n", cfg.Warmup, cfg.Runs))

	if cfgPath != "" {
		sb.WriteString(fmt.Sprintf("- config file: %s\n", cfgPath))
	}

	sb.WriteString("\n| benchmark | n | mean | min | max |\n")
	sb.WriteString("|---|---|---|---|---|\n")

	for _, r := range results {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n", r.Label, r.N, r.Mean, r.Min, r.Max))
	}

	return sb.String()
}
