package kv

import (
	"encoding/csv"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/skv/cmd/util"
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/client"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/cockroachdb/errors"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for skv servers",
		Long:    "Runs every benchmark with several client goroutines in parallel and prints latency percentiles and throughput. All keys are written to a dedicated table which is cleaned up afterwards.",
		RunE:    run,
		PreRunE: processPerfConfig,
	}
	perfTable            = "__perf"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfKeySpread        = 100
	perfOps              = 10000
	perfBatchSize        = 10
	perfSkip             = make([]string, 0)
)

// percentiles reported for every benchmark
var perfPercentiles = []float64{0.5, 0.95, 0.99}

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. hset,hget)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines sending requests in parallel"))
	key = "ops"
	perfTestCmd.Flags().Int(key, 10000, util.WrapString("Number of requests per benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the value for the hset-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different keys to use for the tests"))
	key = "batch"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of keys per hmget request"))
	key = "table"
	perfTestCmd.Flags().String(key, "__perf", util.WrapString("The table used for the benchmarks"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = max(1, viper.GetInt("keys"))
	perfNumThreads = max(1, viper.GetInt("threads"))
	perfOps = max(1, viper.GetInt("ops"))
	perfBatchSize = max(1, viper.GetInt("batch"))
	perfTable = viper.GetString("table")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// benchmark is one named workload, op is called with a running counter
type benchmark struct {
	name  string
	setup func() error
	op    func(i int) error
}

// benchResult holds the measurements of one benchmark
type benchResult struct {
	name    string
	timer   metrics.Timer
	errors  metrics.Counter
	elapsed time.Duration
	skipped bool
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Performance testing tool for skv servers")

	// Print configuration
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintln(out, util.GetClientConfig().String())
	fmt.Fprintf(out, "Threads: %d, Requests per benchmark: %d, Keys: %d\n", perfNumThreads, perfOps, perfKeySpread)
	fmt.Fprintln(out)

	keys := make([]string, perfKeySpread)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}
	key := func(i int) string { return keys[i%len(keys)] }
	fill := func() error {
		pairs := make([]store.Kvpair, len(keys))
		for i, k := range keys {
			pairs[i] = store.NewKvpair(k, store.String("test"))
		}
		_, err := rpcClient.Hmset(perfTable, pairs...)
		return err
	}
	largeValue := store.Binary(make([]byte, perfLargeValueSizeKB*1024))

	benchmarks := []benchmark{
		{name: "hset", op: func(i int) error {
			_, err := rpcClient.Hset(perfTable, key(i), store.String("test"))
			return err
		}},
		{name: "hset-large", op: func(i int) error {
			_, err := rpcClient.Hset(perfTable, key(i), largeValue)
			return err
		}},
		{name: "hget", setup: fill, op: func(i int) error {
			_, err := rpcClient.Hget(perfTable, key(i))
			return err
		}},
		{name: "hmget", setup: fill, op: func(i int) error {
			batch := make([]string, perfBatchSize)
			for j := range batch {
				batch[j] = key(i + j)
			}
			_, err := rpcClient.Hmget(perfTable, batch...)
			return err
		}},
		{name: "hexist", setup: fill, op: func(i int) error {
			_, err := rpcClient.Hexist(perfTable, key(i))
			return err
		}},
		{name: "hgetall", setup: fill, op: func(int) error {
			_, err := rpcClient.Hgetall(perfTable)
			return err
		}},
		{name: "mixed", setup: fill, op: func(i int) error {
			var err error
			switch i % 4 {
			case 0:
				_, err = rpcClient.Hset(perfTable, key(i), store.String("test"))
			case 1:
				_, err = rpcClient.Hget(perfTable, key(i))
			case 2:
				_, err = rpcClient.Hdel(perfTable, key(i))
			case 3:
				_, err = rpcClient.Hexist(perfTable, key(i))
			}
			return err
		}},
	}

	fmt.Fprintln(out, "starting tests...")
	fmt.Fprintf(out, "%-12s%10s%12s%12s%12s%12s%12s%8s\n", "test", "requests", "ops/sec", "mean", "p50", "p95", "p99", "errors")

	registry := metrics.NewRegistry()
	results := make([]benchResult, 0, len(benchmarks))
	for _, b := range benchmarks {
		result := runBenchmark(registry, b)
		printResult(cmd, result)
		results = append(results, result)

		// cleanup
		if !result.skipped {
			if _, err := rpcClient.Hmdel(perfTable, keys...); err != nil {
				fmt.Fprintf(out, "(%s) - error deleting keys: %v\n", b.name, err)
			}
		}
	}

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Fprintf(out, "\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, util.GetClientConfig()); err != nil {
			return errors.Wrap(err, "failed to export results to CSV")
		}
		fmt.Fprintln(out, "Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	return slices.Contains(perfSkip, test)
}

// runBenchmark runs perfOps operations spread over perfNumThreads goroutines
func runBenchmark(registry metrics.Registry, b benchmark) benchResult {
	result := benchResult{
		name:    b.name,
		timer:   metrics.GetOrRegisterTimer(b.name+".latency", registry),
		errors:  metrics.GetOrRegisterCounter(b.name+".errors", registry),
		skipped: shouldSkip(b.name),
	}
	if result.skipped {
		return result
	}
	if b.setup != nil {
		if err := b.setup(); err != nil {
			result.errors.Inc(1)
		}
	}

	var next sync.Mutex
	counter := 0
	take := func() (int, bool) {
		next.Lock()
		defer next.Unlock()
		if counter >= perfOps {
			return 0, false
		}
		counter++
		return counter - 1, true
	}

	var wg sync.WaitGroup
	start := time.Now()
	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i, ok := take()
				if !ok {
					return
				}
				opStart := time.Now()
				err := b.op(i)
				result.timer.UpdateSince(opStart)
				// a missing key is an expected outcome of the mixed workload
				if err != nil && !client.IsNotFound(err) {
					result.errors.Inc(1)
				}
			}
		}()
	}
	wg.Wait()
	result.elapsed = time.Since(start)
	return result
}

// opsPerSec returns the throughput of a finished benchmark
func (r benchResult) opsPerSec() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return float64(r.timer.Count()) / r.elapsed.Seconds()
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(cmd *cobra.Command, r benchResult) {
	out := cmd.OutOrStdout()
	if r.skipped {
		fmt.Fprintf(out, "%-12sskipped\n", r.name)
		return
	}

	ps := r.timer.Percentiles(perfPercentiles)
	fmt.Fprintf(out, "%-12s%10d%12.0f%12s%12s%12s%12s%8d\n",
		r.name,
		r.timer.Count(),
		r.opsPerSec(),
		durationOf(r.timer.Mean()),
		durationOf(ps[0]),
		durationOf(ps[1]),
		durationOf(ps[2]),
		r.errors.Count(),
	)
}

func durationOf(ns float64) time.Duration {
	return time.Duration(ns).Round(time.Microsecond)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results []benchResult, config *common.ClientConfig) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return errors.Wrap(err, "failed to create CSV file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "Requests", "OpsPerSec", "MeanNs", "P50Ns", "P95Ns", "P99Ns", "Errors", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Serializer", "Transport", "Compression",
		"Threads", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write CSV header")
	}

	// Write test results
	for _, r := range results {
		ps := r.timer.Percentiles(perfPercentiles)
		row := []string{
			r.name,
			strconv.FormatInt(r.timer.Count(), 10),
			fmt.Sprintf("%.0f", r.opsPerSec()),
			fmt.Sprintf("%.0f", r.timer.Mean()),
			fmt.Sprintf("%.0f", ps[0]),
			fmt.Sprintf("%.0f", ps[1]),
			fmt.Sprintf("%.0f", ps[2]),
			strconv.FormatInt(r.errors.Count(), 10),
			strconv.FormatBool(r.skipped),
			strings.Join(config.Transport.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.Transport.RetryCount),
			strconv.Itoa(config.Transport.ConnectionsPerEndpoint),
			viper.GetString("serializer"),
			viper.GetString("transport"),
			config.Transport.Compression,
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write row for test %s", r.name)
		}
	}

	return nil
}
