package flags

import (
	"flag"

	"memtree/config"
)

var bench = flag.Bool("bench", false, "Run the random workload benchmark instead of mounting")
var chart = flag.Bool("chart", false, "Show a live chart while the benchmark runs")
var workers = flag.Int("workers", config.BenchWorkers, "Benchmark worker count")
var operations = flag.Int("operations", config.BenchOperations, "Operations per benchmark worker")
var rate = flag.Int("rate", 0, "Benchmark operations per second per worker, 0 for unlimited")

func GetBench() *bool {
	return bench
}

func GetChart() *bool {
	return chart
}

func GetWorkers() *int {
	return workers
}

func GetOperations() *int {
	return operations
}

func GetRate() *int {
	return rate
}
