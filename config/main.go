package config

const VolumeName = "memtree"

const InodeCacheSize = 4096

const BenchWorkers = 8
const BenchOperations = 100000
const BenchDepth = 4

const ChartHistory = 128
