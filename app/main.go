package app

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"memtree/bench"
	"memtree/flags"
	"memtree/fuse"
	"memtree/logger"
	"memtree/tree"
)

func usage() {
	log.Printf("Usage of %s:\n", os.Args[0])
	log.Printf("  %s [options] MOUNTPOINT\n", os.Args[0])
	flag.PrintDefaults()
}

func Start() {
	flag.Usage = usage
	flag.Parse()

	appLogger, err := logger.NewLogger("App")
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}

	if *flags.GetBench() {
		benchConfig := bench.Config{
			Workers:    *flags.GetWorkers(),
			Operations: *flags.GetOperations(),
			Rate:       *flags.GetRate(),
			Chart:      *flags.GetChart(),
		}

		if err := bench.Run(benchConfig); err != nil {
			appLogger.Fatal("benchmark failed", err)
		}

		return
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	mountpoint := flag.Arg(0)

	memtree := tree.New()

	server, err := fuse.New(mountpoint, memtree)
	if err != nil {
		appLogger.Fatal("failed to mount filesystem", err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-signals
		appLogger.Info("Shutting down")
		server.Close()
	}()

	if err := server.Serve(); err != nil {
		appLogger.Fatal("failed to serve filesystem", err)
	}
}
