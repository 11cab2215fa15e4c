// Package main provides the entry point for rv32pipe, a cycle-accurate
// simulator for a 5-stage in-order RV32IMF pipeline.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cycleacc/rv32pipe/emu"
	"github.com/cycleacc/rv32pipe/loader"
	"github.com/cycleacc/rv32pipe/timing/cache"
	"github.com/cycleacc/rv32pipe/timing/core"
	"github.com/cycleacc/rv32pipe/timing/pipeline"
	"github.com/cycleacc/rv32pipe/timing/predictor"
)

const (
	defaultDataMemSize = 64 * 1024
	defaultCycleCap    = 10000
)

var (
	debug        = flag.Bool("debug", false, "print per-cycle pipeline diagnostics")
	logPath      = flag.String("log", "", "write the per-cycle trace to this file")
	predictorArg = flag.String("predictor", "bimodal", "branch predictor: static-nt, static-t, bimodal, gshare, tournament")
	cacheArg     = flag.String("cache", "none", "data cache: none, direct, assoc, setN (e.g. set4)")
	cycleCap     = flag.Uint64("cycles", defaultCycleCap, "cycle cap for the run")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rv32pipe <instruction_file> [--debug] [--log <path>]\n")
		flag.PrintDefaults()
		os.Exit(-1)
	}

	program, err := loader.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32pipe: %v\n", err)
		os.Exit(-1)
	}

	regFile := &emu.RegFile{}
	ram := emu.NewRAM(defaultDataMemSize)

	var dataMem emu.MemoryDevice = ram
	if c := buildCache(*cacheArg, ram); c != nil {
		dataMem = c
	}

	pred := buildPredictor(*predictorArg)

	opts := []pipeline.PipelineOption{pipeline.WithCycleCap(*cycleCap)}
	if *debug || *logPath != "" {
		opts = append(opts, pipeline.WithTrace())
	}

	cpu := core.NewCore(regFile, program, dataMem, pred, opts...)

	halted := cpu.Run()
	if !halted {
		fmt.Fprintf(os.Stderr, "rv32pipe: cycle cap (%d) exceeded; state retained for inspection\n", *cycleCap)
	}

	if *logPath != "" {
		if err := writeLog(*logPath, cpu); err != nil {
			fmt.Fprintf(os.Stderr, "rv32pipe: failed to write log: %v\n", err)
		}
	}

	if *debug {
		for _, snap := range cpu.Pipeline.Trace() {
			fmt.Println(snap.String())
		}
	}

	stats := cpu.Stats()
	fmt.Printf("cycles=%d retired=%d stalls=%d flushes=%d cpi=%.3f\n",
		stats.Cycles, stats.Retired, stats.Stalls, stats.Flushes, stats.CPI)
	if rate := cpu.Pipeline.CacheHitRate(); rate > 0 {
		fmt.Printf("cache hit rate=%.3f\n", rate)
	}

	os.Exit(0)
}

func buildPredictor(name string) predictor.Predictor {
	switch name {
	case "static-nt":
		return predictor.NewStaticNotTaken()
	case "static-t":
		return predictor.NewStaticTaken()
	case "gshare":
		return predictor.NewGShare(256, 8)
	case "tournament":
		return predictor.NewTournament(256, 8)
	default:
		return predictor.NewBimodal(256)
	}
}

func buildCache(name string, backing *emu.RAM) *cache.Cache {
	memBacking := cache.NewMemoryBacking(backing)
	switch {
	case name == "none":
		return nil
	case name == "direct":
		return cache.New(cache.Config{Kind: cache.DirectMapped, TotalBytes: 4096, LineBytes: 32}, memBacking)
	case name == "assoc":
		return cache.New(cache.Config{Kind: cache.FullyAssociative, TotalBytes: 4096, LineBytes: 32}, memBacking)
	case len(name) > 3 && name[:3] == "set":
		ways := parseWays(name[3:])
		return cache.New(cache.Config{Kind: cache.SetAssociative, TotalBytes: 4096, LineBytes: 32, Ways: ways}, memBacking)
	default:
		return nil
	}
}

func parseWays(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 4
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return 4
	}
	return n
}

func writeLog(path string, cpu *core.Core) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	for _, snap := range cpu.Pipeline.Trace() {
		if _, err := fmt.Fprintln(f, snap.String()); err != nil {
			return err
		}
	}
	return nil
}
