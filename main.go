package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/rhartert/nogood/parsers"
	"github.com/rhartert/nogood/sat"
)

var flagCPUProfile = flag.Bool(
	"cpuprof",
	false,
	"save pprof CPU profile in cpuprof",
)

var flagMemProfile = flag.Bool(
	"memprof",
	false,
	"save pprof memory profile in memprof",
)

var flagMaxConflict = flag.Int64(
	"max_conflicts",
	-1,
	"maximum number of conflicts allowed to solve the problem (-1 = no maximum)",
)

var flagSeed = flag.Int64(
	"seed",
	0,
	"seed of the decision RNG",
)

var flagActivity = flag.Bool(
	"activity",
	false,
	"use the activity-driven decision order instead of the random one",
)

var flagGzip = flag.Bool(
	"gzip",
	false,
	"read the instance as a gzipped file",
)

func parseConfig() (*config, error) {
	flag.Parse()

	if flag.NArg() == 0 || flag.Arg(0) == "" {
		return nil, fmt.Errorf("missing instance file")
	}
	return &config{
		instanceFile: flag.Arg(0),
		memProfile:   *flagMemProfile,
		cpuProfile:   *flagCPUProfile,
		maxConflicts: *flagMaxConflict,
		seed:         *flagSeed,
		activity:     *flagActivity,
		gzipped:      *flagGzip,
	}, nil
}

type config struct {
	instanceFile string
	memProfile   bool
	cpuProfile   bool
	maxConflicts int64
	seed         int64
	activity     bool
	gzipped      bool
}

func solverOptions(cfg *config) sat.Options {
	options := sat.DefaultOptions
	options.Seed = cfg.seed
	options.ActivityOrder = cfg.activity
	options.Verbose = true
	if cfg.maxConflicts >= 0 {
		options.MaxConflicts = cfg.maxConflicts
	}
	return options
}

func printModel(model []bool) {
	sb := strings.Builder{}
	sb.WriteString("v")
	for x := 1; x < len(model); x++ {
		if model[x] {
			fmt.Fprintf(&sb, " %d", x)
		} else {
			fmt.Fprintf(&sb, " -%d", x)
		}
	}
	sb.WriteString(" 0")
	fmt.Println(sb.String())
}

func run(cfg *config) error {
	s := sat.NewSolver(solverOptions(cfg))
	if err := parsers.LoadDIMACS(cfg.instanceFile, cfg.gzipped, s); err != nil {
		return fmt.Errorf("could not parse instance: %s", err)
	}

	fmt.Printf("c variables:  %d\n", s.NumVariables())
	fmt.Printf("c clauses:    %d\n", s.NumConstraints())

	t := time.Now()
	status := s.Solve()
	elapsed := time.Since(t)

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:  %d (%.2f /sec)\n", s.TotalConflicts, float64(s.TotalConflicts)/elapsed.Seconds())

	switch status {
	case sat.True:
		fmt.Println("s SATISFIABLE")
		printModel(s.Model())
	case sat.False:
		fmt.Println("s UNSATISFIABLE")
	default:
		fmt.Println("s UNKNOWN")
	}

	return nil
}

func main() {
	cfg, err := parseConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.cpuProfile {
		f, err := os.Create("cpuprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}

	if cfg.memProfile {
		f, err := os.Create("memprof")
		if err != nil {
			log.Fatal(err)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
		return
	}
}
