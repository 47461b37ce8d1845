// Command malloc-harness drives the allocator engine against a real
// Linux break, under a caller-supplied RLIMIT_DATA ceiling, and runs the
// scripted allocation/free scenarios used to validate the engine by hand.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/adel-qod/malloc/internal/allocator"
	"github.com/adel-qod/malloc/internal/brk"
	"github.com/adel-qod/malloc/internal/cli"
	"github.com/adel-qod/malloc/internal/engineconfig"
)

func main() {
	var (
		dataLimit  uint64
		configFile string
		jsonOutput bool
		showVer    bool
	)

	flag.Uint64Var(&dataLimit, "rlimit-data", 0, "RLIMIT_DATA ceiling in bytes (0 leaves the limit untouched)")
	flag.StringVar(&configFile, "config", "", "path to an engine growth-policy JSON file")
	flag.BoolVar(&jsonOutput, "json", false, "print the final engine snapshot as JSON")
	flag.BoolVar(&showVer, "version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs the allocator engine's scripted scenarios against a real process break.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVer {
		cli.PrintVersion("malloc-harness", jsonOutput)
		return
	}

	if dataLimit > 0 {
		lim := unix.Rlimit{Cur: dataLimit, Max: dataLimit}
		if err := unix.Setrlimit(unix.RLIMIT_DATA, &lim); err != nil {
			cli.ExitWithError("setrlimit(RLIMIT_DATA, %d): %v", dataLimit, err)
		}
	}

	cfg, err := engineconfig.Load(configFile)
	if err != nil {
		cli.ExitWithError("loading engine config: %v", err)
	}

	engine := allocator.NewEngineWithConfig(brk.NewDefault(), cfg)

	if err := runScenarios(engine); err != nil {
		cli.ExitWithError("%v", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(engine.Stats(), "", "  ")
		if err != nil {
			cli.ExitWithError("marshaling final snapshot: %v", err)
		}

		fmt.Println(string(data))
	} else {
		fmt.Println("all scenarios passed")
	}
}
