// rigtool inspects rigs and animation clips and reports terrain LOD
// selections without opening a window.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/midgard-engine/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	level := os.Getenv("RIGTOOL_LOG")
	if level == "" {
		level = "warn"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "info":
		return cmdInfo(args, out)
	case "sample":
		return cmdSample(args, out)
	case "palette":
		return cmdPalette(args, out)
	case "dump":
		return cmdDump(args, out)
	case "convert":
		return cmdConvert(args, out)
	case "terrain":
		return cmdTerrain(args, out)
	case "pack":
		return cmdPack(args, out)
	case "list", "ls":
		return cmdList(args, out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `rigtool - skeleton, clip and terrain LOD utility

Usage:
  rigtool <command> [options]

Commands:
  info <rig>                         Show joints and clips
  sample <rig> <clip> <time>         Print joint world positions at time
  palette <rig> <clip> <time>        Print bone palette matrices at time
  dump <rig>                         Dump the decoded rig structure
  convert <model.rsm> <out.rig.yaml> Convert an RSM node hierarchy to a rig
  terrain [options]                  Build the LOD quadtree for a viewer
  pack <out.grf> <file>...           Pack files into a GRF archive
  list <file.grf>                    List archive contents

Rigs are .rig.yaml documents or .rsm models. Set RIGTOOL_LOG=debug for logs.

Examples:
  rigtool info rigs/arm.rig.yaml
  rigtool sample rigs/arm.rig.yaml wave 0.5
  rigtool terrain -x 10 -z 10 -size 1024 -depth 6
  rigtool terrain -gat data/prontera.gat -x 500 -z 500`)
}
