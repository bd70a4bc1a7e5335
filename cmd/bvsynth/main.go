// Command bvsynth is the BV program-synthesis client: it talks to a
// remote oracle, runs a counter-example-guided search locally, and
// reports solved programs. Dispatch is a small alias map plus a switch
// over os.Args[1], each branch delegating to a cmd/bvsynth/commands func.
package main

import (
	"fmt"
	"log"
	"os"

	"bvsynth/cmd/bvsynth/commands"
)

const version = "1.0.0"

var commandAliases = map[string]string{
	"st": "status",
	"tr": "train",
	"ft": "faketrain",
	"lt": "localtrain",
	"pr": "problems",
	"sp": "showprobs",
	"ev": "eval",
	"w":  "watch",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		fmt.Println("bvsynth " + version)
		return
	}

	var err error
	switch cmd {
	case "status":
		err = commands.StatusCommand(args[1:])
	case "train":
		err = commands.TrainCommand(args[1:])
	case "faketrain":
		err = commands.FakeTrainCommand(args[1:])
	case "localtrain":
		err = commands.LocalTrainCommand(args[1:])
	case "problems":
		err = commands.ProblemsCommand(args[1:])
	case "showprobs":
		err = commands.ShowProbsCommand(args[1:])
	case "eval":
		err = commands.EvalCommand(args[1:])
	case "watch":
		err = commands.WatchCommand(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		showUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func showUsage() {
	fmt.Println(`bvsynth - BV program-synthesis client

Usage:
  bvsynth status
  bvsynth train <size> [fold|tfold]
  bvsynth faketrain <program...>
  bvsynth localtrain <size> [fold|tfold]
  bvsynth problems [<count> [all|fold|tfold|unfold|bonus|nobonus] [<min-size>]]
  bvsynth showprobs
  bvsynth eval <program>
  bvsynth watch [addr]

Aliases: st, tr, ft, lt, pr, sp, ev, w`)
}
