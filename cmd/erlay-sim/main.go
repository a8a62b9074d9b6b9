// Command erlay-sim runs the in-process Erlay transaction-propagation
// simulator: it wires a deterministic overlay of public and private peers,
// seeds one synthetic transaction per private peer, and prints the
// grand-total byte count once the traffic counter's deadline fires.
package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/chaintools/erlay-relay-sim/internal/netlog"
	"github.com/chaintools/erlay-relay-sim/internal/simnet"
	"github.com/chaintools/erlay-relay-sim/internal/txpool"
)

var (
	reconciliationFlag = cli.BoolFlag{
		Name:  "reconciliation, r",
		Usage: "enable Erlay low-fanout flood + set reconciliation (default: plain flooding)",
	}
	numPrivateFlag = cli.UintFlag{
		Name:  "numprivate",
		Usage: "number of privately reachable peers",
		Value: 8,
	}
	numPublicFlag = cli.UintFlag{
		Name:  "numpublic",
		Usage: "number of publicly reachable peers",
		Value: 2,
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed, s",
		Usage: "global PRNG seed, XORed into every peer's PeerId-derived seed",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity, v",
		Usage: "log verbosity: 0=crit 1=error 2=warn 3=info 4=debug 5=trace",
		Value: 3,
	}
	txSizeFlag = cli.UintFlag{
		Name:  "txsize",
		Usage: "simulated transaction payload size in bytes",
		Value: txpool.TxSize,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "erlay-sim"
	app.Usage = "simulate Erlay transaction propagation over an in-process peer overlay"
	app.Flags = []cli.Flag{
		reconciliationFlag,
		numPrivateFlag,
		numPublicFlag,
		seedFlag,
		verbosityFlag,
		txSizeFlag,
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	netlog.SetHandler(netlog.LvlFilterHandler(
		netlog.LvlFromInt(ctx.Int(verbosityFlag.Name)),
		netlog.StdoutHandler(),
	))

	params := simnet.Params{
		NumPublic:         int(ctx.Uint(numPublicFlag.Name)),
		NumPrivate:        int(ctx.Uint(numPrivateFlag.Name)),
		UseReconciliation: ctx.Bool(reconciliationFlag.Name),
		TxSize:            int(ctx.Uint(txSizeFlag.Name)),
	}
	if ctx.IsSet(seedFlag.Name) {
		seed := ctx.Uint64(seedFlag.Name)
		params.Seed = &seed
	}

	h, err := simnet.NewHarness(params)
	if err != nil {
		return err
	}

	h.Run()
	defer h.Stop()

	<-h.Done()
	return nil
}
