// lamport-wallet manages the one-time key store for a Lamport
// smart-contract wallet: creating trackers, stocking keys and printing
// the current rotation commitments.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/eth2030/lamport-wallet/core/types"
	"github.com/eth2030/lamport-wallet/keystore"
	"github.com/eth2030/lamport-wallet/keytracker"
	"github.com/eth2030/lamport-wallet/lamport"
	"github.com/eth2030/lamport-wallet/log"
)

var (
	version = "v0.1.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("lamport-wallet", flag.ContinueOnError)

	datadir := fs.String("datadir", "lamportkeys", "Key store directory")
	address := fs.String("address", "", "Wallet contract address (0x-hex)")
	kind := fs.String("kind", "seeded", "Tracker kind for gen: plain, compressed, seeded")
	count := fs.Int("count", 8, "Number of keys to stock with gen")
	verbose := fs.Bool("v", false, "Debug logging")
	showVersion := fs.Bool("version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if *showVersion {
		fmt.Printf("lamport-wallet %s (commit %s)\n", version, commit)
		return 0
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log.SetDefault(log.New(level))

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: lamport-wallet [flags] gen|status|pkh")
		return 2
	}
	if *address == "" {
		fmt.Fprintln(os.Stderr, "Error: -address is required")
		return 2
	}
	addr := types.HexToAddress(*address)

	ks, err := keystore.Open(keystore.Config{Dir: *datadir})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer ks.Close()

	switch cmd := fs.Arg(0); cmd {
	case "gen":
		return genCommand(ks, addr, keytracker.Kind(*kind), *count)
	case "status":
		return statusCommand(ks, addr)
	case "pkh":
		return pkhCommand(ks, addr)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", cmd)
		return 2
	}
}

// genCommand creates a tracker of the chosen kind, stocks it with keys
// and persists the record.
func genCommand(ks *keystore.Keystore, addr types.Address, kind keytracker.Kind, count int) int {
	if ks.HasTracker(addr) {
		fmt.Fprintf(os.Stderr, "Error: a tracker already exists for %s\n", addr.Hex())
		return 1
	}

	var (
		tracker keytracker.Tracker
		err     error
	)
	switch kind {
	case keytracker.KindPlain:
		tracker = keytracker.NewPlainTracker()
	case keytracker.KindCompressed:
		tracker = keytracker.NewCompressedTracker()
	case keytracker.KindSeeded:
		tracker, err = keytracker.NewSeededTracker()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown tracker kind %q\n", kind)
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if _, err := tracker.More(count); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := ks.SaveTracker(addr, tracker); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Info("tracker created", "address", addr.Hex(), "kind", kind, "keys", count)
	return 0
}

// statusCommand prints the tracker kind and remaining key count.
func statusCommand(ks *keystore.Keystore, addr types.Address) int {
	tracker, err := ks.LoadTracker(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("address:   %s\n", addr.Hex())
	fmt.Printf("kind:      %s\n", tracker.Kind())
	fmt.Printf("keys left: %d\n", tracker.Count())
	return 0
}

// pkhCommand prints the current and next rotation commitments. The
// peek pulls keys out of the in-memory tracker but the record is not
// written back: no secret was revealed, so the same keys must be
// reissued on the next load.
func pkhCommand(ks *keystore.Keystore, addr types.Address) int {
	tracker, err := ks.LoadTracker(addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	seq := keytracker.NewSequentialTracker(tracker)
	current, err := seq.CurrentKeyPair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	nextPKH, err := seq.NextPKH()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("current pkh: %s\n", lamport.PublicKeyHash(current.Pub).Hex())
	fmt.Printf("next pkh:    %s\n", nextPKH.Hex())
	return 0
}
