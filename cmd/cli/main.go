// Command cli is an interactive REPL fronting a thin gossip peer: it
// joins the network like any other node (asking to join once, at
// startup) and lets an operator submit payload transactions, inspect
// the known vector and copy text to the clipboard from a shell, grounded on the teacher's cmd/cli/server/actions.go
// command surface (status, submit a transaction) and on
// chzyer/readline's/fatih/color's standard interactive-shell idiom for
// everything actions.go's pruned tui/logger dependency would otherwise
// have supplied (see DESIGN.md).
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/urfave/cli"

	hashgraph "github.com/champii/hashgraph"
	"github.com/champii/hashgraph/keys"
)

func main() {
	app := cli.NewApp()
	app.Name = "hashgraph-cli"
	app.Usage = "interactive shell for a thin gossip peer"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "host", Value: "localhost", Usage: "Listen for peers on host `HOST`."},
		cli.UintFlag{Name: "port, p", Value: 6100, Usage: "Listen for peers on port `PORT`."},
		cli.StringFlag{Name: "join, n", Usage: "Bootstrap peer address `HOST:PORT` to ask_join against."},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	listenAddr := fmt.Sprintf("%s:%d", c.String("host"), c.Uint("port"))

	kp := keys.Generate()
	selfID := keys.DerivePeerID(kp.PublicKey())
	selfPeer := hashgraph.Peer{ID: selfID, Address: listenAddr, PublicKey: kp.PublicKey()}

	bootstrapAddr := c.String("join")
	if bootstrapAddr == "" {
		return fmt.Errorf("hashgraph-cli: --join is required; the shell always joins an existing network")
	}

	selfGenesis := hashgraph.NewPeerSet(selfID)
	selfGenesis.Add(selfPeer)

	ledger := hashgraph.NewLedger(selfID, selfGenesis)
	ledger.SetKeypair(kp)

	admitted, err := hashgraph.AskJoin(bootstrapAddr, selfPeer)
	if err != nil {
		return err
	}

	if !admitted {
		return fmt.Errorf("hashgraph-cli: ask_join refused by %s", bootstrapAddr)
	}

	frame, err := hashgraph.FastSyncFrom(bootstrapAddr, selfID, nil)
	if err != nil {
		return err
	}

	ledger.IngestFrame(frame)

	if _, err := ledger.JoinSelfEvent(); err != nil {
		return fmt.Errorf("hashgraph-cli: failed to author root event after join: %w", err)
	}

	node := hashgraph.NewNode(ledger, listenAddr, nil, nil)
	if err := node.Run(); err != nil {
		return err
	}
	defer node.Stop()

	return runShell(node, ledger)
}

func runShell(node *hashgraph.Node, ledger *hashgraph.Ledger) error {
	rl, err := readline.New(color.CyanString("hashgraph> "))
	if err != nil {
		return err
	}
	defer rl.Close()

	success := color.New(color.FgGreen)
	fail := color.New(color.FgRed)

	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			printHelp()
		case "submit":
			if len(fields) < 2 {
				fail.Println("usage: submit <payload>")
				continue
			}

			node.SubmitPayload([]byte(strings.Join(fields[1:], " ")))
			success.Println("queued")
		case "known":
			for creator, last := range ledger.Known() {
				success.Printf("%s: %d\n", strconv.FormatUint(uint64(creator), 16), last)
			}
		case "copy":
			if len(fields) < 2 {
				fail.Println("usage: copy <text>")
				continue
			}

			if err := clipboard.WriteAll(fields[1]); err != nil {
				fail.Printf("failed to copy to clipboard: %v\n", err)
			} else {
				success.Println("copied")
			}
		case "exit", "quit":
			return nil
		default:
			fail.Printf("unknown command %q, try 'help'\n", fields[0])
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  submit <text>   author a payload transaction on this peer
  known           print this peer's known-events vector
  copy <text>     copy text to the clipboard
  exit            quit`)
}
