// Command monitor is a read-only terminal dashboard over a node's gossip
// socket: it polls pull on an interval and renders the known vector and
// the number of known creators. No teacher or pack file exercises rivo/tview directly (the
// teacher's go.mod points at a sibling diamondburned fork instead, see
// DESIGN.md), so this follows tview's own canonical
// Application/Table/SetRoot usage rather than a specific example file.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gdamore/tcell"
	"github.com/rivo/tview"
	"github.com/urfave/cli"

	hashgraph "github.com/champii/hashgraph"
	"github.com/champii/hashgraph/common"
)

const pollInterval = 2 * time.Second

func main() {
	app := cli.NewApp()
	app.Name = "hashgraph-monitor"
	app.Usage = "read-only terminal dashboard for a running node"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "addr, a", Value: "localhost:6000", Usage: "Node gossip address `HOST:PORT`."},
	}

	app.Action = func(c *cli.Context) error {
		return runMonitor(c.String("addr"))
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMonitor(addr string) error {
	application := tview.NewApplication()

	table := tview.NewTable().SetBorders(false)
	table.SetCell(0, 0, tview.NewTableCell("creator").SetTextColor(tcell.ColorYellow))
	table.SetCell(0, 1, tview.NewTableCell("last seq").SetTextColor(tcell.ColorYellow))

	status := tview.NewTextView().SetDynamicColors(true)
	status.SetBorder(true).SetTitle(fmt.Sprintf(" hashgraph monitor: %s ", addr))

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(status, 3, 0, false).
		AddItem(table, 0, 1, false)

	stop := make(chan struct{})

	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()

		for {
			refresh(addr, table, status, application)

			select {
			case <-ticker.C:
			case <-stop:
				return
			}
		}
	}()

	application.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape || event.Rune() == 'q' {
			close(stop)
			application.Stop()

			return nil
		}

		return event
	})

	return application.SetRoot(layout, true).Run()
}

func refresh(addr string, table *tview.Table, status *tview.TextView, application *tview.Application) {
	known, err := fetchKnown(addr)

	application.QueueUpdateDraw(func() {
		if err != nil {
			status.SetText(fmt.Sprintf("[red]unreachable: %v[-]", err))

			return
		}

		status.SetText(fmt.Sprintf("[green]connected[-] — %d known creators, polled every %s", len(known), pollInterval))

		row := 1
		for creator, last := range known {
			table.SetCell(row, 0, tview.NewTableCell(strconv.FormatUint(uint64(creator), 16)))
			table.SetCell(row, 1, tview.NewTableCell(strconv.FormatUint(last, 10)))
			row++
		}
	})
}

func fetchKnown(addr string) (map[common.PeerID]uint64, error) {
	conn, err := hashgraph.Dial(addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	req := hashgraph.PullRequest{Known: map[common.PeerID]uint64{}}

	if err := hashgraph.SendMessage(conn, hashgraph.MsgPull, hashgraph.EncodePullRequest(req)); err != nil {
		return nil, err
	}

	msgType, payload, err := hashgraph.ReceiveMessage(conn)
	if err != nil {
		return nil, err
	}

	if msgType != hashgraph.MsgPullReply {
		return nil, fmt.Errorf("hashgraph-monitor: unexpected reply type %d", msgType)
	}

	diff, err := hashgraph.DecodeEventsDiff(payload)
	if err != nil {
		return nil, err
	}

	return diff.Known, nil
}
