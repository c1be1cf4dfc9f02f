package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/flashfive/game"
	"github.com/wfunc/flashfive/logger"
	"github.com/wfunc/flashfive/models"
	"github.com/wfunc/flashfive/network"
)

const help = `commands:
  demo          start the demo round
  start         start a real game
  pick <n>      toggle choice n (1-10)
  submit        submit five picks
  next          continue after results
  restart       back to the welcome screen
  quit`

// view keeps the last choices so picks can be typed by number.
type view struct {
	mutex   sync.Mutex
	choices []string
}

func (v *view) choice(n int) (string, bool) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if n < 1 || n > len(v.choices) {
		return "", false
	}
	return v.choices[n-1], true
}

func (v *view) render(packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypePhase:
		var snap game.Snapshot
		if json.Unmarshal(packet.Data, &snap) != nil {
			return
		}
		v.mutex.Lock()
		v.choices = snap.Choices
		v.mutex.Unlock()
		fmt.Printf("\n== %s == round %d  score %d  lives %d\n", snap.Phase, snap.Round, snap.Score, snap.Lives)
		if snap.Description != "" && snap.Phase == game.PhaseMemorization {
			fmt.Printf("Memorize: %s\n", snap.Description)
		}
		for i, c := range snap.Choices {
			fmt.Printf("  %2d. %s\n", i+1, c)
		}
	case network.MsgTypeImage:
		var msg network.ImageMessage
		if json.Unmarshal(packet.Data, &msg) == nil && !msg.Fallback {
			fmt.Printf("Image: %s\n", msg.Source)
		}
	case network.MsgTypeTick:
		var msg network.TickMessage
		if json.Unmarshal(packet.Data, &msg) == nil {
			fmt.Printf("  %d...\n", msg.Remaining)
		}
	case network.MsgTypeSelection:
		var msg network.SelectionMessage
		if json.Unmarshal(packet.Data, &msg) == nil {
			fmt.Printf("Selected (%d/%d): %s\n", len(msg.Selected), game.MaxSelections, strings.Join(msg.Selected, ", "))
		}
	case network.MsgTypeSelectionLimit:
		fmt.Printf("You can only select %d objects.\n", game.MaxSelections)
	case network.MsgTypeResults:
		var res models.RoundResult
		if json.Unmarshal(packet.Data, &res) != nil {
			return
		}
		fmt.Printf("\n%s  %d/5 correct, +%d points\n", res.Title, len(res.Correct), res.RoundScore)
		fmt.Printf("  correct:   %s\n  incorrect: %s\n  missed:    %s\n",
			strings.Join(res.Correct, ", "), strings.Join(res.Incorrect, ", "), strings.Join(res.Missed, ", "))
	case network.MsgTypeGameOver:
		var sum models.GameOverSummary
		if json.Unmarshal(packet.Data, &sum) == nil {
			fmt.Printf("\nGAME OVER  score %d, rounds %d, accuracy %d%%\n", sum.FinalScore, sum.RoundsCompleted, sum.AccuracyPercent)
		}
	case network.MsgTypeError:
		var msg network.ErrorMessage
		if json.Unmarshal(packet.Data, &msg) == nil {
			fmt.Printf("! %s\n", msg.Message)
		}
	case network.MsgTypeCatalogUpdated:
		fmt.Println("(catalog updated by admin)")
	}
}

func main() {
	addr := flag.String("addr", "localhost:8080", "game server address")
	flag.Parse()

	logger.Init()
	defer logger.Sync()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Log.Fatalf("Dial failed: %v", err)
	}
	conn := network.NewWSConnection(c)
	defer conn.Close()

	v := &view{}
	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			packet, err := conn.ReadPacket()
			if err != nil {
				logger.Log.Infof("Read error: %v", err)
				return
			}
			v.render(packet)
		}
	}()

	// Heartbeat
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				conn.Send(network.MsgTypeHeartbeat, nil)
			}
		}
	}()

	send := func(action game.Action) {
		data, _ := json.Marshal(action)
		if err := conn.Send(network.MsgTypeAction, data); err != nil {
			logger.Log.Errorf("Write error: %v", err)
		}
	}

	fmt.Println(help)
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			logger.Log.Info("Interrupt received, closing connection.")
			if err := conn.SendClose(); err != nil {
				logger.Log.Infof("Write close error: %v", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}
			switch fields[0] {
			case "demo":
				send(game.Action{Type: game.ActionStartDemo})
			case "start":
				send(game.Action{Type: game.ActionStartGame})
			case "pick":
				n := 0
				if len(fields) > 1 {
					n, _ = strconv.Atoi(fields[1])
				}
				label, ok := v.choice(n)
				if !ok {
					fmt.Println("pick a number from the list")
					continue
				}
				send(game.Action{Type: game.ActionToggleSelect, Label: label})
			case "submit":
				send(game.Action{Type: game.ActionSubmit})
			case "next":
				send(game.Action{Type: game.ActionNextRound})
			case "restart":
				send(game.Action{Type: game.ActionRestart})
			case "quit":
				return
			default:
				fmt.Println(help)
			}
		}
	}
}
