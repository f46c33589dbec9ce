package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vancomm/bingo/internal/bingo"
	"github.com/vancomm/bingo/internal/game"
)

type wsCommand string

const (
	wsNoop      wsCommand = "g"
	wsDraw      wsCommand = "d"
	wsReset     wsCommand = "r"
	wsMaxNumber wsCommand = "n"
	wsCardCount wsCommand = "c"
	wsMark      wsCommand = "m"
	wsExpand    wsCommand = "e"
	wsPosition  wsCommand = "p"
)

// execute runs a single command line, e.g. "m card-0 1 3". Its effects
// reach the client through the event stream.
func (g GameHandler) execute(ctx context.Context, line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil
	}
	cmd, args := wsCommand(tokens[0]), tokens[1:]
	switch cmd {
	case wsNoop:
		return nil
	case wsDraw:
		g.engine.DrawNumber(ctx)
		return nil
	case wsReset:
		g.engine.ResetGame(ctx)
		return nil
	case wsMaxNumber:
		n, err := parseInts(args, 1)
		if err != nil {
			return err
		}
		if err := game.ValidateMaxNumber(n[0]); err != nil {
			return err
		}
		g.engine.SetMaxNumber(n[0])
		return nil
	case wsCardCount:
		n, err := parseInts(args, 1)
		if err != nil {
			return err
		}
		g.engine.SetCardCount(n[0])
		return nil
	case wsMark:
		if len(args) != 3 {
			return fmt.Errorf("invalid args")
		}
		rc, err := parseInts(args[1:], 2)
		if err != nil {
			return err
		}
		if !bingo.InBounds(rc[0], rc[1]) {
			return ErrOutOfGrid
		}
		return g.cardAction(args[0], func(id string) {
			g.engine.ToggleCardMark(id, rc[0], rc[1])
		})
	case wsExpand:
		if len(args) != 1 {
			return fmt.Errorf("invalid args")
		}
		return g.cardAction(args[0], func(id string) {
			g.engine.ToggleCardExpanded(id)
		})
	case wsPosition:
		if len(args) != 3 {
			return fmt.Errorf("invalid args")
		}
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("position must be two numbers")
		}
		return g.cardAction(args[0], func(id string) {
			g.engine.UpdateCardPosition(id, bingo.Position{X: x, Y: y})
		})
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (g GameHandler) cardAction(id string, action func(id string)) error {
	if !g.engine.HasCard(id) {
		return fmt.Errorf("%w: %s", ErrUnknownCard, id)
	}
	action(id)
	return nil
}

func parseInts(args []string, n int) ([]int, error) {
	if len(args) != n {
		return nil, fmt.Errorf("invalid args")
	}
	out := make([]int, n)
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d must be an int", i+1)
		}
		out[i] = v
	}
	return out, nil
}

func (g GameHandler) readCommands(
	ctx context.Context, conn *websocket.Conn, replies chan<- any, done <-chan struct{},
) error {
	for {
		mt, buf, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if mt != websocket.TextMessage {
			continue
		}
		for _, line := range commandLines(string(buf)) {
			err := g.execute(ctx, line)
			if err == nil {
				continue
			}
			select {
			case replies <- wrapError(err):
			case <-done:
				return nil
			}
		}
	}
}

func (g GameHandler) write(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(g.ws.WriteTimeout))
	return conn.WriteJSON(v)
}

// Connect streams engine events to the client and accepts text commands.
func (g GameHandler) Connect(w http.ResponseWriter, r *http.Request) {
	conn, err := g.ws.Upgrader.Upgrade(w, r, nil) // headers sent here
	if err != nil {
		g.logger.WithError(err).Error("unable to upgrade")
		return
	}
	defer conn.Close()

	events, cancel := g.engine.Subscribe()
	defer cancel()

	g.logger.Debug("established WS connection")

	done := make(chan struct{})
	defer close(done)
	replies := make(chan any)
	readErr := make(chan error, 1)
	go func() {
		readErr <- g.readCommands(r.Context(), conn, replies, done)
	}()

	err = g.write(conn, game.Event{Kind: game.EventSnapshot, State: g.engine.State()})
	if err != nil {
		g.logger.WithError(err).Debug("unable to send snapshot")
		return
	}

	ping := time.NewTicker(g.ws.PingInterval)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			err = g.write(conn, ev)
		case reply := <-replies:
			err = g.write(conn, reply)
		case <-ping.C:
			err = conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(g.ws.WriteTimeout),
			)
		case err := <-readErr:
			if err != nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.WithError(err).Warn("error in ws loop")
			}
			return
		}
		if err != nil {
			g.logger.WithError(err).Warn("unable to write to ws")
			return
		}
	}
}
