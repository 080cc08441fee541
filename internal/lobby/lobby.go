// Package lobby runs one game as an actor. All commands for a game pass
// through its inbox, so the engine state has a single writer.
package lobby

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
	"github.com/DoyleJ11/icq-rps-backend/internal/store"
)

// ErrClosed is returned by helpers once the lobby has stopped.
var ErrClosed = errors.New("lobby closed")

type Msg interface{ isLobbyMsg() }

// FromClient submits a command. Reply, when set, must have room for one
// Result.
type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isLobbyMsg() {}

// Join subscribes an outbox. Player decides which seat's view the client
// receives; an unknown player gets the spectator view.
type Join struct {
	ClientID string
	Player   engine.PlayerID
	Outbox   chan Snapshot
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Result answers a FromClient. View is redacted for the command's actor.
type Result struct {
	Version int
	Events  []engine.Event
	View    engine.PlayerView
	Err     error
}

// Snapshot is pushed to every subscriber after a commit, redacted for
// that subscriber.
type Snapshot struct {
	Version int
	View    engine.PlayerView
	Events  []engine.Event
}

// View is the unredacted lobby state. Server-side use only.
type View struct {
	Version    int
	NumClients int
	Game       engine.Game
}

type client struct {
	player engine.PlayerID
	outbox chan Snapshot
}

type Lobby struct {
	code    string
	inbox   chan Msg
	game    engine.Game
	version int
	clients map[string]client
	journal store.Journal
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type Option func(*Lobby)

// WithJournal appends every accepted command to j before it is committed.
func WithJournal(j store.Journal) Option {
	return func(l *Lobby) { l.journal = j }
}

func WithLogger(log *zap.Logger) Option {
	return func(l *Lobby) { l.log = log }
}

// WithVersion starts the version counter at v, for games recovered from a
// journal of v entries.
func WithVersion(v int) Option {
	return func(l *Lobby) { l.version = v }
}

// NewLobby starts the actor for the game identified by code. initial is the
// zero Game for a new lobby; the first command must then be CreateGame.
func NewLobby(parent context.Context, code string, initial engine.Game, opts ...Option) *Lobby {
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		code:    code,
		inbox:   make(chan Msg, 64),
		game:    initial,
		clients: make(map[string]client),
		log:     zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.With(zap.String("code", code))

	go l.loop()
	return l
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.clients[msg.ClientID] = client{player: msg.Player, outbox: msg.Outbox}
				l.send(msg.ClientID, Snapshot{Version: l.version, View: l.viewFor(msg.Player)})
				l.log.Debug("client joined", zap.String("client", msg.ClientID), zap.String("player", string(msg.Player)))

			case Leave:
				delete(l.clients, msg.ClientID)

			case FromClient:
				res := l.apply(msg.Cmd)
				if msg.Reply != nil {
					msg.Reply <- res
				}

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					Game:       l.game,
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

// apply runs cmd through the engine and, on success, journals it, commits the
// new state and broadcasts. A journal failure rejects the command.
func (l *Lobby) apply(cmd engine.Command) Result {
	events, next, err := engine.Apply(l.game, cmd)
	if err != nil {
		l.log.Info("command rejected",
			zap.String("type", string(cmd.Type)),
			zap.String("player", string(cmd.Actor)),
			zap.String("err_code", engine.CodeOf(err)),
		)
		return Result{Version: l.version, View: l.viewFor(cmd.Actor), Err: err}
	}

	if l.journal != nil {
		if err := l.journal.Append(l.ctx, l.code, l.version+1, cmd); err != nil {
			l.log.Error("journal append failed", zap.Error(err), zap.Int("seq", l.version+1))
			return Result{Version: l.version, View: l.viewFor(cmd.Actor), Err: fmt.Errorf("persist command: %w", err)}
		}
	}

	l.game = next
	l.version++
	l.log.Debug("command applied",
		zap.String("type", string(cmd.Type)),
		zap.String("player", string(cmd.Actor)),
		zap.Int("version", l.version),
		zap.Int("events", len(events)),
	)
	if next.Phase == engine.PhaseFinished {
		l.log.Info("game over", zap.Stringer("winner", next.Winner), zap.String("reason", next.Reason))
	}

	for id, c := range l.clients {
		l.send(id, Snapshot{Version: l.version, View: l.viewFor(c.player), Events: events})
	}
	return Result{Version: l.version, Events: events, View: l.viewFor(cmd.Actor)}
}

func (l *Lobby) viewFor(player engine.PlayerID) engine.PlayerView {
	return l.game.ViewFor(l.game.SlotOf(player))
}

// send delivers without blocking. A client whose outbox is full is dropped.
func (l *Lobby) send(id string, snap Snapshot) {
	c, ok := l.clients[id]
	if !ok {
		return
	}
	select {
	case c.outbox <- snap:
	default:
		l.log.Warn("dropping slow client", zap.String("client", id))
		close(c.outbox)
		delete(l.clients, id)
	}
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		close(c.outbox)
		delete(l.clients, id)
	}
	l.cancel()
}

func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) Code() string { return l.code }

// Done is closed once the lobby has stopped.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

// Do submits cmd and waits for its Result.
func (l *Lobby) Do(ctx context.Context, cmd engine.Command) (Result, error) {
	reply := make(chan Result, 1)
	select {
	case l.inbox <- FromClient{Cmd: cmd, Reply: reply}:
	case <-l.ctx.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	select {
	case res := <-reply:
		return res, nil
	case <-l.ctx.Done():
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// State returns the unredacted lobby state.
func (l *Lobby) State(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	select {
	case l.inbox <- GetState{Reply: reply}:
	case <-l.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
	select {
	case v := <-reply:
		return v, nil
	case <-l.ctx.Done():
		return View{}, ErrClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}
