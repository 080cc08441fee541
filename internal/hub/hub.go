// Package hub owns the set of live lobbies, keyed by game code.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
	"github.com/DoyleJ11/icq-rps-backend/internal/lobby"
	"github.com/DoyleJ11/icq-rps-backend/internal/store"
)

type HubMsg interface{ isHubMsg() }

// CreateLobby starts an empty lobby under Code. Reply receives nil when the
// code is already in use, live or journaled.
type CreateLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// GetLobby finds a live lobby, recovering it from the journal if needed.
// Reply receives nil when the code is unknown.
type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby is GetLobby falling back to CreateLobby.
type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	journal store.Journal
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

type Option func(*Hub)

func WithJournal(j store.Journal) Option {
	return func(h *Hub) { h.journal = j }
}

func WithLogger(log *zap.Logger) Option {
	return func(h *Hub) { h.log = log }
}

func NewHub(parent context.Context, opts ...Option) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		log:     zap.NewNop(),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has stopped.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				if h.lookup(msg.Code) != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- h.start(msg.Code, engine.Game{}, 0)

			case GetLobby:
				msg.Reply <- h.lookup(msg.Code) // May be nil

			case EnsureLobby:
				if lb := h.lookup(msg.Code); lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.start(msg.Code, engine.Game{}, 0)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					select {
					case lb.Inbox() <- lobby.Shutdown{}:
					case <-lb.Done():
					}
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("code", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) start(code string, initial engine.Game, version int) *lobby.Lobby {
	opts := []lobby.Option{lobby.WithLogger(h.log), lobby.WithVersion(version)}
	if h.journal != nil {
		opts = append(opts, lobby.WithJournal(h.journal))
	}
	lb := lobby.NewLobby(h.ctx, code, initial, opts...)
	h.lobbies[code] = lb
	h.log.Info("lobby started", zap.String("code", code), zap.Int("version", version))
	return lb
}

// lookup returns the live lobby for code, replaying its journal into a new
// lobby when it is not in memory.
func (h *Hub) lookup(code string) *lobby.Lobby {
	if lb := h.lobbies[code]; lb != nil {
		return lb
	}
	if h.journal == nil {
		return nil
	}
	g, n, err := store.Recover(h.ctx, h.journal, code)
	if err != nil {
		h.log.Error("recover failed", zap.String("code", code), zap.Error(err))
		return nil
	}
	if n == 0 {
		return nil
	}
	return h.start(code, g, n)
}

// shutdown stops every lobby; they all run under h.ctx.
func (h *Hub) shutdown() {
	h.cancel()
	clear(h.lobbies)
}

// Create is a blocking CreateLobby.
func (h *Hub) Create(ctx context.Context, code string) (*lobby.Lobby, error) {
	return h.ask(ctx, func(reply chan *lobby.Lobby) HubMsg { return CreateLobby{Code: code, Reply: reply} })
}

// Get is a blocking GetLobby.
func (h *Hub) Get(ctx context.Context, code string) (*lobby.Lobby, error) {
	return h.ask(ctx, func(reply chan *lobby.Lobby) HubMsg { return GetLobby{Code: code, Reply: reply} })
}

func (h *Hub) ask(ctx context.Context, build func(chan *lobby.Lobby) HubMsg) (*lobby.Lobby, error) {
	reply := make(chan *lobby.Lobby, 1)
	select {
	case h.inbox <- build(reply):
	case <-h.ctx.Done():
		return nil, lobby.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case lb := <-reply:
		return lb, nil
	case <-h.ctx.Done():
		return nil, lobby.ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
