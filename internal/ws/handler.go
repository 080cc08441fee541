// Package ws serves a game over a websocket. Each connection subscribes to
// one lobby and submits commands for one player.
package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
	"github.com/DoyleJ11/icq-rps-backend/internal/hub"
	"github.com/DoyleJ11/icq-rps-backend/internal/lobby"
	"github.com/DoyleJ11/icq-rps-backend/internal/types"
)

const (
	idleTimeout  = 5 * time.Minute
	writeTimeout = 3 * time.Second
)

// Handler upgrades GET /ws?code=...&player_id=... . Snapshots of every
// accepted command are pushed to all subscribers; a rejection goes back to
// the sending connection only.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		player := engine.PlayerID(r.URL.Query().Get("player_id"))

		lb, err := h.Get(r.Context(), code)
		if err != nil {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols: []string{types.ProtocolMsgpack, types.ProtocolJSON},
		})
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		codec := types.CodecFor(conn.Subprotocol())
		clientID := uuid.NewString()
		log := log.With(zap.String("code", code), zap.String("client", clientID), zap.String("player", string(player)))

		out := make(chan lobby.Snapshot, 8)
		direct := make(chan types.ServerMessage, 8)
		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Player: player, Outbox: out}:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "lobby closed")
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
		}()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writeLoop(ctx, cancel, conn, codec, out, direct, log)

		for {
			readCtx, readCancel := context.WithTimeout(ctx, idleTimeout)
			_, data, err := conn.Read(readCtx)
			readCancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := codec.Unmarshal(data, &cm); err != nil {
				reply(ctx, direct, types.ServerMessage{
					Type:  types.MsgError,
					Error: &types.ErrorBody{Code: "BadMessage", Message: "malformed message"},
				})
				continue
			}

			actor := player
			if actor == "" {
				actor = cm.PlayerID
			}
			cmd, err := types.ToCommand(cm, actor, engine.GameID(code))
			if err != nil {
				reply(ctx, direct, types.ServerMessage{Type: types.MsgError, Error: types.NewErrorBody(err)})
				continue
			}

			res, err := lb.Do(ctx, cmd)
			if err != nil {
				return
			}
			if res.Err != nil {
				reply(ctx, direct, types.ServerMessage{Type: types.MsgError, Version: res.Version, Error: types.NewErrorBody(res.Err)})
			}
		}
	}
}

func reply(ctx context.Context, direct chan<- types.ServerMessage, msg types.ServerMessage) {
	select {
	case direct <- msg:
	case <-ctx.Done():
	}
}

// writeLoop is the only writer on conn. It ends when the lobby closes the
// outbox or the connection context is done.
func writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, codec types.Codec,
	out <-chan lobby.Snapshot, direct <-chan types.ServerMessage, log *zap.Logger) {
	defer cancel()

	typ := websocket.MessageText
	if codec.Binary() {
		typ = websocket.MessageBinary
	}
	write := func(msg types.ServerMessage) bool {
		payload, err := codec.Marshal(msg)
		if err != nil {
			log.Error("encode message", zap.Error(err))
			return true
		}
		wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
		defer wcancel()
		if err := conn.Write(wctx, typ, payload); err != nil {
			log.Debug("write failed", zap.Error(err))
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-out:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "lobby closed")
				return
			}
			view := snap.View
			if !write(types.ServerMessage{Type: types.MsgSnapshot, Version: snap.Version, State: &view, Events: snap.Events}) {
				return
			}
		case msg := <-direct:
			if !write(msg) {
				return
			}
		}
	}
}
