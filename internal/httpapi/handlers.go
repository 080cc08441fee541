package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/icq-rps-backend/internal/engine"
	"github.com/DoyleJ11/icq-rps-backend/internal/hub"
	"github.com/DoyleJ11/icq-rps-backend/internal/lobby"
	"github.com/DoyleJ11/icq-rps-backend/internal/types"
)

const maxCodeAttempts = 16

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type createRequest struct {
	PlayerID engine.PlayerID `json:"player_id"`
	Rules    *engine.Rules   `json:"rules,omitempty"`
}

type joinRequest struct {
	PlayerID engine.PlayerID `json:"player_id"`
}

// seatResponse answers create and join: the caller learns its player id,
// which it must send with every later action.
type seatResponse struct {
	Code     string            `json:"code"`
	PlayerID engine.PlayerID   `json:"player_id"`
	Version  int               `json:"version"`
	State    engine.PlayerView `json:"state"`
	Events   []engine.Event    `json:"events,omitempty"`
}

// CreateGame reserves a fresh code, starts its lobby and applies CreateGame
// for the caller, who becomes P0.
func CreateGame(h *hub.Hub, rules engine.Rules, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Request rules are decoded over a copy of the server's rules, so a
		// partial object only overrides the fields it names.
		base := rules
		req := createRequest{Rules: &base}
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, decodeError(err))
			return
		}
		if req.PlayerID == "" {
			req.PlayerID = engine.PlayerID(uuid.NewString())
		}
		if req.Rules == nil {
			req.Rules = &rules
		}

		var lb *lobby.Lobby
		for attempt := 0; lb == nil; attempt++ {
			if attempt == maxCodeAttempts {
				writeError(w, http.StatusServiceUnavailable, &types.ErrorBody{Code: "NoCode", Message: "could not allocate a game code"})
				return
			}
			code, err := GenerateCode()
			if err != nil {
				log.Error("generate code", zap.Error(err))
				writeError(w, http.StatusInternalServerError, types.NewErrorBody(err))
				return
			}
			lb, err = h.Create(r.Context(), code)
			if err != nil {
				writeError(w, http.StatusServiceUnavailable, types.NewErrorBody(err))
				return
			}
			if lb == nil {
				log.Debug("collision on code, regenerating", zap.String("code", code))
			}
		}

		res, err := lb.Do(r.Context(), engine.Command{
			Type:   engine.CmdCreateGame,
			Actor:  req.PlayerID,
			GameID: engine.GameID(lb.Code()),
			Rules:  req.Rules,
			From:   engine.NoCell,
			To:     engine.NoCell,
		})
		if err == nil {
			err = res.Err
		}
		if err != nil {
			select {
			case h.Inbox() <- hub.RemoveLobby{Code: lb.Code()}:
			case <-h.Done():
			}
			writeError(w, statusFor(err), types.NewErrorBody(err))
			return
		}

		log.Info("game created", zap.String("code", lb.Code()), zap.String("player", string(req.PlayerID)))
		writeJSON(w, http.StatusCreated, seatResponse{
			Code: lb.Code(), PlayerID: req.PlayerID, Version: res.Version, State: res.View, Events: res.Events,
		})
	}
}

// JoinGame seats the caller as P1.
func JoinGame(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := findLobby(w, r, h)
		if !ok {
			return
		}
		var req joinRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, decodeError(err))
			return
		}
		if req.PlayerID == "" {
			req.PlayerID = engine.PlayerID(uuid.NewString())
		}

		res, err := lb.Do(r.Context(), engine.Command{
			Type:   engine.CmdJoinGame,
			Actor:  req.PlayerID,
			GameID: engine.GameID(lb.Code()),
			From:   engine.NoCell,
			To:     engine.NoCell,
		})
		if err == nil {
			err = res.Err
		}
		if err != nil {
			writeError(w, statusFor(err), types.NewErrorBody(err))
			return
		}

		log.Info("game joined", zap.String("code", lb.Code()), zap.String("player", string(req.PlayerID)))
		writeJSON(w, http.StatusOK, seatResponse{
			Code: lb.Code(), PlayerID: req.PlayerID, Version: res.Version, State: res.View, Events: res.Events,
		})
	}
}

// GetGame returns the game as seen by ?player_id=. Without it, or for an
// outsider, the spectator view is returned.
func GetGame(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := findLobby(w, r, h)
		if !ok {
			return
		}
		v, err := lb.State(r.Context())
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, types.NewErrorBody(err))
			return
		}
		player := engine.PlayerID(r.URL.Query().Get("player_id"))
		view := v.Game.ViewFor(v.Game.SlotOf(player))
		writeJSON(w, http.StatusOK, types.ServerMessage{Type: types.MsgSnapshot, Version: v.Version, State: &view})
	}
}

// PostAction applies a client message on behalf of its player_id.
func PostAction(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := findLobby(w, r, h)
		if !ok {
			return
		}
		var msg types.ClientMessage
		if err := decodeBody(r, &msg); err != nil {
			writeError(w, http.StatusBadRequest, decodeError(err))
			return
		}
		cmd, err := types.ToCommand(msg, msg.PlayerID, engine.GameID(lb.Code()))
		if err != nil {
			writeError(w, statusFor(err), types.NewErrorBody(err))
			return
		}

		res, err := lb.Do(r.Context(), cmd)
		if err == nil {
			err = res.Err
		}
		if err != nil {
			writeError(w, statusFor(err), types.NewErrorBody(err))
			return
		}
		writeJSON(w, http.StatusOK, types.ServerMessage{
			Type: types.MsgResult, Version: res.Version, State: &res.View, Events: res.Events,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func findLobby(w http.ResponseWriter, r *http.Request, h *hub.Hub) (*lobby.Lobby, bool) {
	code := chi.URLParam(r, "code")
	lb, err := h.Get(r.Context(), code)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, types.NewErrorBody(err))
		return nil, false
	}
	if lb == nil {
		writeError(w, http.StatusNotFound, &types.ErrorBody{Code: "NoGame", Message: "game not found"})
		return nil, false
	}
	return lb, true
}

// statusFor maps a rejection to an HTTP status by its kind.
func statusFor(err error) int {
	switch engine.KindOf(err) {
	case engine.KindStructural, engine.KindPlacement, engine.KindMovement:
		return http.StatusBadRequest
	case engine.KindAuthorization:
		return http.StatusForbidden
	case engine.KindPhase:
		return http.StatusConflict
	}
	if errors.Is(err, lobby.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody accepts an empty body as the zero value.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// decodeError keeps the rule code of a value the engine rejected while
// decoding, such as an unknown trap rule.
func decodeError(err error) *types.ErrorBody {
	if engine.CodeOf(err) != "" {
		return types.NewErrorBody(err)
	}
	return &types.ErrorBody{Code: "BadRequest", Message: err.Error()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body *types.ErrorBody) {
	writeJSON(w, status, types.ServerMessage{Type: types.MsgError, Error: body})
}
