package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/rocketscienceinc/goban-server/internal/service"
	"github.com/rocketscienceinc/goban-server/pkg/handlers"
)

type archiveService interface {
	CreateGame(ctx context.Context, black, white string) (*entity.ArchivedGame, error)
	GetGame(ctx context.Context, id int64) (*entity.ArchivedGame, error)
	RecordMove(ctx context.Context, move *entity.ArchivedMove) (*entity.ArchivedMove, error)
	Moves(ctx context.Context, gameID int64) ([]*entity.ArchivedMove, error)
	FinishGame(ctx context.Context, id int64, result string) (*entity.ArchivedGame, error)
	RawMoves(ctx context.Context, gameID int64) ([]string, error)
}

type createGameRequest struct {
	Black string `json:"black"`
	White string `json:"white"`
}

type recordMoveRequest struct {
	FromRow int    `json:"fromRow"`
	FromCol int    `json:"fromCol"`
	ToRow   int    `json:"toRow"`
	ToCol   int    `json:"toCol"`
	Capture bool   `json:"capture"`
	Extra   string `json:"extra"`
}

type finishGameRequest struct {
	Result string `json:"result"`
}

type archiveHandler struct {
	logger  *slog.Logger
	archive archiveService
}

func newArchiveHandler(logger *slog.Logger, archive archiveService) *archiveHandler {
	return &archiveHandler{
		logger:  logger,
		archive: archive,
	}
}

func (that *archiveHandler) routes(r chi.Router) {
	r.Post("/", that.createGame)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", that.getGame)
		r.Post("/moves", that.recordMove)
		r.Get("/moves", that.listMoves)
		r.Get("/moves/raw", that.rawMoves)
		r.Post("/finish", that.finishGame)
	})
}

func (that *archiveHandler) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	game, err := that.archive.CreateGame(r.Context(), req.Black, req.White)
	if err != nil {
		that.writeServiceError(w, "createGame", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/games/%d", game.ID))
	handlers.WriteJSON(w, http.StatusCreated, game)
}

func (that *archiveHandler) getGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	game, err := that.archive.GetGame(r.Context(), id)
	if err != nil {
		that.writeServiceError(w, "getGame", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, game)
}

func (that *archiveHandler) recordMove(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	var req recordMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	move, err := that.archive.RecordMove(r.Context(), &entity.ArchivedMove{
		GameID:  id,
		FromRow: req.FromRow,
		FromCol: req.FromCol,
		ToRow:   req.ToRow,
		ToCol:   req.ToCol,
		Capture: req.Capture,
		Extra:   req.Extra,
	})
	if err != nil {
		that.writeServiceError(w, "recordMove", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, move)
}

func (that *archiveHandler) listMoves(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	moves, err := that.archive.Moves(r.Context(), id)
	if err != nil {
		that.writeServiceError(w, "listMoves", err)
		return
	}

	if moves == nil {
		moves = []*entity.ArchivedMove{}
	}

	handlers.WriteJSON(w, http.StatusOK, moves)
}

// rawMoves answers 204 for a game without moves.
func (that *archiveHandler) rawMoves(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	lines, err := that.archive.RawMoves(r.Context(), id)
	if err != nil {
		that.writeServiceError(w, "rawMoves", err)
		return
	}

	if len(lines) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	handlers.WriteLines(w, http.StatusOK, lines)
}

func (that *archiveHandler) finishGame(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(w, r)
	if !ok {
		return
	}

	var req finishGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	game, err := that.archive.FinishGame(r.Context(), id, req.Result)
	if err != nil {
		that.writeServiceError(w, "finishGame", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, game)
}

func (that *archiveHandler) writeServiceError(w http.ResponseWriter, method string, err error) {
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		handlers.WriteError(w, http.StatusNotFound, apperror.Message(err))
	case errors.Is(err, service.ErrPlayersRequired), errors.Is(err, service.ErrUnknownResult):
		handlers.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		that.logger.Error("archive request failed", "method", method, "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

func gameID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		handlers.WriteError(w, http.StatusBadRequest, "invalid game id")
		return 0, false
	}

	return id, true
}
