package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/rocketscienceinc/goban-server/internal/entity"
	"github.com/rocketscienceinc/goban-server/internal/persistence"
	"github.com/rocketscienceinc/goban-server/internal/session"
)

type archiveClient interface {
	CreateGame(ctx context.Context, black, white string) (int64, error)
	RecordMove(ctx context.Context, gameID int64, move persistence.Move) error
	FinishGame(ctx context.Context, gameID int64, result string) error
}

type snapshotWriter interface {
	CreateOrUpdate(ctx context.Context, snapshot *entity.Snapshot) error
}

// ArchiveRecorder mirrors session events into the archive. Failures are logged
// and never reach the session.
type ArchiveRecorder struct {
	logger  *slog.Logger
	client  archiveClient
	gameIDs map[string]int64
}

func NewArchiveRecorder(logger *slog.Logger, client archiveClient) *ArchiveRecorder {
	return &ArchiveRecorder{
		logger:  logger.With("component", "archive-recorder"),
		client:  client,
		gameIDs: make(map[string]int64),
	}
}

// Run records updates until the channel is closed or ctx is done.
func (that *ArchiveRecorder) Run(ctx context.Context, updates <-chan session.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			that.Record(ctx, update)
		}
	}
}

func (that *ArchiveRecorder) Record(ctx context.Context, update session.Update) {
	log := that.logger.With("method", "Record", "session", update.SessionID)

	for _, event := range update.Events {
		if event.Kind == session.EventGameStarted {
			that.createGame(ctx, log, update)
			continue
		}

		gameID, ok := that.gameIDs[update.SessionID]
		if !ok {
			continue
		}

		switch event.Kind {
		case session.EventMoveApplied:
			that.recordMove(ctx, log, gameID, event)
		case session.EventPassed:
			that.recordPass(ctx, log, gameID, event)
		case session.EventGameFinished:
			result := entity.ResultFor(event.Winner, event.Resigned)
			if err := that.client.FinishGame(ctx, gameID, result); err != nil {
				log.Error("failed to finish game", "gameID", gameID, "error", err)
			}
			delete(that.gameIDs, update.SessionID)
		}
	}
}

func (that *ArchiveRecorder) createGame(ctx context.Context, log *slog.Logger, update session.Update) {
	var black, white string
	for _, player := range update.Snapshot.Players {
		switch player.Color {
		case entity.Black:
			black = player.Name
		case entity.White:
			white = player.Name
		}
	}

	gameID, err := that.client.CreateGame(ctx, black, white)
	if err != nil {
		log.Error("failed to create archived game", "error", err)
		return
	}

	that.gameIDs[update.SessionID] = gameID
	log.Info("archived game created", "gameID", gameID)
}

func (that *ArchiveRecorder) recordMove(ctx context.Context, log *slog.Logger, gameID int64, event session.Event) {
	extra, err := json.Marshal(entity.MoveExtra{
		Player:   event.Player.ID,
		Color:    event.Player.Color,
		Captures: len(event.Captures),
	})
	if err != nil {
		log.Error("failed to marshal move extra", "error", err)
		return
	}

	err = that.client.RecordMove(ctx, gameID, persistence.Move{
		FromRow: event.Y,
		FromCol: event.X,
		ToRow:   event.Y,
		ToCol:   event.X,
		Capture: len(event.Captures) > 0,
		Extra:   string(extra),
	})
	if err != nil {
		log.Error("failed to record move", "gameID", gameID, "error", err)
	}
}

func (that *ArchiveRecorder) recordPass(ctx context.Context, log *slog.Logger, gameID int64, event session.Event) {
	extra, err := json.Marshal(entity.MoveExtra{
		Player: event.Player.ID,
		Color:  event.Player.Color,
		Pass:   true,
	})
	if err != nil {
		log.Error("failed to marshal pass extra", "error", err)
		return
	}

	err = that.client.RecordMove(ctx, gameID, persistence.Move{
		FromRow: -1, FromCol: -1, ToRow: -1, ToCol: -1,
		Extra: string(extra),
	})
	if err != nil {
		log.Error("failed to record pass", "gameID", gameID, "error", err)
	}
}

// SnapshotRecorder keeps the latest snapshot of every session in the store.
type SnapshotRecorder struct {
	logger *slog.Logger
	store  snapshotWriter
}

func NewSnapshotRecorder(logger *slog.Logger, store snapshotWriter) *SnapshotRecorder {
	return &SnapshotRecorder{
		logger: logger.With("component", "snapshot-recorder"),
		store:  store,
	}
}

func (that *SnapshotRecorder) Run(ctx context.Context, updates <-chan session.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			that.Record(ctx, update)
		}
	}
}

func (that *SnapshotRecorder) Record(ctx context.Context, update session.Update) {
	snapshot := update.Snapshot
	if err := that.store.CreateOrUpdate(ctx, &snapshot); err != nil {
		that.logger.Error("failed to store snapshot", "session", update.SessionID, "error", err)
	}
}
