package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/goban-server/internal/apperror"
	"github.com/rocketscienceinc/goban-server/internal/entity"
)

type ArchiveRepository interface {
	CreateGame(ctx context.Context, black, white string) (*entity.ArchivedGame, error)
	GetGame(ctx context.Context, id int64) (*entity.ArchivedGame, error)
	AddMove(ctx context.Context, move *entity.ArchivedMove) (*entity.ArchivedMove, error)
	ListMoves(ctx context.Context, gameID int64) ([]*entity.ArchivedMove, error)
	FinishGame(ctx context.Context, id int64, result string) (*entity.ArchivedGame, error)
}

type dbArchive struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) ArchiveRepository {
	return &dbArchive{
		db: db,
	}
}

func (that *dbArchive) CreateGame(ctx context.Context, black, white string) (*entity.ArchivedGame, error) {
	createdAt := time.Now().UTC()

	res, err := that.db.ExecContext(ctx,
		`INSERT INTO games (black, white, created_at) VALUES (?, ?, ?)`,
		black, white, createdAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert game: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read game id: %w", err)
	}

	return &entity.ArchivedGame{
		ID:        id,
		Black:     black,
		White:     white,
		CreatedAt: time.UnixMilli(createdAt.UnixMilli()).UTC(),
	}, nil
}

func (that *dbArchive) GetGame(ctx context.Context, id int64) (*entity.ArchivedGame, error) {
	return getGame(ctx, that.db, id)
}

// AddMove numbers the move after the last one stored for its game.
func (that *dbArchive) AddMove(ctx context.Context, move *entity.ArchivedMove) (*entity.ArchivedMove, error) {
	tx, err := that.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = getGame(ctx, tx, move.GameID); err != nil {
		return nil, err
	}

	var count int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM moves WHERE game_id = ?`, move.GameID).Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count moves: %w", err)
	}

	stored := *move
	stored.MoveNumber = count + 1
	stored.CreatedAt = time.UnixMilli(time.Now().UTC().UnixMilli()).UTC()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO moves (game_id, move_number, from_row, from_col, to_row, to_col, capture, extra, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stored.GameID, stored.MoveNumber, stored.FromRow, stored.FromCol, stored.ToRow, stored.ToCol,
		stored.Capture, stored.Extra, stored.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert move: %w", err)
	}

	if stored.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("failed to read move id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit move: %w", err)
	}

	return &stored, nil
}

// ListMoves returns moves in play order. A missing game is an error, an empty game is not.
func (that *dbArchive) ListMoves(ctx context.Context, gameID int64) ([]*entity.ArchivedMove, error) {
	if _, err := getGame(ctx, that.db, gameID); err != nil {
		return nil, err
	}

	rows, err := that.db.QueryContext(ctx,
		`SELECT id, game_id, move_number, from_row, from_col, to_row, to_col, capture, extra, created_at
		 FROM moves WHERE game_id = ? ORDER BY move_number`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer rows.Close()

	var moves []*entity.ArchivedMove
	for rows.Next() {
		var (
			move      entity.ArchivedMove
			createdAt int64
		)
		if err = rows.Scan(&move.ID, &move.GameID, &move.MoveNumber, &move.FromRow, &move.FromCol,
			&move.ToRow, &move.ToCol, &move.Capture, &move.Extra, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		move.CreatedAt = time.UnixMilli(createdAt).UTC()
		moves = append(moves, &move)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate moves: %w", err)
	}

	return moves, nil
}

func (that *dbArchive) FinishGame(ctx context.Context, id int64, result string) (*entity.ArchivedGame, error) {
	res, err := that.db.ExecContext(ctx,
		`UPDATE games SET result = ?, finished_at = ? WHERE id = ?`,
		result, time.Now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to finish game: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to finish game: %w", err)
	}
	if affected == 0 {
		return nil, apperror.ErrGameNotFound
	}

	return that.GetGame(ctx, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getGame(ctx context.Context, q queryer, id int64) (*entity.ArchivedGame, error) {
	var (
		game       entity.ArchivedGame
		createdAt  int64
		finishedAt sql.NullInt64
	)

	err := q.QueryRowContext(ctx,
		`SELECT id, black, white, result, created_at, finished_at FROM games WHERE id = ?`, id,
	).Scan(&game.ID, &game.Black, &game.White, &game.Result, &createdAt, &finishedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	game.CreatedAt = time.UnixMilli(createdAt).UTC()
	if finishedAt.Valid {
		finished := time.UnixMilli(finishedAt.Int64).UTC()
		game.FinishedAt = &finished
	}

	return &game, nil
}
