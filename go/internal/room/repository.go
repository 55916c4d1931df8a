package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/btktNo012/MysteryMakerProject/go/internal/models"
)

// Repository persists room documents. Saves are whole-record upserts with
// last-write-wins semantics; there is no optimistic concurrency at this layer
// (mutations are serialized per room by the App instead).
type Repository interface {
	Load(ctx context.Context, roomID string) (*models.Room, error)
	Save(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, roomID string) error

	// ListRunningTimerRoomIDs returns the ids of rooms whose discussion timer
	// is ticking. Used once at process start to recover in-flight timers.
	ListRunningTimerRoomIDs(ctx context.Context) ([]string, error)

	// ListInactiveRoomIDs returns the ids of rooms with no activity since the
	// cutoff, regardless of connection state.
	ListInactiveRoomIDs(ctx context.Context, cutoff time.Time) ([]string, error)
}

// NormalizeRoomID uppercases a client-supplied room code. Room ids are
// case-insensitive on the wire and stored uppercase.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// PostgresRepository stores each room as a single JSONB document.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var _ Repository = (*PostgresRepository)(nil)

// InitSchema creates the rooms table if it does not exist.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			room_id VARCHAR(6) PRIMARY KEY,
			game_state JSONB NOT NULL,
			master_user_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_activity_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create rooms table: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, roomID string) (*models.Room, error) {
	var state []byte
	err := r.pool.QueryRow(ctx,
		`SELECT game_state FROM rooms WHERE room_id = $1`,
		NormalizeRoomID(roomID),
	).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load room %s: %w", roomID, err)
	}

	var room models.Room
	if err := json.Unmarshal(state, &room); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return &room, nil
}

func (r *PostgresRepository) Save(ctx context.Context, room *models.Room) error {
	state, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", room.ID, err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO rooms (room_id, game_state, master_user_id, last_activity_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (room_id) DO UPDATE SET
			game_state = EXCLUDED.game_state,
			master_user_id = EXCLUDED.master_user_id,
			last_activity_at = NOW()`,
		room.ID, state, room.MasterUserID)
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, roomID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM rooms WHERE room_id = $1`, NormalizeRoomID(roomID))
	if err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	return nil
}

func (r *PostgresRepository) ListRunningTimerRoomIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT room_id FROM rooms
		WHERE (game_state->'discussionTimer'->>'isTicking')::boolean = true`)
	if err != nil {
		return nil, fmt.Errorf("list running timer rooms: %w", err)
	}
	defer rows.Close()
	return collectRoomIDs(rows)
}

func (r *PostgresRepository) ListInactiveRoomIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT room_id FROM rooms WHERE last_activity_at < $1`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list inactive rooms: %w", err)
	}
	defer rows.Close()
	return collectRoomIDs(rows)
}

func collectRoomIDs(rows pgx.Rows) ([]string, error) {
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan room id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room ids: %w", err)
	}
	return ids, nil
}
