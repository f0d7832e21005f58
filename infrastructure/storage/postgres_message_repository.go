package storage

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS messages_sender_idx ON messages (sender, created_at)`,
	`CREATE INDEX IF NOT EXISTS messages_receiver_idx ON messages (receiver, created_at)`,
	`CREATE INDEX IF NOT EXISTS messages_created_at_idx ON messages (created_at, id)`,
}

const selectMessages = `SELECT id, content, sender, receiver, created_at FROM messages`

// PostgresMessageRepository stores messages in a single "messages" table.
type PostgresMessageRepository struct {
	db  *pgxpool.Pool
	log *slog.Logger
	now func() time.Time
}

func NewPostgresMessageRepository(ctx context.Context, dsn string, log *slog.Logger) (*PostgresMessageRepository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	for _, statement := range schema {
		if _, err = pool.Exec(ctx, statement); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	log.Info("Connected to Postgres", "table", "messages")
	return &PostgresMessageRepository{db: pool, log: log, now: time.Now}, nil
}

func (r *PostgresMessageRepository) Insert(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := cmd.Validate(); err != nil {
		return chat.Message{}, err
	}
	message := cmd.NewMessage(uuid.NewString(), r.now())
	query := `
		INSERT INTO messages (id, content, sender, receiver, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, message.ID, message.Content, message.Sender, message.Receiver, message.Timestamp)
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

func (r *PostgresMessageRepository) FindByID(ctx context.Context, id string) (chat.Message, error) {
	var message chat.Message
	err := r.db.QueryRow(ctx, selectMessages+` WHERE id = $1`, id).Scan(
		&message.ID,
		&message.Content,
		&message.Sender,
		&message.Receiver,
		&message.Timestamp,
	)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return chat.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return chat.Message{}, err
	}
	message.Timestamp = chat.NormalizeTimestamp(message.Timestamp)
	return message, nil
}

func (r *PostgresMessageRepository) DeleteByID(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	return nil
}

func (r *PostgresMessageRepository) FindAll(ctx context.Context) ([]chat.Message, error) {
	return r.query(ctx, selectMessages+` ORDER BY created_at ASC, id ASC`)
}

func (r *PostgresMessageRepository) FindByParticipant(ctx context.Context, participantID string) ([]chat.Message, error) {
	return r.query(ctx, selectMessages+`
		WHERE sender = $1 OR receiver = $1
		ORDER BY created_at ASC, id ASC`, participantID)
}

func (r *PostgresMessageRepository) FindBySender(ctx context.Context, senderID string) ([]chat.Message, error) {
	return r.query(ctx, selectMessages+`
		WHERE sender = $1
		ORDER BY created_at ASC, id ASC`, senderID)
}

func (r *PostgresMessageRepository) FindInTimeRange(ctx context.Context, from, to time.Time) ([]chat.Message, error) {
	return r.query(ctx, selectMessages+`
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC, id ASC`, chat.NormalizeTimestamp(from), chat.NormalizeTimestamp(to))
}

func (r *PostgresMessageRepository) Close() error {
	r.log.Info("Closing Postgres pool...")
	r.db.Close()
	return nil
}

func (r *PostgresMessageRepository) query(ctx context.Context, query string, args ...any) ([]chat.Message, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]chat.Message, 0)
	for rows.Next() {
		var message chat.Message
		err := rows.Scan(
			&message.ID,
			&message.Content,
			&message.Sender,
			&message.Receiver,
			&message.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		message.Timestamp = chat.NormalizeTimestamp(message.Timestamp)
		messages = append(messages, message)
	}

	return messages, rows.Err()
}
