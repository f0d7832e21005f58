package storage

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/repositories"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// The same behaviour is expected from every backend.
// Mongo and Postgres only run when a server is reachable through the environment.

func Test_Badger_Repository_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) repositories.IMessageRepository {
		repository, err := OpenMessageRepository(context.Background(), Config{
			Driver:         DriverBadger,
			BadgerFilepath: filepath.Join(t.TempDir(), "badger"),
		}, slog.Default())
		require.NoError(t, err)
		return repository
	})
}

func Test_Mongo_Repository_Contract(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	runContract(t, func(t *testing.T) repositories.IMessageRepository {
		// One database per test keeps them isolated
		database := "chat_store_test_" + uuid.NewString()[:8]
		repository, err := NewMongoMessageRepository(context.Background(), uri, database, slog.Default())
		require.NoError(t, err)
		t.Cleanup(func() {
			_ = repository.client.Database(database).Drop(context.Background())
		})
		return repository
	})
}

func Test_Postgres_Repository_Contract(t *testing.T) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	runContract(t, func(t *testing.T) repositories.IMessageRepository {
		repository, err := NewPostgresMessageRepository(context.Background(), dsn, slog.Default())
		require.NoError(t, err)
		_, err = repository.db.Exec(context.Background(), `TRUNCATE messages`)
		require.NoError(t, err)
		return repository
	})
}

func Test_Open_Unknown_Driver(t *testing.T) {
	req := require.New(t)

	_, err := OpenMessageRepository(context.Background(), Config{Driver: "cassandra"}, slog.Default())

	req.ErrorIs(err, errors.ErrUnknownStoreDriver)
}

func runContract(t *testing.T, open func(t *testing.T) repositories.IMessageRepository) {
	ctx := context.Background()

	t.Run("insert then find by id", func(t *testing.T) {
		req := require.New(t)
		repository := open(t)
		defer repository.Close()

		message, err := repository.Insert(ctx, chat.PostMessageCommand{Content: "hi", Sender: "A", Receiver: "B"})
		req.NoError(err)
		req.NotEmpty(message.ID)
		req.False(message.Timestamp.IsZero())

		fetched, err := repository.FindByID(ctx, message.ID)
		req.NoError(err)
		req.Equal(message, fetched)
	})

	t.Run("validation failure persists nothing", func(t *testing.T) {
		req := require.New(t)
		repository := open(t)
		defer repository.Close()

		_, err := repository.Insert(ctx, chat.PostMessageCommand{Sender: "A", Receiver: "B"})
		req.ErrorIs(err, errors.ErrValidation)

		all, err := repository.FindAll(ctx)
		req.NoError(err)
		req.Empty(all)
	})

	t.Run("delete then delete again", func(t *testing.T) {
		req := require.New(t)
		repository := open(t)
		defer repository.Close()

		message, err := repository.Insert(ctx, chat.PostMessageCommand{Content: "hi", Sender: "A", Receiver: "B"})
		req.NoError(err)

		req.NoError(repository.DeleteByID(ctx, message.ID))
		_, err = repository.FindByID(ctx, message.ID)
		req.ErrorIs(err, errors.ErrMessageNotFound)
		req.ErrorIs(repository.DeleteByID(ctx, message.ID), errors.ErrMessageNotFound)
	})

	t.Run("participant either side", func(t *testing.T) {
		req := require.New(t)
		repository := open(t)
		defer repository.Close()

		first, err := repository.Insert(ctx, chat.PostMessageCommand{Content: "hi", Sender: "A", Receiver: "B"})
		req.NoError(err)
		second, err := repository.Insert(ctx, chat.PostMessageCommand{Content: "yo", Sender: "B", Receiver: "C"})
		req.NoError(err)

		forB, err := repository.FindByParticipant(ctx, "B")
		req.NoError(err)
		req.ElementsMatch([]chat.Message{first, second}, forB)

		forA, err := repository.FindByParticipant(ctx, "A")
		req.NoError(err)
		req.Equal([]chat.Message{first}, forA)

		forZ, err := repository.FindByParticipant(ctx, "Z")
		req.NoError(err)
		req.Empty(forZ)

		fromB, err := repository.FindBySender(ctx, "B")
		req.NoError(err)
		req.Equal([]chat.Message{second}, fromB)

		all, err := repository.FindAll(ctx)
		req.NoError(err)
		req.ElementsMatch([]chat.Message{first, second}, all)
	})

	t.Run("time range", func(t *testing.T) {
		req := require.New(t)
		repository := open(t)
		defer repository.Close()
		start := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

		var inserted []chat.Message
		for i := 0; i < 4; i++ {
			message, err := repository.Insert(ctx, chat.PostMessageCommand{
				Content: "tick", Sender: "clock", Receiver: "wall",
				Timestamp: start.Add(time.Duration(i) * time.Hour),
			})
			req.NoError(err)
			inserted = append(inserted, message)
		}

		window, err := repository.FindInTimeRange(ctx, start, start.Add(2*time.Hour))
		req.NoError(err)
		req.Equal(inserted[:3], window)
	})

	t.Run("dates on both sides of the epoch", func(t *testing.T) {
		req := require.New(t)
		repository := open(t)
		defer repository.Close()

		byYear := map[int]chat.Message{}
		for _, year := range []int{1960, 1950, 2300, 2024} {
			message, err := repository.Insert(ctx, chat.PostMessageCommand{
				Content: "dated", Sender: "historian", Receiver: "archive",
				Timestamp: time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC),
			})
			req.NoError(err)
			byYear[year] = message
		}

		all, err := repository.FindAll(ctx)
		req.NoError(err)
		req.Equal([]chat.Message{byYear[1950], byYear[1960], byYear[2024], byYear[2300]}, all)

		window, err := repository.FindInTimeRange(ctx,
			time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC))
		req.NoError(err)
		req.Equal([]chat.Message{byYear[1950], byYear[1960], byYear[2024]}, window)

		everything, err := repository.FindInTimeRange(ctx, chat.MinTimestamp, chat.MaxTimestamp)
		req.NoError(err)
		req.Len(everything, 4)
	})
}
