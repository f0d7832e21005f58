package services

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/mocks"
	"context"
	stderrors "errors"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (*ChatService, *mocks.MockIMessageRepository, *mocks.MockIMessageIndex) {
	ctrl := gomock.NewController(t)
	repository := mocks.NewMockIMessageRepository(ctrl)
	index := mocks.NewMockIMessageIndex(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	return NewChatService(log, repository, index, 10), repository, index
}

func TestChatService_PostMessage(t *testing.T) {
	ctx := context.Background()
	cmd := chat.PostMessageCommand{Content: "hi", Sender: "A", Receiver: "B"}
	stored := chat.Message{ID: "m1", Content: "hi", Sender: "A", Receiver: "B", Timestamp: time.Now().UTC()}

	t.Run("should store then index the message", func(t *testing.T) {
		req := require.New(t)
		service, repository, index := newTestService(t)

		gomock.InOrder(
			repository.EXPECT().Insert(ctx, cmd).Return(stored, nil).Times(1),
			index.EXPECT().Index(ctx, stored).Return(nil).Times(1),
		)

		message, err := service.PostMessage(ctx, cmd)

		req.NoError(err)
		req.Equal(stored, message)
	})

	t.Run("should not index a rejected message", func(t *testing.T) {
		req := require.New(t)
		service, repository, index := newTestService(t)

		repository.EXPECT().Insert(ctx, gomock.Any()).Return(chat.Message{}, errors.ErrValidation).Times(1)
		index.EXPECT().Index(gomock.Any(), gomock.Any()).Times(0)

		_, err := service.PostMessage(ctx, chat.PostMessageCommand{Sender: "A", Receiver: "B"})

		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should succeed when only indexing fails", func(t *testing.T) {
		req := require.New(t)
		service, repository, index := newTestService(t)

		repository.EXPECT().Insert(ctx, cmd).Return(stored, nil).Times(1)
		index.EXPECT().Index(ctx, stored).Return(stderrors.New("disk full")).Times(1)

		message, err := service.PostMessage(ctx, cmd)

		req.NoError(err)
		req.Equal(stored, message)
	})
}

func TestChatService_DeleteMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("should remove from store and index", func(t *testing.T) {
		req := require.New(t)
		service, repository, index := newTestService(t)

		repository.EXPECT().DeleteByID(ctx, "m1").Return(nil).Times(1)
		index.EXPECT().Remove(ctx, "m1").Return(nil).Times(1)

		req.NoError(service.DeleteMessage(ctx, "m1"))
	})

	t.Run("should propagate not found", func(t *testing.T) {
		req := require.New(t)
		service, repository, index := newTestService(t)

		repository.EXPECT().DeleteByID(ctx, "ghost").Return(errors.ErrMessageNotFound).Times(1)
		index.EXPECT().Remove(gomock.Any(), gomock.Any()).Times(0)

		req.ErrorIs(service.DeleteMessage(ctx, "ghost"), errors.ErrMessageNotFound)
	})
}

func TestChatService_GetConversation(t *testing.T) {
	ctx := context.Background()

	t.Run("should return every message touching the participant", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)
		messages := []chat.Message{
			{ID: "m1", Content: "hi", Sender: "A", Receiver: "B"},
			{ID: "m2", Content: "yo", Sender: "B", Receiver: "C"},
		}

		repository.EXPECT().FindByParticipant(ctx, "B").Return(messages, nil).Times(1)

		conversation, err := service.GetConversation(ctx, "B")

		req.NoError(err)
		req.Equal(messages, conversation)
	})

	t.Run("should report an empty conversation as not found", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)

		repository.EXPECT().FindByParticipant(ctx, "Z").Return([]chat.Message{}, nil).Times(1)

		_, err := service.GetConversation(ctx, "Z")

		req.ErrorIs(err, errors.ErrConversationNotFound)
	})

	t.Run("should reject a blank participant", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)

		repository.EXPECT().FindByParticipant(gomock.Any(), gomock.Any()).Times(0)

		_, err := service.GetConversation(ctx, "  ")

		req.ErrorIs(err, errors.ErrValidation)
	})
}

func TestChatService_ListMessages(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	messages := []chat.Message{
		{ID: "m1", Sender: "A", Receiver: "B", Timestamp: start},
		{ID: "m2", Sender: "B", Receiver: "A", Timestamp: start.Add(time.Hour)},
	}

	t.Run("should list everything without filter", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)

		repository.EXPECT().FindAll(ctx).Return(messages, nil).Times(1)

		listed, err := service.ListMessages(ctx, chat.ListMessagesCommand{})

		req.NoError(err)
		req.Equal(messages, listed)
	})

	t.Run("should delegate a sender filter", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)

		repository.EXPECT().FindBySender(ctx, "A").Return(messages[:1], nil).Times(1)

		listed, err := service.ListMessages(ctx, chat.ListMessagesCommand{Sender: lo.ToPtr("A")})

		req.NoError(err)
		req.Equal(messages[:1], listed)
	})

	t.Run("should combine time range and sender", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)

		repository.EXPECT().FindInTimeRange(ctx, start, end).Return(messages, nil).Times(1)

		listed, err := service.ListMessages(ctx, chat.ListMessagesCommand{
			Sender: lo.ToPtr("B"),
			From:   lo.ToPtr(start),
			To:     lo.ToPtr(end),
		})

		req.NoError(err)
		req.Equal(messages[1:], listed)
	})

	t.Run("should reject an inverted range", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)

		repository.EXPECT().FindInTimeRange(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := service.ListMessages(ctx, chat.ListMessagesCommand{From: lo.ToPtr(end), To: lo.ToPtr(start)})

		req.ErrorIs(err, errors.ErrValidation)
	})

	t.Run("should propagate store failures", func(t *testing.T) {
		req := require.New(t)
		service, repository, _ := newTestService(t)
		storeErr := stderrors.New("connection refused")

		repository.EXPECT().FindAll(ctx).Return(nil, storeErr).Times(1)

		_, err := service.ListMessages(ctx, chat.ListMessagesCommand{})

		req.ErrorIs(err, storeErr)
	})
}

func TestChatService_SearchMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("should hydrate hits and skip stale ids", func(t *testing.T) {
		req := require.New(t)
		service, repository, index := newTestService(t)
		hit := chat.Message{ID: "m1", Content: "gateway down"}

		index.EXPECT().Search(ctx, "gateway", 10).Return([]string{"m1", "gone"}, nil).Times(1)
		repository.EXPECT().FindByID(ctx, "m1").Return(hit, nil).Times(1)
		repository.EXPECT().FindByID(ctx, "gone").Return(chat.Message{}, errors.ErrMessageNotFound).Times(1)

		found, err := service.SearchMessages(ctx, "gateway")

		req.NoError(err)
		req.Equal([]chat.Message{hit}, found)
	})

	t.Run("should fall back to the default limit", func(t *testing.T) {
		for _, limit := range []int{0, -1} {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			repository := mocks.NewMockIMessageRepository(ctrl)
			index := mocks.NewMockIMessageIndex(ctrl)
			service := NewChatService(logs.GetLoggerFromLevel(slog.LevelDebug), repository, index, limit)
			hit := chat.Message{ID: "m1", Content: "gateway down"}

			index.EXPECT().Search(ctx, "gateway", DefaultSearchLimit).Return([]string{"m1"}, nil).Times(1)
			repository.EXPECT().FindByID(ctx, "m1").Return(hit, nil).Times(1)

			found, err := service.SearchMessages(ctx, "gateway")

			req.NoError(err)
			req.Equal([]chat.Message{hit}, found)
		}
	})

	t.Run("should reject an empty query", func(t *testing.T) {
		req := require.New(t)
		service, _, index := newTestService(t)

		index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := service.SearchMessages(ctx, " ")

		req.ErrorIs(err, errors.ErrEmptySearchQuery)
	})
}

func TestChatService_Reindex(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, repository, index := newTestService(t)
	messages := []chat.Message{{ID: "m1"}, {ID: "m2"}}

	repository.EXPECT().FindAll(ctx).Return(messages, nil).Times(1)
	index.EXPECT().Index(ctx, gomock.Any()).Return(nil).Times(2)

	count, err := service.Reindex(ctx)

	req.NoError(err)
	req.Equal(2, count)
}
