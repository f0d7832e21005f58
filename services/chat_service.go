//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/infrastructure/search"
	"chat-store/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/samber/lo"
)

type IChatService interface {
	ListMessages(ctx context.Context, cmd chat.ListMessagesCommand) ([]chat.Message, error)
	PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	GetConversation(ctx context.Context, participantID string) ([]chat.Message, error)
	SearchMessages(ctx context.Context, query string) ([]chat.Message, error)
}

type ChatService struct {
	log         *slog.Logger
	repository  repositories.IMessageRepository
	index       search.IMessageIndex
	searchLimit int
}

// DefaultSearchLimit replaces a search limit below 1, which would match nothing.
const DefaultSearchLimit = 20

func NewChatService(log *slog.Logger, repository repositories.IMessageRepository,
	index search.IMessageIndex, searchLimit int) *ChatService {
	if searchLimit < 1 {
		searchLimit = DefaultSearchLimit
	}
	return &ChatService{log: log, repository: repository, index: index, searchLimit: searchLimit}
}

// ListMessages returns every message, optionally narrowed by sender and/or
// an inclusive time range.
func (s *ChatService) ListMessages(ctx context.Context, cmd chat.ListMessagesCommand) ([]chat.Message, error) {
	log := s.log.With("op", "ChatService.ListMessages")

	var (
		messages []chat.Message
		err      error
	)
	switch {
	case cmd.HasTimeRange():
		from, to := cmd.TimeRange()
		if from.After(to) {
			return nil, fmt.Errorf("%w: from is after to", errors.ErrValidation)
		}
		messages, err = s.repository.FindInTimeRange(ctx, from, to)
		if err == nil && cmd.Sender != nil {
			messages = lo.Filter(messages, func(item chat.Message, _ int) bool {
				return item.Sender == *cmd.Sender
			})
		}
	case cmd.Sender != nil:
		messages, err = s.repository.FindBySender(ctx, *cmd.Sender)
	default:
		messages, err = s.repository.FindAll(ctx)
	}
	if err != nil {
		log.Error("Error in listing messages", "error", err)
		return nil, err
	}
	return messages, nil
}

// PostMessage stores the message and indexes it for search.
// An indexing failure is logged only: the message is already stored.
func (s *ChatService) PostMessage(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	log := s.log.With("op", "ChatService.PostMessage", "sender", cmd.Sender, "receiver", cmd.Receiver)

	message, err := s.repository.Insert(ctx, cmd)
	if err != nil {
		if stderrors.Is(err, errors.ErrValidation) {
			log.Warn("Rejected message", "error", err)
		} else {
			log.Error("Error in creating message", "error", err)
		}
		return chat.Message{}, err
	}
	if err = s.index.Index(ctx, message); err != nil {
		log.Error("Error in indexing message", "message_id", message.ID, "error", err)
	}
	log.Debug("Message created", "message_id", message.ID)
	return message, nil
}

func (s *ChatService) DeleteMessage(ctx context.Context, id string) error {
	log := s.log.With("op", "ChatService.DeleteMessage", "message_id", id)

	if err := s.repository.DeleteByID(ctx, id); err != nil {
		if stderrors.Is(err, errors.ErrMessageNotFound) {
			log.Info("Message not found")
		} else {
			log.Error("Error in deleting message", "error", err)
		}
		return err
	}
	if err := s.index.Remove(ctx, id); err != nil {
		log.Error("Error in removing message from index", "error", err)
	}
	return nil
}

// GetConversation returns every message the participant sent or received.
// It is not a two-party thread: only one id is matched, on either side.
// No match at all is reported as errors.ErrConversationNotFound.
func (s *ChatService) GetConversation(ctx context.Context, participantID string) ([]chat.Message, error) {
	log := s.log.With("op", "ChatService.GetConversation", "participant_id", participantID)

	if strings.TrimSpace(participantID) == "" {
		return nil, fmt.Errorf("%w: participant id is required", errors.ErrValidation)
	}
	messages, err := s.repository.FindByParticipant(ctx, participantID)
	if err != nil {
		log.Error("Error in getting conversation", "error", err)
		return nil, err
	}
	if len(messages) == 0 {
		log.Info("No message for participant")
		return nil, fmt.Errorf("%w: %s", errors.ErrConversationNotFound, participantID)
	}
	return messages, nil
}

// SearchMessages resolves index hits through the store, best hits first.
// Ids the store no longer knows are skipped.
func (s *ChatService) SearchMessages(ctx context.Context, query string) ([]chat.Message, error) {
	log := s.log.With("op", "ChatService.SearchMessages")

	if strings.TrimSpace(query) == "" {
		return nil, errors.ErrEmptySearchQuery
	}
	ids, err := s.index.Search(ctx, query, s.searchLimit)
	if err != nil {
		log.Error("Error in searching messages", "error", err)
		return nil, err
	}
	messages := make([]chat.Message, 0, len(ids))
	for _, id := range ids {
		message, err := s.repository.FindByID(ctx, id)
		if stderrors.Is(err, errors.ErrMessageNotFound) {
			log.Warn("Index points to a missing message", "message_id", id)
			continue
		}
		if err != nil {
			log.Error("Error in loading search hit", "message_id", id, "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// Reindex feeds every stored message to the search index.
func (s *ChatService) Reindex(ctx context.Context) (int, error) {
	messages, err := s.repository.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, message := range messages {
		if err = s.index.Index(ctx, message); err != nil {
			return 0, fmt.Errorf("indexing %s: %w", message.ID, err)
		}
	}
	s.log.Info("Search index rebuilt", "messages", len(messages))
	return len(messages), nil
}
