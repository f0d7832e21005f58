//go:generate go run go.uber.org/mock/mockgen -source=message_index.go -destination=../../mocks/mock_message_index.go -package=mocks
package search

import (
	"chat-store/domain/chat"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
)

const (
	contentField  = "content"
	senderField   = "sender"
	receiverField = "receiver"
	idField       = "_id"
)

// IMessageIndex is a full-text index over message contents.
// It only returns ids; the store stays the source of truth.
type IMessageIndex interface {
	Index(ctx context.Context, message chat.Message) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]string, error)
	Close() error
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// NewMessageIndex opens a bluge index at path, or an in-memory one when path is empty.
func NewMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if path != "" {
		cfg = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

// Index adds the message or replaces an older version with the same id.
func (m *MessageIndex) Index(_ context.Context, message chat.Message) error {
	doc := bluge.NewDocument(message.ID).
		AddField(bluge.NewTextField(contentField, message.Content)).
		AddField(bluge.NewKeywordField(senderField, message.Sender)).
		AddField(bluge.NewKeywordField(receiverField, message.Receiver))
	return m.writer.Update(doc.ID(), doc)
}

func (m *MessageIndex) Remove(_ context.Context, id string) error {
	return m.writer.Delete(bluge.Identifier(id))
}

// Search runs a match query against message contents, best hits first.
func (m *MessageIndex) Search(ctx context.Context, query string, limit int) ([]string, error) {
	reader, err := m.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	request := bluge.NewTopNSearch(limit, bluge.NewMatchQuery(query).SetField(contentField))
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	ids := make([]string, 0)
	match, err := iterator.Next()
	for err == nil && match != nil {
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				ids = append(ids, string(value))
				return false
			}
			return true
		})
		if err != nil {
			break
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (m *MessageIndex) Close() error {
	m.log.Info("Closing Bluge...")
	return m.writer.Close()
}
