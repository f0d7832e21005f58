//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// IMessageRepository is the storage contract every backend fulfils.
// Lists are returned in ascending timestamp order, ties broken by id.
// Missing records are reported with errors.ErrMessageNotFound, never with a nil message.
type IMessageRepository interface {
	Insert(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	FindByID(ctx context.Context, id string) (chat.Message, error)
	DeleteByID(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]chat.Message, error)
	FindByParticipant(ctx context.Context, participantID string) ([]chat.Message, error)
	FindBySender(ctx context.Context, senderID string) ([]chat.Message, error)
	FindInTimeRange(ctx context.Context, from, to time.Time) ([]chat.Message, error)
	Close() error
}

const (
	messagePrefix  = "msg:"
	idIndexPrefix  = "idx:id:"
	senderPrefix   = "idx:sender:"
	receiverPrefix = "idx:receiver:"
)

// DiskMessage is the persisted shape of a message.
// Badger stores it BSON encoded, MongoDB stores it as the document itself.
type DiskMessage struct {
	ID        string    `bson:"_id"`
	Content   string    `bson:"content"`
	Sender    string    `bson:"sender"`
	Receiver  string    `bson:"receiver"`
	Timestamp time.Time `bson:"timestamp"`
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log, now: time.Now}
}

// Insert persists a message in BadgerDB.
// The primary key is "msg:{sortable_ts}:{uuid}" so that a prefix scan
// returns messages chronologically, dates before 1970 included (see
// sortableTimestamp). Three secondary keys point back to it:
//
//	idx:id:{uuid}
//	idx:sender:{hex(sender)}:{sortable_ts}:{uuid}
//	idx:receiver:{hex(receiver)}:{sortable_ts}:{uuid}
//
// Participants are hex encoded because they are opaque and may contain ':'.
func (m *MessageRepository) Insert(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}
	if err := cmd.Validate(); err != nil {
		return chat.Message{}, err
	}
	message := cmd.NewMessage(uuid.NewString(), m.now())
	bytes, err := bson.Marshal(FromMessage(message))
	if err != nil {
		return chat.Message{}, fmt.Errorf("marshal failed: %w", err)
	}
	primary := []byte(primaryKey(message))
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(primary, bytes); err != nil {
			return err
		}
		for _, key := range secondaryKeys(message) {
			if err := txn.Set([]byte(key), primary); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

func (m *MessageRepository) FindByID(ctx context.Context, id string) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}
	var message chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		found, err := getByID(txn, id)
		message = found
		return err
	})
	if err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

// DeleteByID removes the message and all its index keys in one transaction.
func (m *MessageRepository) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		message, err := getByID(txn, id)
		if err != nil {
			return err
		}
		keys := append(secondaryKeys(message), primaryKey(message))
		for _, key := range keys {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// FindAll scans the primary keyspace, which is already chronological.
func (m *MessageRepository) FindAll(ctx context.Context) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages := make([]chat.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			message, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindByParticipant merges the sender and receiver indexes.
// A message sent to oneself shows up in both and is kept once.
func (m *MessageRepository) FindByParticipant(ctx context.Context, participantID string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var messages []chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		sent, err := scanIndex(txn, indexPrefix(senderPrefix, participantID))
		if err != nil {
			return err
		}
		received, err := scanIndex(txn, indexPrefix(receiverPrefix, participantID))
		if err != nil {
			return err
		}
		messages = lo.UniqBy(append(sent, received...), func(item chat.Message) string {
			return item.ID
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	SortMessages(messages)
	return messages, nil
}

func (m *MessageRepository) FindBySender(ctx context.Context, senderID string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var messages []chat.Message
	err := m.db.View(func(txn *badger.Txn) error {
		found, err := scanIndex(txn, indexPrefix(senderPrefix, senderID))
		messages = found
		return err
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// FindInTimeRange seeks to the lower bound in the primary keyspace and stops
// at the first key past the upper bound. Both bounds are inclusive.
func (m *MessageRepository) FindInTimeRange(ctx context.Context, from, to time.Time) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	messages := make([]chat.Message, 0)
	lower := chat.NormalizeTimestamp(from)
	upper := chat.NormalizeTimestamp(to)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek([]byte(messagePrefix + sortableTimestamp(lower))); it.ValidForPrefix(prefix); it.Next() {
			message, err := decodeItem(it.Item())
			if err != nil {
				return err
			}
			if message.Timestamp.After(upper) {
				break
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *MessageRepository) Close() error {
	m.log.Info("Closing BadgerDB...")
	return m.db.Close()
}

// SortMessages orders messages by timestamp, then id.
func SortMessages(messages []chat.Message) {
	slices.SortFunc(messages, func(a, b chat.Message) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func FromMessage(message chat.Message) DiskMessage {
	return DiskMessage{
		ID:        message.ID,
		Content:   message.Content,
		Sender:    message.Sender,
		Receiver:  message.Receiver,
		Timestamp: message.Timestamp,
	}
}

func ToMessage(diskMessage DiskMessage) chat.Message {
	return chat.Message{
		ID:        diskMessage.ID,
		Content:   diskMessage.Content,
		Sender:    diskMessage.Sender,
		Receiver:  diskMessage.Receiver,
		Timestamp: chat.NormalizeTimestamp(diskMessage.Timestamp),
	}
}

// DecodeMessage turns a stored value back into a message.
func DecodeMessage(value []byte) (chat.Message, error) {
	var diskMessage DiskMessage
	if err := bson.Unmarshal(value, &diskMessage); err != nil {
		return chat.Message{}, fmt.Errorf("unmarshal failed: %w", err)
	}
	return ToMessage(diskMessage), nil
}

func primaryKey(message chat.Message) string {
	return fmt.Sprintf("%s%s:%s", messagePrefix, sortableTimestamp(message.Timestamp), message.ID)
}

// sortableTimestamp renders epoch milliseconds as 16 hex digits whose byte
// order matches chronological order. Flipping the sign bit moves negative
// instants below positive ones.
func sortableTimestamp(at time.Time) string {
	return fmt.Sprintf("%016x", uint64(at.UnixMilli())^(1<<63))
}

func secondaryKeys(message chat.Message) []string {
	suffix := fmt.Sprintf("%s:%s", sortableTimestamp(message.Timestamp), message.ID)
	return []string{
		idIndexPrefix + message.ID,
		indexPrefix(senderPrefix, message.Sender) + suffix,
		indexPrefix(receiverPrefix, message.Receiver) + suffix,
	}
}

func indexPrefix(prefix, participantID string) string {
	return fmt.Sprintf("%s%x:", prefix, participantID)
}

func getByID(txn *badger.Txn, id string) (chat.Message, error) {
	pointer, err := txn.Get([]byte(idIndexPrefix + id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return chat.Message{}, fmt.Errorf("%w: %s", errors.ErrMessageNotFound, id)
	}
	if err != nil {
		return chat.Message{}, err
	}
	primary, err := pointer.ValueCopy(nil)
	if err != nil {
		return chat.Message{}, err
	}
	item, err := txn.Get(primary)
	if err != nil {
		return chat.Message{}, fmt.Errorf("dangling index for %s: %w", id, err)
	}
	return decodeItem(item)
}

// scanIndex follows every secondary key under prefix to its primary record.
// Index keys embed the padded timestamp, so results come back chronologically.
func scanIndex(txn *badger.Txn, prefix string) ([]chat.Message, error) {
	messages := make([]chat.Message, 0)
	options := badger.DefaultIteratorOptions
	options.Prefix = []byte(prefix)
	it := txn.NewIterator(options)
	defer it.Close()
	for it.Seek(options.Prefix); it.ValidForPrefix(options.Prefix); it.Next() {
		primary, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		item, err := txn.Get(primary)
		if err != nil {
			return nil, fmt.Errorf("dangling index %s: %w", it.Item().Key(), err)
		}
		message, err := decodeItem(item)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func decodeItem(item *badger.Item) (chat.Message, error) {
	var message chat.Message
	err := item.Value(func(value []byte) error {
		decoded, err := DecodeMessage(value)
		message = decoded
		return err
	})
	return message, err
}
