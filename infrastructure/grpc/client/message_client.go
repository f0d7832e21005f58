package client

import (
	"chat-store/domain/chat"
	"chat-store/infrastructure/grpc/api"
	"context"
	"fmt"

	"github.com/samber/lo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// IMessageClient talks to a remote chat-store in domain types,
// hiding the wire structs.
type IMessageClient interface {
	List(ctx context.Context, cmd chat.ListMessagesCommand) ([]chat.Message, error)
	Create(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error)
	Delete(ctx context.Context, id string) error
	Conversation(ctx context.Context, participantID string) ([]chat.Message, error)
}

type MessageClient struct {
	client api.MessageServiceClient
}

func NewMessageClient(cc grpc.ClientConnInterface) *MessageClient {
	return &MessageClient{client: api.NewMessageServiceClient(cc)}
}

// Dial opens an insecure connection to addr. The caller closes it.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chat-store at %s: %w", addr, err)
	}
	return conn, nil
}

func (c *MessageClient) List(ctx context.Context, cmd chat.ListMessagesCommand) ([]chat.Message, error) {
	resp, err := c.client.ListMessages(ctx, &api.ListMessagesRequest{Sender: cmd.Sender, From: cmd.From, To: cmd.To})
	if err != nil {
		return nil, err
	}
	return toMessages(resp.Messages), nil
}

func (c *MessageClient) Create(ctx context.Context, cmd chat.PostMessageCommand) (chat.Message, error) {
	req := &api.CreateMessageRequest{Content: cmd.Content, Sender: cmd.Sender, Receiver: cmd.Receiver}
	if !cmd.Timestamp.IsZero() {
		req.Timestamp = lo.ToPtr(cmd.Timestamp)
	}
	resp, err := c.client.CreateMessage(ctx, req)
	if err != nil {
		return chat.Message{}, err
	}
	return toMessage(resp.Message), nil
}

func (c *MessageClient) Delete(ctx context.Context, id string) error {
	_, err := c.client.DeleteMessage(ctx, &api.DeleteMessageRequest{Id: id})
	return err
}

func (c *MessageClient) Conversation(ctx context.Context, participantID string) ([]chat.Message, error) {
	resp, err := c.client.GetConversation(ctx, &api.GetConversationRequest{ParticipantId: participantID})
	if err != nil {
		return nil, err
	}
	return toMessages(resp.Messages), nil
}

func toMessage(m api.Message) chat.Message {
	return chat.Message{
		ID:        m.Id,
		Content:   m.Content,
		Sender:    m.Sender,
		Receiver:  m.Receiver,
		Timestamp: m.Timestamp,
	}
}

func toMessages(messages []api.Message) []chat.Message {
	return lo.Map(messages, func(item api.Message, _ int) chat.Message {
		return toMessage(item)
	})
}
