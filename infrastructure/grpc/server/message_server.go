package server

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/infrastructure/grpc/api"
	"chat-store/services"
	"context"
	"log/slog"

	"github.com/samber/lo"
)

const deletedMessage = "Mensaje eliminado exitosamente"

type MessageServer struct {
	log         *slog.Logger
	chatService services.IChatService
}

func NewMessageServer(log *slog.Logger, chatService services.IChatService) *MessageServer {
	return &MessageServer{log: log, chatService: chatService}
}

func (s *MessageServer) ListMessages(ctx context.Context, req *api.ListMessagesRequest) (*api.ListMessagesResponse, error) {
	messages, err := s.chatService.ListMessages(ctx, chat.ListMessagesCommand{
		Sender: req.Sender,
		From:   req.From,
		To:     req.To,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.ListMessagesResponse{Messages: toMessageResponse(messages)}, nil
}

func (s *MessageServer) CreateMessage(ctx context.Context, req *api.CreateMessageRequest) (*api.CreateMessageResponse, error) {
	command := chat.PostMessageCommand{
		Content:  req.Content,
		Sender:   req.Sender,
		Receiver: req.Receiver,
	}
	if req.Timestamp != nil {
		command.Timestamp = *req.Timestamp
	}
	message, err := s.chatService.PostMessage(ctx, command)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.CreateMessageResponse{Message: ToAPIMessage(message)}, nil
}

func (s *MessageServer) DeleteMessage(ctx context.Context, req *api.DeleteMessageRequest) (*api.DeleteMessageResponse, error) {
	if err := s.chatService.DeleteMessage(ctx, req.Id); err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.DeleteMessageResponse{Message: deletedMessage}, nil
}

// GetConversation reports an unknown participant as codes.NotFound.
func (s *MessageServer) GetConversation(ctx context.Context, req *api.GetConversationRequest) (*api.GetConversationResponse, error) {
	messages, err := s.chatService.GetConversation(ctx, req.ParticipantId)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &api.GetConversationResponse{Messages: toMessageResponse(messages)}, nil
}

func ToAPIMessage(message chat.Message) api.Message {
	return api.Message{
		Id:        message.ID,
		Content:   message.Content,
		Sender:    message.Sender,
		Receiver:  message.Receiver,
		Timestamp: message.Timestamp,
	}
}

func toMessageResponse(messages []chat.Message) []api.Message {
	return lo.Map(messages, func(item chat.Message, _ int) api.Message {
		return ToAPIMessage(item)
	})
}
