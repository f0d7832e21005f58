// Package api describes the chatstore.v1.MessageService wire contract.
// Messages travel through the json codec registered by package codec.
package api

import (
	"chat-store/infrastructure/grpc/codec"
	"context"
	"time"

	"google.golang.org/grpc"
)

const (
	ServiceName                    = "chatstore.v1.MessageService"
	MessageService_ListMessages    = "/" + ServiceName + "/ListMessages"
	MessageService_CreateMessage   = "/" + ServiceName + "/CreateMessage"
	MessageService_DeleteMessage   = "/" + ServiceName + "/DeleteMessage"
	MessageService_GetConversation = "/" + ServiceName + "/GetConversation"
)

type Message struct {
	Id        string    `json:"id"`
	Content   string    `json:"content"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Timestamp time.Time `json:"timestamp"`
}

type ListMessagesRequest struct {
	Sender *string    `json:"sender,omitempty"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type CreateMessageRequest struct {
	Content   string     `json:"content"`
	Sender    string     `json:"sender"`
	Receiver  string     `json:"receiver"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type CreateMessageResponse struct {
	Message Message `json:"message"`
}

type DeleteMessageRequest struct {
	Id string `json:"id"`
}

type DeleteMessageResponse struct {
	Message string `json:"message"`
}

type GetConversationRequest struct {
	ParticipantId string `json:"participant_id"`
}

type GetConversationResponse struct {
	Messages []Message `json:"messages"`
}

type MessageServiceServer interface {
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	CreateMessage(context.Context, *CreateMessageRequest) (*CreateMessageResponse, error)
	DeleteMessage(context.Context, *DeleteMessageRequest) (*DeleteMessageResponse, error)
	GetConversation(context.Context, *GetConversationRequest) (*GetConversationResponse, error)
}

func RegisterMessageServiceServer(s grpc.ServiceRegistrar, srv MessageServiceServer) {
	s.RegisterService(&MessageService_ServiceDesc, srv)
}

// unaryHandler adapts one typed method to the grpc.MethodDesc handler shape.
func unaryHandler[Req any, Resp any](fullMethod string,
	call func(MessageServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MessageServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MessageServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var MessageService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MessageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListMessages",
			Handler:    unaryHandler(MessageService_ListMessages, MessageServiceServer.ListMessages),
		},
		{
			MethodName: "CreateMessage",
			Handler:    unaryHandler(MessageService_CreateMessage, MessageServiceServer.CreateMessage),
		},
		{
			MethodName: "DeleteMessage",
			Handler:    unaryHandler(MessageService_DeleteMessage, MessageServiceServer.DeleteMessage),
		},
		{
			MethodName: "GetConversation",
			Handler:    unaryHandler(MessageService_GetConversation, MessageServiceServer.GetConversation),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chatstore/v1/message_service",
}

type MessageServiceClient interface {
	ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error)
	CreateMessage(ctx context.Context, in *CreateMessageRequest, opts ...grpc.CallOption) (*CreateMessageResponse, error)
	DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*DeleteMessageResponse, error)
	GetConversation(ctx context.Context, in *GetConversationRequest, opts ...grpc.CallOption) (*GetConversationResponse, error)
}

type messageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMessageServiceClient(cc grpc.ClientConnInterface) MessageServiceClient {
	return &messageServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codec.Name)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *messageServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, MessageService_ListMessages, in, opts)
}

func (c *messageServiceClient) CreateMessage(ctx context.Context, in *CreateMessageRequest, opts ...grpc.CallOption) (*CreateMessageResponse, error) {
	return invoke[CreateMessageResponse](ctx, c.cc, MessageService_CreateMessage, in, opts)
}

func (c *messageServiceClient) DeleteMessage(ctx context.Context, in *DeleteMessageRequest, opts ...grpc.CallOption) (*DeleteMessageResponse, error) {
	return invoke[DeleteMessageResponse](ctx, c.cc, MessageService_DeleteMessage, in, opts)
}

func (c *messageServiceClient) GetConversation(ctx context.Context, in *GetConversationRequest, opts ...grpc.CallOption) (*GetConversationResponse, error) {
	return invoke[GetConversationResponse](ctx, c.cc, MessageService_GetConversation, in, opts)
}
