package rest

import (
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/services"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	MsgDeleted      = "Mensaje eliminado exitosamente"
	MsgNotFound     = "Mensaje no encontrado"
	MsgServerError  = "Error en el servidor"
	fromQueryParam  = "from"
	toQueryParam    = "to"
	senderParam     = "sender"
	searchParam     = "q"
	messageIDParam  = "id"
	messageResponse = "message"
)

type MessageHandler struct {
	log     *slog.Logger
	service services.IChatService
}

func NewMessageHandler(log *slog.Logger, service services.IChatService) *MessageHandler {
	return &MessageHandler{log: log, service: service}
}

type createMessageRequest struct {
	Content   string     `json:"content"`
	Sender    string     `json:"sender"`
	Receiver  string     `json:"receiver"`
	Timestamp *time.Time `json:"timestamp"`
}

func (h *MessageHandler) List(c *gin.Context) {
	cmd, err := listCommand(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{messageResponse: err.Error()})
		return
	}
	messages, err := h.service.ListMessages(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "MessageHandler.List", errors.HTTPStatus(err), err.Error(), err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(messages))
}

func (h *MessageHandler) Create(c *gin.Context) {
	var body createMessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{messageResponse: fmt.Sprintf("invalid body: %s", err)})
		return
	}
	cmd := chat.PostMessageCommand{
		Content:  body.Content,
		Sender:   body.Sender,
		Receiver: body.Receiver,
	}
	if body.Timestamp != nil {
		cmd.Timestamp = *body.Timestamp
	}
	message, err := h.service.PostMessage(c.Request.Context(), cmd)
	if err != nil {
		h.fail(c, "MessageHandler.Create", errors.HTTPStatus(err), err.Error(), err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) Delete(c *gin.Context) {
	err := h.service.DeleteMessage(c.Request.Context(), c.Param(messageIDParam))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{messageResponse: MsgDeleted})
	case stderrors.Is(err, errors.ErrMessageNotFound):
		c.JSON(http.StatusNotFound, gin.H{messageResponse: MsgNotFound})
	default:
		h.fail(c, "MessageHandler.Delete", http.StatusInternalServerError, err.Error(), err)
	}
}

// GetConversation answers every failure, an unknown participant included,
// with the same generic 500 body.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	messages, err := h.service.GetConversation(c.Request.Context(), c.Param(messageIDParam))
	if err != nil {
		h.fail(c, "MessageHandler.GetConversation", http.StatusInternalServerError, MsgServerError, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Search(c *gin.Context) {
	messages, err := h.service.SearchMessages(c.Request.Context(), c.Query(searchParam))
	if err != nil {
		h.fail(c, "MessageHandler.Search", errors.HTTPStatus(err), err.Error(), err)
		return
	}
	c.JSON(http.StatusOK, orEmpty(messages))
}

// fail writes the error body. Server errors are logged with the cause,
// which the GetConversation body hides from the client.
func (h *MessageHandler) fail(c *gin.Context, op string, status int, body string, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "op", op, "path", c.Request.URL.Path, "status", status, "error", err)
	}
	c.JSON(status, gin.H{messageResponse: body})
}

func listCommand(c *gin.Context) (chat.ListMessagesCommand, error) {
	var cmd chat.ListMessagesCommand
	if sender, ok := c.GetQuery(senderParam); ok {
		cmd.Sender = &sender
	}
	for param, target := range map[string]**time.Time{fromQueryParam: &cmd.From, toQueryParam: &cmd.To} {
		raw, ok := c.GetQuery(param)
		if !ok {
			continue
		}
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return chat.ListMessagesCommand{}, fmt.Errorf("invalid %s: expected RFC3339, got %q", param, raw)
		}
		*target = &at
	}
	return cmd, nil
}

func orEmpty(messages []chat.Message) []chat.Message {
	if messages == nil {
		return []chat.Message{}
	}
	return messages
}
