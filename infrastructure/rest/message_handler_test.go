package rest

import (
	"bytes"
	"chat-store/domain/chat"
	"chat-store/errors"
	"chat-store/mocks"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestRouter(t *testing.T) (*gin.Engine, *mocks.MockIChatService) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	service := mocks.NewMockIChatService(ctrl)
	return NewRouter(slog.Default(), service, Config{RequestTimeout: time.Second}), service
}

func performRequest(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["message"]
}

func TestMessageHandler_List(t *testing.T) {
	at := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	messages := []chat.Message{{ID: "m1", Content: "hi", Sender: "A", Receiver: "B", Timestamp: at}}

	t.Run("should return every message", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().ListMessages(gomock.Any(), chat.ListMessagesCommand{}).Return(messages, nil).Times(1)

		w := performRequest(r, http.MethodGet, "/chats", nil)

		req.Equal(http.StatusOK, w.Code)
		var listed []chat.Message
		req.NoError(json.Unmarshal(w.Body.Bytes(), &listed))
		req.Equal(messages, listed)
	})

	t.Run("should answer an empty array rather than null", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().ListMessages(gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)

		w := performRequest(r, http.MethodGet, "/chats", nil)

		req.Equal(http.StatusOK, w.Code)
		req.JSONEq(`[]`, w.Body.String())
	})

	t.Run("should forward filters", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)
		expected := chat.ListMessagesCommand{
			Sender: lo.ToPtr("A"),
			From:   lo.ToPtr(at),
			To:     lo.ToPtr(at.Add(time.Hour)),
		}

		service.EXPECT().ListMessages(gomock.Any(), expected).Return(messages, nil).Times(1)

		w := performRequest(r, http.MethodGet,
			"/chats?sender=A&from=2024-03-01T10:00:00Z&to=2024-03-01T11:00:00Z", nil)

		req.Equal(http.StatusOK, w.Code)
	})

	t.Run("should reject a malformed bound", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().ListMessages(gomock.Any(), gomock.Any()).Times(0)

		w := performRequest(r, http.MethodGet, "/chats?from=yesterday", nil)

		req.Equal(http.StatusBadRequest, w.Code)
		req.Contains(decodeMessage(t, w), "from")
	})

	t.Run("should expose store failures as 500", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().ListMessages(gomock.Any(), gomock.Any()).Return(nil, stderrors.New("connection refused")).Times(1)

		w := performRequest(r, http.MethodGet, "/chats", nil)

		req.Equal(http.StatusInternalServerError, w.Code)
		req.Equal("connection refused", decodeMessage(t, w))
	})
}

func TestMessageHandler_Create(t *testing.T) {
	t.Run("should create and answer 201", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)
		created := chat.Message{ID: "m1", Content: "hi", Sender: "A", Receiver: "B", Timestamp: time.Now().UTC().Truncate(time.Millisecond)}

		service.EXPECT().
			PostMessage(gomock.Any(), chat.PostMessageCommand{Content: "hi", Sender: "A", Receiver: "B"}).
			Return(created, nil).Times(1)

		w := performRequest(r, http.MethodPost, "/chats", map[string]string{"content": "hi", "sender": "A", "receiver": "B"})

		req.Equal(http.StatusCreated, w.Code)
		var message chat.Message
		req.NoError(json.Unmarshal(w.Body.Bytes(), &message))
		req.Equal("m1", message.ID)
		req.True(created.Timestamp.Equal(message.Timestamp))
	})

	t.Run("should map validation failures to 400", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)
		validationErr := fmt.Errorf("%w: content is required", errors.ErrValidation)

		service.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Return(chat.Message{}, validationErr).Times(1)

		w := performRequest(r, http.MethodPost, "/chats", map[string]string{"sender": "A", "receiver": "B"})

		req.Equal(http.StatusBadRequest, w.Code)
		req.Equal(validationErr.Error(), decodeMessage(t, w))
	})

	t.Run("should reject malformed JSON", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Times(0)

		w := performRequest(r, http.MethodPost, "/chats", `{"content":`)

		req.Equal(http.StatusBadRequest, w.Code)
	})

	t.Run("should expose store failures as 500", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Return(chat.Message{}, stderrors.New("disk full")).Times(1)

		w := performRequest(r, http.MethodPost, "/chats", map[string]string{"content": "hi", "sender": "A", "receiver": "B"})

		req.Equal(http.StatusInternalServerError, w.Code)
		req.Equal("disk full", decodeMessage(t, w))
	})
}

func TestMessageHandler_Delete(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"deleted", nil, http.StatusOK, MsgDeleted},
		{"unknown id", fmt.Errorf("%w: m1", errors.ErrMessageNotFound), http.StatusNotFound, MsgNotFound},
		{"store failure", stderrors.New("disk full"), http.StatusInternalServerError, "disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			r, service := newTestRouter(t)

			service.EXPECT().DeleteMessage(gomock.Any(), "m1").Return(tt.err).Times(1)

			w := performRequest(r, http.MethodDelete, "/chats/m1", nil)

			req.Equal(tt.code, w.Code)
			req.Equal(tt.message, decodeMessage(t, w))
		})
	}
}

func TestMessageHandler_GetConversation(t *testing.T) {
	t.Run("should return the participant's messages", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)
		messages := []chat.Message{{ID: "m1", Sender: "A", Receiver: "B"}}

		service.EXPECT().GetConversation(gomock.Any(), "B").Return(messages, nil).Times(1)

		w := performRequest(r, http.MethodGet, "/chats/B", nil)

		req.Equal(http.StatusOK, w.Code)
		var listed []chat.Message
		req.NoError(json.Unmarshal(w.Body.Bytes(), &listed))
		req.Equal(messages, listed)
	})

	for _, err := range []error{errors.ErrConversationNotFound, stderrors.New("connection refused")} {
		t.Run("should hide "+err.Error(), func(t *testing.T) {
			req := require.New(t)
			r, service := newTestRouter(t)

			service.EXPECT().GetConversation(gomock.Any(), "Z").Return(nil, err).Times(1)

			w := performRequest(r, http.MethodGet, "/chats/Z", nil)

			req.Equal(http.StatusInternalServerError, w.Code)
			req.Equal(MsgServerError, decodeMessage(t, w))
		})
	}
}

func TestMessageHandler_Search(t *testing.T) {
	t.Run("should return hits", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)
		hits := []chat.Message{{ID: "m1", Content: "gateway down"}}

		service.EXPECT().SearchMessages(gomock.Any(), "gateway").Return(hits, nil).Times(1)

		w := performRequest(r, http.MethodGet, "/search/chats?q=gateway", nil)

		req.Equal(http.StatusOK, w.Code)
		var found []chat.Message
		req.NoError(json.Unmarshal(w.Body.Bytes(), &found))
		req.Equal(hits, found)
	})

	t.Run("should reject an empty query", func(t *testing.T) {
		req := require.New(t)
		r, service := newTestRouter(t)

		service.EXPECT().SearchMessages(gomock.Any(), "").Return(nil, errors.ErrEmptySearchQuery).Times(1)

		w := performRequest(r, http.MethodGet, "/search/chats", nil)

		req.Equal(http.StatusBadRequest, w.Code)
	})
}

func TestHealth(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRouter(t)

	w := performRequest(r, http.MethodGet, "/health", nil)

	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"status":"ok"}`, w.Body.String())
}

func TestMessageHandler_Logs_Server_Errors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("should log the cause hidden behind the generic body", func(t *testing.T) {
		req := require.New(t)
		var logs bytes.Buffer
		service := mocks.NewMockIChatService(gomock.NewController(t))
		r := NewRouter(slog.New(slog.NewJSONHandler(&logs, nil)), service, Config{})

		service.EXPECT().GetConversation(gomock.Any(), "B").Return(nil, stderrors.New("connection refused")).Times(1)

		w := performRequest(r, http.MethodGet, "/chats/B", nil)

		req.Equal(MsgServerError, decodeMessage(t, w))
		line := findLogLine(logs.String(), "Request failed")
		req.Contains(line, `"op":"MessageHandler.GetConversation"`)
		req.Contains(line, "connection refused")
	})

	t.Run("should not log client errors", func(t *testing.T) {
		req := require.New(t)
		var logs bytes.Buffer
		service := mocks.NewMockIChatService(gomock.NewController(t))
		r := NewRouter(slog.New(slog.NewJSONHandler(&logs, nil)), service, Config{})

		service.EXPECT().PostMessage(gomock.Any(), gomock.Any()).Return(chat.Message{}, errors.ErrValidation).Times(1)

		performRequest(r, http.MethodPost, "/chats", map[string]string{"sender": "A"})

		req.Empty(findLogLine(logs.String(), "Request failed"))
	})
}

func findLogLine(logs, msg string) string {
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, `"msg":"`+msg+`"`) {
			return line
		}
	}
	return ""
}
