package test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// ChatRequest 模拟服务器收到的聊天请求
type ChatRequest struct {
	Model     string
	System    string
	User      string
	MaxTokens int
}

// MockChatServer 模拟的 OpenAI 兼容聊天接口，同时服务 /chat/completions 与 /models
type MockChatServer struct {
	Server *httptest.Server
	URL    string

	mu         sync.Mutex
	reply      func(req ChatRequest) string
	failStatus int
	failMsg    string
	requests   []ChatRequest
}

// NewMockChatServer 创建模拟服务器，reply 根据请求生成回复内容
func NewMockChatServer(t *testing.T, reply func(req ChatRequest) string) *MockChatServer {
	mock := &MockChatServer{reply: reply}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/models") {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"object": "list",
				"data": []map[string]interface{}{
					{"id": "mock-model", "object": "model", "created": time.Now().Unix(), "owned_by": "test"},
				},
			})
			return
		}

		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string          `json:"role"`
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "无法解析请求体", "type": "invalid_request_error"}}`))
			return
		}

		req := ChatRequest{Model: body.Model, MaxTokens: body.MaxTokens}
		for _, msg := range body.Messages {
			switch msg.Role {
			case "system":
				req.System = messageText(msg.Content)
			case "user":
				req.User = messageText(msg.Content)
			}
		}

		mock.mu.Lock()
		mock.requests = append(mock.requests, req)
		failStatus, failMsg, replyFn := mock.failStatus, mock.failMsg, mock.reply
		mock.mu.Unlock()

		if failStatus != 0 {
			w.WriteHeader(failStatus)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"message": failMsg, "type": "invalid_request_error"},
			})
			return
		}

		content := "ok"
		if replyFn != nil {
			content = replyFn(req)
		}

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   body.Model,
			"choices": []map[string]interface{}{
				{
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
					"index":         0,
				},
			},
			"usage": map[string]interface{}{
				"prompt_tokens":     100,
				"completion_tokens": 50,
				"total_tokens":      150,
			},
		})
	}))

	mock.Server = server
	mock.URL = server.URL

	t.Cleanup(func() {
		server.Close()
	})

	return mock
}

// FailWith 之后的聊天请求都返回指定状态码
func (m *MockChatServer) FailWith(status int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
	m.failMsg = message
}

// Requests 返回收到的聊天请求
func (m *MockChatServer) Requests() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatRequest(nil), m.requests...)
}

// messageText content 可能是字符串，也可能是内容片段数组
func messageText(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if json.Unmarshal(raw, &parts) == nil {
		var b strings.Builder
		for _, p := range parts {
			b.WriteString(p.Text)
		}
		return b.String()
	}
	return ""
}
