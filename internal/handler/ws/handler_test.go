package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/harshal-star/fragrance-chatbot/internal/config"
	aiservice "github.com/harshal-star/fragrance-chatbot/internal/service/ai"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
)

type fixedModel struct {
	reply string
}

func (m *fixedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *fixedModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(m.reply, nil)}), nil
}

func (m *fixedModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func setupServer(t *testing.T, reply string) (*httptest.Server, *chatservice.Service) {
	t.Helper()

	chatSvc := chatservice.NewService(aiservice.StylistSystemPrompt)
	aiSvc, err := aiservice.NewServiceWithModel(context.Background(), &fixedModel{reply: reply}, config.AIConfig{})
	if err != nil {
		t.Fatalf("NewServiceWithModel err: %v", err)
	}

	handler := New(aiSvc, chatSvc)
	r := chi.NewRouter()
	handler.RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()

	var msg outgoingMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame err: %v", err)
	}
	return msg
}

func TestWebSocketChatTurn(t *testing.T) {
	srv, chatSvc := setupServer(t, "love that for you!!")

	session, _, _ := chatSvc.EnsureSession(context.Background(), "")
	conn := dial(t, srv, session.ID)

	if frame := readFrame(t, conn); frame.Type != "connected" {
		t.Fatalf("expected connected frame, got %q", frame.Type)
	}

	payload, _ := json.Marshal(ChatMessage{Text: "hi lila"})
	out := inboundMessage{Type: "chat", SessionID: session.ID, Data: payload}
	if err := conn.WriteJSON(out); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var reply outgoingMessage
	for {
		frame := readFrame(t, conn)
		if frame.Type == "message" {
			reply = frame
			break
		}
	}

	data, ok := reply.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected message data: %+v", reply.Data)
	}
	if data["text"] != "love that for you!!" {
		t.Fatalf("expected upstream reply, got %v", data["text"])
	}

	transcript, err := chatSvc.Transcript(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 3 {
		t.Fatalf("expected stored turn, got %d messages", len(transcript))
	}
}

func TestWebSocketPing(t *testing.T) {
	srv, chatSvc := setupServer(t, "hi")

	session, _, _ := chatSvc.EnsureSession(context.Background(), "")
	conn := dial(t, srv, session.ID)
	readFrame(t, conn) // connected

	if err := conn.WriteJSON(inboundMessage{Type: "ping"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if frame := readFrame(t, conn); frame.Type != "pong" {
		t.Fatalf("expected pong, got %q", frame.Type)
	}
}

func TestWebSocketRejectsUnknownSession(t *testing.T) {
	srv, _ := setupServer(t, "hi")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	if _, _, err := websocket.DefaultDialer.Dial(url, nil); err == nil {
		t.Fatal("expected handshake failure for unknown session")
	}
}

func TestWebSocketSessionMismatch(t *testing.T) {
	srv, chatSvc := setupServer(t, "hi")

	session, _, _ := chatSvc.EnsureSession(context.Background(), "")
	conn := dial(t, srv, session.ID)
	readFrame(t, conn) // connected

	payload, _ := json.Marshal(ChatMessage{Text: "hello"})
	if err := conn.WriteJSON(inboundMessage{Type: "chat", SessionID: "someone-else", Data: payload}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if frame := readFrame(t, conn); frame.Type != "error" {
		t.Fatalf("expected error frame, got %q", frame.Type)
	}
}
