package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	chatmodel "github.com/harshal-star/fragrance-chatbot/internal/model/chat"
	aiservice "github.com/harshal-star/fragrance-chatbot/internal/service/ai"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
)

const readDeadline = 60 * time.Second

// Handler serves the bidirectional chat transport. Each connection is bound
// to one session; inbound frames carry user turns, outbound frames carry
// stylist deltas and replies.
type Handler struct {
	aiSvc    *aiservice.Service
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(aiSvc *aiservice.Service, chatSvc *chatservice.Service) *Handler {
	return &Handler{
		aiSvc:   aiSvc,
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

// ChatMessage is the payload of a "chat" frame.
type ChatMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("session", sessionID).Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.send(conn, sessionID, "connected", nil)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Error().Err(err).Str("session", sessionID).Msg("websocket read error")
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(readDeadline))

			if msg.SessionID != "" && msg.SessionID != sessionID {
				h.sendError(conn, "session mismatch")
				continue
			}

			h.handleMessage(ctx, conn, sessionID, &msg)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "chat":
		h.handleChatMessage(ctx, conn, sessionID, msg.Data)
	case "ping":
		h.send(conn, sessionID, "pong", nil)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) handleChatMessage(ctx context.Context, conn *websocket.Conn, sessionID string, raw json.RawMessage) {
	var payload ChatMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(conn, "invalid chat payload")
		return
	}
	if payload.Text == "" {
		return
	}

	if err := h.runTurn(ctx, conn, sessionID, payload.Text); err != nil {
		h.sendError(conn, err.Error())
	}
}

// runTurn records the user message, forwards the conversation upstream and
// pushes the reply back over the connection.
func (h *Handler) runTurn(ctx context.Context, conn *websocket.Conn, sessionID, userText string) error {
	session, err := h.chatSvc.RecordUserMessage(ctx, sessionID, userText)
	if err != nil {
		return fmt.Errorf("record user message failed: %w", err)
	}

	transcript, err := h.chatSvc.Transcript(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load transcript failed: %w", err)
	}

	var reply string
	if h.aiSvc.StreamingEnabled() {
		reply, err = h.streamReply(ctx, conn, session, transcript, userText)
	} else {
		reply, err = h.aiSvc.Reply(ctx, session, transcript, userText)
	}
	if err != nil {
		return fmt.Errorf("reply generation failed: %w", err)
	}

	if err := h.chatSvc.RecordAssistantMessage(ctx, sessionID, reply); err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("failed to record assistant message")
	}

	h.send(conn, sessionID, "message", map[string]any{"text": reply, "stage": session.Stage})
	return nil
}

func (h *Handler) streamReply(ctx context.Context, conn *websocket.Conn, session chatmodel.Session, transcript []chatmodel.Message, userText string) (string, error) {
	stream, err := h.aiSvc.StreamReply(ctx, session, transcript, userText)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var chunks []*schema.Message
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", recvErr
		}
		if chunk == nil {
			continue
		}
		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(conn, session.ID, "delta", map[string]string{"text": chunk.Content})
		}
	}

	merged, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}
	return merged.Content, nil
}

func (h *Handler) send(conn *websocket.Conn, sessionID, msgType string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Error().Err(err).Msg("websocket write failed")
	}
}

func (h *Handler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Error().Err(err).Msg("websocket write failed")
	}
}

func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
