package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/harshal-star/fragrance-chatbot/internal/model/chat"
	aiservice "github.com/harshal-star/fragrance-chatbot/internal/service/ai"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
	"github.com/harshal-star/fragrance-chatbot/pkg/utils"
)

// Handler streams stylist replies via Server-Sent Events.
type Handler struct {
	aiSvc   *aiservice.Service
	chatSvc *chatservice.Service
}

// New creates the stream handler.
func New(aiSvc *aiservice.Service, chatSvc *chatservice.Service) *Handler {
	return &Handler{
		aiSvc:   aiSvc,
		chatSvc: chatSvc,
	}
}

// StreamResponse is one SSE frame.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one conversation turn over SSE: the user message
// is recorded, deltas are flushed as the model produces them, and the final
// reply is stored like a regular /chat turn.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	session, err := h.chatSvc.GetSession(ctx, sessionID)
	if err != nil {
		h.sendError(w, flusher, fmt.Sprintf("session not found: %v", err))
		return err
	}

	session, err = h.chatSvc.RecordUserMessage(ctx, session.ID, userMessage)
	if err != nil {
		h.sendError(w, flusher, fmt.Sprintf("failed to record message: %v", err))
		return err
	}

	transcript, err := h.chatSvc.Transcript(ctx, session.ID)
	if err != nil {
		h.sendError(w, flusher, fmt.Sprintf("failed to load conversation: %v", err))
		return err
	}

	h.send(w, flusher, StreamResponse{Event: "start", SessionID: session.ID})

	reply, err := h.dispatchReply(ctx, w, flusher, session, transcript, userMessage)
	if err != nil {
		h.sendError(w, flusher, fmt.Sprintf("reply generation failed: %v", err))
		return err
	}

	if err := h.chatSvc.RecordAssistantMessage(ctx, session.ID, reply); err != nil {
		log.Error().Err(err).Str("session", session.ID).Msg("failed to record assistant message")
	}

	h.send(w, flusher, StreamResponse{Event: "end", SessionID: session.ID, Finished: true})

	log.Info().Str("session", session.ID).Msg("completed streamed reply")
	return nil
}

// dispatchReply streams deltas when streaming is configured, otherwise sends
// the whole reply as one message frame.
func (h *Handler) dispatchReply(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, session chat.Session, transcript []chat.Message, userMessage string) (string, error) {
	if !h.aiSvc.StreamingEnabled() {
		reply, err := h.aiSvc.Reply(ctx, session, transcript, userMessage)
		if err != nil {
			return "", err
		}
		h.send(w, flusher, StreamResponse{Event: "message", SessionID: session.ID, Content: reply})
		return reply, nil
	}

	stream, err := h.aiSvc.StreamReply(ctx, session, transcript, userMessage)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
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
			h.send(w, flusher, StreamResponse{Event: "delta", SessionID: session.ID, Content: chunk.Content})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", err
	}

	h.send(w, flusher, StreamResponse{Event: "message", SessionID: session.ID, Content: response.Content})
	return response.Content, nil
}

func (h *Handler) send(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.send(w, flusher, StreamResponse{Event: "error", Error: errorMsg})
}
