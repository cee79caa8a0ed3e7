package ai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"github.com/harshal-star/fragrance-chatbot/internal/config"
	"github.com/harshal-star/fragrance-chatbot/internal/model/chat"
)

// Service forwards conversations to the upstream completion API through a
// compiled prompt chain.
type Service struct {
	chatModel model.ChatModel
	cfg       config.AIConfig
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService builds the chat model from the configuration and compiles the
// stylist chain around it.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg)
}

// NewServiceWithModel compiles the stylist chain around an existing chat
// model. Used directly by tests.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile stylist chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		cfg:       cfg,
		chain:     runnable,
	}, nil
}

// StreamingEnabled reports whether SSE / WebSocket delta output is on.
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// Reply sends the full conversation upstream and returns the model's answer
// verbatim. transcript is the stored session history including the leading
// system message; userMessage is the turn being answered.
func (s *Service) Reply(ctx context.Context, session chat.Session, transcript []chat.Message, userMessage string) (string, error) {
	input := s.buildChainInput(session, transcript, userMessage)

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run stylist chain: %w", err)
	}

	log.Debug().
		Str("session", session.ID).
		Str("stage", string(session.Stage)).
		Int("length", len(response.Content)).
		Msg("generated stylist reply")
	return response.Content, nil
}

// StreamReply streams the model's answer chunk by chunk.
func (s *Service) StreamReply(ctx context.Context, session chat.Session, transcript []chat.Message, userMessage string) (*schema.StreamReader[*schema.Message], error) {
	if !s.StreamingEnabled() {
		return nil, fmt.Errorf("streaming disabled in configuration")
	}

	input := s.buildChainInput(session, transcript, userMessage)

	stream, err := s.chain.Stream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to stream stylist chain output: %w", err)
	}
	return stream, nil
}

func (s *Service) buildChainInput(session chat.Session, transcript []chat.Message, userMessage string) map[string]any {
	return map[string]any{
		"system":  buildSystemPrompt(session),
		"history": buildHistoryMessages(transcript, userMessage),
		"query":   userMessage,
	}
}

// buildHistoryMessages converts the stored transcript into model messages.
// The leading system message is carried by the template's {system} slot, and
// a trailing copy of the current user turn is dropped because the template
// appends {query} itself.
func buildHistoryMessages(transcript []chat.Message, userMessage string) []*schema.Message {
	if len(transcript) > 0 {
		last := transcript[len(transcript)-1]
		if last.Role == chat.RoleUser && last.Content == userMessage {
			transcript = transcript[:len(transcript)-1]
		}
	}

	history := make([]*schema.Message, 0, len(transcript))
	for _, msg := range transcript {
		switch msg.Role {
		case chat.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
