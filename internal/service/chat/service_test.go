package chat_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/harshal-star/fragrance-chatbot/internal/model/chat"
	chatservice "github.com/harshal-star/fragrance-chatbot/internal/service/chat"
)

const testPrompt = "You are Lila, a fragrance stylist."

func TestEnsureSessionSeedsSystemPrompt(t *testing.T) {
	svc := chatservice.NewService(testPrompt)
	ctx := context.Background()

	session, created, err := svc.EnsureSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("EnsureSession err: %v", err)
	}
	if !created {
		t.Fatal("expected session to be created")
	}
	if session.Stage != chat.StageGreeting {
		t.Fatalf("expected greeting stage, got %s", session.Stage)
	}

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 1 {
		t.Fatalf("expected transcript of 1, got %d", len(transcript))
	}
	if transcript[0].Role != chat.RoleSystem || transcript[0].Content != testPrompt {
		t.Fatalf("first message must be the system prompt, got %+v", transcript[0])
	}
}

func TestEnsureSessionGeneratesID(t *testing.T) {
	svc := chatservice.NewService(testPrompt)

	session, created, err := svc.EnsureSession(context.Background(), "")
	if err != nil {
		t.Fatalf("EnsureSession err: %v", err)
	}
	if !created || session.ID == "" {
		t.Fatalf("expected generated session id, got %q", session.ID)
	}
}

func TestEnsureSessionIdempotent(t *testing.T) {
	svc := chatservice.NewService(testPrompt)
	ctx := context.Background()

	first, _, _ := svc.EnsureSession(ctx, "session-1")
	second, created, err := svc.EnsureSession(ctx, "session-1")
	if err != nil {
		t.Fatalf("EnsureSession err: %v", err)
	}
	if created {
		t.Fatal("second call must not create a new session")
	}
	if second.ID != first.ID {
		t.Fatalf("expected same session, got %s and %s", first.ID, second.ID)
	}
}

func TestTranscriptLengthAfterTurns(t *testing.T) {
	svc := chatservice.NewService(testPrompt)
	ctx := context.Background()

	session, _, _ := svc.EnsureSession(ctx, "session-1")

	const turns = 3
	for i := 0; i < turns; i++ {
		if _, err := svc.RecordUserMessage(ctx, session.ID, fmt.Sprintf("message %d", i)); err != nil {
			t.Fatalf("RecordUserMessage err: %v", err)
		}
		if err := svc.RecordAssistantMessage(ctx, session.ID, fmt.Sprintf("reply %d", i)); err != nil {
			t.Fatalf("RecordAssistantMessage err: %v", err)
		}
	}

	transcript, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 2*turns+1 {
		t.Fatalf("expected %d messages, got %d", 2*turns+1, len(transcript))
	}

	for i, msg := range transcript {
		var wantRole string
		switch {
		case i == 0:
			wantRole = chat.RoleSystem
		case i%2 == 1:
			wantRole = chat.RoleUser
		default:
			wantRole = chat.RoleAssistant
		}
		if msg.Role != wantRole {
			t.Fatalf("message %d: expected role %s, got %s", i, wantRole, msg.Role)
		}
		if i > 0 && msg.CreatedAt.Before(transcript[i-1].CreatedAt) {
			t.Fatalf("message %d out of chronological order", i)
		}
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := chatservice.NewService(testPrompt)
	ctx := context.Background()

	a, _, _ := svc.EnsureSession(ctx, "session-a")
	b, _, _ := svc.EnsureSession(ctx, "session-b")

	if _, err := svc.RecordUserMessage(ctx, a.ID, "only for a"); err != nil {
		t.Fatalf("RecordUserMessage err: %v", err)
	}

	transcriptB, err := svc.Transcript(ctx, b.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcriptB) != 1 {
		t.Fatalf("session b must not see session a's messages, got %d entries", len(transcriptB))
	}
	for _, msg := range transcriptB {
		if msg.SessionID != b.ID {
			t.Fatalf("foreign message leaked into session b: %+v", msg)
		}
	}
}

func TestRecordUserMessageUpdatesProfileAndStage(t *testing.T) {
	svc := chatservice.NewService(testPrompt)
	ctx := context.Background()

	session, _, _ := svc.EnsureSession(ctx, "session-1")

	session, err := svc.RecordUserMessage(ctx, session.ID, "my name is Maya, I love woody scents")
	if err != nil {
		t.Fatalf("RecordUserMessage err: %v", err)
	}
	if session.Profile.Name != "Maya" {
		t.Fatalf("expected profile name Maya, got %q", session.Profile.Name)
	}
	if session.Stage != chat.StageGettingToKnow {
		t.Fatalf("expected getting_to_know after first message, got %s", session.Stage)
	}

	session, err = svc.RecordUserMessage(ctx, session.ID, "also citrus and fresh ones")
	if err != nil {
		t.Fatalf("RecordUserMessage err: %v", err)
	}
	if session.Stage != chat.StageExploring {
		t.Fatalf("expected exploring_preferences, got %s", session.Stage)
	}
	if len(session.Profile.Preferences) != 3 {
		t.Fatalf("expected 3 preferences, got %v", session.Profile.Preferences)
	}
}

func TestRecordUserMessageUnknownSession(t *testing.T) {
	svc := chatservice.NewService(testPrompt)

	if _, err := svc.RecordUserMessage(context.Background(), "missing", "hello"); err != chatservice.ErrSessionNotFound {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRecordUserMessageEmptyContent(t *testing.T) {
	svc := chatservice.NewService(testPrompt)
	ctx := context.Background()

	session, _, _ := svc.EnsureSession(ctx, "session-1")
	if _, err := svc.RecordUserMessage(ctx, session.ID, ""); err != chatservice.ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}
