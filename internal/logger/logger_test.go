package logger

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/harshal-star/fragrance-chatbot/internal/config"
)

func TestSetupParsesLevel(t *testing.T) {
	logger := Setup(config.LogConfig{Level: "debug"})
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}
}

func TestSetupUnknownLevelFallsBack(t *testing.T) {
	logger := Setup(config.LogConfig{Level: "chatty"})
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}
}
