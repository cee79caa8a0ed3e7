package profile

import (
	"regexp"
	"strings"
	"time"

	"github.com/harshal-star/fragrance-chatbot/internal/model/chat"
)

// scentFamilies are the fragrance vocabularies the stylist listens for.
var scentFamilies = []string{
	"floral", "woody", "citrus", "spicy", "fresh", "sweet", "earthy",
	"aquatic", "oriental", "fruity",
}

var traitBuckets = map[string][]string{
	"adventurous":   {"adventurous", "outgoing", "bold", "daring", "explorer"},
	"romantic":      {"romantic", "passionate", "loving", "sentimental"},
	"sophisticated": {"sophisticated", "elegant", "refined", "classy"},
	"minimalist":    {"minimalist", "simple", "clean", "understated"},
	"creative":      {"creative", "artistic", "imaginative", "innovative"},
}

var styleBuckets = map[string][]string{
	"casual":   {"casual", "everyday", "relaxed"},
	"formal":   {"formal", "professional", "business"},
	"bohemian": {"bohemian", "boho", "free-spirited"},
	"classic":  {"classic", "traditional", "timeless"},
	"modern":   {"modern", "contemporary", "trendy"},
}

var (
	namePattern  = regexp.MustCompile(`(?:my name is|i'm|i am|call me)\s+([a-zA-Z]+)`)
	scentPattern = regexp.MustCompile(`(?:smell|scent|fragrance|perfume|cologne)\s+(?:of|like|with)\s+([a-zA-Z\s]+)`)
)

// Extract scans a user message and folds any discovered details into the
// profile. Matching is case-insensitive substring search over fixed
// vocabularies; new values are appended in order of first mention.
func Extract(message string, p *chat.Profile) {
	lowered := strings.ToLower(message)

	if p.Name == "" {
		if m := namePattern.FindStringSubmatch(lowered); m != nil {
			p.Name = capitalize(m[1])
		}
	}

	for _, family := range scentFamilies {
		if strings.Contains(lowered, family) {
			p.Preferences = appendUnique(p.Preferences, family)
		}
	}

	for trait, indicators := range traitBuckets {
		if containsAny(lowered, indicators) {
			p.Traits = appendUnique(p.Traits, trait)
		}
	}

	for style, indicators := range styleBuckets {
		if containsAny(lowered, indicators) {
			p.Styles = appendUnique(p.Styles, style)
		}
	}

	for _, m := range scentPattern.FindAllStringSubmatch(lowered, -1) {
		if scent := strings.TrimSpace(m[1]); scent != "" {
			p.MentionedScents = appendUnique(p.MentionedScents, scent)
		}
	}
}

// idleReset is how long a session may sit untouched before the conversation
// starts over from the greeting.
const idleReset = 30 * time.Minute

// NextStage advances the conversation stage given the current profile and the
// time elapsed since the previous message.
func NextStage(current chat.Stage, p chat.Profile, idle time.Duration) chat.Stage {
	if idle > idleReset {
		current = chat.StageGreeting
	}

	switch current {
	case chat.StageGreeting:
		return chat.StageGettingToKnow
	case chat.StageGettingToKnow:
		if len(p.Preferences) >= 2 {
			return chat.StageExploring
		}
	case chat.StageExploring:
		if len(p.Preferences) >= 4 {
			return chat.StageRefining
		}
	}
	return current
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func appendUnique(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
