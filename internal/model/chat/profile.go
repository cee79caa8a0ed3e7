package chat

// Stage tracks how far the stylist conversation has progressed.
type Stage string

const (
	StageGreeting      Stage = "greeting"
	StageGettingToKnow Stage = "getting_to_know"
	StageExploring     Stage = "exploring_preferences"
	StageRefining      Stage = "refining_selection"
)

// Profile accumulates what the stylist has learned about the user across the
// conversation. Slices are de-duplicated and ordered by first mention.
type Profile struct {
	Name            string   `json:"name,omitempty"`
	Preferences     []string `json:"preferences,omitempty"`
	Traits          []string `json:"traits,omitempty"`
	Styles          []string `json:"styles,omitempty"`
	MentionedScents []string `json:"mentionedScents,omitempty"`
}
