// Package models contains the data types shared by the session, exporter and TUI.
package models

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// WelcomeText is the fixed greeting surfaced as the first turn of an empty session
const WelcomeText = "👋 Hello! I'm your AI assistant. How can I help you today?"

// Turn represents one unit of conversation
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// IsWelcome marks the single synthetic greeting turn
	IsWelcome bool `json:"is_welcome,omitempty"`
	// IsFile marks content derived from an uploaded document
	IsFile bool `json:"is_file,omitempty"`
}

// UserTurn creates a turn authored by the user
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn creates a turn authored by the assistant
func AssistantTurn(content string, isFile bool) Turn {
	return Turn{Role: RoleAssistant, Content: content, IsFile: isFile}
}

// WelcomeTurn returns the greeting turn
func WelcomeTurn() Turn {
	return Turn{Role: RoleAssistant, Content: WelcomeText, IsWelcome: true}
}

// IsUser reports whether the turn was authored by the user
func (t Turn) IsUser() bool {
	return t.Role == RoleUser
}
