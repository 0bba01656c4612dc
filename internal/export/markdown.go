package export

import (
	"strings"

	"github.com/diogo/iqrachat/internal/models"
)

// Markdown formats turns as a markdown transcript
func Markdown(turns []models.Turn) string {
	var sb strings.Builder

	sb.WriteString("# ")
	sb.WriteString(DefaultTitle)
	sb.WriteString("\n\n")

	for i, turn := range turns {
		role := "You"
		if turn.Role == models.RoleAssistant {
			role = "AI"
		}

		sb.WriteString("## ")
		sb.WriteString(role)
		sb.WriteString("\n\n")
		sb.WriteString(turn.Content)
		sb.WriteString("\n")

		if i < len(turns)-1 {
			sb.WriteString("\n---\n\n")
		}
	}

	return sb.String()
}
