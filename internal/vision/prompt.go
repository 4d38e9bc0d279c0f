package vision

import (
	"strings"

	"cardwatch/internal/store"
)

const promptHeader = `You are reading a photo of a handwritten daily task sheet.
Each line is a task. A symbol in the left margin marks its status:
an empty square means NOT_STARTED, a half-filled square means IN_PROGRESS,
a fully filled square means COMPLETED, and a circle means MEETING.
Indented lines are subtasks of the line above them. Subtasks nest one
level only.

Return JSON shaped exactly like:
{"tasks":[{"name":"...","status":"NOT_STARTED","startedAt":"","projectRef":"","subtasks":[]}]}

Rules:
- Keep tasks in top-to-bottom sheet order.
- Transcribe names as written, without correcting spelling.
- For MEETING tasks, set startedAt to the meeting time if one is written
  on the line, formatted as HH:MM in 24-hour time. Otherwise leave it empty.
- Leave projectRef empty unless the task clearly belongs to one of the
  projects listed below.`

const turboHeader = `You are reading a photo of a handwritten daily task sheet.
List only the task names in top-to-bottom order, skipping indented subtasks.

Return JSON shaped exactly like:
{"tasks":[{"name":"..."}]}

Transcribe names as written, without correcting spelling.`

// BuildPrompt renders the extraction prompt. Turbo mode asks only for names
// in order, which is enough to detect wording drift without a full pass.
func BuildPrompt(projects []store.Project, turbo bool) string {
	var b strings.Builder
	if turbo {
		b.WriteString(turboHeader)
		return b.String()
	}
	b.WriteString(promptHeader)
	if len(projects) > 0 {
		b.WriteString("\n\nKnown projects:\n")
		for _, project := range projects {
			b.WriteString("- ")
			b.WriteString(project.Name)
			if desc := strings.TrimSpace(project.Description); desc != "" {
				b.WriteString(": ")
				b.WriteString(desc)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
