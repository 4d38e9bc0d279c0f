package vision

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"cardwatch/internal/services"
	"cardwatch/internal/task"
)

type payloadTask struct {
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	StartedAt  string        `json:"startedAt"`
	ProjectRef string        `json:"projectRef"`
	Subtasks   []payloadTask `json:"subtasks"`
}

type extractionPayload struct {
	Tasks []payloadTask `json:"tasks"`
}

// ParseTasks decodes a model response into the task tree. Model output is
// frequently wrapped in code fences or prose, so it falls back to extracting
// the first JSON object or array before giving up. Clock-only startedAt
// values are anchored to day.
func ParseTasks(raw string, day time.Time, loc *time.Location) ([]task.Task, error) {
	if loc == nil {
		loc = time.Local
	}
	if day.IsZero() {
		day = time.Now().In(loc)
	}
	var payload extractionPayload
	if err := DecodeVisionJSON(raw, &payload); err != nil {
		// Some responses return the bare array instead of the wrapper.
		var bare []payloadTask
		if arrErr := DecodeVisionJSON(raw, &bare); arrErr != nil {
			return nil, err
		}
		payload.Tasks = bare
	}

	tasks := make([]task.Task, 0, len(payload.Tasks))
	for _, entry := range payload.Tasks {
		converted, ok := convertTask(entry, day, loc)
		if !ok {
			continue
		}
		tasks = append(tasks, converted)
	}
	return tasks, nil
}

func convertTask(raw payloadTask, day time.Time, loc *time.Location) (task.Task, bool) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return task.Task{}, false
	}
	status, err := task.ParseStatus(normalizeStatus(raw.Status))
	if err != nil {
		status = task.StatusNotStarted
	}
	converted := task.Task{
		Name:       name,
		Status:     status,
		ProjectRef: strings.TrimSpace(raw.ProjectRef),
	}
	if when, ok := task.CoerceTime(raw.StartedAt, loc); ok {
		converted.StartedAt = &when
	} else if when, ok := task.ParseClock(raw.StartedAt, day, loc); ok {
		converted.StartedAt = &when
	}
	for _, sub := range raw.Subtasks {
		child, ok := convertTask(sub, day, loc)
		if !ok {
			continue
		}
		// The sheet nests one level only.
		child.Subtasks = nil
		converted.Subtasks = append(converted.Subtasks, child)
	}
	return converted, true
}

func normalizeStatus(value string) string {
	value = strings.ToUpper(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "_")
	value = strings.ReplaceAll(value, "-", "_")
	return value
}

// DecodeVisionJSON unmarshals model output into target, tolerating code
// fences and surrounding prose. The returned error carries the parse marker.
func DecodeVisionJSON(raw string, target any) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return services.Wrap(services.ErrParse, "decode payload", "empty response", "", nil)
	}
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}
	sanitized, ok := sanitizeJSONPayload(trimmed)
	if !ok {
		return services.Wrap(services.ErrParse, "decode payload", "no json found", summarizePayload(trimmed), nil)
	}
	if err := json.Unmarshal([]byte(sanitized), target); err != nil {
		return services.Wrap(services.ErrParse, "decode payload", summarizePayload(sanitized), "", err)
	}
	return nil
}

func sanitizeJSONPayload(raw string) (string, bool) {
	if fenced, ok := stripCodeFence(raw); ok {
		raw = fenced
	}
	if candidate, ok := extractJSONSpan(raw, '{', '}'); ok {
		return candidate, true
	}
	if candidate, ok := extractJSONSpan(raw, '[', ']'); ok {
		return candidate, true
	}
	return "", false
}

func stripCodeFence(raw string) (string, bool) {
	start := strings.Index(raw, "```")
	if start < 0 {
		return "", false
	}
	rest := raw[start+3:]
	if newline := strings.IndexByte(rest, '\n'); newline >= 0 {
		rest = rest[newline+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

func extractJSONSpan(raw string, opener, closer byte) (string, bool) {
	start := strings.IndexByte(raw, opener)
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(raw, closer)
	if end <= start {
		return "", false
	}
	return strings.TrimSpace(raw[start : end+1]), true
}

func summarizePayload(raw string) string {
	const limit = 160
	collapsed := strings.Join(strings.Fields(raw), " ")
	if utf8.RuneCountInString(collapsed) <= limit {
		return collapsed
	}
	runes := []rune(collapsed)
	return string(runes[:limit]) + "..."
}
