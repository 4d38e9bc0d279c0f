package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardwatch/internal/config"
	"cardwatch/internal/services"
	"cardwatch/internal/store"
	"cardwatch/internal/task"
)

func testImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, []byte("not-a-real-jpeg"), 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	return path
}

func geminiResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{
						map[string]any{"text": text},
					},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func testClient(serverURL string, attempts int) *Client {
	cfg := config.Vision{
		APIKey:        "test",
		BaseURL:       serverURL,
		Model:         "demo-model",
		RetryAttempts: attempts,
	}
	return NewClient(cfg, WithSleeper(func(time.Duration) {}))
}

func TestExtractTasksParsesTree(t *testing.T) {
	body := `{"tasks":[
		{"name":"Write brief","status":"IN_PROGRESS","subtasks":[{"name":"Outline","status":"COMPLETED"}]},
		{"name":"Standup","status":"MEETING","startedAt":"09:30"},
		{"name":"Pay invoices","status":"not started"}
	]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/demo-model:generateContent") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test" {
			t.Fatalf("missing api key header")
		}
		if err := json.NewEncoder(w).Encode(geminiResponse(body)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	day := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	tasks, err := testClient(server.URL, 1).ExtractTasks(context.Background(), Request{
		ImagePath: testImage(t),
		Day:       day,
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("ExtractTasks returned error: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(tasks))
	}
	if tasks[0].Status != task.StatusInProgress || len(tasks[0].Subtasks) != 1 {
		t.Fatalf("unexpected first task %+v", tasks[0])
	}
	if tasks[0].Subtasks[0].Status != task.StatusCompleted {
		t.Fatalf("unexpected subtask %+v", tasks[0].Subtasks[0])
	}
	if tasks[1].StartedAt == nil {
		t.Fatal("expected meeting start time")
	}
	want := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	if !tasks[1].StartedAt.Equal(want) {
		t.Fatalf("expected meeting at %v, got %v", want, tasks[1].StartedAt)
	}
	if tasks[2].Status != task.StatusNotStarted {
		t.Fatalf("expected lowercase status to normalize, got %v", tasks[2].Status)
	}
}

func TestExtractTasksCodeFence(t *testing.T) {
	body := "```json\n{\"tasks\":[{\"name\":\"Ship release\",\"status\":\"COMPLETED\"}]}\n```"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(geminiResponse(body)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	tasks, err := testClient(server.URL, 1).ExtractTasks(context.Background(), Request{
		ImagePath: testImage(t),
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("ExtractTasks returned error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Name != "Ship release" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestExtractTasksRetriesServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if err := json.NewEncoder(w).Encode(geminiResponse(`{"tasks":[{"name":"Retry me","status":"NOT_STARTED"}]}`)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	tasks, err := testClient(server.URL, 3).ExtractTasks(context.Background(), Request{
		ImagePath: testImage(t),
		Location:  time.UTC,
	})
	if err != nil {
		t.Fatalf("ExtractTasks returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
}

func TestExtractTasksUnauthorizedDoesNotRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := testClient(server.URL, 3).ExtractTasks(context.Background(), Request{
		ImagePath: testImage(t),
		Location:  time.UTC,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrCollaborator) {
		t.Fatalf("expected collaborator marker, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestExtractTasksParseFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewEncoder(w).Encode(geminiResponse("the sheet is blurry, no tasks visible")); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	_, err := testClient(server.URL, 1).ExtractTasks(context.Background(), Request{
		ImagePath: testImage(t),
		Location:  time.UTC,
	})
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse marker, got %v", err)
	}
}

func TestExtractTasksMissingAPIKey(t *testing.T) {
	client := NewClient(config.Vision{BaseURL: "http://127.0.0.1:1", Model: "demo"})
	_, err := client.ExtractTasks(context.Background(), Request{ImagePath: testImage(t)})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}

func TestBuildPromptIncludesProjects(t *testing.T) {
	prompt := BuildPrompt([]store.Project{
		{Name: "website", Description: "marketing site refresh"},
		{Name: "ops"},
	}, false)
	if !strings.Contains(prompt, "website: marketing site refresh") {
		t.Fatalf("expected project catalog in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "- ops") {
		t.Fatalf("expected bare project name in prompt, got %q", prompt)
	}
}

func TestBuildPromptTurboSkipsCatalog(t *testing.T) {
	prompt := BuildPrompt([]store.Project{{Name: "website"}}, true)
	if strings.Contains(prompt, "website") {
		t.Fatalf("turbo prompt should not carry the catalog, got %q", prompt)
	}
	if !strings.Contains(prompt, "task names") {
		t.Fatalf("unexpected turbo prompt %q", prompt)
	}
}
