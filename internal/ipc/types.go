package ipc

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// LoopStatus mirrors the orchestrator's point-in-time view for IPC callers.
type LoopStatus struct {
	Auto          bool   `json:"auto"`
	HasScanned    bool   `json:"has_scanned"`
	Baseline      int    `json:"baseline"`
	BaselineSet   bool   `json:"baseline_set"`
	TurboCooldown int    `json:"turbo_cooldown"`
	ScanCooldown  int    `json:"scan_cooldown"`
	LastDecision  string `json:"last_decision"`
	LastError     string `json:"last_error"`
	DailyID       string `json:"daily_id"`
	CachedTasks   int    `json:"cached_tasks"`
	QueueDepth    int    `json:"queue_depth"`
}

// StatusResponse represents combined daemon and loop status information.
type StatusResponse struct {
	Running     bool       `json:"running"`
	Loop        LoopStatus `json:"loop"`
	StoreDBPath string     `json:"store_db_path"`
	LockPath    string     `json:"lock_path"`
	PID         int        `json:"pid"`
}

// StopRequest stops the daemon loop.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// ScanRequest queues a manual full extraction.
type ScanRequest struct{}

// ScanResponse reports whether the scan was queued.
type ScanResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// ExtractRequest queues a manual OCR preview. The result is written to the
// daemon log; nothing is reconciled into the store.
type ExtractRequest struct{}

// ExtractResponse reports whether the preview was queued.
type ExtractResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// TurboRequest queues a manual fast-path update.
type TurboRequest struct{}

// TurboResponse reports whether the update was queued.
type TurboResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// ToggleAutoRequest flips automatic triggering.
type ToggleAutoRequest struct{}

// ToggleAutoResponse carries the new auto-mode state.
type ToggleAutoResponse struct {
	Auto bool `json:"auto"`
}

// ResetLatchRequest clears the initial-scan latch and snapshot cache.
type ResetLatchRequest struct{}

// ResetLatchResponse acknowledges the reset.
type ResetLatchResponse struct {
	Reset bool `json:"reset"`
}

// TaskView is the wire form of a stored task.
type TaskView struct {
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	PlannedAt   string     `json:"planned_at,omitempty"`
	StartedAt   string     `json:"started_at,omitempty"`
	CompletedAt string     `json:"completed_at,omitempty"`
	Order       int        `json:"order"`
	ProjectRef  string     `json:"project_ref,omitempty"`
	Subtasks    []TaskView `json:"subtasks,omitempty"`
}

// TasksRequest fetches the task tree for a daily record. An empty DailyID
// means today.
type TasksRequest struct {
	DailyID string `json:"daily_id"`
}

// TasksResponse contains the stored task tree.
type TasksResponse struct {
	DailyID string     `json:"daily_id"`
	Tasks   []TaskView `json:"tasks"`
}

// DailiesRequest lists known daily record IDs.
type DailiesRequest struct{}

// DailiesResponse contains daily record IDs, newest first.
type DailiesResponse struct {
	DailyIDs []string `json:"daily_ids"`
}

// ProjectView is the wire form of a catalog project.
type ProjectView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ProjectsRequest lists the project catalog.
type ProjectsRequest struct{}

// ProjectsResponse contains the project catalog.
type ProjectsResponse struct {
	Projects []ProjectView `json:"projects"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
