package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"cardwatch/internal/daemon"
	"cardwatch/internal/logging"
	"cardwatch/internal/task"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Cardwatch", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun cardwatch stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.StoreDBPath = status.StoreDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	resp.Loop = LoopStatus{
		Auto:          status.Loop.Auto,
		HasScanned:    status.Loop.HasScanned,
		Baseline:      status.Loop.Baseline,
		BaselineSet:   status.Loop.BaselineSet,
		TurboCooldown: status.Loop.TurboCooldown,
		ScanCooldown:  status.Loop.ScanCooldown,
		LastDecision:  status.Loop.LastDecision,
		LastError:     status.Loop.LastError,
		DailyID:       status.Loop.DailyID,
		CachedTasks:   status.Loop.CachedTasks,
		QueueDepth:    status.Loop.QueueDepth,
	}
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC",
		logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Scan(_ ScanRequest, resp *ScanResponse) error {
	if err := s.daemon.TriggerScan(); err != nil {
		resp.Queued = false
		resp.Message = err.Error()
		return nil
	}
	resp.Queued = true
	resp.Message = "full extraction queued"
	return nil
}

func (s *service) Extract(_ ExtractRequest, resp *ExtractResponse) error {
	if err := s.daemon.TriggerExtract(); err != nil {
		resp.Queued = false
		resp.Message = err.Error()
		return nil
	}
	resp.Queued = true
	resp.Message = "ocr preview queued"
	return nil
}

func (s *service) Turbo(_ TurboRequest, resp *TurboResponse) error {
	if err := s.daemon.TriggerTurbo(); err != nil {
		resp.Queued = false
		resp.Message = err.Error()
		return nil
	}
	resp.Queued = true
	resp.Message = "fast update queued"
	return nil
}

func (s *service) ToggleAuto(_ ToggleAutoRequest, resp *ToggleAutoResponse) error {
	resp.Auto = s.daemon.ToggleAuto()
	return nil
}

func (s *service) ResetLatch(_ ResetLatchRequest, resp *ResetLatchResponse) error {
	s.daemon.ResetLatch()
	resp.Reset = true
	return nil
}

func (s *service) Tasks(req TasksRequest, resp *TasksResponse) error {
	tasks, err := s.daemon.Tasks(s.ctx, req.DailyID)
	if err != nil {
		return err
	}
	resp.DailyID = req.DailyID
	if resp.DailyID == "" {
		resp.DailyID = s.daemon.Status().Loop.DailyID
	}
	resp.Tasks = taskViews(tasks)
	return nil
}

func (s *service) Dailies(_ DailiesRequest, resp *DailiesResponse) error {
	ids, err := s.daemon.Dailies(s.ctx)
	if err != nil {
		return err
	}
	resp.DailyIDs = ids
	return nil
}

func (s *service) Projects(_ ProjectsRequest, resp *ProjectsResponse) error {
	projects, err := s.daemon.Projects(s.ctx)
	if err != nil {
		return err
	}
	resp.Projects = make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		resp.Projects = append(resp.Projects, ProjectView{
			Name:        project.Name,
			Description: project.Description,
		})
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	if err != nil {
		s.log().Warn("test notification failed", logging.Error(err))
	}
	return nil
}

func taskViews(tasks []task.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, taskView(t))
	}
	return views
}

func taskView(t task.Task) TaskView {
	view := TaskView{
		Name:       t.Name,
		Status:     string(t.Status),
		Order:      t.Order,
		ProjectRef: t.ProjectRef,
	}
	view.PlannedAt = formatTime(t.PlannedAt)
	view.StartedAt = formatTime(t.StartedAt)
	view.CompletedAt = formatTime(t.CompletedAt)
	for _, sub := range t.Subtasks {
		view.Subtasks = append(view.Subtasks, taskView(sub))
	}
	return view
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
