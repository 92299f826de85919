package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"situationroom/internal/report"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeReportRebuild = "report:rebuild"

// rebuildDebounce collapses bursts of submissions into one rebuild per form
const rebuildDebounce = 2 * time.Second

// Rebuilder recomputes and caches the report of one form
type Rebuilder interface {
	Rebuild(ctx context.Context, formRef string) (*report.Report, error)
}

// Publisher pushes live events to the subscribers of one form
type Publisher interface {
	PublishForm(slug string, event map[string]interface{}) error
}

type JobServer struct {
	server    *asynq.Server
	client    *asynq.Client
	rebuilder Rebuilder
	bus       Publisher
	log       *zap.Logger
}

type reportPayload struct {
	Form string `json:"form"`
}

func NewJobServer(redisAddr string, rebuilder Rebuilder, bus Publisher, log *zap.Logger) (*JobServer, *asynq.Client) {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	client := asynq.NewClient(redisOpt)

	return &JobServer{
		server:    server,
		client:    client,
		rebuilder: rebuilder,
		bus:       bus,
		log:       log,
	}, client
}

func (js *JobServer) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReportRebuild, js.handleReportRebuild)
	return js.server.Start(mux)
}

func (js *JobServer) Stop() {
	js.server.Shutdown()
	js.client.Close()
}

func (js *JobServer) handleReportRebuild(ctx context.Context, t *asynq.Task) error {
	var p reportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil || p.Form == "" {
		return fmt.Errorf("bad %s payload: %w", TypeReportRebuild, asynq.SkipRetry)
	}

	rep, err := js.rebuilder.Rebuild(ctx, p.Form)
	if err != nil {
		return fmt.Errorf("failed to rebuild report: %w", err)
	}

	_ = js.bus.PublishForm(rep.Slug, map[string]interface{}{
		"type":        "report.updated",
		"formId":      rep.FormID,
		"slug":        rep.Slug,
		"submissions": rep.Submissions,
	})

	js.log.Info("Report rebuilt", zap.String("form", rep.Slug), zap.Int("submissions", rep.Submissions))
	return nil
}

// EnqueueReportRebuild schedules a rebuild shortly after the latest change.
// A rebuild already waiting for the same form absorbs the request.
func EnqueueReportRebuild(client *asynq.Client, formRef string) error {
	payload, err := json.Marshal(reportPayload{Form: formRef})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeReportRebuild, payload)
	_, err = client.Enqueue(task,
		asynq.ProcessIn(rebuildDebounce),
		asynq.Unique(rebuildDebounce),
		asynq.Queue("low"),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}
