package service

import (
	"situationroom/internal/jobs"

	"github.com/hibiken/asynq"
)

// JobClient interface for scheduling background jobs
type JobClient interface {
	EnqueueReportRebuild(formRef string) error
}

// AsynqJobClient implements JobClient using asynq
type AsynqJobClient struct {
	client *asynq.Client
}

func NewAsynqJobClient(client *asynq.Client) *AsynqJobClient {
	return &AsynqJobClient{client: client}
}

func (c *AsynqJobClient) EnqueueReportRebuild(formRef string) error {
	return jobs.EnqueueReportRebuild(c.client, formRef)
}
