package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// DecodeVariables unmarshals the job's variables into dest.
func DecodeVariables(job entities.Job, dest interface{}) error {
	if err := json.Unmarshal([]byte(job.Variables), dest); err != nil {
		return fmt.Errorf("invalid job variables: %w", err)
	}
	return nil
}

var completeRetry = &RetryConfig{MaxRetries: 2, BaseDelay: 200 * time.Millisecond, MaxDelay: time.Second}

// CompleteJob completes the job with output as its variables, retrying transient gateway errors.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("encode job output: %w", err)
	}
	return ExecuteWithRetry(ctx, completeRetry, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
}
