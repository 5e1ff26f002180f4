package worker

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/reflectus-app/backend/internal/exports"
	"github.com/reflectus-app/backend/internal/models"
	"github.com/reflectus-app/backend/internal/responses"
	"github.com/reflectus-app/backend/pkg/queue"
	"github.com/reflectus-app/backend/pkg/storage"
)

// ExportProcessor processes export generation jobs: collect the workspace's
// responses, build a CSV, upload to S3, update the export row.
type ExportProcessor struct {
	expRepo  *exports.Repository
	respRepo *responses.Repository
	s3       *storage.S3
	queue    *queue.Queue
	logger   *zap.Logger
}

// NewExportProcessor creates an export generation processor.
func NewExportProcessor(expRepo *exports.Repository, respRepo *responses.Repository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{expRepo: expRepo, respRepo: respRepo, s3: s3, queue: q, logger: logger}
}

// Process executes one export generation job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	exp, err := p.expRepo.GetByID(ctx, payload.ExportID)
	if err != nil {
		return fmt.Errorf("load export: %w", err)
	}
	if exp == nil {
		return fmt.Errorf("export not found: %s", payload.ExportID)
	}
	if exp.Status == models.ExportCompleted {
		p.logger.Info("export already completed", zap.String("export_id", exp.ID.String()))
		return nil
	}

	list, err := p.respRepo.ListByWorkspace(ctx, payload.WorkspaceID)
	if err != nil {
		return fmt.Errorf("load responses: %w", err)
	}

	body, err := buildCSV(list)
	if err != nil {
		return fmt.Errorf("build csv: %w", err)
	}

	key := storage.ExportKey(payload.WorkspaceID.String(), payload.ExportID.String())
	if _, err := p.s3.Upload(ctx, p.s3.ExportsBucket(), key, storage.ExportContentType, bytes.NewReader(body)); err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.expRepo.MarkCompleted(ctx, payload.ExportID, key, int64(len(body))); err != nil {
		p.logger.Error("mark export completed failed", zap.Error(err), zap.String("export_id", payload.ExportID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("export completed", zap.String("export_id", payload.ExportID.String()), zap.String("s3_key", key), zap.Int("responses", len(list)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. Jobs that
// exhaust retries land in the DLQ and the export row is marked failed.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			if job.Attempt >= queue.MaxRetries {
				p.failExport(ctx, job)
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}

func (p *ExportProcessor) failExport(ctx context.Context, job *queue.Job) {
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return
	}
	if err := p.expRepo.MarkFailed(ctx, payload.ExportID); err != nil {
		p.logger.Error("mark export failed", zap.Error(err), zap.String("export_id", payload.ExportID.String()))
	}
}

// buildCSV renders responses as CSV with a fixed header row.
func buildCSV(list []models.Response) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"response_id", "activity_id", "user_id", "submitted_at", "body"}); err != nil {
		return nil, err
	}
	for _, r := range list {
		rec := []string{
			r.ID.String(),
			r.ActivityID.String(),
			r.UserID.String(),
			r.SubmittedAt.UTC().Format(time.RFC3339),
			r.Body,
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
