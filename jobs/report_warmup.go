package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/contalibre/contalibre/internal/jobs"
	"github.com/contalibre/contalibre/internal/reports"
)

// ReportWarmupJob precomputes financial statements so the first interactive
// request after a ledger change hits warm cache.
type ReportWarmupJob struct {
	Pool    *pgxpool.Pool
	Reports *reports.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewReportWarmupJob initialises the warmup handler.
func NewReportWarmupJob(pool *pgxpool.Pool, svc *reports.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportWarmupJob {
	return &ReportWarmupJob{
		Pool:    pool,
		Reports: svc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the warmup.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskReportWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	periodStart, periodEnd, err := j.period(payload)
	if err != nil {
		return asynq.SkipRetry
	}

	companies, err := j.companies(ctx, payload.CompanyID)
	if err != nil {
		resultErr = err
		j.logger().Error("warmup company scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, companyID := range companies {
		if err := j.Reports.Warm(ctx, companyID, &periodStart, periodEnd); err != nil {
			resultErr = err
			j.logger().Error("warmup failed",
				slog.Int64("company_id", companyID),
				slog.Any("error", err))
			continue
		}
		j.metrics().AddWarmup(companyID)
		j.logger().Info("reports warmed",
			slog.Int64("company_id", companyID),
			slog.String("from", periodStart.Format("2006-01-02")),
			slog.String("to", periodEnd.Format("2006-01-02")))
	}
	return resultErr
}

func (j *ReportWarmupJob) period(payload ReportWarmupPayload) (time.Time, time.Time, error) {
	now := j.now()
	periodStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := now.Truncate(24 * time.Hour)
	var err error
	if payload.From != "" {
		if periodStart, err = time.Parse("2006-01-02", payload.From); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if payload.To != "" {
		if periodEnd, err = time.Parse("2006-01-02", payload.To); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return periodStart, periodEnd, nil
}

func (j *ReportWarmupJob) companies(ctx context.Context, companyID int64) ([]int64, error) {
	if companyID > 0 {
		return []int64{companyID}, nil
	}
	if j.Pool == nil {
		return nil, errors.New("report warmup: pool required for full scan")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT company_id FROM accounts ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (j *ReportWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *ReportWarmupJob) metrics() *jobmetrics.Metrics {
	return j.Metrics
}
