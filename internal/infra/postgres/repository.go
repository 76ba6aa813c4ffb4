package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/entity"
	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/port"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	query := `
		INSERT INTO video_jobs (
			id, job_id, user_id, status, input_bucket, input_key,
			output_bucket, output_key, error, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.JobID, job.UserID, string(job.Status),
		job.InputBucket, job.InputKey,
		job.OutputBucket, job.OutputKey, job.Error,
		job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (r *JobRepository) Update(ctx context.Context, job *entity.Job) error {
	query := `
		UPDATE video_jobs SET
			status=$2, output_bucket=$3, output_key=$4, error=$5, updated_at=$6
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status),
		job.OutputBucket, job.OutputKey, job.Error,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *JobRepository) FindByJobID(ctx context.Context, jobID uuid.UUID) (*entity.Job, error) {
	query := `
		SELECT id, job_id, user_id, status, input_bucket, input_key,
			output_bucket, output_key, error, created_at, updated_at
		FROM video_jobs WHERE job_id=$1`

	job := &entity.Job{}
	var status string
	err := r.pool.QueryRow(ctx, query, jobID).Scan(
		&job.ID, &job.JobID, &job.UserID, &status,
		&job.InputBucket, &job.InputKey,
		&job.OutputBucket, &job.OutputKey, &job.Error,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrJobNotFound
		}
		return nil, fmt.Errorf("find job by job_id: %w", err)
	}
	job.Status = entity.JobStatus(status)
	return job, nil
}
