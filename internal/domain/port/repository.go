package port

import (
	"context"
	"errors"

	"github.com/Grupo-26-FIAP/hackaton-file-processor/internal/domain/entity"
	"github.com/google/uuid"
)

// ErrJobNotFound is returned by FindByJobID when no row matches.
var ErrJobNotFound = errors.New("job not found")

type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	Update(ctx context.Context, job *entity.Job) error
	FindByJobID(ctx context.Context, jobID uuid.UUID) (*entity.Job, error)
}
