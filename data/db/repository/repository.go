package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/glekoz/grayscale_image/internal/models"
)

type Repository struct {
	q    *Queries
	pool *pgxpool.Pool
}

func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	queries := New(pool)
	return &Repository{q: queries, pool: pool}, nil
}

func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) CreateBatch(ctx context.Context, service, batchID, status string, maxCount int) error {
	params := CreateBatchParams{
		Service:  service,
		BatchID:  batchID,
		Status:   status,
		MaxCount: int32(maxCount),
	}
	err := r.q.CreateBatch(ctx, params)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == models.UniqueViolation {
			return models.ErrUniqueViolation
		}
		return err
	}
	return nil
}

// RegisterSubmission bumps the requested counter and moves the batch to
// processing in one statement, so there is no window where a converter
// could see the batch as free.
func (r *Repository) RegisterSubmission(ctx context.Context, service, batchID string) error {
	return r.q.IncrementRequested(ctx, IncrementRequestedParams{
		Service: service,
		BatchID: batchID,
		Status:  models.BatchStatusProcessing,
	})
}

// AddConvertedImage records the grayscale result and bumps the converted
// counter inside one transaction.
func (r *Repository) AddConvertedImage(ctx context.Context, image models.BatchImage) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	qtx := r.q.WithTx(tx)
	err = qtx.AddImage(ctx, AddImageParams{
		Service:   image.Service,
		BatchID:   image.BatchID,
		ImagePath: image.ImagePath,
		IsSource:  image.IsSource,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == models.UniqueViolation {
			return models.ErrUniqueViolation
		}
		return err
	}
	err = qtx.IncrementConverted(ctx, IncrementConvertedParams{Service: image.Service, BatchID: image.BatchID})
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteImage(ctx context.Context, service, batchID, imagePath string) error {
	if imagePath == "" {
		return models.ErrInvalidInput
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	qtx := r.q.WithTx(tx)
	err = qtx.DeleteImage(ctx, imagePath)
	if err != nil {
		return err
	}
	err = qtx.DecrementConverted(ctx, DecrementConvertedParams{Service: service, BatchID: batchID})
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteBatch(ctx context.Context, service, batchID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	qtx := r.q.WithTx(tx)
	params := DeleteBatchImagesParams{Service: service, BatchID: batchID}
	if err := qtx.DeleteBatchImages(ctx, params); err != nil {
		return err
	}
	if err := qtx.DeleteBatch(ctx, DeleteBatchParams(params)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetBatchState(ctx context.Context, service, batchID string) (models.BatchState, error) {
	params := GetBatchStateParams{
		Service: service,
		BatchID: batchID,
	}
	state, err := r.q.GetBatchState(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.BatchState{}, models.ErrNotFound
		}
		return models.BatchState{}, err
	}

	return models.BatchState{
		Service:   state.Service,
		BatchID:   state.BatchID,
		Requested: int(state.Requested),
		Converted: int(state.Converted),
		Status:    state.Status,
		MaxCount:  int(state.MaxCount),
	}, nil
}

func (r *Repository) GetImageList(ctx context.Context, service, batchID string) ([]models.BatchImage, error) {
	params := GetImageListParams{
		Service: service,
		BatchID: batchID,
	}
	dbImages, err := r.q.GetImageList(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	if len(dbImages) == 0 {
		return nil, models.ErrNotFound
	}
	var images []models.BatchImage
	for _, image := range dbImages {
		images = append(images, models.BatchImage{
			Service:   image.Service,
			BatchID:   image.BatchID,
			ImagePath: image.ImagePath,
			IsSource:  image.IsSource,
		})
	}
	return images, nil
}

func (r *Repository) SetStatus(ctx context.Context, service, batchID, status string) error {
	params := SetStatusParams{
		Status:  status,
		Service: service,
		BatchID: batchID,
	}
	return r.q.SetStatus(ctx, params)
}
