package repository

// Plain query layer under Repository. Shaped like sqlc output (Queries,
// DBTX, WithTx) so the statements stay separate from the transaction
// logic, but maintained by hand.

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const createBatch = `-- name: CreateBatch :exec
INSERT INTO batches (service, batch_id, requested, converted, status, max_count)
VALUES ($1, $2, 0, 0, $3, $4)
`

type CreateBatchParams struct {
	Service  string
	BatchID  string
	Status   string
	MaxCount int32
}

func (q *Queries) CreateBatch(ctx context.Context, arg CreateBatchParams) error {
	_, err := q.db.Exec(ctx, createBatch, arg.Service, arg.BatchID, arg.Status, arg.MaxCount)
	return err
}

const incrementRequested = `-- name: IncrementRequested :exec
UPDATE batches
SET requested = requested + 1, status = $3
WHERE service = $1 AND batch_id = $2
`

type IncrementRequestedParams struct {
	Service string
	BatchID string
	Status  string
}

func (q *Queries) IncrementRequested(ctx context.Context, arg IncrementRequestedParams) error {
	_, err := q.db.Exec(ctx, incrementRequested, arg.Service, arg.BatchID, arg.Status)
	return err
}

const incrementConverted = `-- name: IncrementConverted :exec
UPDATE batches
SET converted = converted + 1
WHERE service = $1 AND batch_id = $2
`

type IncrementConvertedParams struct {
	Service string
	BatchID string
}

func (q *Queries) IncrementConverted(ctx context.Context, arg IncrementConvertedParams) error {
	_, err := q.db.Exec(ctx, incrementConverted, arg.Service, arg.BatchID)
	return err
}

const decrementConverted = `-- name: DecrementConverted :exec
UPDATE batches
SET converted = converted - 1
WHERE service = $1 AND batch_id = $2
`

type DecrementConvertedParams struct {
	Service string
	BatchID string
}

func (q *Queries) DecrementConverted(ctx context.Context, arg DecrementConvertedParams) error {
	_, err := q.db.Exec(ctx, decrementConverted, arg.Service, arg.BatchID)
	return err
}

const setStatus = `-- name: SetStatus :exec
UPDATE batches
SET status = $1
WHERE service = $2 AND batch_id = $3
`

type SetStatusParams struct {
	Status  string
	Service string
	BatchID string
}

func (q *Queries) SetStatus(ctx context.Context, arg SetStatusParams) error {
	_, err := q.db.Exec(ctx, setStatus, arg.Status, arg.Service, arg.BatchID)
	return err
}

const getBatchState = `-- name: GetBatchState :one
SELECT service, batch_id, requested, converted, status, max_count
FROM batches
WHERE service = $1 AND batch_id = $2
`

type GetBatchStateParams struct {
	Service string
	BatchID string
}

type GetBatchStateRow struct {
	Service   string
	BatchID   string
	Requested int32
	Converted int32
	Status    string
	MaxCount  int32
}

func (q *Queries) GetBatchState(ctx context.Context, arg GetBatchStateParams) (GetBatchStateRow, error) {
	row := q.db.QueryRow(ctx, getBatchState, arg.Service, arg.BatchID)
	var i GetBatchStateRow
	err := row.Scan(&i.Service, &i.BatchID, &i.Requested, &i.Converted, &i.Status, &i.MaxCount)
	return i, err
}

const addImage = `-- name: AddImage :exec
INSERT INTO images (service, batch_id, image_path, is_source)
VALUES ($1, $2, $3, $4)
`

type AddImageParams struct {
	Service   string
	BatchID   string
	ImagePath string
	IsSource  bool
}

func (q *Queries) AddImage(ctx context.Context, arg AddImageParams) error {
	_, err := q.db.Exec(ctx, addImage, arg.Service, arg.BatchID, arg.ImagePath, arg.IsSource)
	return err
}

const deleteImage = `-- name: DeleteImage :exec
DELETE FROM images
WHERE image_path = $1
`

func (q *Queries) DeleteImage(ctx context.Context, imagePath string) error {
	_, err := q.db.Exec(ctx, deleteImage, imagePath)
	return err
}

const getImageList = `-- name: GetImageList :many
SELECT service, batch_id, image_path, is_source
FROM images
WHERE service = $1 AND batch_id = $2
ORDER BY image_path
`

type GetImageListParams struct {
	Service string
	BatchID string
}

type GetImageListRow struct {
	Service   string
	BatchID   string
	ImagePath string
	IsSource  bool
}

func (q *Queries) GetImageList(ctx context.Context, arg GetImageListParams) ([]GetImageListRow, error) {
	rows, err := q.db.Query(ctx, getImageList, arg.Service, arg.BatchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetImageListRow
	for rows.Next() {
		var i GetImageListRow
		if err := rows.Scan(&i.Service, &i.BatchID, &i.ImagePath, &i.IsSource); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteBatchImages = `-- name: DeleteBatchImages :exec
DELETE FROM images
WHERE service = $1 AND batch_id = $2
`

type DeleteBatchImagesParams struct {
	Service string
	BatchID string
}

func (q *Queries) DeleteBatchImages(ctx context.Context, arg DeleteBatchImagesParams) error {
	_, err := q.db.Exec(ctx, deleteBatchImages, arg.Service, arg.BatchID)
	return err
}

const deleteBatch = `-- name: DeleteBatch :exec
DELETE FROM batches
WHERE service = $1 AND batch_id = $2
`

type DeleteBatchParams struct {
	Service string
	BatchID string
}

func (q *Queries) DeleteBatch(ctx context.Context, arg DeleteBatchParams) error {
	_, err := q.db.Exec(ctx, deleteBatch, arg.Service, arg.BatchID)
	return err
}
