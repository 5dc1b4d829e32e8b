package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/glekoz/grayscale_image/internal/models"
	"github.com/glekoz/grayscale_image/raster"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

type StorageAPI interface {
	Save(ctx context.Context, service, batchID, imageID, ext string, img image.Image) (string, error)
	Delete(imagePath string) error
	DeleteAll(service, batchID string) error
	GetRawImage(imagePath string) (image.Image, error)
}

type DBAPI interface {
	CreateBatch(ctx context.Context, service, batchID, status string, maxCount int) error
	RegisterSubmission(ctx context.Context, service, batchID string) error
	AddConvertedImage(ctx context.Context, image models.BatchImage) error
	GetBatchState(ctx context.Context, service, batchID string) (models.BatchState, error)
	GetImageList(ctx context.Context, service, batchID string) ([]models.BatchImage, error)
	SetStatus(ctx context.Context, service, batchID, status string) error
}

type QueueAPI interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// App wires the grayscale pipeline together: ingress stores originals
// under tmp/ and defers the work to the queue, the queue consumer runs
// the parallel mapper and persists the result.
type App struct {
	Storage StorageAPI
	DB      DBAPI
	Queue   QueueAPI
	Mapper  *raster.Mapper
	Log     *slog.Logger
	SC      *SyncController
}

func NewApp(s StorageAPI, db DBAPI, q QueueAPI, m *raster.Mapper, log *slog.Logger) *App {
	if m == nil {
		m = raster.NewMapper()
	}
	if log == nil {
		log = slog.Default()
	}
	sc := NewSyncController(db, s, q, log)
	return &App{Storage: s, DB: db, Queue: q, Mapper: m, Log: log, SC: sc}
}

// CreateBatch registers a new conversion batch and returns its id.
// maxCount caps how many images the batch accepts.
func (a *App) CreateBatch(ctx context.Context, service string, maxCount int) (string, error) {
	if service == "" || maxCount < 1 {
		return "", models.ErrInvalidInput
	}
	batchID := uuid.New().String()
	if err := a.DB.CreateBatch(ctx, service, batchID, models.BatchStatusFree, maxCount); err != nil {
		return "", err
	}
	return batchID, nil
}

// Submit accepts one original image for a batch. The image is decoded
// only to prove it's an image, stored under tmp/ in its source format,
// and a ConvertImageMessage is published for the converter. Returns the
// image id the result will be stored under.
func (a *App) Submit(ctx context.Context, service, batchID, ext string, img []byte) (string, error) {
	state, err := a.DB.GetBatchState(ctx, service, batchID)
	if err != nil {
		return "", err
	}
	if state.Requested >= state.MaxCount {
		return "", fmt.Errorf("%w: batch is full (%d of %d)", models.ErrInvalidInput, state.Requested, state.MaxCount)
	}

	imageReader := bytes.NewReader(img)
	decoded, _, err := image.Decode(imageReader)
	if err != nil {
		return "", fmt.Errorf("%w: image.Decode failed: %w", models.ErrOperationAction, err)
	}

	imageID := uuid.New().String()
	tmpDir := filepath.Join(batchID, "tmp")
	tmpImgPath, err := a.Storage.Save(ctx, service, tmpDir, imageID, ext, decoded)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrOSAction, err)
	}

	if err := a.DB.RegisterSubmission(ctx, service, batchID); err != nil {
		a.Storage.Delete(tmpImgPath)
		return "", err
	}

	amtMsg := models.ConvertImageMessage{
		Service:      service,
		BatchID:      batchID,
		ImageID:      imageID,
		Extension:    ext,
		TmpImagePath: tmpImgPath,
	}
	// the counter has to be up before the message can possibly be
	// consumed, otherwise a fast consumer finalizes against a stale
	// request count and the batch never leaves processing
	key := batchKey(service, batchID)
	a.SC.ReqCountIncrement(key)
	msg, err := json.Marshal(amtMsg)
	if err != nil {
		a.SC.ReqCountDecrement(key)
		a.Storage.Delete(tmpImgPath)
		return "", fmt.Errorf("%w: %w", models.ErrOperationAction, err)
	}
	if err := a.Queue.Publish(ctx, models.QueueConvert, msg); err != nil {
		a.SC.ReqCountDecrement(key)
		a.Storage.Delete(tmpImgPath)
		return "", fmt.Errorf("%w: %w", models.ErrNetworkAction, err)
	}
	return imageID, nil
}

// ProcessedConvert is the queue-driven half: load the tmp original, run
// the parallel mapper, store the grayscale result next to the batch,
// record it, announce it, and drop the tmp file.
func (a *App) ProcessedConvert(ctx context.Context, m models.ConvertImageMessage) error {
	img, err := a.Storage.GetRawImage(m.TmpImagePath)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrOSAction, err)
	}

	grayImg, err := a.Grayscale(ctx, img)
	if err != nil {
		// keeps context.Canceled visible so the consumer requeues
		// instead of dropping the delivery on shutdown
		return fmt.Errorf("%w: %w", models.ErrOperationAction, err)
	}

	key := batchKey(m.Service, m.BatchID)
	token := a.SC.BatchSyncChannel(key)
	token <- struct{}{}
	defer func() {
		<-token
		if err := a.SC.SyncMemoryClean(ctx, key); err != nil {
			a.Log.Warn("batch cleanup failed", "batch", key, "err", err)
		}
	}()

	imagePath, err := a.Storage.Save(ctx, m.Service, m.BatchID, m.ImageID, m.Extension, grayImg)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrOSAction, err)
	}

	err = a.DB.AddConvertedImage(ctx, models.BatchImage{
		Service:   m.Service,
		BatchID:   m.BatchID,
		ImagePath: imagePath,
	})
	if err != nil {
		a.Storage.Delete(imagePath)
		return err
	}

	event := models.ImageConvertedMessage{
		Service:   m.Service,
		BatchID:   m.BatchID,
		ImageID:   m.ImageID,
		ImagePath: imagePath,
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrOperationAction, err)
	}
	for i := range 3 {
		err = a.Queue.Publish(ctx, models.QueueEvents, msg)
		if err == nil {
			break
		}
		if i == 2 {
			return fmt.Errorf("%w: %w", models.ErrNetworkAction, err)
		}
		time.Sleep(2 * time.Second)
	}

	a.SC.ProcessCountIncrement(key)

	if err := a.Storage.Delete(m.TmpImagePath); err != nil {
		// not critical, tmp dir is wiped on batch cleanup anyway
		a.Log.Warn("tmp image not deleted", "path", m.TmpImagePath, "err", err)
	}
	return nil
}

func (a *App) BatchState(ctx context.Context, service, batchID string) (models.BatchState, error) {
	return a.DB.GetBatchState(ctx, service, batchID)
}

func (a *App) BatchImages(ctx context.Context, service, batchID string) ([]models.BatchImage, error) {
	return a.DB.GetImageList(ctx, service, batchID)
}
