package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/glekoz/grayscale_image/internal/models"
)

// batchKey is what the in-memory counters are keyed by.
func batchKey(service, batchID string) string {
	return service + "/" + batchID
}

func splitBatchKey(key string) (service, batchID string) {
	service, batchID, _ = strings.Cut(key, "/")
	return service, batchID
}

// SyncController tracks, per batch, how many images were submitted and
// how many came back converted. When the two counters meet, the batch is
// finalized: status flipped to free, tmp directory wiped, final message
// published. The counters live in memory only — they exist to detect
// "all in-flight work for this batch is done", the durable state is in
// the DB.
type SyncController struct {
	DB                DBAPI
	Storage           StorageAPI
	Queue             QueueAPI
	Log               *slog.Logger
	ReqCountMutex     sync.RWMutex
	ReqCount          map[string]int
	ProcessCountMutex sync.RWMutex
	ProcessCount      map[string]int
	BatchSyncMutex    sync.RWMutex
	BatchSync         map[string]chan struct{}
}

func NewSyncController(db DBAPI, storage StorageAPI, queue QueueAPI, log *slog.Logger) *SyncController {
	reqCount := make(map[string]int)
	processCount := make(map[string]int)
	batchSync := make(map[string]chan struct{})
	return &SyncController{DB: db, Storage: storage, Queue: queue, Log: log,
		ReqCount: reqCount, ProcessCount: processCount, BatchSync: batchSync}
}

func (sc *SyncController) ReqCountIncrement(key string) {
	sc.ReqCountMutex.Lock()
	defer sc.ReqCountMutex.Unlock()
	sc.ReqCount[key]++
}

func (sc *SyncController) ReqCountDecrement(key string) {
	sc.ReqCountMutex.Lock()
	defer sc.ReqCountMutex.Unlock()
	sc.ReqCount[key]--
}

func (sc *SyncController) ProcessCountIncrement(key string) {
	sc.ProcessCountMutex.Lock()
	defer sc.ProcessCountMutex.Unlock()
	sc.ProcessCount[key]++
}

// BatchSyncChannel hands out a capacity-1 channel per batch. Converters
// hold it while they persist a result, so SyncMemoryClean never races
// another converter of the same batch.
func (sc *SyncController) BatchSyncChannel(key string) chan struct{} {
	sc.BatchSyncMutex.RLock()
	token, ok := sc.BatchSync[key]
	sc.BatchSyncMutex.RUnlock()
	if ok {
		return token
	}
	sc.BatchSyncMutex.Lock()
	token, ok = sc.BatchSync[key]
	if !ok {
		token = make(chan struct{}, 1)
		sc.BatchSync[key] = token
	}
	sc.BatchSyncMutex.Unlock()
	return token
}

// SyncMemoryClean finalizes the batch once every submitted image has been
// converted: free status, tmp directory gone, one BatchConvertedMessage
// out, counters dropped. Caller must hold the batch sync channel.
func (sc *SyncController) SyncMemoryClean(ctx context.Context, key string) error {
	sc.ProcessCountMutex.Lock()
	sc.ReqCountMutex.Lock()
	defer func() {
		sc.ReqCountMutex.Unlock()
		sc.ProcessCountMutex.Unlock()
	}()

	if sc.ProcessCount[key] == 0 || sc.ProcessCount[key] != sc.ReqCount[key] {
		return nil
	}

	service, batchID := splitBatchKey(key)
	count := sc.ProcessCount[key]

	if err := sc.DB.SetStatus(ctx, service, batchID, models.BatchStatusFree); err != nil {
		return err
	}
	if err := sc.Storage.DeleteAll(service, batchID+"/tmp"); err != nil {
		sc.Log.Warn("tmp dir not removed", "batch", key, "err", err)
	}

	done := models.BatchConvertedMessage{
		Service:    service,
		BatchID:    batchID,
		TotalCount: count,
	}
	msg, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrOperationAction, err)
	}
	if err := sc.Queue.Publish(ctx, models.QueueEvents, msg); err != nil {
		return fmt.Errorf("%w: %w", models.ErrNetworkAction, err)
	}

	sc.BatchSyncMutex.Lock()
	delete(sc.BatchSync, key)
	sc.BatchSyncMutex.Unlock()
	delete(sc.ProcessCount, key)
	delete(sc.ReqCount, key)
	return nil
}
