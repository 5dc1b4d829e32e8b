package models

const (
	BatchStatusFree       = "free"
	BatchStatusProcessing = "processing"
)

// BatchState mirrors one row of the batches table plus the derived
// progress counters the API reports.
type BatchState struct {
	Service   string
	BatchID   string
	Requested int
	Converted int
	Status    string
	MaxCount  int
}

type BatchImage struct {
	Service   string
	BatchID   string
	ImagePath string
	IsSource  bool
}
