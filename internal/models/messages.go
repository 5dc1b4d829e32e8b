package models

// Queue names shared by the publisher side and the consumer side.
const (
	QueueConvert = "grayscale.convert"
	QueueEvents  = "grayscale.events"
)

// ConvertImageMessage defers the actual grayscale work: the ingress only
// stores the original under tmp/ and publishes one of these.
type ConvertImageMessage struct {
	Service      string `json:"service"`
	BatchID      string `json:"batch_id"`
	ImageID      string `json:"image_id"`
	Extension    string `json:"extension"`
	TmpImagePath string `json:"image_path"`
}

// ImageConvertedMessage tells interested services where the grayscale
// result ended up.
type ImageConvertedMessage struct {
	Service   string `json:"service"`
	BatchID   string `json:"batch_id"`
	ImageID   string `json:"image_id"`
	ImagePath string `json:"image_path"`
}

// BatchConvertedMessage is the final message after every image of a batch
// has been converted, so consumers can flip status and totals in one go.
type BatchConvertedMessage struct {
	Service    string `json:"service"`
	BatchID    string `json:"batch_id"`
	TotalCount int    `json:"total_count"`
}
