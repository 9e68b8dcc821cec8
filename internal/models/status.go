package models

// ItemStatus is the lifecycle state of a DownloadItem.
type ItemStatus string

const (
	ItemQueued      ItemStatus = "queued"
	ItemDownloading ItemStatus = "downloading"
	ItemPaused      ItemStatus = "paused"
	ItemCompleted   ItemStatus = "completed"
	ItemFailed      ItemStatus = "failed"
	ItemCancelled   ItemStatus = "cancelled"
	ItemSkipped     ItemStatus = "skipped"
)

// IsTerminal reports whether no further transitions are possible.
//
// A failed item may still be re-queued by an explicit retry request.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case ItemCompleted, ItemFailed, ItemCancelled, ItemSkipped:
		return true
	}
	return false
}

// IsSatisfied reports whether the item counts toward completed videos.
func (s ItemStatus) IsSatisfied() bool {
	return s == ItemCompleted || s == ItemSkipped
}

// BatchStatus is the lifecycle state of a BatchJob.
type BatchStatus string

const (
	BatchQueued      BatchStatus = "queued"
	BatchDownloading BatchStatus = "downloading"
	BatchPaused      BatchStatus = "paused"
	BatchCompleted   BatchStatus = "completed"
	BatchCancelled   BatchStatus = "cancelled"
)

// IsTerminal reports whether the batch has finished.
func (s BatchStatus) IsTerminal() bool {
	return s == BatchCompleted || s == BatchCancelled
}
