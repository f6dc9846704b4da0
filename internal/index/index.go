package index

// Ledger defines the record operations the note store depends on.
type Ledger interface {
	UpsertRecord(r Record) error
	DeleteRecord(videoID string) error
	GetRecord(videoID string) (*Record, error)
	ListRecords(limit, offset int) ([]Record, int, error)
	AllRecords() (map[string]Record, error)
	Close() error
}

var _ Ledger = (*DB)(nil)
