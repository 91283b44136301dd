package history

import "time"

const SchemaVersion = 1

// Run is one analysis pass over the watched paths.
type Run struct {
	ID           string
	Timestamp    time.Time
	Files        int
	Packages     int
	FindingCount int
	Duration     time.Duration
}

// FindingRecord is a finding as stored against its run.
type FindingRecord struct {
	RunID   string
	File    string
	Line    int
	Column  int
	Kind    string
	Name    string
	Message string
}
