package core

import (
	"encoding/json"
	"fmt"
)

// Stream record tags. The /inference response body is one JSON record per
// line: zero or more chunk records followed by one done record.
const (
	RecordChunk = "chunk"
	RecordDone  = "done"
)

// StreamRecord is one line of the newline-delimited /inference response.
type StreamRecord struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ParseStreamRecord decodes and validates one line. Records with an unknown
// tag are rejected at this boundary rather than interpreted loosely.
func ParseStreamRecord(line []byte) (StreamRecord, error) {
	var rec StreamRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return StreamRecord{}, fmt.Errorf("malformed stream record: %w", err)
	}
	if rec.Type != RecordChunk && rec.Type != RecordDone {
		return StreamRecord{}, fmt.Errorf("unknown stream record type %q", rec.Type)
	}
	return rec, nil
}
