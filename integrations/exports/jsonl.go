package exports

import (
	"bytes"
	"encoding/json"
	"time"

	"fiattoken/integrations/audit"
)

type jsonlRow struct {
	Seq         uint64            `json:"seq"`
	Position    uint32            `json:"position"`
	Method      string            `json:"method,omitempty"`
	Caller      string            `json:"caller,omitempty"`
	Type        string            `json:"type"`
	Attributes  map[string]string `json:"attributes"`
	Fingerprint string            `json:"fingerprint"`
	RecordedAt  string            `json:"recorded_at"`
}

// JSONL builds a JSON Lines export for the supplied audit records and returns
// the serialised payload alongside a checksum.
func JSONL(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	encoder := json.NewEncoder(buffer)
	encoder.SetEscapeHTML(false)
	for _, rec := range records {
		attrs, err := rec.Attrs()
		if err != nil {
			return nil, "", err
		}
		row := jsonlRow{
			Seq:         rec.Seq,
			Position:    rec.Position,
			Method:      rec.Method,
			Caller:      rec.Caller,
			Type:        rec.Type,
			Attributes:  attrs,
			Fingerprint: rec.Fingerprint,
			RecordedAt:  rec.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := encoder.Encode(row); err != nil {
			return nil, "", err
		}
	}
	return checksummed(buffer.Bytes())
}
