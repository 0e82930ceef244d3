package exports

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"time"

	"fiattoken/integrations/audit"
)

var header = []string{"seq", "position", "method", "caller", "type", "attributes", "fingerprint", "recorded_at"}

// CSV builds a CSV export for the supplied audit records and returns the
// serialised data alongside a SHA-256 checksum of the payload.
func CSV(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	writer := csv.NewWriter(buffer)
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}
	for _, rec := range records {
		row := []string{
			fmt.Sprintf("%d", rec.Seq),
			fmt.Sprintf("%d", rec.Position),
			rec.Method,
			rec.Caller,
			rec.Type,
			rec.Attributes,
			rec.Fingerprint,
			rec.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}
	return checksummed(buffer.Bytes())
}

func checksummed(data []byte) ([]byte, string, error) {
	sum := sha256.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}
