package exports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"fiattoken/integrations/audit"
)

type parquetRow struct {
	Seq         int64  `parquet:"name=seq, type=INT64"`
	Position    int32  `parquet:"name=position, type=INT32"`
	Method      string `parquet:"name=method, type=BYTE_ARRAY, convertedtype=UTF8"`
	Caller      string `parquet:"name=caller, type=BYTE_ARRAY, convertedtype=UTF8"`
	Type        string `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8"`
	Attributes  string `parquet:"name=attributes, type=BYTE_ARRAY, convertedtype=UTF8"`
	Fingerprint string `parquet:"name=fingerprint, type=BYTE_ARRAY, convertedtype=UTF8"`
	RecordedAt  string `parquet:"name=recorded_at, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Parquet builds a snappy-compressed Parquet export for the supplied audit
// records and returns the file bytes alongside a checksum.
func Parquet(records []audit.Record) ([]byte, string, error) {
	buffer := &bytes.Buffer{}
	fw := writerfile.NewWriterFile(buffer)
	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return nil, "", fmt.Errorf("exports: parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, rec := range records {
		row := &parquetRow{
			Seq:         int64(rec.Seq),
			Position:    int32(rec.Position),
			Method:      rec.Method,
			Caller:      rec.Caller,
			Type:        rec.Type,
			Attributes:  rec.Attributes,
			Fingerprint: rec.Fingerprint,
			RecordedAt:  rec.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, "", fmt.Errorf("exports: parquet write: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, "", fmt.Errorf("exports: parquet flush: %w", err)
	}
	return checksummed(buffer.Bytes())
}

// Format selects an export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSONL   Format = "jsonl"
	FormatParquet Format = "parquet"
)

// Encode renders records in the requested format.
func Encode(format Format, records []audit.Record) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		return CSV(records)
	case FormatJSONL:
		return JSONL(records)
	case FormatParquet:
		return Parquet(records)
	default:
		return nil, "", fmt.Errorf("exports: unsupported format %q", format)
	}
}
