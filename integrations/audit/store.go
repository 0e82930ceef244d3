package audit

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"lukechampine.com/blake3"

	"fiattoken/core/types"
)

// ErrDSNRequired is returned when Open is called without a DSN.
var ErrDSNRequired = errors.New("audit: dsn required")

// Record is one committed ledger event.
type Record struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Seq         uint64    `gorm:"index;not null"`
	Position    uint32    `gorm:"not null"`
	Method      string    `gorm:"index"`
	Caller      string    `gorm:"index"`
	Type        string    `gorm:"index;not null"`
	Attributes  string    `gorm:"type:text;not null"`
	Fingerprint string    `gorm:"uniqueIndex;size:64;not null"`
	RecordedAt  time.Time `gorm:"index"`
}

// TableName pins the table name independently of the struct name.
func (Record) TableName() string { return "audit_records" }

// Attrs decodes the stored attribute map.
func (r Record) Attrs() (map[string]string, error) {
	attrs := map[string]string{}
	if strings.TrimSpace(r.Attributes) == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(r.Attributes), &attrs); err != nil {
		return nil, fmt.Errorf("audit: decode attributes: %w", err)
	}
	return attrs, nil
}

// Entry groups the events committed by a single call.
type Entry struct {
	Seq    uint64
	Method string
	Caller string
	Events []*types.Event
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type    string
	Caller  string
	FromSeq uint64
	Limit   int
}

// Store persists committed events to a SQL database.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// Open connects to dsn. sqlite:// selects the embedded driver and
// postgres:// or postgresql:// a Postgres server.
func Open(dsn string) (*Store, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, ErrDSNRequired
	}
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(trimmed, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(trimmed, "sqlite://"))
	case strings.HasPrefix(trimmed, "postgres://"), strings.HasPrefix(trimmed, "postgresql://"):
		dialector = postgres.Open(trimmed)
	default:
		return nil, fmt.Errorf("audit: unsupported dsn scheme in %q", trimmed)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("audit: database required")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("audit: migrate: %w", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Fingerprint identifies an event by its commit position and content.
// Replaying the same entry yields the same fingerprints.
func Fingerprint(seq uint64, position uint32, evt *types.Event) (string, error) {
	envelope, err := evt.Envelope()
	if err != nil {
		return "", err
	}
	var prefix [12]byte
	binary.BigEndian.PutUint64(prefix[:8], seq)
	binary.BigEndian.PutUint32(prefix[8:], position)
	sum := blake3.Sum256(append(prefix[:], envelope...))
	return hex.EncodeToString(sum[:]), nil
}

// Append stores the events of entry. Events already recorded are skipped and
// the number of newly inserted rows is returned.
func (s *Store) Append(ctx context.Context, entry Entry) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("audit: store not configured")
	}
	if len(entry.Events) == 0 {
		return 0, nil
	}
	recordedAt := s.now()
	rows := make([]Record, 0, len(entry.Events))
	for i, evt := range entry.Events {
		if evt == nil {
			continue
		}
		fingerprint, err := Fingerprint(entry.Seq, uint32(i), evt)
		if err != nil {
			return 0, fmt.Errorf("audit: fingerprint: %w", err)
		}
		attrs := evt.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		encoded, err := json.Marshal(attrs)
		if err != nil {
			return 0, fmt.Errorf("audit: encode attributes: %w", err)
		}
		rows = append(rows, Record{
			ID:          uuid.New(),
			Seq:         entry.Seq,
			Position:    uint32(i),
			Method:      entry.Method,
			Caller:      entry.Caller,
			Type:        evt.Type,
			Attributes:  string(encoded),
			Fingerprint: fingerprint,
			RecordedAt:  recordedAt,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "fingerprint"}}, DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("audit: insert: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

// List returns records matching filter ordered by commit position.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("audit: store not configured")
	}
	query := s.db.WithContext(ctx).Model(&Record{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Caller != "" {
		query = query.Where("caller = ?", filter.Caller)
	}
	if filter.FromSeq > 0 {
		query = query.Where("seq >= ?", filter.FromSeq)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var records []Record
	if err := query.Order("seq ASC").Order("position ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return count, nil
}
