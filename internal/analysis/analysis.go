package analysis

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"secassist/internal/config"
)

// Record is one result produced by the external analysis tools. The
// conversation core reads these records, it never writes or filters them.
type Record struct {
	bun.BaseModel `bun:"table:analyses,alias:a"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Filename      string    `bun:"filename,notnull"`
	Result        string    `bun:"result,notnull"`
	Timestamp     time.Time `bun:"timestamp,nullzero,notnull,default:current_timestamp"`
}

// Source is the read-only view the conversation core consumes.
type Source interface {
	LoadAll(ctx context.Context) ([]Record, error)
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// Store is the bun-backed analyses table.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Record)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Save records a tool result. Only the external analysis tools call this.
func (s *Store) Save(ctx context.Context, filename, result string) error {
	rec := &Record{
		Filename: filename,
		Result:   result,
	}
	_, err := s.db.NewInsert().Model(rec).Exec(ctx)
	return err
}

// LoadAll returns every analysis record in timestamp order, no filtering.
func (s *Store) LoadAll(ctx context.Context) ([]Record, error) {
	var recs []Record
	err := s.db.NewSelect().
		Model(&recs).
		Order("timestamp ASC").
		Scan(ctx)
	return recs, err
}

// LoadByID returns a single analysis result.
func (s *Store) LoadByID(ctx context.Context, id int64) (*Record, error) {
	rec := new(Record)
	err := s.db.NewSelect().Model(rec).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
