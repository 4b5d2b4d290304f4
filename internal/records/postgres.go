package records

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// postgres implements System with one row per record. The full record is
// kept as JSONB; owner_id and folder_id are duplicated into columns for
// filtering.
type postgres struct {
	db           *sql.DB
	migrationURL string
	logger       *slog.Logger
}

// NewPostgres creates a postgres-backed record store on db.
// When migrationURL is non-empty, Start applies the embedded schema migrations.
func NewPostgres(db *sql.DB, migrationURL string, logger *slog.Logger) System {
	return &postgres{
		db:           db,
		migrationURL: migrationURL,
		logger:       logger.With("system", "records", "backend", "postgres"),
	}
}

func (p *postgres) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting record store")

	if p.migrationURL != "" {
		if err := p.migrate(); err != nil {
			return err
		}
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		p.logger.Info("closing record store connection")

		if err := p.db.Close(); err != nil {
			p.logger.Error("record store close failed", "error", err)
			return
		}

		p.logger.Info("record store connection closed")
	})

	return nil
}

func (p *postgres) migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, p.migrationURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	p.logger.Info("schema migrated", "version", version, "dirty", dirty)
	return nil
}

const upsertRecord = `INSERT INTO documents (id, owner_id, folder_id, record, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET
		owner_id = EXCLUDED.owner_id,
		folder_id = EXCLUDED.folder_id,
		record = EXCLUDED.record,
		updated_at = EXCLUDED.updated_at`

func (p *postgres) Put(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		return ErrInvalidID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	var folder sql.NullString
	if rec.FolderID != nil {
		folder = sql.NullString{String: *rec.FolderID, Valid: true}
	}

	if _, err := p.db.ExecContext(ctx, upsertRecord, rec.ID, rec.OwnerID, folder, data, rec.UpdatedAt); err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (p *postgres) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrInvalidID
	}

	var data []byte
	err := p.db.QueryRowContext(ctx, `SELECT record FROM documents WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query record: %w", err)
	}

	return decodeRecord(data)
}

func (p *postgres) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}

	res, err := p.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *postgres) List(ctx context.Context, filter Filter) ([]Record, error) {
	q, args := listQuery(filter)

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	result := []Record{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return result, nil
}

func listQuery(filter Filter) (string, []any) {
	var (
		where []string
		args  []any
	)

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		where = append(where, "owner_id = $"+strconv.Itoa(len(args)))
	}

	if filter.FolderID != nil {
		if *filter.FolderID == RootFolder {
			where = append(where, "folder_id IS NULL")
		} else {
			args = append(args, *filter.FolderID)
			where = append(where, "folder_id = $"+strconv.Itoa(len(args)))
		}
	}

	q := "SELECT record FROM documents"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	return q + " ORDER BY id", args
}

func decodeRecord(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}
