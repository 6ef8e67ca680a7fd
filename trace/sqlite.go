package trace

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/hyperfifo/log"
)

// SQLiteWriter writes burst records to a SQLite database.
type SQLiteWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	pending   []BurstRecord
	batchSize int
}

// NewSQLiteWriter creates a writer for the database path.sqlite3. An empty
// path picks a unique name. Buffered records are flushed at exit.
func NewSQLiteWriter(path string) *SQLiteWriter {
	w := &SQLiteWriter{
		dbName:    path,
		batchSize: 10000,
	}

	atexit.Register(func() {
		if err := w.Flush(); err != nil {
			log.Error("flush trace %s: %v", w.FileName(), err)
		}
	})

	return w
}

// WithBatchSize sets the number of records buffered before a flush.
func (w *SQLiteWriter) WithBatchSize(n int) *SQLiteWriter {
	w.batchSize = n
	return w
}

// FileName returns the database file.
func (w *SQLiteWriter) FileName() string {
	return w.dbName + ".sqlite3"
}

// Init creates the database. It fails if the file already exists.
func (w *SQLiteWriter) Init() error {
	if w.dbName == "" {
		w.dbName = "hyperfifo_trace_" + xid.New().String()
	}

	filename := w.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return err
	}

	w.DB = db

	if _, err := w.Exec(`
		create table burst
		(
			burst_id      varchar(32) not null primary key,
			location      varchar(100),
			direction     varchar(8)  not null,
			start_address integer     not null,
			start_cycle   integer     not null,
			end_cycle     integer     not null,
			words         integer     not null
		);
		create index burst_start_cycle_index on burst (start_cycle);
		create index burst_direction_index on burst (direction);
	`); err != nil {
		return err
	}

	w.statement, err = w.Prepare(`INSERT INTO burst VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}

	log.Info("burst trace is collected in %s", filename)

	return nil
}

// Write buffers a record.
func (w *SQLiteWriter) Write(r BurstRecord) {
	w.pending = append(w.pending, r)
	if len(w.pending) >= w.batchSize {
		if err := w.Flush(); err != nil {
			log.Error("flush trace %s: %v", w.FileName(), err)
		}
	}
}

// Flush writes all buffered records in one transaction.
func (w *SQLiteWriter) Flush() error {
	if len(w.pending) == 0 || w.DB == nil {
		return nil
	}

	tx, err := w.Begin()
	if err != nil {
		return err
	}

	stmt := tx.Stmt(w.statement)
	for _, r := range w.pending {
		if _, err := stmt.Exec(
			r.ID,
			r.Where,
			r.Direction,
			r.StartAddress,
			r.StartCycle,
			r.EndCycle,
			r.Words,
		); err != nil {
			err = fmt.Errorf("insert burst %s: %w", r.ID, err)
			if rerr := tx.Rollback(); rerr != nil {
				return errors.Join(err, fmt.Errorf("rollback: %w", rerr))
			}

			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	w.pending = nil

	return nil
}

// Pending returns the number of buffered records.
func (w *SQLiteWriter) Pending() int {
	return len(w.pending)
}

// Close flushes and closes the database.
func (w *SQLiteWriter) Close() error {
	err := w.Flush()

	if w.DB == nil {
		return err
	}

	return errors.Join(err, w.DB.Close())
}
