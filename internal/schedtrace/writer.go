// Package schedtrace persists scheduler hook firings to a SQLite database
// for offline inspection, grounded on the teacher's SQLiteTraceWriter.
package schedtrace

import (
	"database/sql"
	"fmt"
	"time"

	// Registers the sqlite3 driver used by database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/stripesched/internal/hooking"
	"github.com/sarchlab/stripesched/internal/stripe"
)

// event is one row buffered for the events table.
type event struct {
	id             string
	kind           string
	refName        string
	entryName      string
	statementIndex int
	detail         string
	at             int64
}

// Writer is a hooking.Hook that batches scheduling events into a SQLite
// database, flushing under a transaction either when the batch fills or
// when the process exits (via atexit), so a CLI run that never explicitly
// calls Close still persists its buffer.
type Writer struct {
	db        *sql.DB
	insert    *sql.Stmt
	path      string
	batchSize int
	pending   []event
}

// NewWriter opens (creating if needed) a SQLite database at path and
// prepares it to receive events. Callers should defer Close, but a process
// that exits through atexit.Exit also flushes any buffered rows.
func NewWriter(path string) (*Writer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("schedtrace: open %s: %w", path, err)
	}

	w := &Writer{db: db, path: path, batchSize: 500}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id               TEXT PRIMARY KEY,
			kind             TEXT NOT NULL,
			ref_name         TEXT,
			entry_name       TEXT,
			statement_index  INTEGER,
			detail           TEXT,
			at               INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("schedtrace: create table: %w", err)
	}

	stmt, err := db.Prepare(`
		INSERT INTO events (id, kind, ref_name, entry_name, statement_index, detail, at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("schedtrace: prepare insert: %w", err)
	}
	w.insert = stmt

	atexit.Register(func() {
		if err := w.Flush(); err != nil {
			fmt.Printf("schedtrace: flush on exit: %v\n", err)
		}
	})

	return w, nil
}

// Func implements hooking.Hook. It never returns an error to the caller;
// write failures are reported through fmt, matching the teacher's tracer
// (which panics rather than propagating, since a broken trace sink should
// not abort a schedule that otherwise succeeded).
func (w *Writer) Func(ctx hooking.HookCtx) {
	ev := event{
		id:   xid.New().String(),
		kind: ctx.Pos.Name,
		at:   time.Now().UnixNano(),
	}

	switch ctx.Pos {
	case hooking.HookPosStatementScheduled:
		if stmt, ok := ctx.Item.(*stripe.Statement); ok {
			ev.refName = stmt.Name
		}
		ev.detail = fmt.Sprintf("%v", ctx.Detail)
	case hooking.HookPosCacheEntryCreated, hooking.HookPosCacheEntryRetired:
		if name, ok := ctx.Item.(string); ok {
			ev.entryName = name
		}
	case hooking.HookPosSwapInserted:
		if name, ok := ctx.Item.(string); ok {
			ev.refName = name
		}
		if detail, ok := ctx.Detail.(string); ok {
			ev.detail = detail
		}
	case hooking.HookPosResourceExhausted:
		if names, ok := ctx.Item.([]string); ok {
			ev.refName = fmt.Sprintf("%v", names)
		}
		if block, ok := ctx.Detail.(string); ok {
			ev.detail = block
		}
	}

	w.pending = append(w.pending, ev)
	if len(w.pending) >= w.batchSize {
		if err := w.Flush(); err != nil {
			fmt.Printf("schedtrace: flush: %v\n", err)
		}
	}
}

var _ hooking.Hook = (*Writer)(nil)

// Flush writes every buffered event inside a single transaction.
func (w *Writer) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("schedtrace: begin: %w", err)
	}

	stmt := tx.Stmt(w.insert)
	for _, ev := range w.pending {
		if _, err := stmt.Exec(ev.id, ev.kind, ev.refName, ev.entryName, ev.statementIndex, ev.detail, ev.at); err != nil {
			tx.Rollback()
			return fmt.Errorf("schedtrace: insert: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("schedtrace: commit: %w", err)
	}

	w.pending = nil
	return nil
}

// Close flushes any buffered events and closes the underlying database.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	return w.db.Close()
}
