package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

func TestMemoryStoreRestoresFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	ctx := context.Background()
	for i, action := range []string{"GET_BALANCE", "TRANSFER", "SWAP"} {
		rec := &Record{RequestID: fmt.Sprintf("req-%d", i), Action: action, Text: "t", Outcome: "ok", CreatedAt: int64(i)}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("save: %v", err)
		}
		if rec.ID != int64(i+1) {
			t.Fatalf("expected id %d, got %d", i+1, rec.ID)
		}
	}

	latest, err := store.ListLatest(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(latest) != 2 || latest[0].Action != "SWAP" || latest[1].Action != "TRANSFER" {
		t.Fatalf("unexpected order: %+v", latest)
	}

	reopened, err := NewMemoryStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	all, err := reopened.ListLatest(ctx, 0)
	if err != nil {
		t.Fatalf("list after reopen: %v", err)
	}
	if len(all) != 3 || all[0].Action != "SWAP" {
		t.Fatalf("records not restored: %+v", all)
	}
	next := &Record{Action: "STAKE"}
	if err := reopened.Save(ctx, next); err != nil {
		t.Fatalf("save after reopen: %v", err)
	}
	if next.ID != 4 {
		t.Fatalf("ids must continue after restore, got %d", next.ID)
	}
}

func TestEntriesCarryOutcome(t *testing.T) {
	entries := Entries([]Record{{Action: "TRANSFER", Text: "send 1 BNB", Outcome: "Transferred 1 BNB", CreatedAt: 5}})
	if len(entries) != 1 || entries[0].Outcome != "Transferred 1 BNB" || entries[0].CreatedAt != 5 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestSQLStoreSave(t *testing.T) {
	t.Parallel()

	db, drv := newMockDB(t, []mockOperation{
		execOp(insertRecordSQL, mockResult{lastInsertID: 42, rowsAffected: 1}),
	})
	defer drv.assertConsumed(t)
	defer db.Close()

	store := &SQLStore{db: db}
	rec := &Record{RequestID: "r", Action: "TRANSFER", Text: "send", Success: true, Hash: "0xabc", Outcome: "ok", CreatedAt: 1}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.ID != 42 {
		t.Fatalf("expected id 42, got %d", rec.ID)
	}
}

func TestSQLStoreListLatest(t *testing.T) {
	t.Parallel()

	rows := mockRowsData{
		columns: []string{"id", "request_id", "action", "input_text", "chain", "success", "error_kind", "tx_hash", "outcome", "created_at"},
		values: [][]driver.Value{
			{int64(2), "r2", "SWAP", "swap", "bsc", int64(0), "ROUTE_NOT_FOUND", "", "no route", int64(20)},
			{int64(1), "r1", "TRANSFER", "send", "bsc", int64(1), "", "0xabc", "ok", int64(10)},
		},
	}
	db, drv := newMockDB(t, []mockOperation{queryOp(listRecordsSQL, rows)})
	defer drv.assertConsumed(t)
	defer db.Close()

	store := &SQLStore{db: db}
	list, err := store.ListLatest(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].ID != 2 || list[0].Success || !list[1].Success || list[1].Hash != "0xabc" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestSQLStoreRunMigrations(t *testing.T) {
	t.Parallel()

	files, err := loadMigrationFiles()
	if err != nil {
		t.Fatalf("load migrations: %v", err)
	}
	if len(files) == 0 || files[0].version != "001" {
		t.Fatalf("unexpected migrations: %+v", files)
	}

	ops := []mockOperation{
		execOp(createMigrationsTableSQL, mockResult{}),
		queryOp(`SELECT version FROM schema_migrations`, mockRowsData{columns: []string{"version"}}),
	}
	for _, f := range files {
		ops = append(ops, beginOp())
		for _, stmt := range f.statements {
			ops = append(ops, execOp(stmt, mockResult{}))
		}
		ops = append(ops,
			execOp(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`, mockResult{rowsAffected: 1}),
			commitOp())
	}
	db, drv := newMockDB(t, ops)
	defer drv.assertConsumed(t)
	defer db.Close()

	store := &SQLStore{db: db}
	if err := store.runMigrations(context.Background()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}

func TestSQLStoreSkipsAppliedMigrations(t *testing.T) {
	t.Parallel()

	db, drv := newMockDB(t, []mockOperation{
		execOp(createMigrationsTableSQL, mockResult{}),
		queryOp(`SELECT version FROM schema_migrations`, mockRowsData{columns: []string{"version"}, values: [][]driver.Value{{"001"}}}),
	})
	defer drv.assertConsumed(t)
	defer db.Close()

	store := &SQLStore{db: db}
	if err := store.runMigrations(context.Background()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}

type operationType int

const (
	opExec operationType = iota
	opQuery
	opBegin
	opCommit
	opRollback
)

type mockOperation struct {
	typ    operationType
	query  string
	result mockResult
	rows   mockRowsData
	err    error
}

type mockResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r mockResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }
func (r mockResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type mockRowsData struct {
	columns []string
	values  [][]driver.Value
}

type queueDriver struct {
	ops []mockOperation
	idx int32
}

var driverSeq atomic.Int32

func newMockDB(t *testing.T, ops []mockOperation) (*sql.DB, *queueDriver) {
	t.Helper()

	drv := &queueDriver{ops: ops}
	name := fmt.Sprintf("mock-history-%d", driverSeq.Add(1))
	sql.Register(name, drv)

	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open mock db: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, drv
}

func execOp(query string, result mockResult) mockOperation {
	return mockOperation{typ: opExec, query: query, result: result}
}

func queryOp(query string, rows mockRowsData) mockOperation {
	return mockOperation{typ: opQuery, query: query, rows: rows}
}

func beginOp() mockOperation  { return mockOperation{typ: opBegin} }
func commitOp() mockOperation { return mockOperation{typ: opCommit} }

func (d *queueDriver) assertConsumed(t *testing.T) {
	t.Helper()
	if int(atomic.LoadInt32(&d.idx)) != len(d.ops) {
		t.Fatalf("not all operations consumed: %d/%d", atomic.LoadInt32(&d.idx), len(d.ops))
	}
}

func (d *queueDriver) Open(string) (driver.Conn, error) {
	return &mockConn{driver: d}, nil
}

func (d *queueDriver) next(expected operationType, query string) (*mockOperation, error) {
	idx := int(atomic.LoadInt32(&d.idx))
	if idx >= len(d.ops) {
		return nil, fmt.Errorf("unexpected operation: %v", expected)
	}
	op := &d.ops[idx]
	if op.typ != expected {
		return nil, fmt.Errorf("expected operation %v, got %v", op.typ, expected)
	}
	atomic.AddInt32(&d.idx, 1)
	if op.query != "" && normalizeSQL(op.query) != normalizeSQL(query) {
		return nil, fmt.Errorf("unexpected query. want %q got %q", normalizeSQL(op.query), normalizeSQL(query))
	}
	return op, op.err
}

type mockConn struct {
	driver *queueDriver
}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported: %s", query)
}

func (c *mockConn) Close() error { return nil }

func (c *mockConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *mockConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if _, err := c.driver.next(opBegin, ""); err != nil {
		return nil, err
	}
	return &mockTx{driver: c.driver}, nil
}

func (c *mockConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	op, err := c.driver.next(opExec, query)
	if err != nil {
		return nil, err
	}
	return op.result, nil
}

func (c *mockConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	op, err := c.driver.next(opQuery, query)
	if err != nil {
		return nil, err
	}
	return &mockRows{columns: op.rows.columns, values: op.rows.values}, nil
}

type mockTx struct {
	driver *queueDriver
}

func (t *mockTx) Commit() error {
	_, err := t.driver.next(opCommit, "")
	return err
}

func (t *mockTx) Rollback() error {
	_, err := t.driver.next(opRollback, "")
	return err
}

type mockRows struct {
	columns []string
	values  [][]driver.Value
	idx     int
}

func (r *mockRows) Columns() []string { return r.columns }
func (r *mockRows) Close() error      { return nil }

func (r *mockRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.idx])
	r.idx++
	return nil
}

func normalizeSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
