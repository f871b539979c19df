package implementation

import (
	"context"
	"errors"
	"testing"

	"db-rag-be/pkg/rag/ragerr"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newSchemaRepoWithMock(t *testing.T) (*SchemaRepositoryImpl, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	return &SchemaRepositoryImpl{db: gdb}, mock, func() { _ = db.Close() }
}

func TestListTablesFiltersExcluded(t *testing.T) {
	repo, mock, done := newSchemaRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"table_name"}).
		AddRow("customers").
		AddRow("orders").
		AddRow("table_metadata_catalog")

	mock.ExpectQuery("SELECT table_name FROM information_schema.tables").
		WillReturnRows(rows)

	tables, err := repo.ListTables(context.Background(), []string{"table_metadata_catalog", "company_documents"})
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("expected 2 tables, got %v", tables)
	}
	if tables[0] != "customers" || tables[1] != "orders" {
		t.Fatalf("unexpected tables: %v", tables)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDescribeTableRejectsInvalidIdentifier(t *testing.T) {
	repo, _, done := newSchemaRepoWithMock(t)
	defer done()

	_, err := repo.DescribeTable(context.Background(), "users; DROP TABLE users")
	if err == nil {
		t.Fatalf("expected error for invalid identifier")
	}
}

func TestValidateQueryExplainsAndRollsBack(t *testing.T) {
	repo, mock, done := newSchemaRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("EXPLAIN SELECT \\* FROM orders").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.ValidateQuery(context.Background(), "SELECT * FROM orders"); err != nil {
		t.Fatalf("ValidateQuery() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestValidateQueryWrapsFailure(t *testing.T) {
	repo, mock, done := newSchemaRepoWithMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec("EXPLAIN SELECT bogus").
		WillReturnError(errors.New(`column "bogus" does not exist`))
	mock.ExpectRollback()

	err := repo.ValidateQuery(context.Background(), "SELECT bogus")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !errors.Is(err, ragerr.ErrQueryValidation) {
		t.Fatalf("expected ErrQueryValidation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestExecuteQueryCapsRowsAndDecodesBytes(t *testing.T) {
	repo, mock, done := newSchemaRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(1, []byte("Alice")).
		AddRow(2, []byte("Bob")).
		AddRow(3, []byte("Carol"))

	mock.ExpectQuery("SELECT id, name FROM customers").
		WillReturnRows(rows)

	results, err := repo.ExecuteQuery(context.Background(), "SELECT id, name FROM customers", 2)
	if err != nil {
		t.Fatalf("ExecuteQuery() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected row cap of 2, got %d rows", len(results))
	}
	if results[0]["name"] != "Alice" {
		t.Fatalf("expected byte column decoded to string, got %T %v", results[0]["name"], results[0]["name"])
	}
}

func TestExecuteQueryWrapsFailure(t *testing.T) {
	repo, mock, done := newSchemaRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT nope").
		WillReturnError(errors.New("syntax error"))

	_, err := repo.ExecuteQuery(context.Background(), "SELECT nope", 10)
	if err == nil {
		t.Fatalf("expected execution error")
	}
	if !errors.Is(err, ragerr.ErrQueryExecution) {
		t.Fatalf("expected ErrQueryExecution, got %v", err)
	}
}
