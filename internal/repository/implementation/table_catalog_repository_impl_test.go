package implementation

import (
	"context"
	"testing"

	"db-rag-be/internal/mapper"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newCatalogRepoWithMock(t *testing.T) (*TableCatalogRepositoryImpl, sqlmock.Sqlmock, func()) {
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

	repo := &TableCatalogRepositoryImpl{db: gdb, mapper: mapper.NewTableCatalogMapper()}
	return repo, mock, func() { _ = db.Close() }
}

func TestSearchKeywordMatchesColumnDefinitions(t *testing.T) {
	repo, mock, done := newCatalogRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "table_name", "table_description"}).
		AddRow(1, "orders", "Customer orders.")

	// All four text columns participate in the keyword tier
	mock.ExpectQuery(`table_name ILIKE .+ OR table_description ILIKE .+ OR business_context ILIKE .+ OR column_definitions ILIKE`).
		WillReturnRows(rows)

	entries, err := repo.SearchKeyword(context.Background(), []string{"customer"}, 5)
	if err != nil {
		t.Fatalf("SearchKeyword() error = %v", err)
	}
	if len(entries) != 1 || entries[0].TableName != "orders" {
		t.Errorf("unexpected entries: %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestSearchKeywordSkipsBlankKeywords(t *testing.T) {
	repo, mock, done := newCatalogRepoWithMock(t)
	defer done()

	entries, err := repo.SearchKeyword(context.Background(), []string{"", "  "}, 5)
	if err != nil {
		t.Fatalf("SearchKeyword() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries for blank keywords, got %+v", entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no query should run for blank keywords: %v", err)
	}
}
