package implementation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"db-rag-be/internal/repository/contract"
	"db-rag-be/pkg/rag/ragerr"

	"gorm.io/gorm"
)

// Table names are interpolated into introspection SQL, so they must be plain
// identifiers.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type SchemaRepositoryImpl struct {
	db *gorm.DB
}

func NewSchemaRepository(db *gorm.DB) contract.SchemaRepository {
	return &SchemaRepositoryImpl{db: db}
}

func (r *SchemaRepositoryImpl) ListTables(ctx context.Context, exclude []string) ([]string, error) {
	var tables []string
	err := r.db.WithContext(ctx).
		Raw(`SELECT table_name FROM information_schema.tables
		     WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		     ORDER BY table_name`).
		Scan(&tables).Error
	if err != nil {
		return nil, err
	}

	excluded := make(map[string]bool, len(exclude))
	for _, t := range exclude {
		excluded[t] = true
	}

	filtered := make([]string, 0, len(tables))
	for _, t := range tables {
		if !excluded[t] {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (r *SchemaRepositoryImpl) DescribeTable(ctx context.Context, tableName string) (string, error) {
	if !identifierPattern.MatchString(tableName) {
		return "", fmt.Errorf("invalid table name: %q", tableName)
	}

	type column struct {
		ColumnName    string
		DataType      string
		IsNullable    string
		ColumnDefault *string
	}
	var columns []column

	err := r.db.WithContext(ctx).
		Raw(`SELECT column_name, data_type, is_nullable, column_default
		     FROM information_schema.columns
		     WHERE table_schema = 'public' AND table_name = ?
		     ORDER BY ordinal_position`, tableName).
		Scan(&columns).Error
	if err != nil {
		return "", err
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("table %q not found", tableName)
	}

	var b strings.Builder
	for _, c := range columns {
		fmt.Fprintf(&b, "%s %s", c.ColumnName, c.DataType)
		if c.IsNullable == "NO" {
			b.WriteString(" NOT NULL")
		}
		if c.ColumnDefault != nil {
			fmt.Fprintf(&b, " DEFAULT %s", *c.ColumnDefault)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (r *SchemaRepositoryImpl) SampleRows(ctx context.Context, tableName string, limit int) ([]map[string]interface{}, error) {
	if !identifierPattern.MatchString(tableName) {
		return nil, fmt.Errorf("invalid table name: %q", tableName)
	}
	if limit <= 0 {
		limit = 3
	}

	query := fmt.Sprintf(`SELECT * FROM "%s" LIMIT %d`, tableName, limit)
	return r.scanRows(ctx, r.db, query, limit)
}

// ValidateQuery runs EXPLAIN on the statement inside a transaction that is
// always rolled back, so even a mis-classified write cannot persist.
func (r *SchemaRepositoryImpl) ValidateQuery(ctx context.Context, query string) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := tx.Exec("EXPLAIN " + query).Error; err != nil {
		return fmt.Errorf("%w: %v", ragerr.ErrQueryValidation, err)
	}
	return nil
}

func (r *SchemaRepositoryImpl) ExecuteQuery(ctx context.Context, query string, maxRows int) ([]map[string]interface{}, error) {
	rows, err := r.scanRows(ctx, r.db, query, maxRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ragerr.ErrQueryExecution, err)
	}
	return rows, nil
}

func (r *SchemaRepositoryImpl) scanRows(ctx context.Context, db *gorm.DB, query string, maxRows int) ([]map[string]interface{}, error) {
	rows, err := db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	values := make([]interface{}, len(columns))
	pointers := make([]interface{}, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if maxRows > 0 && len(results) >= maxRows {
			break
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			v := values[i]
			// Drivers return text columns as raw bytes
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}
