package extract

import (
	"testing"
)

func TestParseGeneratedQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantOk   bool
		wantSQL  string
		wantExpl string
	}{
		{
			name:     "valid bare JSON",
			input:    `{"sql": "SELECT * FROM sales;", "explanation": "All sales rows", "tables_used": ["sales"]}`,
			wantOk:   true,
			wantSQL:  "SELECT * FROM sales;",
			wantExpl: "All sales rows",
		},
		{
			name: "JSON inside json fence",
			input: "```json\n" +
				`{"sql": "SELECT SUM(amount) FROM sales;", "explanation": "Total sales", "tables_used": ["sales"]}` +
				"\n```",
			wantOk:   true,
			wantSQL:  "SELECT SUM(amount) FROM sales;",
			wantExpl: "Total sales",
		},
		{
			name: "JSON inside plain fence",
			input: "```\n" +
				`{"sql": "SELECT 1;", "explanation": "probe", "tables_used": []}` +
				"\n```",
			wantOk:  true,
			wantSQL: "SELECT 1;",
		},
		{
			name:   "bare SQL is not JSON",
			input:  "SELECT * FROM users;",
			wantOk: false,
		},
		{
			name:   "fenced SQL is not JSON",
			input:  "```sql\nSELECT * FROM users;\n```",
			wantOk: false,
		},
		{
			name:   "JSON without sql key",
			input:  `{"explanation": "no query here", "tables_used": []}`,
			wantOk: false,
		},
		{
			name:   "garbage",
			input:  "I'm sorry, I cannot help with that.",
			wantOk: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ParseGeneratedQuery(tt.input)

			if ok != tt.wantOk {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if result.SQL != tt.wantSQL {
				t.Errorf("SQL = %q, want %q", result.SQL, tt.wantSQL)
			}
			if tt.wantExpl != "" && result.Explanation != tt.wantExpl {
				t.Errorf("Explanation = %q, want %q", result.Explanation, tt.wantExpl)
			}
		})
	}
}

func TestExtractCodeBlock(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "sql fence",
			input: "Here is the query:\n```sql\nSELECT COUNT(*) FROM orders;\n```\nHope that helps.",
			want:  "SELECT COUNT(*) FROM orders;",
		},
		{
			name:  "plain fence",
			input: "```\nSELECT id FROM users LIMIT 10;\n```",
			want:  "SELECT id FROM users LIMIT 10;",
		},
		{
			name:  "no fence returns trimmed text",
			input: "  SELECT 1;  ",
			want:  "SELECT 1;",
		},
		{
			name:  "unterminated fence falls through",
			input: "```sql\nSELECT 1;",
			want:  "```sql\nSELECT 1;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCodeBlock(tt.input)
			if got != tt.want {
				t.Errorf("ExtractCodeBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no fences", input: `{"a": 1}`, want: `{"a": 1}`},
		{name: "json fence", input: "```json\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "plain fence", input: "```\n{\"a\": 1}\n```", want: `{"a": 1}`},
		{name: "leading whitespace", input: "  \n```json\n{}\n```  ", want: "{}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripFences(tt.input)
			if got != tt.want {
				t.Errorf("StripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}
