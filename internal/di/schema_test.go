package di

import (
	"reflect"
	"strings"
	"testing"

	"SentiPull/internal/repository"
)

// ddlColumns pulls the column names out of the CREATE TABLE statement
// for table, in declaration order.
func ddlColumns(t *testing.T, stmts []string, table string) []string {
	t.Helper()
	for _, stmt := range stmts {
		if !strings.Contains(stmt, table) {
			continue
		}
		open := strings.Index(stmt, "(")
		end := strings.Index(stmt, ") ENGINE")
		if open < 0 || end < 0 {
			t.Fatalf("unparseable DDL for %s: %q", table, stmt)
		}
		var cols []string
		for _, def := range strings.Split(stmt[open+1:end], ",") {
			fields := strings.Fields(def)
			if len(fields) > 0 {
				cols = append(cols, fields[0])
			}
		}
		return cols
	}
	t.Fatalf("no CREATE TABLE statement for %s", table)
	return nil
}

// The inserts and selects build their column lists from the shared
// repository vars; the tables created at startup must declare the
// same columns in the same order or every query fails at runtime.
func TestSchemaMatchesRepositoryColumns(t *testing.T) {
	stmts := schemaStatements("sentipull")

	tests := []struct {
		table string
		want  []string
	}{
		{"sentiment_obs_raw", repository.SentimentColumns},
		{"price_bars_1d", repository.PriceColumns},
		{"scored_posts_raw", repository.ScoredPostsColumns},
	}
	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			got := ddlColumns(t, stmts, tt.table)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DDL columns = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchemaStatementsUseDatabase(t *testing.T) {
	for _, stmt := range schemaStatements("analytics") {
		if !strings.Contains(stmt, "analytics") {
			t.Errorf("statement missing database qualifier: %q", stmt)
		}
	}
}
