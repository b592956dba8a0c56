package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitions(t *testing.T) {
	require.Len(t, Definitions, len(Tables))

	for i, table := range Tables {
		t.Run(table, func(t *testing.T) {
			def := Definitions[i]
			assert.True(t, strings.HasPrefix(def, "DEFINE TABLE "+table+" "), def)
			for _, stmt := range strings.Split(def, ";") {
				stmt = strings.TrimSpace(stmt)
				if stmt == "" || strings.HasPrefix(stmt, "DEFINE TABLE") {
					continue
				}
				assert.Contains(t, stmt, " ON "+table+" ", "statement belongs to another table: %s", stmt)
			}
		})
	}
}

func TestDefinitions_MetricFields(t *testing.T) {
	def := Definitions[1]
	for _, field := range []string{"type_name", "file", "lcom", "cbo", "wmc"} {
		assert.Contains(t, def, "DEFINE FIELD "+field+" ON analysis_results")
	}
}
