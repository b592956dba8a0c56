package schema

import (
	"fmt"

	surrealdb "github.com/surrealdb/surrealdb.go"
)

// Table names written by a run
const (
	TypeRecords     = "type_records"
	AnalysisResults = "analysis_results"
	Warnings        = "warnings"
)

// Tables lists every table owned by rsmetrics.
var Tables = []string{TypeRecords, AnalysisResults, Warnings}

// Definitions holds the SurrealQL statements run by InitializeSchema, one
// table per entry.
var Definitions = []string{
	// Resolved type model; methods are nested objects, so the table is schemaless
	`DEFINE TABLE type_records SCHEMALESS;
	 DEFINE FIELD name ON type_records TYPE string;
	 DEFINE FIELD kind ON type_records TYPE string;
	 DEFINE FIELD file ON type_records TYPE string;
	 DEFINE FIELD line ON type_records TYPE int;
	 DEFINE FIELD created_at ON type_records TYPE datetime DEFAULT time::now();
	 DEFINE INDEX type_name ON type_records FIELDS name;
	 DEFINE INDEX type_file ON type_records FIELDS file;`,

	`DEFINE TABLE analysis_results SCHEMAFULL;
	 DEFINE FIELD type_name ON analysis_results TYPE string;
	 DEFINE FIELD file ON analysis_results TYPE string;
	 DEFINE FIELD lcom ON analysis_results TYPE float;
	 DEFINE FIELD cbo ON analysis_results TYPE int;
	 DEFINE FIELD wmc ON analysis_results TYPE int;
	 DEFINE FIELD created_at ON analysis_results TYPE datetime DEFAULT time::now();
	 DEFINE INDEX result_type ON analysis_results FIELDS type_name UNIQUE;
	 DEFINE INDEX result_lcom ON analysis_results FIELDS lcom;`,

	`DEFINE TABLE warnings SCHEMAFULL;
	 DEFINE FIELD kind ON warnings TYPE string;
	 DEFINE FIELD file ON warnings TYPE option<string>;
	 DEFINE FIELD type ON warnings TYPE option<string>;
	 DEFINE FIELD method ON warnings TYPE option<string>;
	 DEFINE FIELD message ON warnings TYPE string;
	 DEFINE FIELD created_at ON warnings TYPE datetime DEFAULT time::now();
	 DEFINE INDEX warning_kind ON warnings FIELDS kind;`,
}

// InitializeSchema sets up the tables and indexes for rsmetrics
func InitializeSchema(db *surrealdb.DB) error {
	for _, schema := range Definitions {
		if _, err := surrealdb.Query[any](db, schema, map[string]interface{}{}); err != nil {
			return fmt.Errorf("schema initialization error: %w", err)
		}
	}

	return nil
}
