package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed init.sql
var initSQL string

//go:embed chunks.sql
var chunksSQL string

//go:embed messages.sql
var messagesSQL string

//go:embed traces.sql
var tracesSQL string

// Function lists for verification
var ChunksFunctions = []string{
	"init_chunks",
	"insert_chunk",
	"select_all_chunks",
	"select_chunks_by_thread",
	"delete_chunk",
}

var MessagesFunctions = []string{
	"init_messages",
	"insert_message",
	"select_all_messages",
}

var TracesFunctions = []string{
	"init_traces",
	"insert_trace",
	"select_traces_by_session",
}

// Init initializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	slog.Debug("Database extensions initialized")
	return nil
}

// LoadChunksSql loads chunk-related SQL functions
func LoadChunksSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "chunks", chunksSQL, ChunksFunctions, force)
}

// LoadMessagesSql loads message-related SQL functions
func LoadMessagesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "messages", messagesSQL, MessagesFunctions, force)
}

// LoadTracesSql loads trace-related SQL functions
func LoadTracesSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "traces", tracesSQL, TracesFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadChunksSql(db, force); err != nil {
		return err
	}

	if err := LoadMessagesSql(db, force); err != nil {
		return err
	}

	if err := LoadTracesSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadFunctions executes script unless all functions already exist.
// With force the script is always executed.
func loadFunctions(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required %s SQL functions were created", name)
	}

	slog.Debug("SQL functions loaded", slog.String("group", name))
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			slog.Debug("Function does not exist", slog.String("function", f))
			break
		}
	}
	return allExist, nil
}
