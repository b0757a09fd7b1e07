package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
	loadSql "github.com/siherrmann/threadrag/sql"
)

// TracesDBHandler stores trace records. It can be used as a trace sink.
type TracesDBHandler struct {
	db *helper.Database
}

// NewTracesDBHandler creates a new traces database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTracesDBHandler(db *helper.Database, force bool) (*TracesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	tracesDbHandler := &TracesDBHandler{
		db: db,
	}

	err := loadSql.LoadTracesSql(tracesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load traces sql", err)
	}

	err = tracesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TracesDBHandler")

	return tracesDbHandler, nil
}

// CreateTable creates the 'traces' table if it does not exist
func (h *TracesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_traces();`)
	if err != nil {
		return helper.NewError("init traces", err)
	}

	h.db.Logger.Debug("Checked/created table traces")

	return nil
}

// Write inserts one trace record
func (h *TracesDBHandler) Write(ctx context.Context, record *model.TraceRecord) error {
	traceID, err := uuid.Parse(record.TraceID)
	if err != nil {
		return helper.NewError("parse trace id", err)
	}
	retrieved, err := json.Marshal(nonNil(record.Retrieved))
	if err != nil {
		return helper.NewError("marshal retrieved", err)
	}
	citations, err := json.Marshal(nonNil(record.Citations))
	if err != nil {
		return helper.NewError("marshal citations", err)
	}
	timestamp := record.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var id int
	err = h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_trace($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		traceID,
		record.SessionID,
		record.ThreadID,
		record.Question,
		record.RewrittenQuery,
		string(retrieved),
		record.Answer,
		string(citations),
		record.LatencyMS,
		timestamp,
	).Scan(&id)
	if err != nil {
		return helper.NewError("insert", err)
	}

	return nil
}

// SelectTracesBySession returns the trace records of a session in insertion order
func (h *TracesDBHandler) SelectTracesBySession(ctx context.Context, sessionID string) ([]*model.TraceRecord, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_traces_by_session($1)`, sessionID)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var records []*model.TraceRecord
	for rows.Next() {
		record := &model.TraceRecord{}
		var traceID uuid.UUID
		var retrieved, citations []byte
		err := rows.Scan(
			&traceID,
			&record.SessionID,
			&record.ThreadID,
			&record.Question,
			&record.RewrittenQuery,
			&retrieved,
			&record.Answer,
			&citations,
			&record.LatencyMS,
			&record.Timestamp,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		record.TraceID = traceID.String()
		if err := json.Unmarshal(retrieved, &record.Retrieved); err != nil {
			return nil, helper.NewError("unmarshal retrieved", err)
		}
		if err := json.Unmarshal(citations, &record.Citations); err != nil {
			return nil, helper.NewError("unmarshal citations", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("rows", err)
	}

	return records, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
