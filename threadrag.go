package threadrag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/threadrag/core/answer"
	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/core/pipeline"
	"github.com/siherrmann/threadrag/core/retrieval"
	"github.com/siherrmann/threadrag/core/session"
	"github.com/siherrmann/threadrag/core/timeline"
	"github.com/siherrmann/threadrag/core/trace"
	"github.com/siherrmann/threadrag/database"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
	loadSql "github.com/siherrmann/threadrag/sql"
)

// ThreadRAG answers questions about email threads within conversational sessions
type ThreadRAG struct {
	Corpus   *corpus.Corpus
	Pipeline *pipeline.Pipeline
	Engine   *retrieval.Engine
	Sessions *session.Store

	retriever retrieval.Strategy
	recorder  *trace.Recorder
	query     model.QueryConfig
	db        *helper.Database
	// Logging
	log *slog.Logger
}

// New creates a ThreadRAG over an already loaded corpus. sink may be nil,
// in which case no traces are written. A nil config uses the defaults and a
// nil logger writes pretty logs to stderr.
func New(c *corpus.Corpus, p *pipeline.Pipeline, config *helper.Configuration, sink trace.Sink, logger *slog.Logger) *ThreadRAG {
	if config == nil {
		config = helper.DefaultConfiguration()
	}
	if logger == nil {
		logger = helper.NewLogger(os.Stderr, config.LogLevel)
	}

	engine := retrieval.NewEngine(c, p.Embedder)
	query := model.DefaultQueryConfig()
	query.TopK = config.TopK
	query.LexicalWeight = config.LexicalWeight
	query.SemanticWeight = config.SemanticWeight
	query.MinRelevance = config.MinRelevance

	r := &ThreadRAG{
		Corpus:    c,
		Pipeline:  p,
		Engine:    engine,
		Sessions:  session.NewStore(c, config.HistorySize, logger),
		retriever: retrieval.NewRetryStrategy(engine, uint64(config.EncodeRetries)),
		query:     query,
		log:       logger,
	}
	if sink != nil {
		r.recorder = trace.NewRecorder(sink, config.TraceBuffer, logger)
	}

	return r
}

// NewFromConfiguration loads the corpus, the embedding model and the trace
// sink named by config
func NewFromConfiguration(ctx context.Context, config *helper.Configuration) (*ThreadRAG, error) {
	logger := helper.NewLogger(os.Stderr, config.LogLevel)

	var db *helper.Database
	openDB := func() (*helper.Database, error) {
		if db != nil {
			return db, nil
		}
		dbConfig, err := helper.NewDatabaseConfiguration()
		if err != nil {
			return nil, err
		}
		db, err = helper.NewDatabase("threadrag", dbConfig, logger)
		if err != nil {
			return nil, err
		}
		if err := loadSql.Init(db.Instance); err != nil {
			return nil, helper.NewError("initialize database extensions", err)
		}
		return db, nil
	}
	fail := func(operation string, err error) (*ThreadRAG, error) {
		if db != nil {
			db.Close()
		}
		return nil, helper.NewError(operation, err)
	}

	var c *corpus.Corpus
	var err error
	switch config.CorpusSource {
	case helper.CorpusSourcePostgres:
		if _, err := openDB(); err != nil {
			return fail("open database", err)
		}
		handler, err := database.NewCorpusDBHandler(db, config.EmbeddingDim, false)
		if err != nil {
			return fail("create corpus handler", err)
		}
		c, err = handler.Load(ctx)
		if err != nil {
			return fail("load corpus", err)
		}
	default:
		c, err = corpus.LoadFiles(ctx, config.DataDir, logger)
		if err != nil {
			return fail("load corpus", err)
		}
	}

	embedder, err := pipeline.DefaultEmbedder(config.ModelDir, config.ModelName)
	if err != nil {
		return fail("create default embedder", err)
	}

	var sink trace.Sink
	switch config.TraceSink {
	case helper.TraceSinkFile:
		sink, err = trace.NewFileSink(config.RunsDir)
		if err != nil {
			return fail("create trace sink", err)
		}
	case helper.TraceSinkPostgres:
		if _, err := openDB(); err != nil {
			return fail("open database", err)
		}
		sink, err = database.NewTracesDBHandler(db, false)
		if err != nil {
			return fail("create trace sink", err)
		}
	}

	r := New(c, pipeline.NewPipeline(embedder), config, sink, logger)
	r.db = db
	return r, nil
}

// Close flushes pending traces and closes the database connection
func (r *ThreadRAG) Close() error {
	var err error
	if r.recorder != nil {
		err = r.recorder.Close()
	}
	if r.db != nil {
		if closeErr := r.db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// Threads returns the known thread ids, sorted
func (r *ThreadRAG) Threads() []string {
	return r.Corpus.Threads()
}

// QueryConfig returns the retrieval settings used by Ask
func (r *ThreadRAG) QueryConfig() model.QueryConfig {
	return r.query
}

// StartSession opens a new session bound to threadID
func (r *ThreadRAG) StartSession(threadID string) (string, error) {
	return r.Sessions.Start(threadID)
}

// GetSession returns a snapshot of a session
func (r *ThreadRAG) GetSession(sessionID string) (model.Session, error) {
	return r.Sessions.Get(sessionID)
}

// ResetSession clears history and entity memory of a session
func (r *ThreadRAG) ResetSession(sessionID string) error {
	return r.Sessions.Reset(sessionID)
}

// SwitchThread binds a session to another thread and clears its context
func (r *ThreadRAG) SwitchThread(sessionID string, threadID string) error {
	return r.Sessions.Switch(sessionID, threadID)
}

// Timeline renders the messages of a thread in date order
func (r *ThreadRAG) Timeline(threadID string) string {
	return timeline.Build(threadID, r.Corpus.ThreadMessages(threadID))
}

// Ask answers question within the session's thread, or the whole corpus with
// searchOutsideThread. The turn runs under the session lock: rewrite,
// retrieve, build the answer, merge the entities and append the turn.
// The trace record is queued afterwards and never delays the answer.
func (r *ThreadRAG) Ask(ctx context.Context, sessionID string, question string, searchOutsideThread bool) (*model.AskResult, error) {
	start := time.Now()
	config := r.query
	config.SearchOutsideThread = searchOutsideThread

	var result *model.AskResult
	var record *model.TraceRecord
	err := r.Sessions.Update(sessionID, func(s *model.Session) error {
		rewritten := r.Pipeline.Rewriter(question, s.ThreadID, s.EntityMemory)

		results, err := r.retriever.Retrieve(ctx, rewritten, s.ThreadID, &config)
		if err != nil {
			return err
		}

		text, citations := answer.Build(question, results, &config)
		added := s.EntityMemory.Merge(r.Pipeline.Extractor(question, results))
		s.AppendTurn(model.Turn{UserText: question, Answer: text}, r.Sessions.HistorySize())

		retrieved := make([]model.RetrievedChunk, len(results))
		for i, res := range results {
			retrieved[i] = model.NewRetrievedChunk(res)
		}
		latency := time.Since(start)
		traceID := uuid.New().String()

		result = &model.AskResult{
			Answer:    text,
			Citations: citations,
			Debug: model.DebugInfo{
				RewrittenQuery: rewritten,
				Retrieved:      retrieved,
				TraceID:        traceID,
				Latency:        latency,
			},
		}
		record = &model.TraceRecord{
			TraceID:        traceID,
			SessionID:      sessionID,
			ThreadID:       s.ThreadID,
			Question:       question,
			RewrittenQuery: rewritten,
			Retrieved:      retrieved,
			Answer:         text,
			Citations:      citations,
			Timestamp:      start.UTC(),
			LatencyMS:      float64(latency.Microseconds()) / 1000,
		}

		r.log.Debug("Answered question",
			slog.String("session_id", sessionID),
			slog.String("thread_id", s.ThreadID),
			slog.Int("retrieved", len(results)),
			slog.Int("citations", len(citations)),
			slog.Int("new_entities", added),
		)
		return nil
	})
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("ask in session %s", sessionID), err)
	}

	if r.recorder != nil {
		r.recorder.Record(record)
	}

	return result, nil
}
