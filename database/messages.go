package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
	loadSql "github.com/siherrmann/threadrag/sql"
)

// MessagesDBHandler handles message metadata
type MessagesDBHandler struct {
	db *helper.Database
}

// NewMessagesDBHandler creates a new messages database handler.
// If force is true, it will reload the SQL functions even if they already exist.
func NewMessagesDBHandler(db *helper.Database, force bool) (*MessagesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	messagesDbHandler := &MessagesDBHandler{
		db: db,
	}

	err := loadSql.LoadMessagesSql(messagesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load messages sql", err)
	}

	err = messagesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized MessagesDBHandler")

	return messagesDbHandler, nil
}

// CreateTable creates the 'messages' table if it does not exist
func (h *MessagesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_messages();`)
	if err != nil {
		return helper.NewError("init messages", err)
	}

	h.db.Logger.Debug("Checked/created table messages")

	return nil
}

// InsertMessage inserts or replaces a message. ordinal is its position in the thread.
func (h *MessagesDBHandler) InsertMessage(ctx context.Context, message *model.Message, ordinal int) error {
	if message.MessageID == "" || message.ThreadID == "" {
		return helper.NewError("validate message", fmt.Errorf("message_id and thread_id are required"))
	}

	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT insert_message($1, $2, $3, $4, $5, $6, $7)`,
		message.MessageID,
		message.ThreadID,
		ordinal,
		message.Date,
		message.From,
		message.To,
		message.Subject,
	)
	if err != nil {
		return helper.NewError("insert", err)
	}

	return nil
}

// SelectAllMessages returns all messages and the threads they form, each
// thread listing its message ids in order
func (h *MessagesDBHandler) SelectAllMessages(ctx context.Context) ([]*model.Message, []*model.Thread, error) {
	rows, err := h.db.Instance.QueryContext(ctx, `SELECT * FROM select_all_messages()`)
	if err != nil {
		return nil, nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var messages []*model.Message
	var threads []*model.Thread
	byThread := make(map[string]*model.Thread)
	for rows.Next() {
		m := &model.Message{}
		err := rows.Scan(&m.MessageID, &m.ThreadID, &m.Date, &m.From, &m.To, &m.Subject)
		if err != nil {
			return nil, nil, helper.NewError("scan", err)
		}
		messages = append(messages, m)

		thread, ok := byThread[m.ThreadID]
		if !ok {
			thread = &model.Thread{ThreadID: m.ThreadID}
			byThread[m.ThreadID] = thread
			threads = append(threads, thread)
		}
		thread.MessageIDs = append(thread.MessageIDs, m.MessageID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, helper.NewError("rows", err)
	}

	return messages, threads, nil
}
