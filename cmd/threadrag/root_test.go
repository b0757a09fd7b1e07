package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/siherrmann/threadrag"
	"github.com/siherrmann/threadrag/core/corpus"
	"github.com/siherrmann/threadrag/core/pipeline"
	"github.com/siherrmann/threadrag/helper"
	"github.com/siherrmann/threadrag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func embedText(_ context.Context, text string) ([]float32, error) {
	if strings.Contains(strings.ToLower(text), "budget") {
		return []float32{1, 0}, nil
	}
	return []float32{0, 1}, nil
}

func testOpen(t *testing.T) openFunc {
	return func(ctx context.Context, config *helper.Configuration) (*threadrag.ThreadRAG, error) {
		chunks := []*model.Chunk{
			{ChunkID: "M-1", ThreadID: "T-1", MessageID: "M-1", Source: model.SourceEmail, Text: "The budget was approved.", From: "a@enron.com", Date: "2001-01-02 10:00"},
			{ChunkID: "M-2", ThreadID: "T-2", MessageID: "M-2", Source: model.SourceEmail, Text: "Meeting moved to noon.", From: "b@enron.com", Date: "2001-01-03 10:00"},
		}
		vectors := [][]float32{{1, 0}, {0, 1}}
		messages := []*model.Message{
			{MessageID: "M-1", ThreadID: "T-1", Date: "2001-01-02 10:00", From: "a@enron.com", Subject: "Budget"},
			{MessageID: "M-2", ThreadID: "T-2", Date: "2001-01-03 10:00", From: "b@enron.com", Subject: "Meeting"},
		}
		c, err := corpus.New(chunks, vectors, nil, messages)
		require.NoError(t, err, "Expected no error building the corpus")
		config.EncodeRetries = 0
		return threadrag.New(c, pipeline.NewPipeline(embedText), config, nil, helper.NewLogger(io.Discard, 0)), nil
	}
}

func execute(t *testing.T, input string, args ...string) (string, error) {
	root := newRootCommand(testOpen(t))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(input))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestThreadsCommand(t *testing.T) {
	out, err := execute(t, "", "threads")
	require.NoError(t, err, "Expected no error listing threads")
	assert.Equal(t, "T-1\t1 messages\nT-2\t1 messages\n", out, "Expected one line per thread")
}

func TestTimelineCommand(t *testing.T) {
	out, err := execute(t, "", "timeline", "T-1")
	require.NoError(t, err, "Expected no error rendering the timeline")
	assert.Contains(t, out, "### Timeline for thread T-1", "Expected the timeline header")
	assert.Contains(t, out, "_Budget_ [msg: M-1]", "Expected the message line")

	_, err = execute(t, "", "timeline")
	assert.Error(t, err, "Expected an error without thread id")
}

func TestAskCommand(t *testing.T) {
	t.Run("Text", func(t *testing.T) {
		out, err := execute(t, "", "ask", "T-1", "was", "the", "budget", "approved?")
		require.NoError(t, err, "Expected no error asking")
		assert.Contains(t, out, "**Question:** was the budget approved?", "Expected the question to be joined")
		assert.Contains(t, out, "[msg: M-1]", "Expected a citation tag")
	})

	t.Run("JSON", func(t *testing.T) {
		out, err := execute(t, "", "ask", "--format", "json", "T-1", "budget?")
		require.NoError(t, err, "Expected no error asking")

		var result model.AskResult
		require.NoError(t, json.Unmarshal([]byte(out), &result), "Expected valid JSON")
		require.Len(t, result.Citations, 1, "Expected one citation")
		assert.Equal(t, "M-1", result.Citations[0].MessageID, "Expected the budget email")
		assert.Contains(t, out, `"page_no": null`, "Expected a null page for emails")
	})

	t.Run("YAML", func(t *testing.T) {
		out, err := execute(t, "", "ask", "-f", "yaml", "T-1", "budget?")
		require.NoError(t, err, "Expected no error asking")

		var decoded map[string]interface{}
		require.NoError(t, yaml.Unmarshal([]byte(out), &decoded), "Expected valid YAML")
		assert.Contains(t, decoded, "answer", "Expected an answer key")
		assert.Contains(t, decoded, "citations", "Expected a citations key")
	})

	t.Run("Unknown format", func(t *testing.T) {
		_, err := execute(t, "", "ask", "-f", "xml", "T-1", "budget?")
		assert.Error(t, err, "Expected an error for an unknown format")
	})

	t.Run("Unknown thread", func(t *testing.T) {
		_, err := execute(t, "", "ask", "T-9", "budget?")
		assert.ErrorIs(t, err, model.ErrInvalidThread, "Expected invalid thread")
	})
}

func TestChatCommand(t *testing.T) {
	t.Run("Questions and commands", func(t *testing.T) {
		input := strings.Join([]string{
			"budget?",
			"/outside",
			"/switch T-9",
			"/switch T-2",
			"/timeline",
			"/reset",
			"/quit",
			"never asked",
		}, "\n")

		out, err := execute(t, input, "chat", "T-1")
		require.NoError(t, err, "Expected no error chatting")
		assert.Contains(t, out, "on thread T-1", "Expected the session banner")
		assert.Contains(t, out, "[msg: M-1]", "Expected an answer with citation")
		assert.Contains(t, out, "Search outside thread: true", "Expected the outside toggle")
		assert.Contains(t, out, "Cannot switch:", "Expected the invalid switch to be reported")
		assert.Contains(t, out, "Switched to thread T-2.", "Expected the switch")
		assert.Contains(t, out, "### Timeline for thread T-2", "Expected the timeline of the new thread")
		assert.Contains(t, out, "Session reset.", "Expected the reset")
		assert.Contains(t, out, "[T-2, outside] > ", "Expected the prompt to show the state")
		assert.NotContains(t, out, "never asked", "Expected input after /quit to be ignored")
	})

	t.Run("End of input", func(t *testing.T) {
		out, err := execute(t, "budget?", "chat", "T-1")
		require.NoError(t, err, "Expected no error at end of input")
		assert.Contains(t, out, "[msg: M-1]", "Expected the answer")
	})
}
