package fixtures

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/penwyp/go-agent-timeline/internal/core/model"
)

// TestDataGenerator writes agent log exports for tests. Record ids increase
// monotonically across every file a generator writes.
type TestDataGenerator struct {
	baseDir string
	nextID  int64
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
		nextID:  1,
	}
}

// Record builds a log record with the next id. Details may be nil.
func (g *TestDataGenerator) Record(agent, logType, pairID string, at time.Time, details map[string]interface{}) model.LogRecord {
	rec := model.LogRecord{
		ID:              model.FlexibleID(g.nextID),
		LogType:         logType,
		PairID:          model.NullableString(pairID),
		CreatedAt:       at.UTC(),
		AgentSystemName: agent,
	}
	g.nextID++

	if details != nil {
		if raw, err := sonic.Marshal(details); err == nil {
			rec.Details = raw
		}
	}
	return rec
}

// Interaction returns a request and its response sharing a fresh pair id.
func (g *TestDataGenerator) Interaction(agent string, at time.Time, inputTokens, outputTokens int) []model.LogRecord {
	pairID := uuid.NewString()

	req := g.Record(agent, "request", pairID, at, map[string]interface{}{"prompt": "Summarize the latest draft"})
	req.InputTokens = inputTokens

	resp := g.Record(agent, "response", pairID, at.Add(2*time.Second), map[string]interface{}{"text": "Here is the summary"})
	resp.OutputTokens = outputTokens

	return []model.LogRecord{req, resp}
}

// FailedInteraction returns a request followed by an error under one pair id.
func (g *TestDataGenerator) FailedInteraction(agent string, at time.Time) []model.LogRecord {
	pairID := uuid.NewString()
	return []model.LogRecord{
		g.Record(agent, "request", pairID, at, map[string]interface{}{"prompt": "Translate the brief"}),
		g.Record(agent, "error", pairID, at.Add(time.Second), map[string]interface{}{"error": "upstream timeout"}),
	}
}

// MixedSession covers every interaction kind for one agent, starting at start
// and moving forward a minute per interaction.
func (g *TestDataGenerator) MixedSession(agent string, start time.Time) []model.LogRecord {
	var records []model.LogRecord
	at := start

	records = append(records, g.Interaction(agent, at, 120, 480)...)
	at = at.Add(time.Minute)

	records = append(records, g.FailedInteraction(agent, at)...)
	at = at.Add(time.Minute)

	records = append(records, g.Record(agent, "request", uuid.NewString(), at, map[string]interface{}{"prompt": "never answered"}))
	at = at.Add(time.Minute)

	records = append(records, g.Record(agent, "response", uuid.NewString(), at, map[string]interface{}{"text": "late reply"}))
	at = at.Add(time.Minute)

	records = append(records, g.Record(agent, "error", uuid.NewString(), at, map[string]interface{}{"error": "rate limited"}))
	at = at.Add(time.Minute)

	records = append(records, g.Record(agent, "info", "", at, map[string]interface{}{"message": "agent started"}))
	at = at.Add(time.Minute)

	records = append(records, g.Record(agent, "tool_call", "", at, map[string]interface{}{"tool": "search"}))

	return records
}

// LargeDataset returns n paired interactions spaced a second apart.
func (g *TestDataGenerator) LargeDataset(agent string, start time.Time, n int) []model.LogRecord {
	records := make([]model.LogRecord, 0, 2*n)
	for i := 0; i < n; i++ {
		records = append(records, g.Interaction(agent, start.Add(time.Duration(i)*time.Second), 10+i, 20+i)...)
	}
	return records
}

// WriteJSONL writes records to name under the base directory and returns the
// full path. Names ending in .zst are zstd-compressed.
func (g *TestDataGenerator) WriteJSONL(name string, records []model.LogRecord) (string, error) {
	path := filepath.Join(g.baseDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var w io.Writer = file
	var enc *zstd.Encoder
	if strings.HasSuffix(name, ".zst") {
		enc, err = zstd.NewWriter(file)
		if err != nil {
			return "", err
		}
		w = enc
	}

	if err := writeLines(w, records); err != nil {
		return "", err
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return "", err
		}
	}
	return path, nil
}

// AppendJSONL appends records to an existing uncompressed export.
func (g *TestDataGenerator) AppendJSONL(name string, records []model.LogRecord) error {
	file, err := os.OpenFile(filepath.Join(g.baseDir, name), os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeLines(file, records)
}

func writeLines(w io.Writer, records []model.LogRecord) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		line, err := sonic.Marshal(rec)
		if err != nil {
			return err
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// CleanupTestData removes the base directory
func (g *TestDataGenerator) CleanupTestData() error {
	return os.RemoveAll(g.baseDir)
}

// GetBaseDir returns the base directory
func (g *TestDataGenerator) GetBaseDir() string {
	return g.baseDir
}
