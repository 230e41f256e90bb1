package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// LogRecord is one row of an agent's log as returned by the logs API or
// written to a JSONL export. Payload fields are carried through untouched.
type LogRecord struct {
	ID              FlexibleID      `json:"id"`
	LogType         string          `json:"log_type"`
	PairID          NullableString  `json:"pair_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	AgentSystemName string          `json:"agent_system_name"`
	UserID          string          `json:"user_id,omitempty"`
	InputTokens     int             `json:"input_tokens,omitempty"`
	OutputTokens    int             `json:"output_tokens,omitempty"`
	Details         json.RawMessage `json:"details,omitempty"`
}

// Type returns the normalized log type; anything unrecognized is LogTypeInfo.
func (r LogRecord) Type() LogType {
	return ParseLogType(r.LogType)
}

// HasPair reports whether the record carries a correlation key.
func (r LogRecord) HasPair() bool {
	return r.PairID != ""
}

func (r LogRecord) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// FlexibleID accepts a JSON number or a numeric string. Hosted Postgres APIs
// return bigint ids as strings when they exceed the JS safe range.
type FlexibleID int64

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := sonic.Unmarshal(data, &n); err == nil {
		*id = FlexibleID(n)
		return nil
	}

	var s string
	if err := sonic.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("id must be a number or numeric string: %s", string(data))
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be a number or numeric string: %w", err)
	}
	*id = FlexibleID(n)
	return nil
}

func (id FlexibleID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// NullableString decodes JSON null and "" alike as the empty string.
type NullableString string

func (s *NullableString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	// numeric pair ids are stringified rather than rejected
	if len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')) {
		*s = NullableString(string(data))
		return nil
	}
	var str string
	if err := sonic.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("pair_id must be a string: %w", err)
	}
	*s = NullableString(strings.TrimSpace(str))
	return nil
}

// FileEvent is a change notification for a watched log file
type FileEvent struct {
	Path      string
	Operation string
}
