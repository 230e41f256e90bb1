package model

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRecordUnmarshal(t *testing.T) {
	raw := `{"id":42,"log_type":"Request","pair_id":"p-1","created_at":"2024-05-01T12:00:00.123456+00:00","agent_system_name":"content_writer","user_id":"u-9","input_tokens":120,"output_tokens":0,"details":{"prompt":"hi","n":1}}`

	var rec LogRecord
	require.NoError(t, sonic.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, FlexibleID(42), rec.ID)
	assert.Equal(t, LogTypeRequest, rec.Type())
	assert.Equal(t, NullableString("p-1"), rec.PairID)
	assert.True(t, rec.HasPair())
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 123456000, time.UTC), rec.CreatedAt.UTC())
	assert.Equal(t, "content_writer", rec.AgentSystemName)
	assert.Equal(t, 120, rec.TotalTokens())
	assert.JSONEq(t, `{"prompt":"hi","n":1}`, string(rec.Details))
}

func TestFlexibleID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    FlexibleID
		wantErr bool
	}{
		{name: "number", input: `7`, want: 7},
		{name: "numeric string", input: `"9007199254740993"`, want: 9007199254740993},
		{name: "padded string", input: `" 12 "`, want: 12},
		{name: "non numeric", input: `"abc"`, wantErr: true},
		{name: "object", input: `{}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id FlexibleID
			err := id.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
	assert.Equal(t, "15", FlexibleID(15).String())
}

func TestNullableString(t *testing.T) {
	tests := []struct {
		input string
		want  NullableString
	}{
		{`null`, ""},
		{`""`, ""},
		{`"  p1 "`, "p1"},
		{`123`, "123"},
	}
	for _, tt := range tests {
		var s NullableString
		require.NoError(t, s.UnmarshalJSON([]byte(tt.input)), tt.input)
		assert.Equal(t, tt.want, s, tt.input)
	}

	var s NullableString
	assert.Error(t, s.UnmarshalJSON([]byte(`{"a":1}`)))
}

func TestMissingPairIDIsAbsent(t *testing.T) {
	var rec LogRecord
	require.NoError(t, sonic.Unmarshal([]byte(`{"id":1,"log_type":"info","pair_id":null}`), &rec))
	assert.False(t, rec.HasPair())

	require.NoError(t, sonic.Unmarshal([]byte(`{"id":2,"log_type":"info"}`), &rec))
	assert.False(t, rec.HasPair())
}

func TestParseLogType(t *testing.T) {
	assert.Equal(t, LogTypeRequest, ParseLogType("request"))
	assert.Equal(t, LogTypeResponse, ParseLogType(" RESPONSE "))
	assert.Equal(t, LogTypeError, ParseLogType("Error"))
	assert.Equal(t, LogTypeInfo, ParseLogType(""))
	assert.Equal(t, LogTypeInfo, ParseLogType("debug"))

	assert.Equal(t, RoleRequest, RoleFor(LogTypeRequest))
	assert.Equal(t, RoleInfo, RoleFor(LogTypeInfo))
}
