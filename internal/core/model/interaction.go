package model

import "time"

// Member is a record placed in an interaction unit under a role.
// Superseded marks a record whose slot was taken by a later record of the same role.
type Member struct {
	Role       Role      `json:"role"`
	Superseded bool      `json:"superseded,omitempty"`
	Record     LogRecord `json:"record"`
}

// InteractionUnit is one logical agent invocation: a standalone record or the
// records sharing a pair id.
type InteractionUnit struct {
	GroupKey  string    `json:"group_key"`
	Paired    bool      `json:"paired"`
	Timestamp time.Time `json:"timestamp"`
	Kind      Kind      `json:"kind"`
	Members   []Member  `json:"members"`
}

func (u InteractionUnit) primary(role Role) *LogRecord {
	for i := range u.Members {
		if u.Members[i].Role == role && !u.Members[i].Superseded {
			return &u.Members[i].Record
		}
	}
	return nil
}

// Request returns the request record, or nil.
func (u InteractionUnit) Request() *LogRecord { return u.primary(RoleRequest) }

// Response returns the response record, or nil.
func (u InteractionUnit) Response() *LogRecord { return u.primary(RoleResponse) }

// Error returns the error record, or nil.
func (u InteractionUnit) Error() *LogRecord { return u.primary(RoleError) }

// HasSecondaryError reports an error record that lost to a response during
// classification and should be shown as an indicator.
func (u InteractionUnit) HasSecondaryError() bool {
	return u.Paired && u.Response() != nil && u.Error() != nil
}

// Failed reports whether the unit's outcome is an error.
func (u InteractionUnit) Failed() bool {
	return u.Kind == KindRequestPlusError || u.Kind == KindErrorOnly ||
		(u.Kind == KindStandalone && len(u.Members) == 1 && u.Members[0].Role == RoleError)
}

// RecordCount is the number of input records embedded in the unit.
func (u InteractionUnit) RecordCount() int {
	return len(u.Members)
}

// Tokens sums input and output tokens across all members.
func (u InteractionUnit) Tokens() (input, output int) {
	for _, m := range u.Members {
		input += m.Record.InputTokens
		output += m.Record.OutputTokens
	}
	return input, output
}

// Duration is the time from request to outcome, or zero when either is missing.
func (u InteractionUnit) Duration() time.Duration {
	req := u.Request()
	if req == nil {
		return 0
	}
	outcome := u.Response()
	if outcome == nil {
		outcome = u.Error()
	}
	if outcome == nil || outcome.CreatedAt.Before(req.CreatedAt) {
		return 0
	}
	return outcome.CreatedAt.Sub(req.CreatedAt)
}
