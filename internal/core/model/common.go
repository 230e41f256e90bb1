package model

import "strings"

// LogType classifies a log record
type LogType string

const (
	LogTypeRequest  LogType = "request"
	LogTypeResponse LogType = "response"
	LogTypeError    LogType = "error"
	LogTypeInfo     LogType = "info"
)

// ParseLogType normalizes a raw log_type value. Unknown and empty values map to info.
func ParseLogType(raw string) LogType {
	switch LogType(strings.ToLower(strings.TrimSpace(raw))) {
	case LogTypeRequest:
		return LogTypeRequest
	case LogTypeResponse:
		return LogTypeResponse
	case LogTypeError:
		return LogTypeError
	default:
		return LogTypeInfo
	}
}

// Kind describes which roles an interaction unit holds
type Kind string

const (
	KindStandalone          Kind = "standalone"
	KindRequestOnly         Kind = "request-only"
	KindResponseOnly        Kind = "response-only"
	KindErrorOnly           Kind = "error-only"
	KindRequestPlusError    Kind = "request-plus-error"
	KindRequestPlusResponse Kind = "request-plus-response"
	// KindInfoOnly is a paired group none of whose records is a request, response or error.
	KindInfoOnly Kind = "info-only"
)

// AllKinds lists kinds in display order.
var AllKinds = []Kind{
	KindRequestPlusResponse,
	KindRequestPlusError,
	KindRequestOnly,
	KindResponseOnly,
	KindErrorOnly,
	KindInfoOnly,
	KindStandalone,
}

// Role is the part a record plays inside its interaction unit
type Role string

const (
	RoleRequest  Role = "request"
	RoleResponse Role = "response"
	RoleError    Role = "error"
	RoleInfo     Role = "info"
)

// RoleFor maps a log type onto the role it fills.
func RoleFor(t LogType) Role {
	switch t {
	case LogTypeRequest:
		return RoleRequest
	case LogTypeResponse:
		return RoleResponse
	case LogTypeError:
		return RoleError
	default:
		return RoleInfo
	}
}
