package client

import (
	"fmt"
	"strings"

	"github.com/suikit/client-sdk-go/types"
)

// ErrorCode 客户端错误码
type ErrorCode string

const (
	ErrCodeConnection   ErrorCode = "CONNECTION_ERROR"
	ErrCodeCapability   ErrorCode = "CAPABILITY_UNAVAILABLE"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeExecution    ErrorCode = "EXECUTION_ERROR"
	ErrCodeNormalize    ErrorCode = "NORMALIZE_ERROR"
	ErrCodeNotSupported ErrorCode = "NOT_SUPPORTED"
)

// Error 客户端通用错误
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("client error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("client error [%s]: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// TransportUnavailableError 传输层不可用
//
// 构造期健康检查失败时返回，携带可操作的修复提示。
// 该错误对构造是致命的，内部不做重试。
type TransportUnavailableError struct {
	Transport Protocol
	Hint      string
	Cause     error
}

func (e *TransportUnavailableError) Error() string {
	msg := fmt.Sprintf("%s transport unavailable", e.Transport)
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *TransportUnavailableError) Unwrap() error {
	return e.Cause
}

// CapabilityError 当前传输/版本不存在可用的查询原语
//
// 余额查询会把它降级为零值结果；对象/交易点查没有有意义的降级形式，
// 直接向调用方返回本错误。
type CapabilityError struct {
	Transport  Protocol
	Operation  string
	Candidates []Primitive
}

func (e *CapabilityError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, p := range e.Candidates {
		names[i] = string(p)
	}
	return fmt.Sprintf("%s: no available primitive on %s transport (tried: %s)",
		e.Operation, e.Transport, strings.Join(names, ", "))
}

// IsCapabilityError 检查错误是否为 CapabilityError
func IsCapabilityError(err error) (*CapabilityError, bool) {
	if capErr, ok := err.(*CapabilityError); ok {
		return capErr, true
	}
	return nil, false
}

// RPCError 远端执行失败
//
// Message 保留传输层上报的原始错误串；节点给出结构化详情时填充 Detail。
type RPCError struct {
	Op      string
	Code    int
	Message string
	Detail  *types.NodeError
}

func (e *RPCError) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("%s failed: %s (%v)", e.Op, e.Message, e.Detail)
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s failed: code=%d, message=%s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

func (e *RPCError) Unwrap() error {
	if e.Detail != nil {
		return e.Detail
	}
	return nil
}

// validationError 本地输入错误（任何网络交互之前抛出）
func validationError(msg string, cause error) error {
	return &Error{Code: ErrCodeValidation, Message: msg, Err: cause}
}

// normalizeFailure 响应归一化失败，包装原始错误与操作名
func normalizeFailure(op string, cause error) error {
	return &Error{Code: ErrCodeNormalize, Message: fmt.Sprintf("%s: unrecognized response shape", op), Err: cause}
}
