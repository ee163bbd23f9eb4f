package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NodeErrorDetail 节点返回的结构化错误详情
//
// Sui 节点的 JSON-RPC 错误对象除 code/message 外，data 字段可能携带
// 结构化详情（执行失败原因、对象版本冲突等）。gRPC 路径的 status detail
// 归一化后也映射到同一结构，便于上层统一消费。
type NodeErrorDetail struct {
	Code        string         `json:"code"`
	Kind        string         `json:"kind,omitempty"`
	UserMessage string         `json:"userMessage,omitempty"`
	Detail      string         `json:"detail,omitempty"`
	Status      *int           `json:"status,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	TraceID     string         `json:"traceId"`
	Timestamp   string         `json:"timestamp"`
}

// NodeError 带结构化详情的节点错误
type NodeError struct {
	Code        string
	Kind        string
	UserMessage string
	Detail      string
	Status      *int
	Details     map[string]any
	TraceID     string
	Timestamp   string
}

func (e *NodeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.UserMessage, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.UserMessage)
}

// IsNodeError 检查错误是否为 NodeError
func IsNodeError(err error) (*NodeError, bool) {
	if nodeErr, ok := err.(*NodeError); ok {
		return nodeErr, true
	}
	return nil, false
}

// Kind 常量
const (
	KindClientSDK     = "client-sdk-go"
	KindFullNode      = "full-node"
	KindMoveExecution = "move-execution"
)

// 错误码常量
const (
	ErrorCodeSDKHTTPError        = "SDK_HTTP_ERROR"
	ErrorCodeSDKGRPCError        = "SDK_GRPC_ERROR"
	ErrorCodeSDKDecodeError      = "SDK_DECODE_ERROR"
	ErrorCodeSDKConnectionError  = "SDK_CONNECTION_ERROR"
	ErrorCodeNodeExecutionFailed = "NODE_EXECUTION_FAILED"
	ErrorCodeNodeNotFound        = "NODE_NOT_FOUND"
)

// ParseNodeErrorDetail 从 JSON-RPC 错误对象解析结构化详情
//
// 只有 data 字段携带 code 时才认为是结构化详情，否则返回错误，
// 调用方退回到普通的 code/message 处理。
func ParseNodeErrorDetail(rpcError any) (*NodeErrorDetail, error) {
	rpcMap, ok := rpcError.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid RPC error format")
	}

	data, ok := rpcMap["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("no data field in RPC error")
	}

	code, _ := data["code"].(string)
	if code == "" {
		return nil, fmt.Errorf("missing code field in error detail")
	}

	detail, _ := data["detail"].(string)
	if detail == "" {
		if msg, ok := rpcMap["message"].(string); ok {
			detail = msg
		}
	}

	var status *int
	if statusVal, ok := data["status"].(float64); ok {
		s := int(statusVal)
		status = &s
	} else if statusVal, ok := rpcMap["code"].(float64); ok {
		s := int(statusVal)
		status = &s
	}

	details, _ := data["details"].(map[string]any)

	traceID, _ := data["traceId"].(string)
	if traceID == "" {
		traceID = uuid.New().String()
	}

	timestamp, _ := data["timestamp"].(string)
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	kind, _ := data["kind"].(string)
	userMessage, _ := data["userMessage"].(string)

	return &NodeErrorDetail{
		Code:        code,
		Kind:        kind,
		UserMessage: userMessage,
		Detail:      detail,
		Status:      status,
		Details:     details,
		TraceID:     traceID,
		Timestamp:   timestamp,
	}, nil
}

// NewNodeErrorFromDetail 从结构化详情创建 NodeError
func NewNodeErrorFromDetail(d *NodeErrorDetail) *NodeError {
	return &NodeError{
		Code:        d.Code,
		Kind:        d.Kind,
		UserMessage: d.UserMessage,
		Detail:      d.Detail,
		Status:      d.Status,
		Details:     d.Details,
		TraceID:     d.TraceID,
		Timestamp:   d.Timestamp,
	}
}

// NewDefaultNodeError 创建默认 NodeError（节点未给出结构化详情时的 fallback）
func NewDefaultNodeError(code, userMessage, detail string) *NodeError {
	return &NodeError{
		Code:        code,
		Kind:        KindClientSDK,
		UserMessage: userMessage,
		Detail:      detail,
		Details:     map[string]any{},
		TraceID:     uuid.New().String(),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
}
