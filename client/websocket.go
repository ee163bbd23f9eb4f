package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cast"
)

// wsSubscriber 基于 WebSocket 的事件订阅通道
//
// 读取循环把消息分成两类：带 ID 的请求响应按 ID 投递到等待通道，
// 带 method 的推送按订阅 ID 投递到事件通道。
type wsSubscriber struct {
	endpoint string
	conn     *websocket.Conn
	logger   Logger
	mu       sync.Mutex
	closed   int32
	nextID   uint64
	done     chan struct{}
	doneOnce sync.Once
	requests map[uint64]chan *wsMessage
	subs     map[string]chan map[string]interface{}
	muReq    sync.RWMutex
}

// wsMessage WebSocket 上的 JSON-RPC 消息（响应或推送）
type wsMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// wsEndpointFor 把 http(s):// 端点转换为 ws(s)://
func wsEndpointFor(endpoint string) string {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return "ws://" + endpoint[7:]
	case strings.HasPrefix(endpoint, "https://"):
		return "wss://" + endpoint[8:]
	case strings.HasPrefix(endpoint, "ws://"), strings.HasPrefix(endpoint, "wss://"):
		return endpoint
	}
	return "ws://" + endpoint
}

// newWSSubscriber 建立 WebSocket 连接并启动读取循环
func newWSSubscriber(cfg *Config) (*wsSubscriber, error) {
	endpoint := wsEndpointFor(cfg.WSEndpoint)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(endpoint, nil)
	if err != nil {
		return nil, &Error{Code: ErrCodeConnection, Message: "dial websocket failed", Err: err}
	}

	s := &wsSubscriber{
		endpoint: endpoint,
		conn:     conn,
		logger:   cfg.logger(),
		done:     make(chan struct{}),
		requests: make(map[uint64]chan *wsMessage),
		subs:     make(map[string]chan map[string]interface{}),
	}
	go s.readLoop()
	return s, nil
}

// readLoop 消息读取循环
func (s *wsSubscriber) readLoop() {
	defer func() {
		atomic.StoreInt32(&s.closed, 1)
		s.doneOnce.Do(func() { close(s.done) })
		s.muReq.Lock()
		for _, ch := range s.requests {
			close(ch)
		}
		s.requests = make(map[uint64]chan *wsMessage)
		for _, ch := range s.subs {
			close(ch)
		}
		s.subs = make(map[string]chan map[string]interface{})
		s.muReq.Unlock()
	}()

	for {
		if atomic.LoadInt32(&s.closed) == 1 {
			return
		}

		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if atomic.LoadInt32(&s.closed) == 0 {
				s.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		// 推送消息：按订阅 ID 分发事件
		if msg.Method != "" {
			s.dispatchEvent(&msg)
			continue
		}

		// 请求响应：按请求 ID 投递
		s.muReq.Lock()
		ch, exists := s.requests[msg.ID]
		if exists {
			delete(s.requests, msg.ID)
		}
		s.muReq.Unlock()

		if exists && ch != nil {
			select {
			case ch <- &msg:
			default:
			}
		}
	}
}

// dispatchEvent 把一条推送投递到对应的订阅通道
func (s *wsSubscriber) dispatchEvent(msg *wsMessage) {
	var params struct {
		Subscription interface{}     `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logger.Warn("malformed event push", "error", err)
		return
	}

	var event map[string]interface{}
	if err := json.Unmarshal(params.Result, &event); err != nil {
		s.logger.Warn("malformed event payload", "error", err)
		return
	}

	subID := cast.ToString(params.Subscription)
	// 持读锁期间投递，保证与订阅通道的关闭（写锁下进行）互斥
	s.muReq.RLock()
	defer s.muReq.RUnlock()
	ch := s.subs[subID]
	if ch == nil {
		return
	}
	select {
	case ch <- event:
	default:
		// 消费端落后时丢弃，订阅通道不阻塞读取循环
	}
}

// call 在 WebSocket 连接上发一个请求并等响应
func (s *wsSubscriber) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	if atomic.LoadInt32(&s.closed) == 1 {
		return nil, &Error{Code: ErrCodeConnection, Message: "websocket connection is closed"}
	}

	reqID := atomic.AddUint64(&s.nextID, 1)
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      reqID,
	}

	respCh := make(chan *wsMessage, 1)
	s.muReq.Lock()
	s.requests[reqID] = respCh
	s.muReq.Unlock()

	s.mu.Lock()
	err := s.conn.WriteJSON(req)
	s.mu.Unlock()
	if err != nil {
		s.muReq.Lock()
		delete(s.requests, reqID)
		s.muReq.Unlock()
		return nil, &Error{Code: ErrCodeConnection, Message: "write websocket request failed", Err: err}
	}

	select {
	case resp := <-respCh:
		if resp == nil {
			return nil, &Error{Code: ErrCodeConnection, Message: "websocket connection closed while waiting"}
		}
		if resp.Error != nil {
			return nil, &RPCError{Op: method, Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp.Result, nil
	case <-ctx.Done():
		s.muReq.Lock()
		delete(s.requests, reqID)
		s.muReq.Unlock()
		return nil, ctx.Err()
	}
}

// subscribeEvents 发起 suix_subscribeEvent 订阅并返回事件通道
func (s *wsSubscriber) subscribeEvents(ctx context.Context, filter map[string]interface{}) (<-chan map[string]interface{}, error) {
	if filter == nil {
		filter = map[string]interface{}{"All": []interface{}{}}
	}
	raw, err := s.call(ctx, "suix_subscribeEvent", []interface{}{filter})
	if err != nil {
		return nil, fmt.Errorf("subscribe events failed: %w", err)
	}

	var subID interface{}
	if err := json.Unmarshal(raw, &subID); err != nil {
		return nil, normalizeFailure("subscribe_events", err)
	}
	id := cast.ToString(subID)
	if id == "" {
		return nil, &RPCError{Op: "subscribe_events", Message: "missing subscription id"}
	}

	eventCh := make(chan map[string]interface{}, 100)
	s.muReq.Lock()
	s.subs[id] = eventCh
	s.muReq.Unlock()
	s.logger.Info("event subscription established", "subscription", id)

	go func() {
		// 订阅方用不可取消的 context 时，连接关闭也要回收这里
		select {
		case <-ctx.Done():
		case <-s.done:
		}
		s.muReq.Lock()
		if ch, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
		s.muReq.Unlock()
	}()

	return eventCh, nil
}

// close 关闭连接
func (s *wsSubscriber) close() error {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		s.doneOnce.Do(func() { close(s.done) })
		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	}
	return nil
}
