package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSEventServer 启动一个应答订阅请求的 WebSocket 服务；
// 向 pushNow 发送事件载荷即推送一条订阅消息。
func newWSEventServer(t *testing.T, subID string, pushNow chan map[string]interface{}) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req map[string]interface{}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req["method"] != "suix_subscribeEvent" {
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0", "id": req["id"],
				"error": map[string]interface{}{"code": -32601, "message": "Method not found"},
			})
			return
		}
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req["id"], "result": subID,
		})

		for event := range pushNow {
			conn.WriteJSON(map[string]interface{}{
				"jsonrpc": "2.0",
				"method":  "suix_subscribeEvent",
				"params": map[string]interface{}{
					"subscription": subID,
					"result":       event,
				},
			})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestWSSubscriber_EventFlow(t *testing.T) {
	pushNow := make(chan map[string]interface{})
	defer close(pushNow)
	server := newWSEventServer(t, "sub-1", pushNow)

	cfg := &Config{WSEndpoint: server.URL}
	s, err := newWSSubscriber(cfg)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer s.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := s.subscribeEvents(ctx, map[string]interface{}{"All": []interface{}{}})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// 订阅通道就绪后再推事件
	pushNow <- map[string]interface{}{"type": "0x1::counter::Incremented", "sender": "0xabc"}

	select {
	case event := <-events:
		if event["type"] != "0x1::counter::Incremented" {
			t.Errorf("wrong event payload: %v", event)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for pushed event")
	}

	// 取消订阅后通道关闭
	cancel()
	select {
	case _, open := <-events:
		if open {
			// 可能还有缓冲事件，继续等关闭
			for range events {
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestWSSubscriber_CloseReleasesBackgroundSubscription(t *testing.T) {
	pushNow := make(chan map[string]interface{})
	defer close(pushNow)
	server := newWSEventServer(t, "sub-1", pushNow)

	s, err := newWSSubscriber(&Config{WSEndpoint: server.URL})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	// 不可取消的 context：通道回收只能靠 close 触发
	events, err := s.subscribeEvents(context.Background(), nil)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	s.close()

	select {
	case _, open := <-events:
		if open {
			for range events {
			}
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for channel close after close()")
	}
}

func TestWSSubscriber_SubscribeError(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req map[string]interface{}
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": req["id"],
			"error": map[string]interface{}{"code": -32000, "message": "subscriptions disabled"},
		})
	}))
	defer server.Close()

	s, err := newWSSubscriber(&Config{WSEndpoint: server.URL})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer s.close()

	if _, err := s.subscribeEvents(context.Background(), nil); err == nil {
		t.Fatal("expected subscribe error")
	}
}

func TestWSSubscriber_DialFailure(t *testing.T) {
	_, err := newWSSubscriber(&Config{WSEndpoint: "ws://127.0.0.1:1"})
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestWSSubscriber_CallAfterClose(t *testing.T) {
	pushNow := make(chan map[string]interface{})
	defer close(pushNow)
	server := newWSEventServer(t, "sub-1", pushNow)

	s, err := newWSSubscriber(&Config{WSEndpoint: server.URL})
	if err != nil {
		t.Fatal(err)
	}
	s.close()

	if _, err := s.call(context.Background(), "suix_subscribeEvent", nil); err == nil {
		t.Error("expected error after close")
	}
}
