package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"shifttrack/internal/model"
)

type busTimesResponse struct {
	BusTimes []model.BusTime `json:"busTimes"`
}

func (c *Client) List(ctx context.Context, _ string) ([]model.BusTime, error) {
	var resp busTimesResponse
	if err := c.do(ctx, http.MethodGet, "/api/bus-times", nil, &resp); err != nil {
		return nil, err
	}
	return resp.BusTimes, nil
}

func (c *Client) Upsert(ctx context.Context, _ string, id, hhmm string) error {
	return c.do(ctx, http.MethodPut, "/api/bus-times/"+url.PathEscape(id), map[string]string{"time": hhmm}, nil)
}

func (c *Client) Delete(ctx context.Context, _ string, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/bus-times/"+url.PathEscape(id), nil, nil)
}

// WatchBusTimes streams the timetable to fn, first as it stands and then
// after every change, until ctx ends or the connection drops.
func (c *Client) WatchBusTimes(ctx context.Context, fn func([]model.BusTime)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/api/bus-times/stream"

	header := http.Header{}
	c.mu.RLock()
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return &StatusError{Status: resp.StatusCode}
		}
		return fmt.Errorf("dial bus time stream: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read bus time stream: %w", err)
		}

		var msg busTimesResponse
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("discarding bus time frame", "error", err)
			continue
		}
		fn(msg.BusTimes)
	}
}
