package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"

	"aurumbot/internal/domain"
	"aurumbot/internal/ports"
)

type wsTickEvent struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Time   int64   `json:"time_msc"`
}

// StreamTicks subscribes to the bridge's tick stream with automatic
// reconnection. The handler runs on the stream goroutine.
func (c *Client) StreamTicks(ctx context.Context, symbol string, handler func(tick domain.Tick), errHandler func(err error)) (doneCh chan struct{}, stopCh chan struct{}, err error) {
	op := "StreamTicks"
	if c.wsBaseURL == "" {
		return nil, nil, ports.ErrConfigurationError
	}

	doneCh = make(chan struct{})
	stopCh = make(chan struct{})

	wsCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-stopCh
		cancel()
	}()

	go func() {
		defer close(doneCh)
		defer cancel()

		retry := &backoff.Backoff{
			Min:    c.reconnectDelay,
			Max:    30 * time.Second,
			Factor: 2,
			Jitter: true,
		}
		attempt := 0

		for {
			select {
			case <-wsCtx.Done():
				return
			default:
			}

			conn, _, dialErr := websocket.DefaultDialer.DialContext(wsCtx, c.wsBaseURL+"/ws/ticks?symbol="+symbol, nil)
			if dialErr != nil {
				attempt++
				c.logger.Warn(wsCtx, op+": connection failed", map[string]interface{}{
					"symbol":  symbol,
					"attempt": attempt,
					"error":   dialErr.Error(),
				})
				if attempt >= c.maxReconnectAttempts {
					c.logger.Error(wsCtx, dialErr, op+": max reconnection attempts exceeded, giving up", map[string]interface{}{"symbol": symbol})
					errHandler(ports.ErrConnectionFailed)
					return
				}
				select {
				case <-time.After(retry.Duration()):
					continue
				case <-wsCtx.Done():
					return
				}
			}

			c.logger.Info(wsCtx, op+": connected", map[string]interface{}{"symbol": symbol})
			attempt = 0
			retry.Reset()

			// Close the socket when the context ends so ReadMessage unblocks.
			connDone := make(chan struct{})
			go func() {
				select {
				case <-wsCtx.Done():
					_ = conn.Close()
				case <-connDone:
				}
			}()

			c.readLoop(wsCtx, conn, handler, errHandler)
			close(connDone)
			_ = conn.Close()

			select {
			case <-wsCtx.Done():
				return
			default:
				c.logger.Warn(wsCtx, op+": connection closed, reconnecting", map[string]interface{}{"symbol": symbol})
			}
		}
	}()

	return doneCh, stopCh, nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, handler func(tick domain.Tick), errHandler func(err error)) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				errHandler(err)
			}
			return
		}

		var ev wsTickEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn(ctx, "failed to decode tick event", map[string]interface{}{"error": err.Error()})
			continue
		}
		handler(domain.Tick{
			Bid:  ev.Bid,
			Ask:  ev.Ask,
			Time: time.UnixMilli(ev.Time),
		})
	}
}
