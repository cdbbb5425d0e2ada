package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fueltrack/mq/mq"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// streamHandler pushes every ledger message to the websocket client until
// either side goes away.
func streamHandler(source mq.Subscriber[mq.LedgerMessage], isDev bool) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// allow all origins for WebSocket connections
			// should only in dev
			return isDev || r.Header.Get("Origin") == "" || r.Header.Get("Origin") == "http://"+r.Host
		},
	}

	return func(c *gin.Context) {
		if source == nil {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "ledger stream is not enabled"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the error response
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		// a closed client shows up as a read error
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		out := make(chan mq.LedgerMessage)
		if err := mq.SubscribeProcessor(ctx, source, func(msg mq.LedgerMessage) (mq.LedgerMessage, bool, error) {
			return msg, false, nil
		}, out); err != nil {
			log.Warn().Err(err).Msg("failed to subscribe ledger stream")
			return
		}

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()
		for {
			select {
			case msg, ok := <-out:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			case <-ping.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-readDone:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
