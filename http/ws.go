package http

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"churnscope/db"
	"churnscope/ml"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 64 << 10
)

// wsReply WebSocket响应消息
type wsReply struct {
	Type       string               `json:"type"`
	Prediction *ml.PredictionResult `json:"prediction,omitempty"`
	Error      string               `json:"error,omitempty"`
	Message    string               `json:"message,omitempty"`
}

func newUpgrader(origins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(origins, origin)
		},
	}
}

// handleWebSocket 交互式预测：每条文本消息是一个（可以不完整的）记录，每条回复是预测结果或错误
func (a *api) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	session := &wsSession{
		api:  a,
		conn: conn,
		send: make(chan wsReply, 16),
		done: make(chan struct{}),
	}
	go session.writePump()
	session.readPump(r)
}

// wsSession 一个WebSocket连接
type wsSession struct {
	api  *api
	conn *websocket.Conn
	send chan wsReply
	done chan struct{}
}

// readPump 读取消息并预测，连接关闭时返回
func (s *wsSession) readPump(r *http.Request) {
	defer func() {
		close(s.send)
		<-s.done
		s.conn.Close()
	}()

	s.conn.SetReadLimit(wsMaxMessage)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.api.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			s.send <- wsReply{Type: "error", Error: codeValidation, Message: "expected a text message"}
			continue
		}

		s.send <- s.predict(r, message)
	}
}

func (s *wsSession) predict(r *http.Request, message []byte) wsReply {
	record, err := decodeRecord(bytes.NewReader(message))
	if err == nil {
		var result *ml.PredictionResult
		result, err = s.api.predictor.Predict(record)
		if err == nil {
			s.api.recordPredictions(r.Context(), db.KindWebSocket, singleSummary(result))
			return wsReply{Type: "prediction", Prediction: result}
		}
	}

	status, code := classifyError(err)
	text := err.Error()
	if status == http.StatusInternalServerError {
		s.api.logger.Error("websocket prediction failed", zap.Error(err))
		text = "internal server error"
	}
	return wsReply{Type: "error", Error: code, Message: text}
}

// writePump 写入回复并定时发送ping
func (s *wsSession) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	for {
		select {
		case reply, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(reply); err != nil {
				s.api.logger.Warn("websocket write error", zap.Error(err))
				s.drain()
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drain()
				return
			}
		}
	}
}

// drain 写失败后丢弃剩余回复，直到读循环结束
func (s *wsSession) drain() {
	s.conn.Close()
	for range s.send {
	}
}
