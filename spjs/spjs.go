// Package spjs reads serial port traffic relayed by a Serial Port JSON
// Server over a websocket.
package spjs

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type DataFrame struct {
	Port string `json:"P"`
	Data string `json:"D"`
}
type CmdStatus struct {
	Cmd        string
	QueueCount int `json:"QCnt"`
	Type       []string
	Data       []string `json:"D"`
	ID         string   `json:"Id"`
}

type ErrorMessage struct {
	Error string
}

// Reader exposes the data frames of one serial port as a byte stream.
// Frames for other ports, command statuses and echoes are skipped.
type Reader struct {
	port string
	ws   *websocket.Conn
	pr   *io.PipeReader
	pw   *io.PipeWriter

	closeOnce sync.Once
}

var _ io.ReadCloser = &Reader{}

// Dial connects to the SPJS websocket at url and streams data received on
// port. If open is set, an "open" command for the port is sent first.
func Dial(url, port string, open bool) (*Reader, error) {
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	if open {
		err = ws.WriteMessage(websocket.TextMessage, []byte("open "+port))
		if err != nil {
			ws.Close()
			return nil, err
		}
	}

	return NewReader(ws, port), nil
}

// NewReader starts reading frames for port from an established connection.
func NewReader(ws *websocket.Conn, port string) *Reader {
	pr, pw := io.Pipe()
	r := &Reader{
		port: port,
		ws:   ws,
		pr:   pr,
		pw:   pw,
	}
	go r.readLoop()
	return r
}

func (r *Reader) Read(p []byte) (int, error) { return r.pr.Read(p) }

// Close stops reading and closes the websocket.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.pr.Close()
		err = r.ws.Close()
	})
	return err
}

func parseSPJSMessage(data []byte, msg map[string]json.RawMessage) (val interface{}, err error) {
	check := func(fieldName string, v interface{}) bool {
		if msg[fieldName] == nil {
			return false
		}
		val = v
		err = json.Unmarshal(data, val)
		return true
	}
	if check("Error", &ErrorMessage{}) {
		return
	}
	if check("Type", &CmdStatus{}) {
		return
	}
	if check("D", &DataFrame{}) {
		return
	}

	return nil, errors.New("unknown message: " + string(data))
}

func (r *Reader) readLoop() {
	for {
		_, data, err := r.ws.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			r.pw.Close()
			return
		}
		if err != nil {
			r.pw.CloseWithError(err)
			return
		}
		if !bytes.HasPrefix(data, []byte("{")) {
			// ignore echo messages
			continue
		}
		var msg map[string]json.RawMessage
		err = json.Unmarshal(data, &msg)
		if err != nil {
			log.Println("ERROR: read:", err)
			continue
		}
		val, err := parseSPJSMessage(data, msg)
		if err != nil {
			log.Println("ERROR: parse:", err)
			continue
		}

		switch v := val.(type) {
		case *ErrorMessage:
			r.pw.CloseWithError(errors.New("spjs: " + v.Error))
			return
		case *DataFrame:
			if v.Port != r.port {
				continue
			}
			_, err = io.WriteString(r.pw, v.Data)
			if err != nil {
				// reader side closed
				return
			}
		}
	}
}
