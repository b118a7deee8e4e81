package conn

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/reldb/reldb/internal/auth"
)

type ConnCtx struct {
	conn     *websocket.Conn
	attempts int
	isAuthed bool

	User *auth.User
}

const maxConnAttempts = 3

// New connections have a 30 second deadline. If the deadline is reached and
// the connection is not authenticated, the connection is closed.
func NewConnCtx(c *websocket.Conn) *ConnCtx {
	c.SetReadDeadline(time.Now().Add(30 * time.Second))
	return &ConnCtx{conn: c}
}

// SetAuthed marks the connection as authenticated and removes the deadline.
func (ctx *ConnCtx) SetAuthed() {
	ctx.isAuthed = true
	ctx.conn.SetReadDeadline(time.Time{})
}

func (ctx *ConnCtx) Read() ([]byte, error) {
	_, buf, err := ctx.conn.ReadMessage()
	return buf, err
}

func (ctx *ConnCtx) WriteString(s string) error {
	return ctx.conn.WriteMessage(websocket.TextMessage, []byte(s))
}

func (ctx *ConnCtx) WriteResponse(r Response) error {
	return ctx.conn.WriteMessage(websocket.TextMessage, r.Marshal())
}
