package conn

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/reldb/reldb/internal/auth"
	"github.com/reldb/reldb/internal/session"
	"github.com/reldb/reldb/pkg"
)

type WsRequest struct {
	Action RequestAction `json:"action"`
	ReqId  int           `json:"__reldb_client_req_id__"` // used in reldb clients
}

var Upgrader = websocket.Upgrader{
	WriteBufferSize: 1024 * 10,
	ReadBufferSize:  1024 * 10,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type ConnRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ConnValidate takes the read lock: user admin handlers mutate db.Users
// under the write lock while other connections are handshaking.
func ConnValidate(db *session.RelDB, r ConnRequest) *auth.User {
	if r.Username == "" {
		return nil
	}
	var user *auth.User
	pkg.RLockWrap(db, func() {
		for _, u := range db.Users {
			if u.Name == r.Username && u.ValidatePassword(r.Password) {
				user = u
				return
			}
		}
	})
	return user
}

func tryConnect(db *session.RelDB, ctx *ConnCtx, buf []byte) error {
	var r ConnRequest
	if err := json.Unmarshal(buf, &r); err != nil {
		ctx.WriteResponse(NewErrorResponse(http.StatusBadRequest, err.Error()))
		return err
	}

	ctx.User = ConnValidate(db, r)
	if ctx.User == nil {
		ctx.WriteResponse(NewErrorResponse(http.StatusUnauthorized, "Invalid auth"))
		return nil
	}

	ctx.SetAuthed()
	ctx.WriteString("connected")
	return nil
}

func HandleConnection(db *session.RelDB, w http.ResponseWriter, r *http.Request) {
	ws, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		pkg.ErrorLog("ws upgrade failed", err)
		return
	}
	defer ws.Close()
	defer pkg.InfoLog("Connection closed from", ws.RemoteAddr())

	ctx := NewConnCtx(ws)
	for {
		buf, err := ctx.Read()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				pkg.ErrorLog("conn read error", err)
			}
			return
		}

		if !ctx.isAuthed {
			if ctx.attempts == maxConnAttempts {
				pkg.ErrorLog("max connection attempts reached")
				return
			}

			err = tryConnect(db, ctx, buf)
			ctx.attempts += 1
			if err != nil {
				pkg.ErrorLog("conn attempt error", err)
				return
			}
			continue
		}

		var req WsRequest
		if err := json.Unmarshal(buf, &req); err != nil {
			pkg.ErrorLog("parsing request", err)
			continue
		}

		res := ActionHandler(db, req.Action, ctx, buf)
		res.ReqId = req.ReqId

		if err := ctx.WriteResponse(res); err != nil {
			pkg.ErrorLog("writing response", err)
			return
		}
	}
}

// Listen serves websocket connections until an interrupt arrives. Mutations
// write through to disk as they run, so shutdown only flushes users.
func Listen(db *session.RelDB, port int) {
	exit := make(chan os.Signal, 2)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		HandleConnection(db, w, r)
	})

	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  0,
		WriteTimeout: 0,
	}

	go func() {
		err := s.ListenAndServe()
		if err != http.ErrServerClosed {
			pkg.FatalLog(err)
		}
	}()

	pkg.InfoLog("RelDB listening on port", port)
	<-exit
	pkg.DebugLog("Shutting down...")
	s.Shutdown(context.Background())
	db.SaveUsers()
}
