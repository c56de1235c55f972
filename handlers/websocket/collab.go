package websocket

import (
	"regexp"

	"collab-server/collab"

	"github.com/sirupsen/logrus"
	"github.com/zishang520/engine.io/v2/types"
	socketio "github.com/zishang520/socket.io/v2/socket"
)

// Inbound event names (client -> server).
const (
	eventJoinResource  = "join-resource"
	eventLeaveResource = "leave-resource"
	eventTyping        = "typing"
	eventFieldUpdate   = "field-update"
	eventStatusChange  = "status-change"
)

// socketConn adapts a socket.io socket to the collab.Conn handle.
type socketConn struct {
	socket *socketio.Socket
}

func (c *socketConn) ID() string { return string(c.socket.Id()) }

func (c *socketConn) Emit(event string, payload any) error {
	return c.socket.Emit(event, payload)
}

func SetupSocketIO(manager *collab.Manager) *socketio.Server {
	opts := socketio.DefaultServerOptions()
	opts.SetMaxHttpBufferSize(1000000)
	opts.SetPath("/socket.io")
	opts.SetAllowEIO3(true)
	localhostOrigin := regexp.MustCompile(`^https?://(localhost|127\.0\.0\.1|\[::1\])(:\d+)?$`)
	opts.SetCors(&types.Cors{
		Origin: []any{
			localhostOrigin,
		},
		Credentials: true,
	})
	srv := socketio.NewServer(nil, opts)

	//nolint:errcheck // Socket.IO event handlers do not return useful errors
	srv.On("connection", func(clients ...any) {
		socket, ok := clients[0].(*socketio.Socket)
		if !ok {
			return
		}

		conn := &socketConn{socket: socket}
		logrus.WithField("conn_id", conn.ID()).Debug("Connection established")

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventJoinResource, func(datas ...any) {
			if data, ok := eventData(datas); ok {
				manager.HandleJoin(conn, data)
			} else {
				logrus.WithField("conn_id", conn.ID()).Warn("join-resource without payload")
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventLeaveResource, func(datas ...any) {
			if data, ok := eventData(datas); ok {
				manager.HandleLeave(conn, data)
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventTyping, func(datas ...any) {
			if data, ok := eventData(datas); ok {
				manager.HandleTyping(conn, data)
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventFieldUpdate, func(datas ...any) {
			if data, ok := eventData(datas); ok {
				manager.HandleFieldUpdate(conn, data)
			}
		})

		//nolint:errcheck // Socket.IO event handlers do not return useful errors
		socket.On(eventStatusChange, func(datas ...any) {
			if data, ok := eventData(datas); ok {
				manager.HandleStatusChange(conn, data)
			}
		})

		socket.On("disconnecting", func(datas ...any) {
			logrus.WithField("conn_id", conn.ID()).Debug("Connection disconnecting")
			manager.HandleDisconnect(conn)
		})

		socket.On("disconnect", func(datas ...any) {
			socket.RemoveAllListeners("")
		})
	})

	return srv
}

// eventData extracts the payload object from socket.io handler args. Every
// event in the contract carries a single object payload as its first arg.
func eventData(datas []any) (map[string]any, bool) {
	if len(datas) == 0 {
		return nil, false
	}
	data, ok := datas[0].(map[string]any)
	return data, ok
}
