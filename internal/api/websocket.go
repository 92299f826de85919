package api

import (
	"net/http"
	"strings"

	"situationroom/internal/auth"
	"situationroom/internal/model"
	"situationroom/internal/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboards are served from other origins
		return true
	},
}

func (d Dependencies) wsHandler(w http.ResponseWriter, r *http.Request) {
	if d.Hub == nil {
		d.Log.Error("WebSocket hub not initialized")
		http.Error(w, "WebSocket hub not initialized", http.StatusInternalServerError)
		return
	}

	u := d.wsUser(r)
	id := u.ID
	if id == "" {
		id = "anon-" + uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	d.Log.Info("WebSocket connected", zap.String("conn", id), zap.String("role", u.Role))

	wsConn := ws.NewConn(conn, d.Hub, id, u.Role)
	d.Hub.Register(wsConn)

	go wsConn.WritePump()
	go wsConn.ReadPump()
}

// wsUser resolves the caller from the auth middleware or, since browsers
// cannot set headers on upgrades, a ?token= query parameter. Anonymous
// callers connect as Guest.
func (d Dependencies) wsUser(r *http.Request) auth.User {
	if u, ok := auth.FromContext(r.Context()); ok {
		return u
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token != "" {
		u, err := d.JWT.Parse(token)
		if err == nil {
			return u
		}
		d.Log.Info("Ignoring invalid WebSocket token", zap.Error(err))
	}
	return auth.User{Role: model.RoleGuest}
}
