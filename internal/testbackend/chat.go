package testbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

type systemFrame struct {
	Type  string   `json:"type"`
	Text  string   `json:"text"`
	Users []string `json:"users,omitempty"`
}

type chatFrame struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// SystemFrame builds a system frame as the backend sends it.
func SystemFrame(text string, users ...string) any {
	return systemFrame{Type: "system", Text: text, Users: users}
}

// ChatFrame builds a chat frame as the backend sends it.
func ChatFrame(username, text string) any {
	return chatFrame{Type: "chat", Username: username, Text: text, Timestamp: time.Now().UTC().Format(isoformat)}
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	token, room := r.URL.Query().Get("token"), r.URL.Query().Get("room")
	if room == "" {
		room = "general"
	}

	s.mu.Lock()
	username, ok := s.tokens[token]
	onJoin := s.onJoin
	s.mu.Unlock()

	if !ok {
		http.Error(w, "policy violation", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	p := &peer{conn: conn, room: room, username: username}

	if onJoin != nil {
		for _, f := range onJoin(room, username) {
			_ = p.send(f)
		}
	}

	s.mu.Lock()
	s.conns[p] = struct{}{}
	users := s.online(room)
	s.mu.Unlock()

	s.Push(room, SystemFrame(fmt.Sprintf("%s has joined the room", username), users...))

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		s.mu.Lock()
		msg := s.appendLog(room, username, string(data), time.Now().UTC())
		s.mu.Unlock()

		s.Push(room, chatFrame{
			Type:      "chat",
			Username:  username,
			Text:      msg.Text,
			Timestamp: msg.Timestamp.UTC().Format(isoformat),
		})
	}

	s.mu.Lock()
	delete(s.conns, p)
	users = s.online(room)
	s.mu.Unlock()

	_ = conn.Close()

	s.Push(room, SystemFrame(fmt.Sprintf("%s has left the room", username), users...))
}

// online lists the users connected to room. The caller holds s.mu.
func (s *Server) online(room string) []string {
	users := lo.FilterMap(lo.Keys(s.conns), func(p *peer, _ int) (string, bool) {
		return p.username, p.room == room
	})
	users = lo.Uniq(users)
	slices.Sort(users)
	return users
}

func (s *Server) peers(room string) []*peer {
	s.mu.Lock()
	defer s.mu.Unlock()

	return lo.Filter(lo.Keys(s.conns), func(p *peer, _ int) bool { return p.room == room })
}

// Push sends a frame to every socket in room.
func (s *Server) Push(room string, frame any) {
	data, err := json.Marshal(frame)
	if err != nil {
		panic(err)
	}
	s.PushRaw(room, data)
}

// PushRaw sends data verbatim to every socket in room.
func (s *Server) PushRaw(room string, data []byte) {
	for _, p := range s.peers(room) {
		_ = p.sendRaw(data)
	}
}

// Online reports how many sockets are open in room.
func (s *Server) Online(room string) int {
	return len(s.peers(room))
}

// Disconnect closes every socket in room from the server side.
func (s *Server) Disconnect(room string) {
	for _, p := range s.peers(room) {
		p.mu.Lock()
		_ = p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"), time.Now().Add(time.Second))
		_ = p.conn.Close()
		p.mu.Unlock()
	}
}
