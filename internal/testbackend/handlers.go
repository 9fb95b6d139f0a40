package testbackend

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"baerhub/pkg/baerapi"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
)

func (s *Server) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	username, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	s.mu.Lock()
	u, ok := s.users[username]
	if !ok || u.password != password {
		s.mu.Unlock()
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	token := uuid.NewString()
	s.tokens[token] = username
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, baerapi.Token{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body baerapi.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if body.Username == "" || body.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "username"}, "msg": "Field required"}},
		})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[body.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "Username already taken")
		return
	}

	u := s.addUser(body.Username, body.Password, body.DisplayName)
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) listTweets(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)

	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxFeedLimit {
			writeDetail(w, http.StatusUnprocessableEntity, "limit out of range")
			return
		}
		limit = n
	}

	var beforeID int64
	if raw := r.URL.Query().Get("before_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid before_id")
			return
		}
		beforeID = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	page := make([]any, 0, limit)
	var lastID int64
	for i := len(s.posts) - 1; i >= 0 && len(page) < limit; i-- {
		post := s.posts[i]
		if beforeID > 0 && post.ID >= beforeID {
			continue
		}
		page = append(page, s.view(post, viewer))
		lastID = post.ID
	}

	var next *int64
	if len(page) == limit {
		next = &lastID
	}

	writeJSON(w, http.StatusOK, map[string]any{"tweets": page, "next_cursor": next})
}

// view renders a post the way the backend does: liked_by_me is null for anonymous readers.
func (s *Server) view(post *baerapi.Post, viewer *user) map[string]any {
	out := map[string]any{
		"id":            post.ID,
		"content":       post.Content,
		"author":        post.Author,
		"like_count":    len(s.likes[post.ID]),
		"comment_count": len(s.comments[post.ID]),
		"is_edited":     post.IsEdited,
		"created_at":    post.CreatedAt.UTC().Format(isoformat),
		"liked_by_me":   nil,
	}
	if viewer != nil {
		out["liked_by_me"] = s.likes[post.ID][viewer.Username]
	}
	return out
}

func (s *Server) findPost(w http.ResponseWriter, r *http.Request) (*baerapi.Post, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return nil, false
	}

	post, ok := lo.Find(s.posts, func(p *baerapi.Post) bool { return p.ID == id })
	if !ok {
		writeDetail(w, http.StatusNotFound, "Tweet not found")
		return nil, false
	}

	return post, true
}

func (s *Server) getTweet(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, s.view(post, viewer))
}

func decodeContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return "", false
	}

	content := strings.TrimSpace(body.Content)
	if content == "" || utf8.RuneCountInString(content) > baerapi.MaxContentLength {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{
				"loc": []string{"body", "content"},
				"msg": "String should have at most 280 characters",
			}},
		})
		return "", false
	}

	return content, true
}

func (s *Server) createTweet(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	content, ok := decodeContent(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	post := &baerapi.Post{
		ID:      s.nextID,
		Content: content,
		Author: baerapi.Author{
			ID:          viewer.ID,
			Username:    viewer.Username,
			DisplayName: viewer.DisplayName,
		},
		CreatedAt: baerapi.NewTimestamp(time.Now().UTC()),
	}
	s.posts = append(s.posts, post)

	writeJSON(w, http.StatusCreated, s.view(post, viewer))
}

func (s *Server) editTweet(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	content, ok := decodeContent(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}
	if post.Author.Username != viewer.Username {
		writeDetail(w, http.StatusForbidden, "Not your tweet")
		return
	}

	post.Content = content
	post.IsEdited = true

	writeJSON(w, http.StatusOK, s.view(post, viewer))
}

func (s *Server) deleteTweet(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}
	if post.Author.Username != viewer.Username {
		writeDetail(w, http.StatusForbidden, "Not your tweet")
		return
	}

	s.posts = slices.DeleteFunc(s.posts, func(p *baerapi.Post) bool { return p.ID == post.ID })
	delete(s.likes, post.ID)
	delete(s.comments, post.ID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) like(w http.ResponseWriter, r *http.Request) {
	s.setLike(w, r, true)
}

func (s *Server) unlike(w http.ResponseWriter, r *http.Request) {
	s.setLike(w, r, false)
}

func (s *Server) setLike(w http.ResponseWriter, r *http.Request, liked bool) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	if s.FailLikes.Load() {
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}

	if liked {
		if s.likes[post.ID] == nil {
			s.likes[post.ID] = map[string]bool{}
		}
		s.likes[post.ID][viewer.Username] = true
	} else {
		delete(s.likes[post.ID], viewer.Username)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(s.comments[post.ID], func(c baerapi.Comment, _ int) map[string]any {
		return map[string]any{
			"id":         c.ID,
			"content":    c.Content,
			"author":     c.Author,
			"created_at": c.CreatedAt.UTC().Format(isoformat),
		}
	}))
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	content, ok := decodeContent(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	post, ok := s.findPost(w, r)
	if !ok {
		return
	}

	s.nextID++
	comment := baerapi.Comment{
		ID:        s.nextID,
		Content:   content,
		Author:    baerapi.Author{ID: viewer.ID, Username: viewer.Username, DisplayName: viewer.DisplayName},
		CreatedAt: baerapi.NewTimestamp(time.Now().UTC()),
	}
	s.comments[post.ID] = append(s.comments[post.ID], comment)

	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rooms := lo.Map(s.rooms, func(room baerapi.Room, _ int) baerapi.Room {
		room.Online = len(s.online(room.Name))
		return room
	})

	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) createRoom(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	var body baerapi.RoomCreate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "Room name is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if lo.ContainsBy(s.rooms, func(room baerapi.Room) bool { return room.Name == body.Name }) {
		writeDetail(w, http.StatusBadRequest, "Room already exists")
		return
	}

	room := baerapi.Room{Name: body.Name, Description: body.Description, Owner: viewer.Username}
	s.rooms = append(s.rooms, room)

	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) deleteRoom(w http.ResponseWriter, r *http.Request) {
	viewer := s.authUser(r)
	if viewer == nil {
		unauthorized(w)
		return
	}

	name := chi.URLParam(r, "name")

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := lo.Find(s.rooms, func(room baerapi.Room) bool { return room.Name == name })
	switch {
	case !ok:
		writeDetail(w, http.StatusNotFound, "Room not found")
		return
	case room.Owner != viewer.Username || room.Name == "general":
		writeDetail(w, http.StatusForbidden, "Only the owner can delete this room")
		return
	}

	s.rooms = slices.DeleteFunc(s.rooms, func(room baerapi.Room) bool { return room.Name == name })

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) chatLogs(w http.ResponseWriter, r *http.Request) {
	if delay := time.Duration(s.HistoryDelay.Load()); delay > 0 {
		time.Sleep(delay)
	}

	room := r.URL.Query().Get("room")

	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []baerapi.ChatMessage
	if room != "" {
		logs = s.logs[room]
	} else {
		for _, roomLogs := range s.logs {
			logs = append(logs, roomLogs...)
		}
	}

	if len(logs) == 0 {
		writeDetail(w, http.StatusNotFound, "No chat logs found")
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(logs, func(m baerapi.ChatMessage, _ int) map[string]any {
		return map[string]any{
			"id":        m.ID,
			"username":  m.Username,
			"text":      m.Text,
			"timestamp": m.Timestamp.UTC().Format(isoformat),
		}
	}))
}
