package baerapi

type User struct {
	ID          int64  `json:"id,omitempty"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// Name is the display name, falling back to the username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type UserCreate struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Author struct {
	ID          int64   `json:"id,omitempty"`
	Username    string  `json:"username"`
	DisplayName string  `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// Post is a tweet as returned by /tweets. LikedByMe is null for anonymous reads and decodes
// as false.
type Post struct {
	ID           int64     `json:"id"`
	Content      string    `json:"content"`
	Author       Author    `json:"author"`
	LikeCount    int       `json:"like_count"`
	CommentCount int       `json:"comment_count"`
	IsEdited     bool      `json:"is_edited"`
	CreatedAt    Timestamp `json:"created_at"`
	LikedByMe    bool      `json:"liked_by_me"`
}

// FeedPage is one page of the global feed. NextCursor is passed back as FeedQuery.BeforeID.
type FeedPage struct {
	Tweets     []Post `json:"tweets"`
	NextCursor *int64 `json:"next_cursor"`
}

type FeedQuery struct {
	Limit    int
	BeforeID int64
}

type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt Timestamp `json:"created_at"`
}

type Room struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner"`
	Online      int    `json:"online"`
}

type RoomCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ChatMessage struct {
	ID        int64      `json:"id,omitempty"`
	Username  string     `json:"username"`
	Text      string     `json:"text"`
	Timestamp *Timestamp `json:"timestamp,omitempty"`
}
