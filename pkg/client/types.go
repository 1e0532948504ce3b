package client

import "time"

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture"`
	Bio            string    `json:"bio"`
	JoinedDate     time.Time `json:"joinedDate"`
	IsAdmin        bool      `json:"isAdmin"`
}

type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// UpdateUserInput sends only the non-nil fields.
type UpdateUserInput struct {
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	Bio            *string `json:"bio,omitempty"`
}

type Game struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Genre       string    `json:"genre"`
	Platform    []string  `json:"platform"`
	ReleaseDate time.Time `json:"releaseDate"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
}

type GameFilter struct {
	Search   string
	Genre    string
	Platform string
}

type GameInput struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	Platform    []string `json:"platform,omitempty"`
	ReleaseDate string   `json:"releaseDate,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

type GameRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
}

type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	Game        *GameRef  `json:"game"`
	MemberCount int       `json:"memberCount"`
	Members     []Profile `json:"members,omitempty"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CommunityInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Game        string   `json:"game"`
	Tags        []string `json:"tags,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	User      Profile   `json:"user"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Blog struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	ImageURL    string    `json:"imageUrl"`
	Author      Profile   `json:"author"`
	Tags        []string  `json:"tags"`
	Likes       int       `json:"likes"`
	Comments    []Comment `json:"comments"`
	PublishDate time.Time `json:"publishDate"`
}

type BlogInput struct {
	Title    string   `json:"title,omitempty"`
	Content  string   `json:"content,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

type Stats struct {
	Users       int64 `json:"users"`
	Games       int64 `json:"games"`
	Blogs       int64 `json:"blogs"`
	Communities int64 `json:"communities"`
}
