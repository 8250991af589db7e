package models

import "time"

// Account roles. Role is set at registration and only changes through
// admin action.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Marker lifecycle statuses. A new marker always starts as StatusSent;
// any status is reachable from any other, including reopening a
// resolved marker.
const (
	StatusSent       = "sent"
	StatusProcessing = "processing"
	StatusResolved   = "resolved"
)

// Follow edge statuses.
const (
	FollowPending  = "pending"
	FollowAccepted = "accepted"
)

// User represents an account in the system
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        *string   `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile holds the per-account privacy flags and avatar. Every account
// has exactly one profile; legacy accounts get one backfilled on first read.
type Profile struct {
	UserID        int64   `json:"user_id"`
	IsPrivate     bool    `json:"is_private"`
	HidePosts     bool    `json:"hide_posts"`
	HideFollowing bool    `json:"hide_following"`
	HideFollowers bool    `json:"hide_followers"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
}

// Media is one attachment stored against a marker.
type Media struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Marker represents a geo-tagged incident/event report
type Marker struct {
	ID          int64      `json:"id"`
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    string     `json:"category"`
	Subcategory *string    `json:"subcategory,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	ReporterID  *int64     `json:"reporter_id,omitempty"`
	Status      string     `json:"status"`
	Media       []Media    `json:"media"`
	EventStart  *time.Time `json:"event_start,omitempty"`
	EventEnd    *time.Time `json:"event_end,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MarkerWithLikes is a marker joined with its like aggregate for the
// requesting user.
type MarkerWithLikes struct {
	Marker
	LikesCount int64 `json:"likes_count"`
	UserLiked  bool  `json:"user_liked"`
}

// StatusChange is one immutable row of a marker's status audit trail.
// Rows are only ever appended, never updated or deleted, and survive
// deletion of the marker itself.
type StatusChange struct {
	ID         int64     `json:"id"`
	MarkerID   int64     `json:"marker_id"`
	PrevStatus string    `json:"prev_status"`
	NewStatus  string    `json:"new_status"`
	ActorID    int64     `json:"actor_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowEdge is a directed follow relationship. Unique per ordered
// (follower, followee) pair; re-requesting overwrites the existing row.
type FollowEdge struct {
	FollowerID int64     `json:"follower_id"`
	FolloweeID int64     `json:"followee_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// BBox is a latitude/longitude bounding box in min-lat,min-lng,max-lat,max-lng
// order, matching the wire format of the bbox query parameter.
type BBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// MarkerFilters narrows marker listings. Zero values mean "no filter".
type MarkerFilters struct {
	Categories    []string
	Subcategories []string
	Statuses      []string
	BBox          *BBox
}

// UserSummary is the trimmed account shape returned by follower/following
// listings.
type UserSummary struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    *string `json:"email,omitempty"`
}

// AdminUser is the admin listing shape: account plus profile flags and
// marker count.
type AdminUser struct {
	User
	IsPrivate     bool  `json:"is_private"`
	HidePosts     bool  `json:"hide_posts"`
	HideFollowing bool  `json:"hide_following"`
	HideFollowers bool  `json:"hide_followers"`
	MarkersCount  int64 `json:"markers_count"`
}
