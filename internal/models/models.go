package models

import "time"

// Account represents an authenticated identity
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialLinks holds the optional links shown on a profile page
type SocialLinks struct {
	Website   string `json:"website,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Github    string `json:"github,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Profile represents the public metadata of an account, keyed by the account ID
type Profile struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	AvatarURL   *string     `json:"avatar_url"`
	Bio         string      `json:"bio"`
	SocialLinks SocialLinks `json:"social_links"`
	PushToken   *string     `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Model represents one uploaded 3D asset
type Model struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	Tags           []string  `json:"tags"`
	UserID         string    `json:"user_id"`
	IsPublic       bool      `json:"is_public"`
	FilePath       string    `json:"file_path"`
	ThumbnailPath  string    `json:"thumbnail_path"`
	FileSize       int64     `json:"file_size"`
	FileType       string    `json:"file_type"`
	DownloadsCount int64     `json:"downloads_count"`
	ViewCount      int64     `json:"view_count"`
	LikesCount     int64     `json:"likes_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// ModelInput is the metadata supplied with an upload
type ModelInput struct {
	Title       string
	Description string
	Category    string
	Tags        []string
	UserID      string
	IsPublic    bool
}

// DownloadEvent is an append-only record of one download
type DownloadEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ModelID   string    `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadTally is the state of a model right after a download was recorded
type DownloadTally struct {
	ModelID        string `json:"model_id"`
	OwnerID        string `json:"-"`
	Title          string `json:"title"`
	FilePath       string `json:"file_path"`
	DownloadsCount int64  `json:"downloads_count"`
}
