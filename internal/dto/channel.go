package dto

import "time"

// ChannelProfileResponse is the aggregated public view of a channel.
type ChannelProfileResponse struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	FullName        string `json:"fullName"`
	Avatar          string `json:"avatar"`
	CoverImage      string `json:"coverImage,omitempty"`
	SubscriberCount int64  `json:"subscriberCount"`
	SubscribedTo    int64  `json:"channelsSubscribedToCount"`
	IsSubscribed    bool   `json:"isSubscribed"`
}

// WatchHistoryEntry is a watched video joined with its owning channel.
type WatchHistoryEntry struct {
	ID          string            `json:"id"`
	VideoFile   string            `json:"videoFile"`
	Thumbnail   string            `json:"thumbnail"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Duration    float64           `json:"duration"`
	Views       int64             `json:"views"`
	CreatedAt   time.Time         `json:"createdAt"`
	Owner       WatchHistoryOwner `json:"owner"`
}

type WatchHistoryOwner struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}
