// Package domain holds the row shapes read from the bot-owned store.
// Timestamps stay in the text form the bot writes; this tier does not own
// their format.
package domain

type Track struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	YouTubeURL   string `json:"youtube_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Duration     int64  `json:"duration"`
}

type HistoryItem struct {
	Track
	DownloadedAt string `json:"downloaded_at"`
}

type ChartItem struct {
	Track
	Downloads       int64  `json:"downloads"`
	FirstDownloaded string `json:"first_downloaded"`
	LastDownloaded  string `json:"last_downloaded"`
}

type User struct {
	ID            int64  `json:"id"`
	Username      string `json:"username"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	WebsiteLinked bool   `json:"website_linked"`
	CreatedAt     string `json:"created_at"`
}
