package models

import "time"

// Post is a raw social or news item fetched for a ticker, before scoring.
type Post struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	Source      string    `json:"source"` // subreddit or newswire source name
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Author      string    `json:"author,omitempty"`
	URL         string    `json:"url,omitempty"`
	Upvotes     int       `json:"upvotes"`
	NumComments int       `json:"num_comments"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoredPost is a post with its sentiment score attached.
type ScoredPost struct {
	Post
	Sentiment float64   `json:"sentiment"`
	ScoredAt  time.Time `json:"scored_at"`
}
