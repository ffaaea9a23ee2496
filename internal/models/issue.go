package models

import "time"

// User is the issue author as returned by GitHub.
type User struct {
	Login string `json:"login"`
}

// Label is a GitHub issue label.
type Label struct {
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// RawIssue captures the fields we consume from GitHub's issues endpoint.
// Body is nil when GitHub sends null. Missing lists required wire fields that
// were absent so the normalizer can reject the record.
type RawIssue struct {
	Number        int     `json:"number"`
	Title         string  `json:"title"`
	Body          *string `json:"body"`
	User          User    `json:"user"`
	Comments      int     `json:"comments"`
	Labels        []Label `json:"labels"`
	CreatedAt     string  `json:"created_at"`
	HTMLURL       string  `json:"html_url"`
	State         string  `json:"state"`
	IsPullRequest bool    `json:"-"`

	Missing []string `json:"-"`
}

// BodyText returns the body, or "" when GitHub sent null.
func (r RawIssue) BodyText() string {
	if r.Body == nil {
		return ""
	}
	return *r.Body
}

// IssueMetadata is stored next to every indexed issue.
type IssueMetadata struct {
	Author       string   `json:"author"     bson:"author"`
	CommentCount int      `json:"comments"   bson:"comments"`
	Body         string   `json:"body"       bson:"body"`
	Labels       []string `json:"labels"     bson:"labels"`
	CreatedAt    string   `json:"created_at" bson:"created_at"`
	Number       int      `json:"number"     bson:"number"`
	URL          string   `json:"url"        bson:"url"`
}

// IssueDocument is the normalized, indexable form of an issue.
// Content is never empty. ID is assigned by the vector store on upsert.
type IssueDocument struct {
	ID       string        `json:"id,omitempty" bson:"_id,omitempty"`
	Content  string        `json:"content"      bson:"content"`
	Metadata IssueMetadata `json:"metadata"     bson:"metadata"`
}

// SearchResult is one ranked hit from the vector store.
type SearchResult struct {
	Document IssueDocument `json:"document"`
	Score    float64       `json:"score"`
	Rank     int           `json:"rank"`
}

// Note is a free-text note recorded by the agent.
type Note struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Exchange is one prior question/answer pair of a chat session.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
