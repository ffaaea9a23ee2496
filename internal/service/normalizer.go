package service

import (
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/models"
)

// Normalize converts a raw GitHub issue into an indexable document.
//
// Content is the title followed directly by the body, without a separator,
// so documents stay byte-compatible with collections built by earlier
// ingesters.
func Normalize(raw models.RawIssue) (models.IssueDocument, error) {
	if len(raw.Missing) > 0 {
		return models.IssueDocument{}, &apperr.MalformedRecordError{Field: raw.Missing[0], Number: raw.Number}
	}
	if raw.Title == "" {
		return models.IssueDocument{}, &apperr.MalformedRecordError{Field: "title", Number: raw.Number}
	}
	if raw.User.Login == "" {
		return models.IssueDocument{}, &apperr.MalformedRecordError{Field: "user.login", Number: raw.Number}
	}

	body := raw.BodyText()
	content := raw.Title
	if body != "" {
		content += body
	}

	labels := make([]string, 0, len(raw.Labels))
	for _, l := range raw.Labels {
		labels = append(labels, l.Name)
	}

	return models.IssueDocument{
		Content: content,
		Metadata: models.IssueMetadata{
			Author:       raw.User.Login,
			CommentCount: raw.Comments,
			Body:         body,
			Labels:       labels,
			CreatedAt:    raw.CreatedAt,
			Number:       raw.Number,
			URL:          raw.HTMLURL,
		},
	}, nil
}

// NormalizeAll normalizes a batch, skipping malformed records. The returned
// errors describe every skipped record.
func NormalizeAll(raws []models.RawIssue) ([]models.IssueDocument, []error) {
	docs := make([]models.IssueDocument, 0, len(raws))
	var skipped []error
	for _, raw := range raws {
		doc, err := Normalize(raw)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, skipped
}
