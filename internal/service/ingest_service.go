package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainguard-dev/clog"

	"github.com/ahmednasr/ai-in-action/issue-agent/internal/apperr"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/github"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/metrics"
	"github.com/ahmednasr/ai-in-action/issue-agent/internal/vectorstore"
)

// ---- Dependencies ----------------------------------------------------------

// IssueFetcher lists the raw issues of a repository.
type IssueFetcher interface {
	FetchIssues(ctx context.Context, owner, repo string) (github.FetchResult, error)
}

// ---- Service interface + implementation ------------------------------------

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Owner     string           `json:"owner"`
	Repo      string           `json:"repo"`
	Fetched   int              `json:"fetched"`
	Indexed   int              `json:"indexed"`
	Skipped   []string         `json:"skipped,omitempty"`
	Pages     int              `json:"pages"`
	Reset     bool             `json:"reset"`
	RateLimit github.RateLimit `json:"rate_limit"`
	// FetchErr is set when fetching failed part-way; whatever was fetched
	// before the failure has still been indexed.
	FetchErr error `json:"-"`
}

// IngestService refreshes the vector store from a GitHub repository.
type IngestService interface {
	Ingest(ctx context.Context, owner, repo string) (IngestReport, error)
}

type ingestService struct {
	fetcher IssueFetcher
	store   vectorstore.Store
}

// NewIngestService wires the fetcher and the store.
func NewIngestService(fetcher IssueFetcher, store vectorstore.Store) IngestService {
	return &ingestService{fetcher: fetcher, store: store}
}

// Ingest fetches, normalizes and re-indexes the issues of owner/repo.
//
// The store is left untouched when nothing was fetched: a failed fetch or an
// empty repository never wipes the existing index. Documents are embedded
// before the old ones are removed, so an embedding failure leaves the index
// as it was. A configuration error is
// returned as is; a remote failure after some pages were fetched proceeds
// with those pages and is reported in IngestReport.FetchErr.
func (s *ingestService) Ingest(ctx context.Context, owner, repo string) (IngestReport, error) {
	log := clog.FromContext(ctx).With("owner", owner).With("repo", repo)
	report := IngestReport{Owner: owner, Repo: repo}

	log.Info("[Ingest] Fetching issues")
	res, err := s.fetcher.FetchIssues(ctx, owner, repo)
	report.Fetched = len(res.Issues)
	report.Pages = res.Pages
	report.RateLimit = res.RateLimit

	if err != nil {
		var ce *apperr.ConfigurationError
		if errors.As(err, &ce) || len(res.Issues) == 0 {
			log.With("error", err).Error("[Ingest] Fetch failed, store left untouched")
			return report, err
		}
		log.With("error", err).With("fetched", len(res.Issues)).Warn("[Ingest] Fetch incomplete, indexing what was fetched")
		report.FetchErr = err
	}
	if len(res.Issues) == 0 {
		log.Info("[Ingest] No issues found, store left untouched")
		return report, nil
	}

	docs, skipped := NormalizeAll(res.Issues)
	for _, e := range skipped {
		log.With("error", e).Warn("[Ingest] Skipping malformed issue")
		report.Skipped = append(report.Skipped, e.Error())
	}
	metrics.RecordsSkipped.Add(float64(len(skipped)))
	if len(docs) == 0 {
		log.Warn("[Ingest] Every fetched issue was malformed, store left untouched")
		return report, nil
	}

	ids, err := s.store.Replace(ctx, docs)
	if err != nil {
		log.With("error", err).Error("[Ingest] Indexing failed, store left untouched")
		return report, fmt.Errorf("index issues: %w", err)
	}
	report.Reset = true
	report.Indexed = len(ids)

	log.With("indexed", report.Indexed).With("skipped", len(report.Skipped)).Info("[Ingest] Issues added to vector store")
	return report, nil
}

// Ensure the GitHub client satisfies the fetcher contract.
var _ IssueFetcher = (*github.Client)(nil)
