package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"anoa.com/donorhub/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const DonorIndex = "donors"

type SearchService interface {
	IndexDonor(ctx context.Context, user *entity.User, pledgedCents int64) error
	DeleteDonor(ctx context.Context, userID uuid.UUID) error
	SearchDonors(ctx context.Context, query string, limit int) (*DonorResults, error)
}

type DonorDocument struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FullName          string `json:"full_name"`
	Organization      string `json:"organization"`
	Bio               string `json:"bio"`
	Role              string `json:"role"`
	AvatarURL         string `json:"avatar_url"`
	TotalPledgedCents int64  `json:"total_pledged_cents"`
	CreatedAt         int64  `json:"created_at"`
}

type DonorResults struct {
	Hits  []DonorDocument `json:"hits"`
	Total int64           `json:"total"`
}

var strict = bluemonday.StrictPolicy()

type searchService struct {
	client meilisearch.ServiceManager
	log    *zap.Logger
}

// NewSearchService accepts a nil client; every call is then a no-op.
func NewSearchService(client meilisearch.ServiceManager, log *zap.Logger) SearchService {
	s := &searchService{
		client: client,
		log:    log,
	}
	if client != nil {
		s.initIndex()
	}
	return s
}

func (s *searchService) initIndex() {
	index := s.client.Index(DonorIndex)

	searchable := []string{"username", "full_name", "organization", "bio"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		s.log.Warn("failed to update donor searchable attributes", zap.Error(err))
	}

	filterable := []any{"role"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		s.log.Warn("failed to update donor filterable attributes", zap.Error(err))
	}

	sortable := []string{"total_pledged_cents", "created_at"}
	if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
		s.log.Warn("failed to update donor sortable attributes", zap.Error(err))
	}
}

// NewDonorDocument flattens a user into its search document.
func NewDonorDocument(user *entity.User, pledgedCents int64) DonorDocument {
	doc := DonorDocument{
		ID:                user.ID.String(),
		Username:          user.Username,
		Role:              user.Role.Name,
		AvatarURL:         stringOrEmpty(user.AvatarURL),
		TotalPledgedCents: pledgedCents,
		CreatedAt:         user.CreatedAt.Unix(),
	}
	if user.Profile != nil {
		doc.FullName = user.Profile.FullName
		doc.Organization = stringOrEmpty(user.Profile.Organization)
		doc.Bio = cleanText(stringOrEmpty(user.Profile.Bio))
	}
	return doc
}

func cleanText(content string) string {
	content = strings.ReplaceAll(content, "</p>", " ")
	content = strings.ReplaceAll(content, "<br>", " ")
	content = html.UnescapeString(strict.Sanitize(content))
	return strings.Join(strings.Fields(content), " ")
}

func (s *searchService) IndexDonor(ctx context.Context, user *entity.User, pledgedCents int64) error {
	if s.client == nil {
		return nil
	}

	doc := NewDonorDocument(user, pledgedCents)
	primaryKey := "id"
	task, err := s.client.Index(DonorIndex).AddDocuments([]DonorDocument{doc}, &primaryKey)
	if err != nil {
		return fmt.Errorf("index donor %s: %w", user.ID, err)
	}
	s.log.Debug("indexed donor", zap.String("user_id", doc.ID), zap.Int64("task_uid", task.TaskUID))
	return nil
}

func (s *searchService) DeleteDonor(ctx context.Context, userID uuid.UUID) error {
	if s.client == nil {
		return nil
	}
	_, err := s.client.Index(DonorIndex).DeleteDocument(userID.String())
	return err
}

func (s *searchService) SearchDonors(ctx context.Context, query string, limit int) (*DonorResults, error) {
	if s.client == nil {
		return &DonorResults{Hits: []DonorDocument{}}, nil
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	raw, err := s.client.Index(DonorIndex).SearchRaw(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("search donors: %w", err)
	}

	var body struct {
		Hits               []DonorDocument `json:"hits"`
		EstimatedTotalHits int64           `json:"estimatedTotalHits"`
	}
	if raw != nil {
		if err := json.Unmarshal(*raw, &body); err != nil {
			return nil, fmt.Errorf("decode donor hits: %w", err)
		}
	}
	if body.Hits == nil {
		body.Hits = []DonorDocument{}
	}

	return &DonorResults{Hits: body.Hits, Total: body.EstimatedTotalHits}, nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
