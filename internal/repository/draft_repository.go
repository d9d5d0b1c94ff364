package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/edusetu/tuition-admin-api/internal/models"
	appErrors "github.com/edusetu/tuition-admin-api/pkg/errors"
)

// DraftRepository stores registration drafts in Redis keyed by email. The
// TTL bounds the lifetime of an abandoned wizard.
type DraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftRepository constructs a DraftRepository.
func NewDraftRepository(client *redis.Client, ttl time.Duration) *DraftRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DraftRepository{client: client, ttl: ttl}
}

func draftKey(email string) string {
	return "regdraft:" + strings.ToLower(strings.TrimSpace(email))
}

// Save persists the draft, refreshing its TTL.
func (r *DraftRepository) Save(ctx context.Context, draft *models.RegistrationDraft) error {
	draft.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal registration draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(draft.Email), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save draft: %w", err)
	}
	return nil
}

// Get returns the draft for an email, or ErrNotFound when absent/expired.
func (r *DraftRepository) Get(ctx context.Context, email string) (*models.RegistrationDraft, error) {
	raw, err := r.client.Get(ctx, draftKey(email)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no registration in progress for this email")
		}
		return nil, fmt.Errorf("redis get draft: %w", err)
	}
	var draft models.RegistrationDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return nil, fmt.Errorf("unmarshal registration draft: %w", err)
	}
	return &draft, nil
}

// Delete destroys the draft once registration completes or is abandoned.
func (r *DraftRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, draftKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete draft: %w", err)
	}
	return nil
}
