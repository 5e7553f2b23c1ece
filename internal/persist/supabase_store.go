package persist

import (
	"context"
	"fmt"
	"os"

	supabase "github.com/supabase-community/supabase-go"
)

// SupabaseStore persists match records through the Supabase REST client,
// adapted from the teacher's SupabaseClient CRUD methods in
// internal/database/supabase.go.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore builds a client from SUPABASE_URL/SUPABASE_SERVICE_KEY.
func NewSupabaseStore() (*SupabaseStore, error) {
	url := os.Getenv("SUPABASE_URL")
	key := os.Getenv("SUPABASE_SERVICE_KEY")
	if url == "" || key == "" {
		return nil, fmt.Errorf("persist: SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("persist: create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) SaveMatch(ctx context.Context, m MatchRecord) error {
	var result []MatchRecord
	_, err := s.client.From("match_results").
		Insert(m, false, "", "", "").
		ExecuteTo(&result)
	if err != nil {
		return fmt.Errorf("persist: save match: %w", err)
	}
	return nil
}

func (s *SupabaseStore) TopScores(ctx context.Context, limit int) ([]MatchRecord, error) {
	var out []MatchRecord
	_, err := s.client.From("match_results").
		Select("*", "", false).
		Order("wave_reached", nil).
		Limit(limit, "").
		ExecuteTo(&out)
	if err != nil {
		return nil, fmt.Errorf("persist: top scores: %w", err)
	}
	return out, nil
}

func (s *SupabaseStore) Close() error {
	return nil
}
