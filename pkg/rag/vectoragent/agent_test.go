package vectoragent

import (
	"context"
	"errors"
	"testing"

	"db-rag-be/internal/entity"
	"db-rag-be/pkg/rag/ragerr"
	"db-rag-be/pkg/rag/ragtest"
)

func seedDocument(t *testing.T, repo *ragtest.FakeDocumentRepo, content string, metadata map[string]interface{}) {
	t.Helper()
	err := repo.Create(context.Background(), &entity.Document{
		Content:   content,
		Metadata:  metadata,
		Embedding: ragtest.DeterministicVector(content, 8),
	})
	if err != nil {
		t.Fatalf("seed document: %v", err)
	}
}

func TestSearchRoundTripTopMatch(t *testing.T) {
	repo := ragtest.NewFakeDocumentRepo()
	seedDocument(t, repo, "The refund policy allows returns within 30 days.", nil)
	seedDocument(t, repo, "Office hours are 9 to 5 on weekdays.", nil)

	agent := NewAgent(repo, ragtest.NewFakeEmbedder(), ragtest.NopLogger{}, Config{})

	// Querying with the exact stored text embeds to the identical vector,
	// so the top match must be near-perfect.
	matches, err := agent.Search(context.Background(), "The refund policy allows returns within 30 days.", 2, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches")
	}
	if matches[0].Content != "The refund policy allows returns within 30 days." {
		t.Errorf("unexpected top match: %q", matches[0].Content)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("expected near-identical similarity, got %f", matches[0].Similarity)
	}
}

func TestSearchEmptyStore(t *testing.T) {
	repo := ragtest.NewFakeDocumentRepo()
	agent := NewAgent(repo, ragtest.NewFakeEmbedder(), ragtest.NopLogger{}, Config{})

	matches, err := agent.Search(context.Background(), "anything", 3, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches from empty store, got %d", len(matches))
	}

	count, err := agent.Count(context.Background())
	if err != nil || count != 0 {
		t.Errorf("Count() = %d, %v; want 0, nil", count, err)
	}
}

func TestSearchEmbeddingFailureIsHardError(t *testing.T) {
	repo := ragtest.NewFakeDocumentRepo()
	seedDocument(t, repo, "some document", nil)

	embedder := ragtest.NewFakeEmbedder()
	embedder.Err = errors.New("provider down")

	agent := NewAgent(repo, embedder, ragtest.NopLogger{}, Config{})

	_, err := agent.Search(context.Background(), "anything", 3, nil)
	if !errors.Is(err, ragerr.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestSearchMetadataFilter(t *testing.T) {
	repo := ragtest.NewFakeDocumentRepo()
	seedDocument(t, repo, "HR handbook section on leave.", map[string]interface{}{"source": "hr"})
	seedDocument(t, repo, "Engineering runbook for deploys.", map[string]interface{}{"source": "eng"})

	agent := NewAgent(repo, ragtest.NewFakeEmbedder(), ragtest.NopLogger{}, Config{})

	matches, err := agent.Search(context.Background(), "leave policy", 5, map[string]interface{}{"source": "hr"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 filtered match, got %d", len(matches))
	}
	if matches[0].Metadata["source"] != "hr" {
		t.Errorf("unexpected match metadata: %v", matches[0].Metadata)
	}
}

func TestSearchDefaultLimit(t *testing.T) {
	repo := ragtest.NewFakeDocumentRepo()
	for _, content := range []string{"a", "b", "c", "d", "e"} {
		seedDocument(t, repo, content, nil)
	}

	agent := NewAgent(repo, ragtest.NewFakeEmbedder(), ragtest.NopLogger{}, Config{MaxResults: 3})

	matches, err := agent.Search(context.Background(), "letters", 0, nil)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("expected default limit of 3, got %d", len(matches))
	}
}
