package vector

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/smartsearch/internal/db"
	"github.com/kailas-cloud/smartsearch/internal/db/redis"
	"github.com/kailas-cloud/smartsearch/internal/domain"
)

func TestEnsureIndex_Definition(t *testing.T) {
	repo, ms := newTestRepo(t)

	var got *db.IndexDefinition
	ms.createIndexFn = func(_ context.Context, def *db.IndexDefinition) error {
		got = def
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "smartsearch:site:idx" {
		t.Errorf("index name = %q", got.Name)
	}
	if len(got.Prefixes) != 1 || got.Prefixes[0] != "smartsearch:site:" {
		t.Errorf("prefixes = %v", got.Prefixes)
	}
	vec := got.Fields[len(got.Fields)-1]
	if vec.Name != "__vector" || vec.Alias != "vector" || vec.VectorDim != 3 || vec.VectorDistance != db.DistanceCosine {
		t.Errorf("unexpected vector field %+v", vec)
	}
}

func TestEnsureIndex_SkipsCreateWhenPresent(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.indexExistsFn = func(_ context.Context, name string) (bool, error) {
		return name == "smartsearch:site:idx", nil
	}
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error {
		t.Error("CreateIndex must not be called for an existing index")
		return nil
	}

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnsureIndex_ExistsCheckError(t *testing.T) {
	repo, ms := newTestRepo(t)
	boom := errors.New("boom")
	ms.indexExistsFn = func(context.Context, string) (bool, error) { return false, boom }

	if err := repo.EnsureIndex(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestEnsureIndex_ExistingIsOK(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return db.ErrIndexExists }

	if err := repo.EnsureIndex(context.Background()); err != nil {
		t.Fatalf("expected nil for existing index, got %v", err)
	}
}

func TestEnsureIndex_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	boom := errors.New("boom")
	ms.createIndexFn = func(context.Context, *db.IndexDefinition) error { return boom }

	err := repo.EnsureIndex(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if !strings.Contains(err.Error(), "FT.CREATE smartsearch:site:idx ON HASH") {
		t.Errorf("expected index definition in error, got %v", err)
	}
}

func TestNew_DefaultNamespace(t *testing.T) {
	repo := New(&mockStore{}, Config{Name: "smartsearch", Dimensions: 3})
	if repo.key("x") != "smartsearch:default:x" {
		t.Errorf("key = %q", repo.key("x"))
	}
}

func TestUpsert_Fields(t *testing.T) {
	repo, ms := newTestRepo(t)

	var items []db.HashSetItem
	ms.hsetMultiFn = func(_ context.Context, in []db.HashSetItem) error {
		items = in
		return nil
	}

	err := repo.Upsert(context.Background(), []domain.Record{{
		ID:       "blt1",
		Values:   []float32{0.1, 0.2, 0.3},
		Metadata: domain.Metadata{"content_type": "products", "title": "Oak table"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Key != "smartsearch:site:blt1" {
		t.Errorf("key = %q", item.Key)
	}
	if item.Fields["content_type"] != "products" {
		t.Errorf("content_type = %q", item.Fields["content_type"])
	}
	if item.Fields["__vector"] != redis.VectorToBytes([]float32{0.1, 0.2, 0.3}) {
		t.Error("unexpected vector blob")
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(item.Fields["__metadata"]), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["title"] != "Oak table" {
		t.Errorf("metadata title = %v", meta["title"])
	}
}

func TestUpsert_DimensionMismatch(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hsetMultiFn = func(context.Context, []db.HashSetItem) error {
		t.Fatal("store must not be called")
		return nil
	}

	err := repo.Upsert(context.Background(), []domain.Record{{ID: "x", Values: []float32{1}}})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestQuery(t *testing.T) {
	repo, ms := newTestRepo(t)

	ms.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		if q.IndexName != "smartsearch:site:idx" || q.K != 10 {
			t.Errorf("unexpected query %+v", q)
		}
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: "smartsearch:site:a", Score: 0.9, Fields: map[string]string{"__metadata": `{"title":"A"}`}},
			{Key: "smartsearch:site:b", Score: 0.5, Fields: map[string]string{"__metadata": `not json`}},
		}}, nil
	}

	matches, err := repo.Query(context.Background(), []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].ID != "a" || matches[0].Score != 0.9 || matches[0].Metadata["title"] != "A" {
		t.Errorf("unexpected first match %+v", matches[0])
	}
	if matches[1].Metadata == nil || len(matches[1].Metadata) != 0 {
		t.Errorf("expected empty metadata for corrupt blob, got %+v", matches[1].Metadata)
	}
}

func TestFetch(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.hgetAllFn = func(_ context.Context, key string) (map[string]string, error) {
		if key != "smartsearch:site:blt1" {
			return nil, db.ErrKeyNotFound
		}
		return map[string]string{"__metadata": `{"title":"Oak"}`, "__vector": "...."}, nil
	}

	item, err := repo.Fetch(context.Background(), "blt1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ID != "blt1" || item.Metadata["title"] != "Oak" {
		t.Errorf("unexpected item %+v", item)
	}

	if _, err := repo.Fetch(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndClose(t *testing.T) {
	repo, ms := newTestRepo(t)
	var deleted string
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	if err := repo.Delete(context.Background(), "blt1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "smartsearch:site:blt1" {
		t.Errorf("deleted key = %q", deleted)
	}

	repo.Close()
	if !ms.closed {
		t.Error("expected store to be closed")
	}
}

func TestPing_WrapsUnavailable(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.pingFn = func(context.Context) error { return errors.New("dial tcp: refused") }

	if err := repo.Ping(context.Background()); !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}
