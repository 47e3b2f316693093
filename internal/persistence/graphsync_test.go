package persistence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
)

type fakeGraphIDWriter struct {
	gotID      uuid.UUID
	gotGraphID string
}

func (f *fakeGraphIDWriter) SetGraphID(ctx context.Context, id uuid.UUID, graphID string) error {
	f.gotID = id
	f.gotGraphID = graphID
	return nil
}

func TestGraphSync_SyncArticle_WritesGraphIDOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"graph_id":"graph_abc","facts_count":3}`))
	}))
	defer srv.Close()

	writer := &fakeGraphIDWriter{}
	sync := NewGraphSync(adapter.NewGraphUpsertAdapter(srv.URL), writer, &fakeGraphIDWriter{})

	id := uuid.New()
	err := sync.SyncArticle(t.Context(), id.String(), "relocation", "digital-nomad-visa-greece", "summary", nil)

	require.NoError(t, err)
	assert.Equal(t, id, writer.gotID)
	assert.Equal(t, "graph_abc", writer.gotGraphID)
}

func TestGraphSync_SyncArticle_SoftSkipsOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	writer := &fakeGraphIDWriter{}
	sync := NewGraphSync(adapter.NewGraphUpsertAdapter(srv.URL), writer, &fakeGraphIDWriter{})

	err := sync.SyncArticle(t.Context(), uuid.New().String(), "relocation", "digital-nomad-visa-greece", "summary", nil)

	require.Error(t, err)
	assert.Empty(t, writer.gotGraphID)
}

func TestDeriveGraphID_IsDeterministicAndScopedByApp(t *testing.T) {
	a := DeriveGraphID("relocation", "digital-nomad-visa-greece")
	b := DeriveGraphID("relocation", "digital-nomad-visa-greece")
	c := DeriveGraphID("placement", "digital-nomad-visa-greece")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
