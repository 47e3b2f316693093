package phases

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Londondannyboy/quest-sub002/internal/activity/adapter"
	"github.com/Londondannyboy/quest-sub002/internal/domain"
	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

func TestGraphContextPhase_SkipsWhenNoGraphIDDerivedYet(t *testing.T) {
	phase := NewGraphContextPhase(adapter.NewGraphUpsertAdapter("http://unreachable.invalid"))

	err := phase.Run(context.Background(), engine.NewExecutionState("exec-1", "article"))
	require.NoError(t, err)
}

func TestGraphContextPhase_FoldsEpisodesIntoBundleOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"summary":"prior finding","recorded_at":"2026-01-01"}]}`))
	}))
	defer srv.Close()

	phase := NewGraphContextPhase(adapter.NewGraphUpsertAdapter(srv.URL))

	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(KeyGraphID, "graph-123")
	state.SetContext(KeyResearchBundle, domain.NewResearchBundle())

	err := phase.Run(context.Background(), state)
	require.NoError(t, err)

	recAny, ok := state.GetContext(KeyGraphContext)
	require.True(t, ok)
	rec := recAny.(*domain.SourceRecord)
	require.Len(t, rec.Items, 1)
	assert.Equal(t, "prior finding", rec.Items[0].Title)

	bundleAny, _ := state.GetContext(KeyResearchBundle)
	bundle := bundleAny.(*domain.ResearchBundle)
	assert.Same(t, rec, bundle.Records[domain.SourceGraphContext])
}

func TestGraphContextPhase_SoftSkipsOnFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	phase := NewGraphContextPhase(adapter.NewGraphUpsertAdapter(srv.URL))

	state := engine.NewExecutionState("exec-1", "article")
	state.SetContext(KeyGraphID, "graph-123")

	err := phase.Run(context.Background(), state)
	require.NoError(t, err)

	recAny, ok := state.GetContext(KeyGraphContext)
	require.True(t, ok)
	rec := recAny.(*domain.SourceRecord)
	assert.NotEmpty(t, rec.FailureNote)
	assert.Empty(t, rec.Items)
}

func TestGraphContextPhase_NameAndDeps(t *testing.T) {
	phase := NewGraphContextPhase(adapter.NewGraphUpsertAdapter("http://unreachable.invalid"))

	assert.Equal(t, "graph_context", phase.Name())
	assert.Equal(t, []string{"research_fanout"}, phase.DependsOn())
}
