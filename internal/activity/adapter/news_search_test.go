package adapter

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsSearchAdapter_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"url":"https://a.example/1","title":"A","snippet":"one"},
			{"url":"https://a.example/2","title":"B","snippet":"two"}
		]}`))
	}))
	defer srv.Close()

	a := NewNewsSearchAdapter(srv.URL)
	resp, err := a.Search(t.Context(), NewsSearchRequest{Query: "greece visa", TimeWindow: "7d", Limit: 10})

	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "A", resp.Results[0].Title)
}

func TestDeepResearchAdapter_Research(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"T","snippet":"S","url":"https://b.example"}],"seeds":["https://b.example/seed"]}`))
	}))
	defer srv.Close()

	a := NewDeepResearchAdapter(srv.URL)
	resp, err := a.Research(t.Context(), DeepResearchRequest{Topic: "digital nomad visa", Breadth: 3})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	require.Len(t, resp.Seeds, 1)
	assert.Equal(t, "https://b.example/seed", resp.Seeds[0])
}

func TestGraphUpsertAdapter_UpsertTruncatesLongEpisodes(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotLen = len(body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"graph_id":"g1","facts_count":3}`))
	}))
	defer srv.Close()

	longText := make([]byte, MaxEpisodeChars+500)
	for i := range longText {
		longText[i] = 'x'
	}

	a := NewGraphUpsertAdapter(srv.URL)
	resp, err := a.Upsert(t.Context(), GraphUpsertRequest{GraphID: "g1", EpisodeText: string(longText)})

	require.NoError(t, err)
	assert.Equal(t, "g1", resp.GraphID)
	assert.Equal(t, 3, resp.FactsCount)
	assert.Less(t, gotLen, len(longText))
}
