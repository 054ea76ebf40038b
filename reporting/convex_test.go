package reporting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saggiatore/saggiatore-go/models"
)

func TestSyncClientEnabled(t *testing.T) {
	assert.False(t, NewSyncClient("", "").Enabled())
	assert.False(t, NewSyncClient("https://example.convex.site/ingest", "").Enabled())
	assert.False(t, NewSyncClient("", "token").Enabled())
	assert.True(t, NewSyncClient("https://example.convex.site/ingest", "token").Enabled())
}

func TestSyncRunPostsSeparateRecords(t *testing.T) {
	var bodies []json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var body json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies = append(bodies, body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, "test-token")
	results := []*models.SessionResult{exportableResult(), exportableResult()}
	lb := NewLeaderboard()
	lb.AddAll(results)

	client.SyncRun(context.Background(), "20260824_120000", results, lb.Rankings())

	// One run record, one record per session, one leaderboard record.
	require.Len(t, bodies, 4)

	var run syncRunRecord
	require.NoError(t, json.Unmarshal(bodies[0], &run))
	assert.Equal(t, "run", run.Kind)
	assert.Equal(t, "20260824_120000", run.RunID)
	assert.Equal(t, 2, run.TotalSessions)

	var session syncSession
	require.NoError(t, json.Unmarshal(bodies[1], &session))
	assert.Equal(t, "session", session.Kind)
	assert.Equal(t, "20260824_120000", session.RunID)
	assert.Equal(t, "gpt-4o", session.ModelID)
	require.Len(t, session.Messages, 3)
	assert.Equal(t, "[system prompt]", session.Messages[0].Content)
	// Synthesized timestamps step by one second per message.
	assert.Equal(t, session.Messages[0].Timestamp+1000, session.Messages[1].Timestamp)
	assert.Equal(t, session.Messages[0].Timestamp+2000, session.Messages[2].Timestamp)

	var leaderboard syncLeaderboardRecord
	require.NoError(t, json.Unmarshal(bodies[3], &leaderboard))
	assert.Equal(t, "leaderboard", leaderboard.Kind)
	require.Len(t, leaderboard.Entries, 1)
	assert.Equal(t, 1, leaderboard.Entries[0].Rank)
	assert.Equal(t, "gpt-4o", leaderboard.Entries[0].ModelID)
}

func TestSyncRunContinuesPastFailures(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 2 {
			http.Error(w, "nope", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, "test-token")
	results := []*models.SessionResult{exportableResult(), exportableResult()}
	lb := NewLeaderboard()
	lb.AddAll(results)

	// The first session record fails; the second session and the
	// leaderboard are still posted.
	client.SyncRun(context.Background(), "run1", results, lb.Rankings())
	assert.Equal(t, 4, requests)
}

func TestSyncRunDisabledDoesNothing(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	client := NewSyncClient("", "")
	client.SyncRun(context.Background(), "run1", nil, nil)
	assert.Equal(t, 0, requests)
}

func TestSyncRunServerErrorIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewSyncClient(server.URL, "token")
	// Must not panic or abort; failures are logged only.
	client.SyncRun(context.Background(), "run1", []*models.SessionResult{exportableResult()}, nil)
}
