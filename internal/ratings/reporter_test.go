package ratings

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/ratrace/internal/game"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func testSummary() game.GameSummary {
	return game.GameSummary{
		RoomID:   "abc123",
		WinnerID: "p1",
		Results: []game.PlayerResult{
			{RoomID: "abc123", PlayerID: "p1", Username: "alice", FinalScore: 50000, FinalNetWorth: 40000, Won: true},
		},
	}
}

func TestReportDeliversResults(t *testing.T) {
	var got atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var result game.PlayerResult
		require.NoError(t, json.NewDecoder(r.Body).Decode(&result))
		got.Store(result)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reporter := New(server.URL, testLogger())
	reporter.Report(testSummary())
	reporter.Wait()

	result, ok := got.Load().(game.PlayerResult)
	require.True(t, ok, "no report received")
	assert.Equal(t, "p1", result.PlayerID)
	assert.Equal(t, 50000, result.FinalScore)
	assert.True(t, result.Won)
}

func TestReportRetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	reporter := New(server.URL, testLogger())
	reporter.Report(testSummary())
	reporter.Wait()

	assert.Equal(t, int32(3), attempts.Load())
}

func TestReportDoesNotRetryClientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	reporter := New(server.URL, testLogger())
	reporter.Report(testSummary())
	reporter.Wait()

	assert.Equal(t, int32(1), attempts.Load())
}

func TestReportGivesUpAfterMaxTries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	reporter := New(server.URL, testLogger())
	reporter.maxTries = 2
	reporter.Report(testSummary())
	reporter.Wait()

	// The failure is logged and dropped, never surfaced to gameplay.
	assert.Equal(t, int32(2), attempts.Load())
}

func TestEmptyEndpointDisablesReporting(t *testing.T) {
	reporter := New("", testLogger())
	reporter.Report(testSummary())
	reporter.Wait()
}
