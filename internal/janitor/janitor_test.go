package janitor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Assay/internal/hermes"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

type mockHermes struct {
	mu           sync.Mutex
	published    []string
	handlers     map[string]func(string, []byte)
	subscribeErr error
}

func (m *mockHermes) Publish(subject string, _ interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, subject)
	return nil
}

func (m *mockHermes) Subscribe(subject string, handler func(string, []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	if m.handlers == nil {
		m.handlers = make(map[string]func(string, []byte))
	}
	m.handlers[subject] = handler
	return nil
}

func (m *mockHermes) Close() {}

func (m *mockHermes) publishedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedOrphans leaves one live and one orphaned score for each owner.
func seedOrphans(t *testing.T, s *store.MemoryStore, owners ...string) {
	t.Helper()
	ctx := context.Background()
	for _, owner := range owners {
		live := &store.Criterion{Owner: owner, ModuleType: store.ModuleRisk, Name: "live", Weight: 50, Kind: store.KindQuantitative}
		gone := &store.Criterion{Owner: owner, ModuleType: store.ModuleRisk, Name: "gone", Weight: 50, Kind: store.KindQuantitative}
		require.NoError(t, s.CreateCriterion(ctx, live))
		require.NoError(t, s.CreateCriterion(ctx, gone))
		for _, c := range []*store.Criterion{live, gone} {
			require.NoError(t, s.UpsertScore(ctx, &store.ScoreRecord{Owner: owner, SubjectID: "risk-1", CriterionID: c.ID, Score: 3}))
		}
		require.NoError(t, s.DeleteCriterion(ctx, gone.ID))
	}
}

func TestPurge(t *testing.T) {
	s := store.NewMemoryStore()
	seedOrphans(t, s, "alice", "bob")
	h := &mockHermes{}
	j := New(s, h, nil, time.Hour, discardLogger())

	n, err := j.Purge(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{hermes.SubjectOrphansPurged}, h.published)

	n, err = j.Purge(context.Background(), "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, h.published, 1, "nothing removed, nothing published")

	stats, err := s.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OrphanScores)
}

func TestLoopSweepsAllOwners(t *testing.T) {
	s := store.NewMemoryStore()
	seedOrphans(t, s, "alice", "bob")
	h := &mockHermes{}
	j := New(s, h, nil, 10*time.Millisecond, discardLogger())

	j.Start(context.Background())
	defer j.Stop()

	require.Eventually(t, func() bool {
		stats, err := s.GetStats(context.Background())
		return err == nil && stats.OrphanScores == 0
	}, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, h.publishedCount(), 1)
}

func TestStopIsIdempotent(t *testing.T) {
	j := New(store.NewMemoryStore(), nil, nil, time.Hour, discardLogger())
	j.Start(context.Background())
	j.Stop()
	j.Stop()
}

func TestPurgeOnCriterionDeleted(t *testing.T) {
	s := store.NewMemoryStore()
	seedOrphans(t, s, "alice", "bob")
	h := &mockHermes{}
	j := New(s, h, nil, time.Hour, discardLogger())
	j.SetupSubscriptions()

	handler := h.handlers[hermes.SubjectCriteriaDeleted]
	require.NotNil(t, handler)

	data, err := json.Marshal(hermes.CriterionEvent{CriterionID: uuid.NewString(), Owner: "bob"})
	require.NoError(t, err)
	handler(hermes.SubjectCriterionDeleted("x"), data)
	handler(hermes.SubjectCriterionDeleted("y"), []byte("not json"))

	records, err := s.ListScores(context.Background(), store.ScoreFilter{Owner: "bob"})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = s.ListScores(context.Background(), store.ScoreFilter{Owner: "alice"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSubscribeFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := &mockHermes{subscribeErr: errors.New("nats: connection closed")}
	j := New(store.NewMemoryStore(), h, nil, time.Hour, logger)

	j.SetupSubscriptions()

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, hermes.SubjectCriteriaDeleted, entry["subject"])
	assert.Equal(t, "nats: connection closed", entry["error"])
}
