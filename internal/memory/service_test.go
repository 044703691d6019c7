package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moltbot/moltmem/internal/embedding"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testService(store *fakeStore, embedder embedding.Embedder) *Service {
	return New(store, embedder, testLogger())
}

func saveParams(content string) SaveMessageParams {
	return SaveMessageParams{
		UserID:  "user-1",
		Channel: "whatsapp",
		AgentID: "moltbot",
		Role:    "user",
		Content: content,
	}
}

func TestSaveMessageReusesConversationWithinWindow(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	first, saved, err := svc.SaveMessage(ctx, saveParams("oi"))
	require.NoError(t, err)
	require.True(t, saved)
	require.NotNil(t, first.ConversationID)

	second, _, err := svc.SaveMessage(ctx, saveParams("tudo bem?"))
	require.NoError(t, err)
	assert.Equal(t, *first.ConversationID, *second.ConversationID)

	// Age the conversation past the 24h window: the next message opens a
	// new one.
	store.mu.Lock()
	store.conversations["user-1|whatsapp|moltbot"].LastMessageAt = time.Now().UTC().Add(-25 * time.Hour)
	store.mu.Unlock()

	third, _, err := svc.SaveMessage(ctx, saveParams("voltei"))
	require.NoError(t, err)
	assert.NotEqual(t, *first.ConversationID, *third.ConversationID)
}

func TestSaveMessageBucketsPerAgent(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	first, _, err := svc.SaveMessage(ctx, saveParams("oi"))
	require.NoError(t, err)

	// Same user and channel, different agent: a separate conversation.
	p := saveParams("oi de novo")
	p.AgentID = "secretary"
	second, _, err := svc.SaveMessage(ctx, p)
	require.NoError(t, err)
	assert.NotEqual(t, *first.ConversationID, *second.ConversationID)
}

func TestSaveMessageValidation(t *testing.T) {
	svc := testService(newFakeStore(), nil)
	ctx := context.Background()

	_, _, err := svc.SaveMessage(ctx, SaveMessageParams{UserID: "u", Role: "user"})
	assert.Error(t, err, "empty content must be rejected")

	p := saveParams("oi")
	p.Role = "robot"
	_, _, err = svc.SaveMessage(ctx, p)
	assert.Error(t, err, "unknown role must be rejected")
}

func TestSaveMessageStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.failInsertMessage = true
	svc := testService(store, nil)

	_, saved, err := svc.SaveMessage(context.Background(), saveParams("oi"))
	assert.Error(t, err)
	assert.False(t, saved)

	require.NotEmpty(t, store.audits)
	last := store.audits[len(store.audits)-1]
	assert.Equal(t, "save_message", last.ActionType)
	assert.False(t, last.Success)
}

func TestSaveMessageOrphanWhenConversationsDown(t *testing.T) {
	store := newFakeStore()
	store.failConversations = true
	svc := testService(store, nil)

	msg, saved, err := svc.SaveMessage(context.Background(), saveParams("oi"))
	require.NoError(t, err, "conversation failure must not lose the message")
	assert.True(t, saved)
	assert.Nil(t, msg.ConversationID)
}

func TestSaveMessageEmbeddingAppliedAfterInsert(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, &fakeEmbedder{})

	msg, saved, err := svc.SaveMessage(context.Background(), saveParams("oi"))
	require.NoError(t, err)
	require.True(t, saved)

	svc.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotNil(t, store.messages[msg.ID].Embedding)
}

func TestSaveMessageSurvivesEmbedderFailure(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, &fakeEmbedder{fail: true})

	msg, saved, err := svc.SaveMessage(context.Background(), saveParams("oi"))
	require.NoError(t, err)
	assert.True(t, saved, "embedding failure must not fail the save")

	svc.Wait()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Nil(t, store.messages[msg.ID].Embedding)
}

func TestVectorSearchFallsBackToFullText(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil) // no embedder: permanent degraded mode
	ctx := context.Background()

	_, _, err := svc.SaveMessage(ctx, saveParams("adoro pizza de calabresa"))
	require.NoError(t, err)
	_, _, err = svc.SaveMessage(ctx, saveParams("amanhã tem reunião"))
	require.NoError(t, err)

	scored, err := svc.VectorSearch(ctx, "pizza", 10, 0.7, nil)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Contains(t, scored[0].Content, "pizza")
	assert.Zero(t, scored[0].Similarity, "fallback results carry similarity 0")
}

func TestVectorSearchThreshold(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"query": {1, 0, 0},
	}}
	svc := testService(store, emb)
	ctx := context.Background()

	msgA, _, err := svc.SaveMessage(ctx, saveParams("sobre pizza"))
	require.NoError(t, err)
	msgB, _, err := svc.SaveMessage(ctx, saveParams("sobre futebol"))
	require.NoError(t, err)
	svc.Wait()

	// Hand-set the stored vectors: one aligned with the query, one orthogonal.
	require.NoError(t, store.SetEmbedding(ctx, "messages", msgA.ID, []float32{1, 0, 0}))
	require.NoError(t, store.SetEmbedding(ctx, "messages", msgB.ID, []float32{0, 1, 0}))

	scored, err := svc.VectorSearch(ctx, "query", 10, 0.9, nil)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, msgA.ID, scored[0].ID)
	assert.InDelta(t, 1.0, scored[0].Similarity, 1e-6)

	// The comparison is strict, so nothing clears a threshold of 1.0.
	scored, err = svc.VectorSearch(ctx, "query", 10, 1.0, nil)
	require.NoError(t, err)
	assert.Empty(t, scored)
}

func TestVectorSearchZeroThresholdKeepsWeakMatches(t *testing.T) {
	store := newFakeStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"query": {1, 0, 0},
	}}
	svc := testService(store, emb)
	ctx := context.Background()

	msgA, _, err := svc.SaveMessage(ctx, saveParams("sobre pizza"))
	require.NoError(t, err)
	msgB, _, err := svc.SaveMessage(ctx, saveParams("sobre futebol"))
	require.NoError(t, err)
	msgC, _, err := svc.SaveMessage(ctx, saveParams("sobre lasanha"))
	require.NoError(t, err)
	svc.Wait()

	require.NoError(t, store.SetEmbedding(ctx, "messages", msgA.ID, []float32{1, 0, 0}))
	require.NoError(t, store.SetEmbedding(ctx, "messages", msgB.ID, []float32{0, 1, 0}))
	require.NoError(t, store.SetEmbedding(ctx, "messages", msgC.ID, []float32{0.6, 0.8, 0}))

	// An explicit zero keeps every positive match, including one below the
	// default threshold, but still drops the orthogonal vector.
	scored, err := svc.VectorSearch(ctx, "query", 10, 0, nil)
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, msgA.ID, scored[0].ID)
	assert.Equal(t, msgC.ID, scored[1].ID)

	// A negative threshold selects the 0.7 default instead.
	scored, err = svc.VectorSearch(ctx, "query", 10, -1, nil)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, msgA.ID, scored[0].ID)
}

func TestUpsertEntity(t *testing.T) {
	svc := testService(newFakeStore(), nil)
	ctx := context.Background()

	desc := "empresa de energia"
	entity, created, err := svc.UpsertEntity(ctx, "organization", "Petrobras", &desc)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, entity.Description)

	// Second upsert without a description keeps the old one.
	again, created, err := svc.UpsertEntity(ctx, "organization", "Petrobras", nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, entity.ID, again.ID)
	require.NotNil(t, again.Description)
	assert.Equal(t, desc, *again.Description)
}

func TestCreateRelationship(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	_, _, err := svc.UpsertEntity(ctx, "person", "Maria", nil)
	require.NoError(t, err)
	_, _, err = svc.UpsertEntity(ctx, "organization", "Vale", nil)
	require.NoError(t, err)

	rel, err := svc.CreateRelationship(ctx, "Maria", "Vale", "works_at", 5)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rel.Strength, "strength is clamped to 1")

	rel, err = svc.CreateRelationship(ctx, "Maria", "Vale", "works_at", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rel.Strength, "zero strength falls back to the default")

	store.mu.Lock()
	assert.Len(t, store.rels, 1, "re-asserting the triple must not duplicate the edge")
	store.mu.Unlock()

	_, err = svc.CreateRelationship(ctx, "Maria", "Nubank", "works_at", 0.5)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestAddFactCreatesEntityAndSupersedes(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	fact, err := svc.AddFact(ctx, "IBM", "headquarters", "sede em Armonk", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFactConfidence, fact.Confidence)

	entity, err := svc.FindEntity(ctx, "IBM")
	require.NoError(t, err)
	require.NotNil(t, entity, "missing entity must be auto-created")
	assert.Equal(t, "organization", entity.Type, "all-caps name classifies as organization")

	// A newer fact of the same type closes the previous one.
	_, err = svc.AddFact(ctx, "IBM", "headquarters", "sede em Nova York", 0.8)
	require.NoError(t, err)

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.facts, 2)
	assert.NotNil(t, store.facts[0].ValidTo, "old fact must be closed, not deleted")
	assert.Nil(t, store.facts[1].ValidTo)
}

func TestFindConnectionPath(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	for _, name := range []string{"Maria", "Vale", "Carlos"} {
		_, _, err := svc.UpsertEntity(ctx, "person", name, nil)
		require.NoError(t, err)
	}
	_, err := svc.CreateRelationship(ctx, "Maria", "Vale", "works_at", 0.9)
	require.NoError(t, err)
	_, err = svc.CreateRelationship(ctx, "Carlos", "Vale", "works_at", 0.9)
	require.NoError(t, err)

	// Maria -> Vale <- Carlos is reachable in two undirected hops.
	path, err := svc.FindConnectionPath(ctx, "Maria", "Carlos", 3)
	require.NoError(t, err)
	require.True(t, path.Found)
	assert.Equal(t, []string{"Maria", "Vale", "Carlos"}, path.Path)

	path, err = svc.FindConnectionPath(ctx, "Maria", "Carlos", 1)
	require.NoError(t, err)
	assert.False(t, path.Found, "two hops must not be found at depth 1")

	path, err = svc.FindConnectionPath(ctx, "Maria", "Maria", 3)
	require.NoError(t, err)
	require.True(t, path.Found)
	assert.Equal(t, []string{"Maria"}, path.Path)

	_, err = svc.FindConnectionPath(ctx, "Maria", "Nubank", 3)
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestBackfillEmbeddings(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	// Seed rows without vectors through a degraded service.
	degraded := testService(store, nil)
	_, _, err := degraded.SaveMessage(ctx, saveParams("oi"))
	require.NoError(t, err)
	_, _, err = degraded.SaveMessage(ctx, saveParams("tchau"))
	require.NoError(t, err)
	_, err = degraded.AddFact(ctx, "Maria", "residence", "mora em Lisboa", 0.9)
	require.NoError(t, err)

	_, err = degraded.BackfillEmbeddings(ctx, BackfillOptions{})
	assert.ErrorIs(t, err, embedding.ErrNotConfigured)

	svc := testService(store, &fakeEmbedder{})

	dry, err := svc.BackfillEmbeddings(ctx, BackfillOptions{DryRun: true, Delay: time.Millisecond})
	require.NoError(t, err)
	assert.Zero(t, dry.TotalUpdated())

	report, err := svc.BackfillEmbeddings(ctx, BackfillOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	// 1 entity + 1 fact + 2 messages were missing vectors.
	assert.Equal(t, 4, report.TotalUpdated())
	assert.Zero(t, report.TotalErrors())

	again, err := svc.BackfillEmbeddings(ctx, BackfillOptions{Delay: time.Millisecond})
	require.NoError(t, err)
	assert.Zero(t, again.TotalUpdated(), "a second run finds nothing to do")
}

func TestBackfillRelationships(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	_, err := svc.AddFact(ctx, "Maria", "employment", "Maria trabalha na Vale", 0.9)
	require.NoError(t, err)
	_, err = svc.AddFact(ctx, "Carlos", "mood", "está feliz hoje", 0.9)
	require.NoError(t, err)

	report, err := svc.BackfillRelationships(ctx, BackfillOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Facts)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Skipped, "facts without relation phrases are skipped")

	vale, err := svc.FindEntity(ctx, "Vale")
	require.NoError(t, err)
	require.NotNil(t, vale, "extraction target must be created")

	// Re-running refreshes the same edge instead of duplicating it.
	_, err = svc.BackfillRelationships(ctx, BackfillOptions{})
	require.NoError(t, err)
	store.mu.Lock()
	assert.Len(t, store.rels, 1)
	store.mu.Unlock()
}

func TestSaveIndexEntry(t *testing.T) {
	store := newFakeStore()
	svc := testService(store, nil)
	ctx := context.Background()

	entry, err := svc.SaveIndexEntry(ctx, "preference", "comida", "prefere pizza de calabresa", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Importance, "zero importance takes the default")

	entry, err = svc.SaveIndexEntry(ctx, "preference", "bebida", "só bebe café", 20, []string{"food"})
	require.NoError(t, err)
	assert.Equal(t, 10, entry.Importance, "importance is clamped to the maximum")

	_, err = svc.SaveIndexEntry(ctx, "", "x", "y", 5, nil)
	assert.Error(t, err)

	found, err := svc.SearchIndex(ctx, "pizza", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "comida", found[0].KeyName)
}
