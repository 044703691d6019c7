package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moltbot/moltmem/internal/db"
	"github.com/moltbot/moltmem/internal/models"
)

// fakeStore is an in-memory Store with the same windowing, upsert and
// search semantics the pg queries implement.
type fakeStore struct {
	mu sync.Mutex

	conversations map[string]*models.Conversation // keyed by user|channel|agent
	messages      map[string]*models.Message
	audits        []models.AuditLogEntry
	entities      map[string]*models.Entity // keyed by name
	rels          map[string]*models.Relationship
	facts         []*models.Fact
	entries       []models.MemoryIndexEntry

	failInsertMessage bool
	failConversations bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[string]*models.Conversation{},
		messages:      map[string]*models.Message{},
		entities:      map[string]*models.Entity{},
		rels:          map[string]*models.Relationship{},
	}
}

func (f *fakeStore) GetOrCreateConversation(ctx context.Context, userID, channel, agentID string, userName *string) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConversations {
		return nil, fmt.Errorf("conversations unavailable")
	}
	key := userID + "|" + channel + "|" + agentID
	now := time.Now().UTC()
	if conv, ok := f.conversations[key]; ok && now.Sub(conv.LastMessageAt) < 24*time.Hour {
		conv.LastMessageAt = now
		conv.MessageCount++
		c := *conv
		return &c, nil
	}
	conv := &models.Conversation{
		ID:            uuid.NewString(),
		UserID:        userID,
		UserName:      userName,
		Channel:       channel,
		AgentID:       agentID,
		StartedAt:     now,
		LastMessageAt: now,
		MessageCount:  1,
	}
	f.conversations[key] = conv
	c := *conv
	return &c, nil
}

func (f *fakeStore) InsertMessage(ctx context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertMessage {
		return fmt.Errorf("insert failed")
	}
	cp := *m
	f.messages[m.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateMessageEmbedding(ctx context.Context, id string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return db.ErrNotFound
	}
	m.Embedding = embedding
	return nil
}

func (f *fakeStore) AppendAudit(ctx context.Context, e *models.AuditLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = append(f.audits, *e)
	return nil
}

func (f *fakeStore) messageUser(m *models.Message) string {
	if m.ConversationID == nil {
		return ""
	}
	for _, conv := range f.conversations {
		if conv.ID == *m.ConversationID {
			return conv.UserID
		}
	}
	return ""
}

func (f *fakeStore) SearchMessages(ctx context.Context, query string, limit int, userID *string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for _, m := range f.messages {
		if !strings.Contains(strings.ToLower(m.Content), strings.ToLower(query)) {
			continue
		}
		if userID != nil && f.messageUser(m) != *userID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func (f *fakeStore) VectorSearchMessages(ctx context.Context, embedding []float32, limit int, threshold float64, userID *string) ([]models.ScoredMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ScoredMessage
	for _, m := range f.messages {
		if m.Embedding == nil {
			continue
		}
		if userID != nil && f.messageUser(m) != *userID {
			continue
		}
		sim := cosine(embedding, m.Embedding)
		if sim <= threshold {
			continue
		}
		out = append(out, models.ScoredMessage{Message: *m, Similarity: sim})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) FindEntityByName(ctx context.Context, name string) (*models.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entities[name]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeStore) entityByID(id string) *models.Entity {
	for _, e := range f.entities {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeStore) UpsertEntity(ctx context.Context, entityType, name string, description *string, embedding []float32) (*models.Entity, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	if e, ok := f.entities[name]; ok {
		e.Type = entityType
		if description != nil {
			e.Description = description
		}
		if embedding != nil {
			e.Embedding = embedding
		}
		e.UpdatedAt = now
		cp := *e
		return &cp, false, nil
	}
	e := &models.Entity{
		ID:          uuid.NewString(),
		Type:        entityType,
		Name:        name,
		Description: description,
		Embedding:   embedding,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.entities[name] = e
	cp := *e
	return &cp, true, nil
}

func (f *fakeStore) UpsertRelationship(ctx context.Context, fromID, toID, relType string, strength float64) (*models.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fromID + "|" + toID + "|" + relType
	if r, ok := f.rels[key]; ok {
		r.Strength = strength
		cp := *r
		return &cp, nil
	}
	r := &models.Relationship{
		ID:         uuid.NewString(),
		FromEntity: fromID,
		ToEntity:   toID,
		Type:       relType,
		Strength:   strength,
		CreatedAt:  time.Now().UTC(),
	}
	f.rels[key] = r
	cp := *r
	return &cp, nil
}

func (f *fakeStore) EntityRelationships(ctx context.Context, entityID string) ([]models.Relationship, []models.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var outgoing, incoming []models.Relationship
	for _, r := range f.rels {
		if r.FromEntity == entityID {
			outgoing = append(outgoing, *r)
		}
		if r.ToEntity == entityID {
			incoming = append(incoming, *r)
		}
	}
	return outgoing, incoming, nil
}

func (f *fakeStore) NeighborEdges(ctx context.Context, entityID string) ([]models.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Relationship
	for _, r := range f.rels {
		if r.FromEntity == entityID || r.ToEntity == entityID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) EntityNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, id := range ids {
		if e := f.entityByID(id); e != nil {
			out[id] = e.Name
		}
	}
	return out, nil
}

func (f *fakeStore) CloseOpenFacts(ctx context.Context, entityID, factType string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, fact := range f.facts {
		if fact.EntityID == entityID && fact.Type == factType && fact.ValidTo == nil {
			t := at
			fact.ValidTo = &t
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) InsertFact(ctx context.Context, fact *models.Fact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *fact
	f.facts = append(f.facts, &cp)
	return nil
}

func (f *fakeStore) OpenFactsWithEntity(ctx context.Context, limit int) ([]models.FactWithEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.FactWithEntity
	for _, fact := range f.facts {
		if fact.ValidTo != nil {
			continue
		}
		name := ""
		if e := f.entityByID(fact.EntityID); e != nil {
			name = e.Name
		}
		out = append(out, models.FactWithEntity{Fact: *fact, EntityName: name})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) InsertIndexEntry(ctx context.Context, e *models.MemoryIndexEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeStore) SearchIndexEntries(ctx context.Context, query string, limit int) ([]models.MemoryIndexEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.MemoryIndexEntry
	for _, e := range f.entries {
		if strings.Contains(strings.ToLower(e.Summary), strings.ToLower(query)) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) CountEmbeddings(ctx context.Context, class models.EmbedClass) (db.EmbeddingCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var counts db.EmbeddingCounts
	switch class {
	case models.EmbedClassEntities:
		for _, e := range f.entities {
			counts.Total++
			if e.Embedding == nil {
				counts.Missing++
			}
		}
	case models.EmbedClassFacts:
		for _, fact := range f.facts {
			counts.Total++
			if fact.Embedding == nil {
				counts.Missing++
			}
		}
	case models.EmbedClassMessages:
		for _, m := range f.messages {
			counts.Total++
			if m.Embedding == nil {
				counts.Missing++
			}
		}
	default:
		return counts, fmt.Errorf("unknown embed class %q", class)
	}
	return counts, nil
}

func (f *fakeStore) MissingEmbeddingRows(ctx context.Context, class models.EmbedClass, limit int) ([]models.EmbedCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EmbedCandidate
	add := func(id, content string) {
		if limit <= 0 || len(out) < limit {
			out = append(out, models.EmbedCandidate{ID: id, Content: content})
		}
	}
	switch class {
	case models.EmbedClassEntities:
		for _, e := range f.entities {
			if e.Embedding == nil {
				content := e.Name
				if e.Description != nil {
					content += ": " + *e.Description
				}
				add(e.ID, content)
			}
		}
	case models.EmbedClassFacts:
		for _, fact := range f.facts {
			if fact.Embedding == nil {
				add(fact.ID, fact.Content)
			}
		}
	case models.EmbedClassMessages:
		for _, m := range f.messages {
			if m.Embedding == nil {
				add(m.ID, m.Content)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) SetEmbedding(ctx context.Context, class models.EmbedClass, id string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch class {
	case models.EmbedClassEntities:
		if e := f.entityByID(id); e != nil {
			e.Embedding = embedding
			return nil
		}
	case models.EmbedClassFacts:
		for _, fact := range f.facts {
			if fact.ID == id {
				fact.Embedding = embedding
				return nil
			}
		}
	case models.EmbedClassMessages:
		if m, ok := f.messages[id]; ok {
			m.Embedding = embedding
			return nil
		}
	}
	return db.ErrNotFound
}

// fakeEmbedder returns canned vectors. Unknown texts get a unit vector so
// every embed succeeds unless fail is set.
type fakeEmbedder struct {
	fail    bool
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.fail {
		return nil, fmt.Errorf("provider down")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeEmbedder) Model() string  { return "fake" }
func (f *fakeEmbedder) Dimension() int { return 3 }

var _ Store = (*fakeStore)(nil)
