package store

import (
	"context"
	"sync"

	"enrollment/internal/application/models"
	"enrollment/pkg/platform/sentinel"
)

type memTxKey struct{}

// staged collects writes made inside RunInTx until the callback returns.
type staged struct {
	mu          sync.Mutex
	beneficiary *models.Beneficiary
	documents   []models.DocumentRecord
}

// InMemoryStore keeps applications in process. RunInTx stages writes and
// applies them only when the callback succeeds.
type InMemoryStore struct {
	mu            sync.RWMutex
	txMu          sync.Mutex
	beneficiaries map[string]models.Beneficiary
	byPrimaryID   map[string]string
	documents     map[string]map[string]models.DocumentRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		beneficiaries: make(map[string]models.Beneficiary),
		byPrimaryID:   make(map[string]string),
		documents:     make(map[string]map[string]models.DocumentRecord),
	}
}

func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	st := &staged{}
	if err := fn(context.WithValue(ctx, memTxKey{}, st)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b := st.beneficiary; b != nil {
		if _, dup := s.byPrimaryID[b.PrimaryID]; dup {
			return sentinel.ErrConflict
		}
		s.beneficiaries[b.ApplicationID] = *b
		s.byPrimaryID[b.PrimaryID] = b.ApplicationID
	}
	for _, d := range st.documents {
		s.putDocument(d)
	}
	return nil
}

func (s *InMemoryStore) SaveBeneficiary(ctx context.Context, b *models.Beneficiary) error {
	if st, ok := ctx.Value(memTxKey{}).(*staged); ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		cp := *b
		st.beneficiary = &cp
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byPrimaryID[b.PrimaryID]; dup {
		return sentinel.ErrConflict
	}
	s.beneficiaries[b.ApplicationID] = *b
	s.byPrimaryID[b.PrimaryID] = b.ApplicationID
	return nil
}

func (s *InMemoryStore) SaveDocument(ctx context.Context, d *models.DocumentRecord) error {
	if st, ok := ctx.Value(memTxKey{}).(*staged); ok {
		st.mu.Lock()
		defer st.mu.Unlock()
		st.documents = append(st.documents, *d)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[d.ApplicationID][d.Kind]; exists {
		return sentinel.ErrConflict
	}
	s.putDocument(*d)
	return nil
}

func (s *InMemoryStore) FindByPrimaryID(_ context.Context, primaryID string) (*models.Filing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byPrimaryID[primaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &models.Filing{ApplicationID: id, SessionID: s.beneficiaries[id].SessionID}, nil
}

// Beneficiary returns the stored record for applicationID.
func (s *InMemoryStore) Beneficiary(applicationID string) (models.Beneficiary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.beneficiaries[applicationID]
	return b, ok
}

// Documents returns the stored document rows for applicationID.
func (s *InMemoryStore) Documents(applicationID string) []models.DocumentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DocumentRecord, 0, len(s.documents[applicationID]))
	for _, d := range s.documents[applicationID] {
		out = append(out, d)
	}
	return out
}

func (s *InMemoryStore) putDocument(d models.DocumentRecord) {
	docs, ok := s.documents[d.ApplicationID]
	if !ok {
		docs = make(map[string]models.DocumentRecord)
		s.documents[d.ApplicationID] = docs
	}
	docs[d.Kind] = d
}
