package repositories

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"tandem-server/models"
)

// InMemoryAccountStore keeps accounts in a map. It backs tests and
// STORE_DRIVER=memory.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{accounts: make(map[string]models.Account)}
}

func (s *InMemoryAccountStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return &DuplicateKeyError{Field: UniqueEmail}
		}
	}
	if _, exists := s.accounts[account.ID]; exists {
		return &DuplicateKeyError{Field: "_id"}
	}
	now := time.Now().UTC()
	account.CreatedAt, account.UpdatedAt = now, now
	s.accounts[account.ID] = *account
	return nil
}

func (s *InMemoryAccountStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, exists := s.accounts[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *InMemoryAccountStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryAccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[id]; !exists {
		return ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

type InMemoryMemberStore struct {
	mu      sync.RWMutex
	members map[string]models.Member
}

func NewInMemoryMemberStore() *InMemoryMemberStore {
	return &InMemoryMemberStore{members: make(map[string]models.Member)}
}

func (s *InMemoryMemberStore) Create(_ context.Context, member *models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.AccountID == member.AccountID {
			return &DuplicateKeyError{Field: UniqueAccountID}
		}
	}
	now := time.Now().UTC()
	member.CreatedAt, member.UpdatedAt = now, now
	s.members[member.ID] = cloneMember(*member)
	return nil
}

func (s *InMemoryMemberStore) FindByID(_ context.Context, id string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, exists := s.members[id]
	if !exists {
		return nil, ErrNotFound
	}
	m = cloneMember(m)
	return &m, nil
}

func (s *InMemoryMemberStore) FindByAccount(_ context.Context, accountID string) (*models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.members {
		if m.AccountID == accountID {
			m = cloneMember(m)
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryMemberStore) List(_ context.Context, filter MemberFilter) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	out := []models.Member{}
	for _, m := range s.members {
		if filter.ExcludeAccountID != "" && m.AccountID == filter.ExcludeAccountID {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(m.Name), query) &&
			!strings.Contains(strings.ToLower(m.Description), query) {
			continue
		}
		out = append(out, cloneMember(m))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *InMemoryMemberStore) SetStatus(_ context.Context, accountID string, status models.PresenceStatus) (*models.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.members {
		if m.AccountID == accountID {
			m.Status = status
			m.UpdatedAt = time.Now().UTC()
			s.members[id] = m
			m = cloneMember(m)
			return &m, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryMemberStore) ResetStatus(_ context.Context, status models.PresenceStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, m := range s.members {
		if m.Status != status {
			m.Status = status
			s.members[id] = m
			n++
		}
	}
	return n, nil
}

// InMemoryProfileStore serialises every write behind one mutex, which gives
// AddRelation and RemoveRelation the same atomicity as a single Mongo update.
type InMemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]*models.Profile // keyed by account id
}

func NewInMemoryProfileStore() *InMemoryProfileStore {
	return &InMemoryProfileStore{profiles: make(map[string]*models.Profile)}
}

func (s *InMemoryProfileStore) Create(_ context.Context, profile *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[profile.AccountID]; exists {
		return &DuplicateKeyError{Field: UniqueAccountID}
	}
	if s.tandemIDTaken(profile.TandemID, profile.AccountID) {
		return &DuplicateKeyError{Field: UniqueTandemID}
	}
	now := time.Now().UTC()
	profile.CreatedAt, profile.UpdatedAt = now, now
	s.profiles[profile.AccountID] = cloneProfile(profile)
	return nil
}

func (s *InMemoryProfileStore) FindByAccount(_ context.Context, accountID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.profiles[accountID]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneProfile(p), nil
}

func (s *InMemoryProfileStore) UpdateFields(_ context.Context, profile *models.Profile, fields []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.profiles[profile.AccountID]
	if !exists {
		return ErrNotFound
	}
	if slices.Contains(fields, UniqueTandemID) && s.tandemIDTaken(profile.TandemID, profile.AccountID) {
		return &DuplicateKeyError{Field: UniqueTandemID}
	}
	next := cloneProfile(current)
	if err := copySettings(next, cloneProfile(profile), fields); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	s.profiles[profile.AccountID] = next
	*profile = *cloneProfile(next)
	return nil
}

func (s *InMemoryProfileStore) Delete(_ context.Context, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[accountID]; !exists {
		return ErrNotFound
	}
	delete(s.profiles, accountID)
	return nil
}

func (s *InMemoryProfileStore) AddRelation(_ context.Context, accountID string, field models.RelationField, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.profiles[accountID]
	if !exists {
		return false, ErrNotFound
	}
	set := p.Relation(field)
	if slices.Contains(set, targetID) {
		return false, nil
	}
	p.SetRelation(field, append(set, targetID))
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *InMemoryProfileStore) RemoveRelation(_ context.Context, accountID string, field models.RelationField, targetID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.profiles[accountID]
	if !exists {
		return false, ErrNotFound
	}
	set := p.Relation(field)
	if !slices.Contains(set, targetID) {
		return false, nil
	}
	p.SetRelation(field, slices.DeleteFunc(slices.Clone(set), func(id string) bool { return id == targetID }))
	p.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *InMemoryProfileStore) RemoveFromAll(_ context.Context, field models.RelationField, targetID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.profiles {
		set := p.Relation(field)
		if slices.Contains(set, targetID) {
			p.SetRelation(field, slices.DeleteFunc(slices.Clone(set), func(id string) bool { return id == targetID }))
			n++
		}
	}
	return n, nil
}

func (s *InMemoryProfileStore) FollowersOf(_ context.Context, accountID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := []string{}
	for owner, p := range s.profiles {
		if slices.Contains(p.Following, accountID) {
			ids = append(ids, owner)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *InMemoryProfileStore) SetNotifications(_ context.Context, accountID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.profiles[accountID]
	if !exists {
		return ErrNotFound
	}
	p.NotificationsEnabled = enabled
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryProfileStore) SetPicture(_ context.Context, accountID, ref string) (*models.Profile, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, exists := s.profiles[accountID]
	if !exists {
		return nil, "", ErrNotFound
	}
	previous := p.ProfilePicture
	p.ProfilePicture = ref
	p.UpdatedAt = time.Now().UTC()
	return cloneProfile(p), previous, nil
}

func (s *InMemoryProfileStore) tandemIDTaken(tandemID, ownerAccountID string) bool {
	for accountID, p := range s.profiles {
		if accountID != ownerAccountID && p.TandemID == tandemID {
			return true
		}
	}
	return false
}

func cloneProfile(p *models.Profile) *models.Profile {
	c := *p
	c.Following = slices.Clone(p.Following)
	c.Followers = slices.Clone(p.Followers)
	c.Blocked = slices.Clone(p.Blocked)
	c.Topics = slices.Clone(p.Topics)
	return &c
}

func cloneMember(m models.Member) models.Member {
	m.Speaks = slices.Clone(m.Speaks)
	m.Learns = slices.Clone(m.Learns)
	return m
}
