package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for local development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]*User
	contacts map[string]*Contact
	projects map[string]*Project
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*User),
		contacts: make(map[string]*Contact),
		projects: make(map[string]*Project),
	}
}

// CreateUser stores a new user. Emails are unique, case-insensitively.
func (s *MemoryStore) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == email {
			return ErrDuplicateEmail
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// GetUserByID returns a user or ErrNotFound.
func (s *MemoryStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// GetUserByEmail returns a user by email (case-insensitive) or ErrNotFound.
func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range s.users {
		if strings.ToLower(user.Email) == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// ListUsers returns all users ordered by creation time.
func (s *MemoryStore) ListUsers(ctx context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*User, 0, len(s.users))
	for _, user := range s.users {
		copied := *user
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// UpdateUser replaces a user's mutable fields.
func (s *MemoryStore) UpdateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}

	email := strings.ToLower(user.Email)
	for id, other := range s.users {
		if id != user.ID && strings.ToLower(other.Email) == email {
			return ErrDuplicateEmail
		}
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// DeleteUser removes a user.
func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// CreateContact stores a contact submission.
func (s *MemoryStore) CreateContact(ctx context.Context, contact *Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = time.Now()
	}
	stored := *contact
	s.contacts[contact.ID] = &stored
	return nil
}

// GetContact returns a contact or ErrNotFound.
func (s *MemoryStore) GetContact(ctx context.Context, id string) (*Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contact, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *contact
	return &copied, nil
}

// ListContacts returns all contact submissions, newest first.
func (s *MemoryStore) ListContacts(ctx context.Context) ([]*Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contacts := make([]*Contact, 0, len(s.contacts))
	for _, contact := range s.contacts {
		copied := *contact
		contacts = append(contacts, &copied)
	}
	sort.Slice(contacts, func(i, j int) bool {
		return contacts[i].CreatedAt.After(contacts[j].CreatedAt)
	})
	return contacts, nil
}

// DeleteContact removes a contact submission.
func (s *MemoryStore) DeleteContact(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(s.contacts, id)
	return nil
}

// CreateProject stores a project.
func (s *MemoryStore) CreateProject(ctx context.Context, project *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = ProjectStatusPlanned
	}
	stored := *project
	s.projects[project.ID] = &stored
	return nil
}

// GetProject returns a project or ErrNotFound.
func (s *MemoryStore) GetProject(ctx context.Context, id string) (*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *project
	return &copied, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *MemoryStore) ListProjects(ctx context.Context) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]*Project, 0, len(s.projects))
	for _, project := range s.projects {
		copied := *project
		projects = append(projects, &copied)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.Before(projects[j].CreatedAt)
	})
	return projects, nil
}

// UpdateProject replaces a project's mutable fields.
func (s *MemoryStore) UpdateProject(ctx context.Context, project *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.projects[project.ID]
	if !ok {
		return ErrNotFound
	}
	project.CreatedAt = existing.CreatedAt
	project.UpdatedAt = time.Now()
	stored := *project
	s.projects[project.ID] = &stored
	return nil
}

// DeleteProject removes a project.
func (s *MemoryStore) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	return nil
}

// HealthCheck always succeeds for the in-memory store.
func (s *MemoryStore) HealthCheck(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
