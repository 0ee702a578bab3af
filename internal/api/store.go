package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/dsotools/pkg/dso"
)

type containerRecord struct {
	container *dso.Container
	name      string
	createdAt time.Time
}

// ContainerStore keeps uploaded containers in memory. Every method works on
// copies, so a container handed out by Get never changes underneath the
// caller and a failed patch never leaves a stored container half-written.
type ContainerStore struct {
	mu         sync.Mutex
	containers map[string]*containerRecord
}

func NewContainerStore() *ContainerStore {
	return &ContainerStore{
		containers: make(map[string]*containerRecord),
	}
}

// Create stores c and returns its new id.
func (s *ContainerStore) Create(c *dso.Container, name string, now time.Time) ContainerResponse {
	id := newContainerID()
	rec := &containerRecord{container: c.Clone(), name: name, createdAt: now}

	s.mu.Lock()
	s.containers[id] = rec
	s.mu.Unlock()

	return rec.response(id)
}

// Get returns a copy of the container stored under id.
func (s *ContainerStore) Get(id string) (*dso.Container, ContainerResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.containers[id]
	if !ok {
		return nil, ContainerResponse{}, false
	}
	return rec.container.Clone(), rec.response(id), true
}

// Patch applies patches to the container stored under id. Concurrent
// readers see either the old or the new container.
func (s *ContainerStore) Patch(id string, patches map[int]string) (dso.PatchResult, dso.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.containers[id]
	if !ok {
		return dso.PatchResult{}, dso.Summary{}, ErrNotFound
	}
	next := rec.container.Clone()
	res, err := next.PatchGlobalStrings(patches)
	if err != nil {
		return dso.PatchResult{}, dso.Summary{}, err
	}
	rec.container = next
	return res, next.Summary(), nil
}

func (s *ContainerStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[id]; !ok {
		return false
	}
	delete(s.containers, id)
	return true
}

func (s *ContainerStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.containers)
}

func (r *containerRecord) response(id string) ContainerResponse {
	return ContainerResponse{
		ID:        id,
		Object:    containerObject,
		Name:      r.name,
		CreatedAt: r.createdAt.Unix(),
		Summary:   r.container.Summary(),
	}
}

func newContainerID() string {
	return "dso_" + uuid.NewString()
}
