package devserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errNotFound     = errors.New("not found")
	errEmailTaken   = errors.New("email already registered")
	errInvalidLogin = errors.New("invalid email or password")
)

type post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"titulo"`
	Body      string    `json:"conteudo"`
	Author    string    `json:"autor"`
	Likes     int       `json:"curtidas"`
	Comments  []comment `json:"comentarios"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type comment struct {
	Body string `json:"conteudo"`
}

type account struct {
	ID    string `json:"_id"`
	Name  string `json:"nome"`
	Email string `json:"email"`
	hash  []byte
}

// memoryStore keeps the development backend state.
type memoryStore struct {
	mu       sync.RWMutex
	posts    map[string]*post
	accounts map[string]*account
	now      func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		posts:    make(map[string]*post),
		accounts: make(map[string]*account),
		now:      time.Now,
	}
}

// listPosts returns every post, newest first.
func (s *memoryStore) listPosts() []post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	posts := make([]post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, clonePost(p))
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID < posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (s *memoryStore) getPost(id string) (post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return post{}, errNotFound
	}
	return clonePost(p), nil
}

func (s *memoryStore) createPost(title, body, author string) post {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	p := &post{
		ID:        uuid.NewString(),
		Title:     title,
		Body:      body,
		Author:    author,
		Comments:  []comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts[p.ID] = p
	return clonePost(p)
}

func (s *memoryStore) updatePost(id, title, body string) (post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return post{}, errNotFound
	}
	p.Title = title
	p.Body = body
	p.UpdatedAt = s.now().UTC()
	return clonePost(p), nil
}

func (s *memoryStore) deletePost(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[id]; !ok {
		return errNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *memoryStore) likePost(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return 0, errNotFound
	}
	p.Likes++
	return p.Likes, nil
}

func (s *memoryStore) addComment(id, body string) (comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return comment{}, errNotFound
	}
	c := comment{Body: body}
	p.Comments = append(p.Comments, c)
	return c, nil
}

func (s *memoryStore) createAccount(name, email, secret string) (account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	if err != nil {
		return account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmail(email) != nil {
		return account{}, errEmailTaken
	}

	a := &account{
		ID:    uuid.NewString(),
		Name:  name,
		Email: strings.ToLower(email),
		hash:  hash,
	}
	s.accounts[a.ID] = a
	return *a, nil
}

func (s *memoryStore) authenticate(email, secret string) (account, error) {
	s.mu.RLock()
	a := s.findByEmail(email)
	s.mu.RUnlock()

	if a == nil {
		return account{}, errInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(secret)); err != nil {
		return account{}, errInvalidLogin
	}
	return *a, nil
}

func (s *memoryStore) listAccounts() []account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, *a)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Email < accounts[j].Email
	})
	return accounts
}

func (s *memoryStore) getAccount(id string) (account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return account{}, errNotFound
	}
	return *a, nil
}

func (s *memoryStore) updateAccount(id, name, email string, secret *string) (account, error) {
	var hash []byte
	if secret != nil {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(*secret), bcrypt.MinCost)
		if err != nil {
			return account{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return account{}, errNotFound
	}
	if email != "" {
		if other := s.findByEmail(email); other != nil && other.ID != id {
			return account{}, errEmailTaken
		}
		a.Email = strings.ToLower(email)
	}
	if name != "" {
		a.Name = name
	}
	if hash != nil {
		a.hash = hash
	}
	return *a, nil
}

func (s *memoryStore) deleteAccount(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return errNotFound
	}
	delete(s.accounts, id)
	return nil
}

// findByEmail must be called with s.mu held.
func (s *memoryStore) findByEmail(email string) *account {
	email = strings.ToLower(email)
	for _, a := range s.accounts {
		if a.Email == email {
			return a
		}
	}
	return nil
}

func clonePost(p *post) post {
	out := *p
	out.Comments = append([]comment{}, p.Comments...)
	return out
}
