// Package memstore is an in-memory store.Store used by tests. It mirrors the
// gorm implementation's transactional semantics with a single mutex and
// supports injecting a failure into the next mutating call so rollback paths
// can be exercised.
package memstore

import (
	"context"
	"sync"
	"time"

	"techink/internal/models"
	"techink/internal/store"
	"techink/internal/utils"
)

type relKey struct {
	UserID uint
	PostID uint
}

type Store struct {
	mu sync.Mutex

	nextID uint
	users  map[uint]*models.User
	posts  map[uint]*models.Post
	likes  map[relKey]*models.Like
	votes  map[relKey]*models.VoteRecord
	logs   []models.PointLog

	failErr error
	failIn  int
}

func New() *Store {
	return &Store{
		users: make(map[uint]*models.User),
		posts: make(map[uint]*models.Post),
		likes: make(map[relKey]*models.Like),
		votes: make(map[relKey]*models.VoteRecord),
	}
}

// FailNext makes the next mutating call return err instead of applying.
func (s *Store) FailNext(err error) {
	s.FailNth(1, err)
}

// FailNth makes the n-th mutating call from now return err. Lets tests fail
// a follow-up write (like the point accrual behind a like) while the primary
// write lands.
func (s *Store) FailNth(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
	s.failIn = n
}

func (s *Store) takeFailure() error {
	if s.failErr == nil {
		return nil
	}
	s.failIn--
	if s.failIn > 0 {
		return nil
	}
	err := s.failErr
	s.failErr = nil
	return err
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

// SeedUser inserts a user directly, bypassing handle allocation.
func (s *Store) SeedUser(user *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == 0 {
		user.ID = s.id()
	}
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return user
}

// SeedPost inserts a post (and its poll options' IDs) directly.
func (s *Store) SeedPost(post *models.Post) *models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if post.ID == 0 {
		post.ID = s.id()
	}
	if post.Pid == "" {
		post.Pid = utils.NewPid()
	}
	if post.Partition == "" {
		post.Partition = models.PartitionFeed
	}
	if post.SourceType == "" {
		post.SourceType = models.SourceUser
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.Poll != nil {
		post.Poll.ID = s.id()
		post.Poll.PostID = post.ID
		for i := range post.Poll.Options {
			post.Poll.Options[i].ID = s.id()
			post.Poll.Options[i].PollID = post.Poll.ID
		}
	}
	s.posts[post.ID] = post
	return post
}

// LikeCount returns the number of like relations for a post.
func (s *Store) LikeCount(postID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.likes {
		if k.PostID == postID {
			n++
		}
	}
	return n
}

// OptionVotes returns the counter of one poll option.
func (s *Store) OptionVotes(postID uint, label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok || post.Poll == nil {
		return 0
	}
	for _, o := range post.Poll.Options {
		if o.Label == label {
			return o.Votes
		}
	}
	return 0
}

// VoteRecords returns the number of vote records for a post.
func (s *Store) VoteRecords(postID uint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.votes {
		if k.PostID == postID {
			n++
		}
	}
	return n
}

// Logs returns the point ledger rows for a user.
func (s *Store) Logs(userID uint) []models.PointLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PointLog
	for _, l := range s.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	for _, u := range s.users {
		if u.Handle == user.Handle || u.Email == user.Email {
			return store.ErrAlreadyExists
		}
	}
	user.ID = s.id()
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetPost(ctx context.Context, postID uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return post, nil
}

func (s *Store) GetPostByPid(ctx context.Context, pid string) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.Pid == pid {
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) LikesOf(ctx context.Context, userID uint) ([]models.Like, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Like
	for k, l := range s.likes {
		if k.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *Store) VotesOf(ctx context.Context, userID uint) ([]models.VoteRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.VoteRecord
	for k, v := range s.votes {
		if k.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (s *Store) CreateLike(ctx context.Context, userID, postID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	key := relKey{UserID: userID, PostID: postID}
	if _, ok := s.likes[key]; ok {
		return store.ErrAlreadyExists
	}
	post, ok := s.posts[postID]
	if !ok {
		return store.ErrNotFound
	}
	s.likes[key] = &models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now()}
	post.Likes++
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, userID, postID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	key := relKey{UserID: userID, PostID: postID}
	if _, ok := s.likes[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.likes, key)
	if post, ok := s.posts[postID]; ok && post.Likes > 0 {
		post.Likes--
	}
	return nil
}

func (s *Store) CreateVote(ctx context.Context, userID, postID uint, options []string) error {
	options = models.UniqueOptions(options)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	key := relKey{UserID: userID, PostID: postID}
	if _, ok := s.votes[key]; ok {
		return store.ErrAlreadyExists
	}
	post, ok := s.posts[postID]
	if !ok || post.Poll == nil {
		return store.ErrNotFound
	}
	for _, label := range options {
		if !post.Poll.HasOption(label) {
			return store.ErrNotFound
		}
	}
	for _, label := range options {
		for i := range post.Poll.Options {
			if post.Poll.Options[i].Label == label {
				post.Poll.Options[i].Votes++
			}
		}
	}
	s.votes[key] = &models.VoteRecord{
		UserID:    userID,
		PostID:    postID,
		Options:   models.JoinOptions(options),
		CreatedAt: time.Now(),
	}
	return nil
}

func (s *Store) AddPoints(ctx context.Context, userID uint, amount int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	user, ok := s.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	s.logs = append(s.logs, models.PointLog{
		UserID:    userID,
		Amount:    amount,
		Action:    action,
		CreatedAt: time.Now(),
	})
	user.Points += amount
	return nil
}

func (s *Store) PointBalance(ctx context.Context, userID uint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return user.Points, nil
}

func (s *Store) PinPost(ctx context.Context, postID uint) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	source, ok := s.posts[postID]
	if !ok {
		return nil, store.ErrNotFound
	}
	pinned := &models.Post{
		ID:         s.id(),
		Pid:        utils.NewPid(),
		UserID:     source.UserID,
		Partition:  models.PartitionPinned,
		Headline:   source.Headline,
		Content:    source.Content,
		ImageURL:   source.ImageURL,
		Likes:      source.Likes,
		SourceType: source.SourceType,
		CreatedAt:  time.Now(),
	}
	if source.Poll != nil {
		poll := &models.Poll{
			ID:            s.id(),
			PostID:        pinned.ID,
			AllowMultiple: source.Poll.AllowMultiple,
		}
		for _, o := range source.Poll.Options {
			poll.Options = append(poll.Options, models.PollOption{
				ID:       s.id(),
				PollID:   poll.ID,
				Position: o.Position,
				Label:    o.Label,
				Votes:    o.Votes,
			})
		}
		pinned.Poll = poll
	}
	s.posts[pinned.ID] = pinned
	if source.SourceType == models.SourceUser {
		delete(s.posts, source.ID)
	}
	return pinned, nil
}
