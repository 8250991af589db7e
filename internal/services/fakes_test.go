package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/models"
)

// In-memory store fakes so the state machines can be tested without a
// database.

type fakeUserStore struct {
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*models.User{}}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) (int64, error) {
	for _, u := range s.users {
		if u.Username == user.Username {
			return 0, fmt.Errorf("username taken: %w", apperr.ErrConflict)
		}
	}
	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = time.Now()
	cp := *user
	s.users[user.ID] = &cp
	return user.ID, nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", apperr.ErrNotFound)
}

func (s *fakeUserStore) Update(_ context.Context, id int64, username, email, passwordHash *string) error {
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	if username != nil {
		u.Username = *username
	}
	if email != nil {
		u.Email = email
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id int64) error {
	u, ok := s.users[id]
	if !ok || u.Role == models.RoleAdmin {
		return fmt.Errorf("user: %w", apperr.ErrNotFound)
	}
	delete(s.users, id)
	return nil
}

func (s *fakeUserStore) ListAdmin(_ context.Context) ([]models.AdminUser, error) {
	var out []models.AdminUser
	for _, u := range s.users {
		out = append(out, models.AdminUser{User: *u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeProfileStore struct {
	profiles map[int64]*models.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: map[int64]*models.Profile{}}
}

func (s *fakeProfileStore) Ensure(_ context.Context, userID int64) error {
	if _, ok := s.profiles[userID]; !ok {
		s.profiles[userID] = &models.Profile{UserID: userID}
	}
	return nil
}

func (s *fakeProfileStore) Get(_ context.Context, userID int64) (*models.Profile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile: %w", apperr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProfileStore) UpdateFlags(_ context.Context, p *models.Profile) error {
	cur, ok := s.profiles[p.UserID]
	if !ok {
		return fmt.Errorf("profile: %w", apperr.ErrNotFound)
	}
	cur.IsPrivate = p.IsPrivate
	cur.HidePosts = p.HidePosts
	cur.HideFollowing = p.HideFollowing
	cur.HideFollowers = p.HideFollowers
	return nil
}

func (s *fakeProfileStore) UpdateAvatar(_ context.Context, userID int64, avatarURL string) error {
	if _, ok := s.profiles[userID]; !ok {
		s.profiles[userID] = &models.Profile{UserID: userID}
	}
	s.profiles[userID].AvatarURL = &avatarURL
	return nil
}

type edgeKey struct {
	follower int64
	followee int64
}

type fakeFollowStore struct {
	edges map[edgeKey]string
}

func newFakeFollowStore() *fakeFollowStore {
	return &fakeFollowStore{edges: map[edgeKey]string{}}
}

func (s *fakeFollowStore) Upsert(_ context.Context, followerID, followeeID int64, status string) error {
	s.edges[edgeKey{followerID, followeeID}] = status
	return nil
}

func (s *fakeFollowStore) Delete(_ context.Context, followerID, followeeID int64) error {
	delete(s.edges, edgeKey{followerID, followeeID})
	return nil
}

func (s *fakeFollowStore) Status(_ context.Context, followerID, followeeID int64) (string, error) {
	return s.edges[edgeKey{followerID, followeeID}], nil
}

func (s *fakeFollowStore) Followers(_ context.Context, userID int64) ([]models.UserSummary, error) {
	var out []models.UserSummary
	for k, status := range s.edges {
		if k.followee == userID && status == models.FollowAccepted {
			out = append(out, models.UserSummary{ID: k.follower})
		}
	}
	return out, nil
}

func (s *fakeFollowStore) Following(_ context.Context, userID int64) ([]models.UserSummary, error) {
	var out []models.UserSummary
	for k, status := range s.edges {
		if k.follower == userID && status == models.FollowAccepted {
			out = append(out, models.UserSummary{ID: k.followee})
		}
	}
	return out, nil
}

// fakeMarkerStore implements both MarkerStore and HistoryStore so the
// status-plus-history invariant can be asserted in one place.
type fakeMarkerStore struct {
	nextID  int64
	markers map[int64]*models.Marker
	history []models.StatusChange
}

func newFakeMarkerStore() *fakeMarkerStore {
	return &fakeMarkerStore{markers: map[int64]*models.Marker{}}
}

func (s *fakeMarkerStore) Create(_ context.Context, m *models.Marker) error {
	s.nextID++
	m.ID = s.nextID
	m.CreatedAt = time.Now()
	cp := *m
	s.markers[m.ID] = &cp
	return nil
}

func (s *fakeMarkerStore) GetByID(_ context.Context, id int64) (*models.Marker, error) {
	m, ok := s.markers[id]
	if !ok {
		return nil, fmt.Errorf("marker: %w", apperr.ErrNotFound)
	}
	cp := *m
	return &cp, nil
}

func (s *fakeMarkerStore) List(_ context.Context, _ models.MarkerFilters) ([]models.Marker, error) {
	var out []models.Marker
	for _, m := range s.markers {
		out = append(out, *m)
	}
	return out, nil
}

func (s *fakeMarkerStore) ListByReporter(_ context.Context, reporterID int64) ([]models.Marker, error) {
	var out []models.Marker
	for _, m := range s.markers {
		if m.ReporterID != nil && *m.ReporterID == reporterID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *fakeMarkerStore) ListLikedBy(_ context.Context, _ int64) ([]models.Marker, error) {
	return nil, nil
}

func (s *fakeMarkerStore) ListWithLikes(_ context.Context, _ int64, _ models.MarkerFilters) ([]models.MarkerWithLikes, error) {
	return nil, nil
}

func (s *fakeMarkerStore) SetStatus(_ context.Context, markerID int64, newStatus string, actorID int64) (string, error) {
	m, ok := s.markers[markerID]
	if !ok {
		return "", fmt.Errorf("marker: %w", apperr.ErrNotFound)
	}
	prev := m.Status
	m.Status = newStatus
	s.history = append(s.history, models.StatusChange{
		ID:         int64(len(s.history) + 1),
		MarkerID:   markerID,
		PrevStatus: prev,
		NewStatus:  newStatus,
		ActorID:    actorID,
		CreatedAt:  time.Now(),
	})
	return prev, nil
}

func (s *fakeMarkerStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.markers[id]; !ok {
		return fmt.Errorf("marker: %w", apperr.ErrNotFound)
	}
	delete(s.markers, id)
	return nil
}

func (s *fakeMarkerStore) Metrics(_ context.Context) (int64, map[string]int64, error) {
	byStatus := map[string]int64{}
	for _, m := range s.markers {
		byStatus[m.Status]++
	}
	return int64(len(s.markers)), byStatus, nil
}

func (s *fakeMarkerStore) ListAll(_ context.Context) ([]models.Marker, error) {
	return s.List(context.Background(), models.MarkerFilters{})
}

func (s *fakeMarkerStore) ListByMarker(_ context.Context, markerID int64) ([]models.StatusChange, error) {
	var out []models.StatusChange
	for _, c := range s.history {
		if c.MarkerID == markerID {
			out = append(out, c)
		}
	}
	return out, nil
}

type likeKey struct {
	marker int64
	user   int64
}

type fakeLikeStore struct {
	likes map[likeKey]bool
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: map[likeKey]bool{}}
}

func (s *fakeLikeStore) Toggle(_ context.Context, markerID, userID int64) (bool, error) {
	k := likeKey{markerID, userID}
	if s.likes[k] {
		delete(s.likes, k)
		return false, nil
	}
	s.likes[k] = true
	return true, nil
}

func (s *fakeLikeStore) Exists(_ context.Context, markerID, userID int64) (bool, error) {
	return s.likes[likeKey{markerID, userID}], nil
}

func (s *fakeLikeStore) Count(_ context.Context, markerID int64) (int64, error) {
	var n int64
	for k := range s.likes {
		if k.marker == markerID {
			n++
		}
	}
	return n, nil
}
