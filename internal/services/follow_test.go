package services

import (
	"context"
	"errors"
	"testing"

	"arch-community-backend/internal/apperr"
	"arch-community-backend/internal/auth"
	"arch-community-backend/internal/models"
)

func newFollowFixture(t *testing.T) (*FollowService, *fakeUserStore, *fakeProfileStore) {
	t.Helper()
	users := newFakeUserStore()
	profiles := newFakeProfileStore()
	svc := NewFollowService(newFakeFollowStore(), users, profiles)
	return svc, users, profiles
}

func addUser(t *testing.T, users *fakeUserStore, profiles *fakeProfileStore, username string, private bool) int64 {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "hash", Role: models.RoleMember}
	id, err := users.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("create %s: %v", username, err)
	}
	profiles.profiles[id] = &models.Profile{UserID: id, IsPrivate: private}
	return id
}

func TestFollowPublicTargetAccepted(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", true)

	status, err := svc.Request(context.Background(), auth.Identity{ID: bob, Role: "member"}, alice)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if status != models.FollowAccepted {
		t.Fatalf("expected accepted for public target, got %q", status)
	}
}

func TestFollowPrivateTargetPending(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", true)

	status, err := svc.Request(context.Background(), auth.Identity{ID: alice, Role: "member"}, bob)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if status != models.FollowPending {
		t.Fatalf("expected pending for private target, got %q", status)
	}

	got, err := svc.StatusOf(context.Background(), auth.Identity{ID: alice}, bob)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if got != models.FollowPending {
		t.Fatalf("expected pending edge, got %q", got)
	}
}

func TestFollowRequestIdempotent(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", true)
	ctx := context.Background()
	follower := auth.Identity{ID: alice, Role: "member"}

	if _, err := svc.Request(ctx, follower, bob); err != nil {
		t.Fatalf("first request: %v", err)
	}
	status, err := svc.Request(ctx, follower, bob)
	if err != nil {
		t.Fatalf("second request: %v", err)
	}
	if status != models.FollowPending {
		t.Fatalf("re-request should keep the pending edge, got %q", status)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)

	if _, err := svc.Request(context.Background(), auth.Identity{ID: alice}, alice); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected ErrValidation for self-follow, got %v", err)
	}
}

func TestFollowUnknownTargetNotFound(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)

	if _, err := svc.Request(context.Background(), auth.Identity{ID: alice}, 999); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown target, got %v", err)
	}
}

func TestUnfollowAbsentEdgeIsNoop(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", false)

	if err := svc.Unfollow(context.Background(), auth.Identity{ID: alice}, bob); err != nil {
		t.Fatalf("unfollow absent edge: %v", err)
	}
}

func TestUnfollowClearsEdge(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", false)
	ctx := context.Background()
	follower := auth.Identity{ID: alice}

	if _, err := svc.Request(ctx, follower, bob); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := svc.Unfollow(ctx, follower, bob); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	status, err := svc.StatusOf(ctx, follower, bob)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != "" {
		t.Fatalf("expected absent edge after unfollow, got %q", status)
	}
}

func TestFollowersHiddenFromStrangers(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", false)
	profiles.profiles[bob].HideFollowers = true
	ctx := context.Background()

	if _, err := svc.Followers(ctx, auth.Identity{ID: alice}, bob); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for hidden follower list, got %v", err)
	}
	// The owner still sees their own list.
	if _, err := svc.Followers(ctx, auth.Identity{ID: bob}, bob); err != nil {
		t.Fatalf("owner should see own followers: %v", err)
	}
}

func TestFollowingListsAcceptedOnly(t *testing.T) {
	svc, users, profiles := newFollowFixture(t)
	alice := addUser(t, users, profiles, "alice", false)
	bob := addUser(t, users, profiles, "bob", false)
	carol := addUser(t, users, profiles, "carol", true)
	ctx := context.Background()
	follower := auth.Identity{ID: alice}

	if _, err := svc.Request(ctx, follower, bob); err != nil {
		t.Fatalf("request bob: %v", err)
	}
	if _, err := svc.Request(ctx, follower, carol); err != nil {
		t.Fatalf("request carol: %v", err)
	}

	following, err := svc.Following(ctx, follower, alice)
	if err != nil {
		t.Fatalf("following: %v", err)
	}
	if len(following) != 1 || following[0].ID != bob {
		t.Fatalf("pending edges must not appear in the following list: %+v", following)
	}
}
