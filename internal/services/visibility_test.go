package services

import (
	"testing"

	"arch-community-backend/internal/models"
)

func TestCanViewPosts(t *testing.T) {
	public := &models.Profile{UserID: 2}
	private := &models.Profile{UserID: 2, IsPrivate: true}

	cases := []struct {
		name         string
		viewerID     int64
		profile      *models.Profile
		followStatus string
		want         bool
	}{
		{"owner sees own private posts", 2, private, "", true},
		{"stranger sees public posts", 1, public, "", true},
		{"stranger blocked on private", 1, private, "", false},
		{"pending follower blocked on private", 1, private, models.FollowPending, false},
		{"accepted follower sees private", 1, private, models.FollowAccepted, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanViewPosts(tc.viewerID, 2, tc.profile, tc.followStatus)
			if got != tc.want {
				t.Fatalf("CanViewPosts = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListVisibilityFlags(t *testing.T) {
	hidden := &models.Profile{UserID: 2, HideFollowers: true, HideFollowing: true}
	open := &models.Profile{UserID: 2}

	if FollowersVisible(1, 2, hidden) {
		t.Fatalf("hidden follower list visible to stranger")
	}
	if !FollowersVisible(2, 2, hidden) {
		t.Fatalf("owner should always see own followers")
	}
	if !FollowersVisible(1, 2, open) {
		t.Fatalf("open follower list should be visible")
	}

	if FollowingVisible(1, 2, hidden) {
		t.Fatalf("hidden following list visible to stranger")
	}
	if !FollowingVisible(2, 2, hidden) {
		t.Fatalf("owner should always see own following")
	}
}
