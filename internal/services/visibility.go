package services

import "arch-community-backend/internal/models"

// The visibility resolver is a set of pure predicates over already-fetched
// state. Callers supply the target's profile and, where relevant, the
// viewer's follow status toward the target; nothing here touches storage.

// CanViewPosts reports whether the viewer may see the target account's
// posts: the owner always can, public accounts are visible to everyone,
// and private accounts only to accepted followers.
func CanViewPosts(viewerID, ownerID int64, profile *models.Profile, followStatus string) bool {
	if viewerID == ownerID {
		return true
	}
	if !profile.IsPrivate {
		return true
	}
	return followStatus == models.FollowAccepted
}

// FollowersVisible reports whether the viewer may list the target's
// followers. The hide flag applies to everyone but the owner and is
// independent of the is_private gate: a public account can still hide
// its follower list.
func FollowersVisible(viewerID, ownerID int64, profile *models.Profile) bool {
	return viewerID == ownerID || !profile.HideFollowers
}

// FollowingVisible reports whether the viewer may list who the target
// follows.
func FollowingVisible(viewerID, ownerID int64, profile *models.Profile) bool {
	return viewerID == ownerID || !profile.HideFollowing
}
