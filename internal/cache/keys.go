package cache

import (
	"fmt"
	"time"
)

const (
	// UserTTL bounds how long a cached user row may be served.
	UserTTL = 5 * time.Minute
	// StatsTTL bounds how long profile counters may be served.
	StatsTTL = 30 * time.Second
)

func UserKey(id uint) string {
	return fmt.Sprintf("user:%d", id)
}

func UserStatsKey(id uint) string {
	return fmt.Sprintf("user:%d:stats", id)
}

func RevokedTokenKey(jti string) string {
	return "jwt:revoked:" + jti
}

// FeedChannel is the pub/sub channel carrying new messages for a follower.
func FeedChannel(userID uint) string {
	return fmt.Sprintf("feed:user:%d", userID)
}

// FeedChannelPattern matches every FeedChannel.
const FeedChannelPattern = "feed:user:*"
