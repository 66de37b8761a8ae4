package domain

import "time"

// TokenPair holds one freshly minted credential of each class. Both are
// stateless signed tokens; nothing about them is persisted server-side.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}
