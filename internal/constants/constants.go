package constants

import "time"

// Session
const (
	SessionCookieName = "squad_session"
	ContextKeyUserID  = "user_id"
)

// Auth
const (
	MinPasswordLength = 8
)

// Squad sizing. A squad activates at MinSize and never exceeds MaxSize.
const (
	SquadMinSize = 2
	SquadMaxSize = 7
)

// Expiry windows
const (
	InviteExpiry      = 7 * 24 * time.Hour
	ApplicationExpiry = 7 * 24 * time.Hour
	PositionExpiry    = 30 * 24 * time.Hour
)

// Squad creation quota steps by reputation score.
const (
	QuotaScoreTier2 = 1500
	QuotaScoreTier3 = 1800
	QuotaScoreTier4 = 2000

	QuotaBase  = 1
	QuotaTier2 = 2
	QuotaTier3 = 3
	QuotaTier4 = 5
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
