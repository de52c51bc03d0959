package repository

import (
	"errors"
	"time"

	"squad-management-api/internal/models"
	"squad-management-api/internal/utils"
)

// Sentinel errors surfaced by transactional compound operations. The checks
// they report run inside the same transaction as the writes that depend on
// them, so two concurrent callers cannot both pass a capacity or uniqueness
// check that only one should.
var (
	ErrSquadFull             = errors.New("squad repository: squad is at maximum capacity")
	ErrDuplicateMember       = errors.New("squad repository: user is already a member of the squad")
	ErrInviteNotPending      = errors.New("invite repository: invite is not pending")
	ErrInviteExpired         = errors.New("invite repository: invite has expired")
	ErrApplicationNotPending = errors.New("application repository: application is not pending")
	ErrPositionClosed        = errors.New("position repository: position is not open")
	ErrNoFreeSlots           = errors.New("position repository: no free slots for another open position")
)

// SquadRepository defines the interface for squad and membership data access
type SquadRepository interface {
	// CreateWithCaptain creates a squad and its first member (the captain)
	// within a single transaction
	CreateWithCaptain(squad *models.Squad, captain *models.SquadMember) error

	// FindByID finds a squad by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Squad, error)

	// Update updates a squad
	Update(squad *models.Squad) error

	// Delete dismantles a squad, cascading members, invites, positions and
	// applications in one transaction
	Delete(id uint64) error

	// AddMember inserts a member after capacity and duplicate checks and
	// recomputes the squad's active flag, all in one transaction
	AddMember(squadID uint64, member *models.SquadMember) error

	// RemoveMember deletes a membership row and recomputes the active flag
	// in one transaction
	RemoveMember(squadID, userID uint64) error

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(squadID, userID uint64, role models.SquadRole) error

	// UpdateCaptain reassigns the squad's captain
	UpdateCaptain(squadID, newCaptainID uint64) error

	// FindMember finds a specific squad member
	FindMember(squadID, userID uint64) (*models.SquadMember, error)

	// ListMembers lists all members of a squad
	ListMembers(squadID uint64) ([]models.SquadMember, error)

	// ListMembershipsByUserID lists all squads a user belongs to
	ListMembershipsByUserID(userID uint64) ([]models.SquadMember, error)

	// CountMembers counts current members of a squad
	CountMembers(squadID uint64) (int64, error)

	// CountCreatedBy counts squads created by a user
	CountCreatedBy(userID uint64) (int64, error)
}

// InviteRepository defines the interface for squad invite data access
type InviteRepository interface {
	// Create inserts an invite, first persisting EXPIRED on any lapsed
	// pending invite for the same (squad, invitee)
	Create(invite *models.SquadInvite, now time.Time) error

	// FindByID finds an invite by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.SquadInvite, error)

	// FindPending finds a pending, non-expired invite for an invitee in a squad
	FindPending(squadID, inviteeID uint64, now time.Time) (*models.SquadInvite, error)

	// UpdateStatus records a status transition with its response timestamp
	UpdateStatus(id uint64, status models.InviteStatus, respondedAt time.Time) error

	// Accept marks the invite accepted and adds the invitee as a member in
	// one transaction; the pending and expiry checks re-run inside it
	Accept(inviteID uint64, member *models.SquadMember, now time.Time) error

	// ListByInvitee lists invites addressed to a user
	ListByInvitee(inviteeID uint64) ([]models.SquadInvite, error)

	// ListBySquad lists invites sent for a squad
	ListBySquad(squadID uint64) ([]models.SquadInvite, error)
}

// PositionFilter holds filtering options for listing open positions
type PositionFilter struct {
	SquadID    *uint64
	Role       *models.SquadRole
	Pagination utils.PaginationParams
}

// PositionRepository defines the interface for open position data access
type PositionRepository interface {
	// Create inserts a position after re-checking the free-slot invariant
	// inside a transaction
	Create(position *models.OpenPosition, now time.Time) error

	// FindByID finds a position by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.OpenPosition, error)

	// ListBySquad lists all positions of a squad
	ListBySquad(squadID uint64) ([]models.OpenPosition, error)

	// ListOpen lists open, non-expired positions with pagination
	ListOpen(filter PositionFilter, now time.Time) ([]models.OpenPosition, int64, error)

	// CountOpenBySquad counts open, non-expired positions for a squad
	CountOpenBySquad(squadID uint64, now time.Time) (int64, error)

	// Delete rejects all pending applications for the position and deletes
	// the position in one transaction; returns the rejected applications
	Delete(positionID uint64, now time.Time) ([]models.Application, error)

	// CloseAllOpenForSquad closes every open position of a squad and rejects
	// their pending applications in one transaction; returns the rejected
	// applications
	CloseAllOpenForSquad(squadID uint64, now time.Time) ([]models.Application, error)

	// ExpireSweep closes expired open positions and flips expired pending
	// applications to EXPIRED; returns the newly expired applications
	ExpireSweep(now time.Time) (int64, []models.Application, error)
}

// ApplicationRepository defines the interface for application data access
type ApplicationRepository interface {
	// Create inserts an application, first persisting EXPIRED on any lapsed
	// pending application for the same (position, applicant)
	Create(application *models.Application, now time.Time) error

	// FindByID finds an application by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Application, error)

	// FindLive finds an APPROVED or still-pending application for an
	// applicant on a position; lapsed pendings do not count
	FindLive(positionID, applicantID uint64, now time.Time) (*models.Application, error)

	// ListByPosition lists applications for a position
	ListByPosition(positionID uint64) ([]models.Application, error)

	// ListByApplicant lists a user's applications
	ListByApplicant(applicantID uint64) ([]models.Application, error)

	// UpdateStatus records a status transition with its response timestamp
	UpdateStatus(id uint64, status models.ApplicationStatus, respondedAt time.Time) error

	// Approve marks the application approved, adds the applicant as a
	// member, closes the position and rejects all competing pending
	// applications in one transaction; returns the rejected applications
	Approve(applicationID uint64, member *models.SquadMember, now time.Time) ([]models.Application, error)
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create persists a notification
	Create(notification *models.Notification) error

	// ListByUser lists a user's notifications, newest first
	ListByUser(userID uint64, page, pageSize int) ([]models.Notification, int64, error)

	// MarkRead flags a notification as read
	MarkRead(id, userID uint64) error

	// CountUnread counts a user's unread notifications
	CountUnread(userID uint64) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)
}
