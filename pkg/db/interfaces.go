package db

import (
	"context"
	"time"

	"github.com/projectseashield/seashield/pkg/core/model"
)

// AllocateFunc computes a participant's waste share from the event's declared
// waste and the participant count including the new entrant
type AllocateFunc func(wasteAvailable float64, totalParticipants int) float64

// RegisterCheckInParams carries everything needed to record a check-in
type RegisterCheckInParams struct {
	CheckInID     string
	UserID        string
	EventID       string
	UserName      string
	UserEmail     string
	Timestamp     time.Time
	EcoScoreDelta int
	Allocate      AllocateFunc
}

// MembershipChange adds or removes one user on a team. The store locks the team,
// the user and, when RequestID is set, the join request, then calls Apply with them.
// Apply checks the locked rows and edits team.Members, team.CaptainID and req.Status;
// an error from Apply is returned unchanged and nothing is written.
type MembershipChange struct {
	TeamID    string
	UserID    string
	RequestID string
	Apply     func(team *model.Team, user *model.User, req *model.JoinRequest) error
}

// MembershipResult is the team after a membership change. Deleted is set, and Team
// is nil, when the change left the team without members.
type MembershipResult struct {
	Team    *model.Team
	Deleted bool
}

// DeleteEventResult reports what an event deletion removed
type DeleteEventResult struct {
	DeletedCheckIns      int
	DeletedNotifications int
	AffectedUsers        []string
}

// UserStore defines the interface for user database operations
type UserStore interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpsertUser(ctx context.Context, user *model.User) error
	SetPushToken(ctx context.Context, userID, token string) error
	SetUserCounters(ctx context.Context, userID string, ecoScore, totalCheckIns int) error
}

// EventStore defines the interface for event database operations
type EventStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	InsertEvent(ctx context.Context, event *model.Event) error
	UpdateEventStatus(ctx context.Context, id string, status model.EventStatus) error
	SetParticipantCount(ctx context.Context, eventID string, count int) error
	// DeleteEventCascade removes the event, its check-ins and notifications, and
	// takes back ecoScorePerCheckIn and one check-in from each affected user.
	DeleteEventCascade(ctx context.Context, eventID string, ecoScorePerCheckIn int) (*DeleteEventResult, error)
}

// CheckInStore defines the interface for check-in database operations
type CheckInStore interface {
	// RegisterCheckIn records a check-in and its counter side effects atomically.
	// A missing event or user is reported as a NotFoundError naming its table. A repeat
	// check-in by the same user fails with ErrDuplicate.
	RegisterCheckIn(ctx context.Context, params RegisterCheckInParams) (*model.CheckIn, error)
	GetCheckIn(ctx context.Context, id string) (*model.CheckIn, error)
	FindCheckIn(ctx context.Context, userID, eventID string) (*model.CheckIn, error)
	ListCheckIns(ctx context.Context) ([]model.CheckIn, error)
	ListCheckInsByUser(ctx context.Context, userID string) ([]model.CheckIn, error)
	ListCheckInsByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error)
	DeleteCheckIns(ctx context.Context, ids []string) error
	UpdateCheckInWaste(ctx context.Context, id string, waste float64) error
	UpdateCheckInPhoto(ctx context.Context, id string, photoURL string) error
	UpdateCheckInFeedback(ctx context.Context, id string, feedback *model.Feedback) error
	AssignCheckInTeams(ctx context.Context, assignments map[string]string) error
}

// TeamStore defines the interface for team and join request database operations
type TeamStore interface {
	GetTeam(ctx context.Context, id string) (*model.Team, error)
	ListTeams(ctx context.Context) ([]model.Team, error)
	// InsertTeam stores a new team and records the captain's membership. Fails with
	// ErrConflict if the captain already belongs to a team.
	InsertTeam(ctx context.Context, team *model.Team) error
	// ChangeTeamMembership applies a membership change in one transaction. The user's
	// team is set while they are a member and cleared once they are not. A team left
	// without members is deleted along with its join requests.
	ChangeTeamMembership(ctx context.Context, change MembershipChange) (*MembershipResult, error)

	InsertJoinRequest(ctx context.Context, req *model.JoinRequest) error
	GetJoinRequest(ctx context.Context, id string) (*model.JoinRequest, error)
	FindPendingJoinRequest(ctx context.Context, teamID, userID string) (*model.JoinRequest, error)
	ListJoinRequests(ctx context.Context, teamID string, status model.JoinRequestStatus) ([]model.JoinRequest, error)
}

// NotificationStore defines the interface for notification database operations
type NotificationStore interface {
	InsertNotifications(ctx context.Context, notifications []model.Notification) error
	GetNotification(ctx context.Context, id string) (*model.Notification, error)
	ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	UserStore
	EventStore
	CheckInStore
	TeamStore
	NotificationStore
}
