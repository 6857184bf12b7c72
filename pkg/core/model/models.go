package model

import (
	"slices"
	"time"
)

type UserType string

const (
	UserTypeVolunteer UserType = "volunteer"
	UserTypeOrganizer UserType = "organizer"
)

func (t UserType) IsValid() bool {
	return t == UserTypeVolunteer || t == UserTypeOrganizer
}

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusCancelled EventStatus = "cancelled"
)

// DateLayout is the calendar date format used for event dates
const DateLayout = "2006-01-02"

// Event represents a beach cleanup event
type Event struct {
	ID               string      `json:"id"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Location         string      `json:"location"`
	Date             string      `json:"date"` // YYYY-MM-DD, no timezone
	Status           EventStatus `json:"status"`
	WasteAvailable   float64     `json:"wasteAvailable"`
	ParticipantCount int         `json:"participantCount"` // advisory, see ReconcileCounters
	CreatedAt        time.Time   `json:"createdAt"`
	OrganizerID      string      `json:"organizerId"`
}

// Feedback is a volunteer's rating of an event they attended
type Feedback struct {
	Rating      int       `json:"rating"`
	Text        string    `json:"text,omitempty"`
	Recommend   bool      `json:"recommend"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// CheckIn records one volunteer's participation in one event
type CheckIn struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	EventID        string    `json:"eventId"`
	UserName       string    `json:"userName"`
	UserEmail      string    `json:"userEmail"`
	WasteCollected float64   `json:"wasteCollected"`
	Timestamp      time.Time `json:"timestamp"`
	ProofPhoto     string    `json:"proofPhoto,omitempty"`
	Feedback       *Feedback `json:"feedback,omitempty"`
	AssignedTeam   string    `json:"assignedTeam,omitempty"`
	TeamAssigned   bool      `json:"teamAssigned"`
}

// HasProofPhoto reports whether a proof photo was uploaded for the check-in
func (c CheckIn) HasProofPhoto() bool {
	return c.ProofPhoto != ""
}

// User is a volunteer or organizer account
type User struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"displayName"`
	Email         string    `json:"email"`
	UserType      UserType  `json:"userType"`
	EcoScore      int       `json:"ecoScore"`
	TotalCheckIns int       `json:"totalCheckIns"`
	TeamID        string    `json:"teamId,omitempty"`
	PushToken     string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Team is a volunteer team. Members keeps join order and always contains the captain.
type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CaptainID   string    `json:"captainId"`
	Members     []string  `json:"members"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (t Team) IsMember(userID string) bool {
	return slices.Contains(t.Members, userID)
}

func (t Team) IsFull() bool {
	return t.Capacity > 0 && len(t.Members) >= t.Capacity
}

// Notification is a message delivered to one recipient from an event broadcast
type Notification struct {
	ID            string    `json:"id"`
	RecipientID   string    `json:"recipientId"`
	EventID       string    `json:"eventId"`
	EventName     string    `json:"eventName"`
	OrganizerID   string    `json:"organizerId"`
	OrganizerName string    `json:"organizerName"`
	Subject       string    `json:"subject"`
	Message       string    `json:"message"`
	CreatedAt     time.Time `json:"createdAt"`
	Read          bool      `json:"read"`
}

// DeliveryFailure records one recipient a notification channel could not reach
type DeliveryFailure struct {
	Channel     string `json:"channel"`
	RecipientID string `json:"recipientId"`
	Reason      string `json:"reason"`
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a volunteer's request to join a team, decided by the captain
type JoinRequest struct {
	ID        string            `json:"id"`
	TeamID    string            `json:"teamId"`
	UserID    string            `json:"userId"`
	Status    JoinRequestStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Session identifies the acting user of an operation
type Session struct {
	UserID   string
	UserType UserType
}

func (s Session) IsOrganizer() bool {
	return s.UserType == UserTypeOrganizer
}
