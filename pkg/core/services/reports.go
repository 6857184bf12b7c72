package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/internal/config"
	"github.com/projectseashield/seashield/pkg/core/allocator"
	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/core/teams"
)

// ErrReportSheetNotConfigured is returned when exporting without a report spreadsheet
var ErrReportSheetNotConfigured = errors.New("report spreadsheet not configured")

// ReportStore defines the database operations needed for reports
type ReportStore interface {
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	ListCheckInsByEvent(ctx context.Context, eventID string) ([]model.CheckIn, error)
}

// ReportPublisher writes a table to a spreadsheet tab, replacing the tab if it exists
type ReportPublisher interface {
	PublishTable(spreadsheetID, tabTitle string, header []string, rows [][]interface{}) error
}

// ReportParticipant is one check-in in an event report
type ReportParticipant struct {
	UserID         string  `json:"userId"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	CheckedInAt    string  `json:"checkedInAt"`
	WasteCollected float64 `json:"wasteCollected"`
	ProofPhoto     bool    `json:"proofPhoto"`
	Rating         int     `json:"rating,omitempty"`
	Recommend      *bool   `json:"recommend,omitempty"`
	Team           string  `json:"team,omitempty"`
}

// EventReport summarizes one event for its organizer
type EventReport struct {
	Event               model.Event         `json:"event"`
	Participants        []ReportParticipant `json:"participants"`
	TotalWasteCollected float64             `json:"totalWasteCollected"`
	PhotoCount          int                 `json:"photoCount"`
	FeedbackCount       int                 `json:"feedbackCount"`
	AverageRating       float64             `json:"averageRating"`
	RecommendPercent    float64             `json:"recommendPercent"`
	Teams               []teams.TeamSummary `json:"teams"`
}

// AnalyticsRow is one event in the organizer analytics
type AnalyticsRow struct {
	EventID        string  `json:"eventId"`
	Title          string  `json:"title"`
	Date           string  `json:"date"`
	Status         string  `json:"status"`
	Participants   int     `json:"participants"`
	WasteAvailable float64 `json:"wasteAvailable"`
	WasteCollected float64 `json:"wasteCollected"`
	PhotoCount     int     `json:"photoCount"`
	AverageRating  float64 `json:"averageRating"`
}

// OrganizerAnalytics summarizes all events of one organizer
type OrganizerAnalytics struct {
	Events              []AnalyticsRow `json:"events"`
	TotalEvents         int            `json:"totalEvents"`
	ActiveEvents        int            `json:"activeEvents"`
	TotalParticipants   int            `json:"totalParticipants"`
	TotalWasteCollected float64        `json:"totalWasteCollected"`
	TotalPhotos         int            `json:"totalPhotos"`
}

func buildEventReport(event model.Event, checkIns []model.CheckIn, events []model.Event, users []model.User) *EventReport {
	report := &EventReport{
		Event:        event,
		Participants: make([]ReportParticipant, 0, len(checkIns)),
	}

	sorted := make([]model.CheckIn, len(checkIns))
	copy(sorted, checkIns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	ratingSum, recommends := 0, 0
	for _, c := range sorted {
		waste := c.WasteCollected
		if !isFinite(waste) || waste < 0 {
			waste = 0
		}

		p := ReportParticipant{
			UserID:         c.UserID,
			Name:           c.UserName,
			Email:          c.UserEmail,
			CheckedInAt:    c.Timestamp.UTC().Format("2006-01-02 15:04"),
			WasteCollected: waste,
			ProofPhoto:     c.HasProofPhoto(),
			Team:           c.AssignedTeam,
		}
		report.TotalWasteCollected += waste
		if p.ProofPhoto {
			report.PhotoCount++
		}
		if c.Feedback != nil {
			report.FeedbackCount++
			ratingSum += c.Feedback.Rating
			recommend := c.Feedback.Recommend
			p.Rating = c.Feedback.Rating
			p.Recommend = &recommend
			if recommend {
				recommends++
			}
		}
		report.Participants = append(report.Participants, p)
	}

	report.TotalWasteCollected = allocator.Round2(report.TotalWasteCollected)
	if report.FeedbackCount > 0 {
		report.AverageRating = allocator.Round2(float64(ratingSum) / float64(report.FeedbackCount))
		report.RecommendPercent = allocator.Round2(float64(recommends) * 100 / float64(report.FeedbackCount))
	}
	report.Teams = teams.AggregateTeams(sorted, events, users)

	return report
}

// BuildEventReport builds the report of an event owned by the session's organizer
func BuildEventReport(ctx context.Context, store ReportStore, logger *zap.Logger, session model.Session, eventID string) (*EventReport, error) {
	event, err := ownedEvent(ctx, store, session, eventID)
	if err != nil {
		return nil, err
	}

	checkIns, err := store.ListCheckInsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-ins: %w", err)
	}
	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	users, err := store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	report := buildEventReport(*event, checkIns, events, users)

	logger.Debug("Event report built",
		zap.String("event_id", eventID),
		zap.Int("participants", len(report.Participants)),
		zap.Float64("total_waste", report.TotalWasteCollected))

	return report, nil
}

// BuildOrganizerAnalytics summarizes every event created by the session's organizer,
// most recent first
func BuildOrganizerAnalytics(ctx context.Context, store ReportStore, session model.Session) (*OrganizerAnalytics, error) {
	if err := requireOrganizer(session); err != nil {
		return nil, err
	}

	events, err := store.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}

	analytics := &OrganizerAnalytics{Events: []AnalyticsRow{}}
	for _, e := range events {
		if e.OrganizerID != session.UserID {
			continue
		}

		checkIns, err := store.ListCheckInsByEvent(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch check-ins for event %s: %w", e.ID, err)
		}
		report := buildEventReport(e, checkIns, nil, nil)

		analytics.Events = append(analytics.Events, AnalyticsRow{
			EventID:        e.ID,
			Title:          e.Title,
			Date:           e.Date,
			Status:         string(e.Status),
			Participants:   len(checkIns),
			WasteAvailable: e.WasteAvailable,
			WasteCollected: report.TotalWasteCollected,
			PhotoCount:     report.PhotoCount,
			AverageRating:  report.AverageRating,
		})
		analytics.TotalEvents++
		if e.Status == model.EventStatusActive {
			analytics.ActiveEvents++
		}
		analytics.TotalParticipants += len(checkIns)
		analytics.TotalWasteCollected += report.TotalWasteCollected
		analytics.TotalPhotos += report.PhotoCount
	}

	analytics.TotalWasteCollected = allocator.Round2(analytics.TotalWasteCollected)
	sort.SliceStable(analytics.Events, func(i, j int) bool {
		return analytics.Events[i].Date > analytics.Events[j].Date
	})

	return analytics, nil
}

// ReportHeader is the column header of an exported event report
var ReportHeader = []string{"Name", "Email", "Checked in", "Waste (kg)", "Proof photo", "Rating", "Recommend", "Team"}

// ReportTabTitle names the spreadsheet tab for an event, e.g. "2025-06-08 Beach Sweep"
func ReportTabTitle(event model.Event) string {
	return fmt.Sprintf("%s %s", event.Date, event.Title)
}

// ReportRows converts the report into spreadsheet rows, with a trailing totals row
func (r *EventReport) ReportRows() [][]interface{} {
	rows := make([][]interface{}, 0, len(r.Participants)+1)
	for _, p := range r.Participants {
		rating, recommend := "", ""
		if p.Recommend != nil {
			rating = fmt.Sprintf("%d", p.Rating)
			recommend = "no"
			if *p.Recommend {
				recommend = "yes"
			}
		}
		photo := "no"
		if p.ProofPhoto {
			photo = "yes"
		}
		rows = append(rows, []interface{}{p.Name, p.Email, p.CheckedInAt, p.WasteCollected, photo, rating, recommend, p.Team})
	}

	rows = append(rows, []interface{}{
		"Total",
		fmt.Sprintf("%d participants", len(r.Participants)),
		"",
		r.TotalWasteCollected,
		fmt.Sprintf("%d photos", r.PhotoCount),
		fmt.Sprintf("%.2f", r.AverageRating),
		fmt.Sprintf("%.0f%%", r.RecommendPercent),
		"",
	})
	return rows
}

// ExportEventReport builds the event report and publishes it to the configured spreadsheet
func ExportEventReport(ctx context.Context, store ReportStore, publisher ReportPublisher, cfg *config.Config, logger *zap.Logger, session model.Session, eventID string) (*EventReport, error) {
	if cfg.ReportSheetID == "" {
		return nil, ErrReportSheetNotConfigured
	}

	report, err := BuildEventReport(ctx, store, logger, session, eventID)
	if err != nil {
		return nil, err
	}

	tab := ReportTabTitle(report.Event)
	if err := publisher.PublishTable(cfg.ReportSheetID, tab, ReportHeader, report.ReportRows()); err != nil {
		return nil, fmt.Errorf("failed to publish report: %w", err)
	}

	logger.Info("Event report exported", zap.String("event_id", eventID), zap.String("tab", tab))
	return report, nil
}
