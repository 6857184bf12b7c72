package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/projectseashield/seashield/pkg/core/model"
	"github.com/projectseashield/seashield/pkg/db"
)

// CheckInOwnerStore defines the database operations a volunteer needs to edit their check-in
type CheckInOwnerStore interface {
	GetCheckIn(ctx context.Context, id string) (*model.CheckIn, error)
	UpdateCheckInWaste(ctx context.Context, id string, waste float64) error
	UpdateCheckInPhoto(ctx context.Context, id string, photoURL string) error
	UpdateCheckInFeedback(ctx context.Context, id string, feedback *model.Feedback) error
}

// WasteInput is a manual override of the waste credited to a check-in
type WasteInput struct {
	WasteCollected float64 `json:"wasteCollected" validate:"gte=0,lte=100000"`
}

// PhotoInput attaches an uploaded proof photo to a check-in
type PhotoInput struct {
	PhotoURL string `json:"photoUrl" validate:"required,url"`
}

// FeedbackInput is a volunteer's rating of an event they attended
type FeedbackInput struct {
	Rating    int    `json:"rating" validate:"min=1,max=5"`
	Text      string `json:"text" validate:"max=2000"`
	Recommend bool   `json:"recommend"`
}

// ownedCheckIn loads a check-in and verifies the session's user owns it
func ownedCheckIn(ctx context.Context, store CheckInOwnerStore, session model.Session, checkInID string) (*model.CheckIn, error) {
	if err := requireUser(session); err != nil {
		return nil, err
	}

	checkIn, err := store.GetCheckIn(ctx, checkInID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrCheckInNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch check-in: %w", err)
	}

	if checkIn.UserID != session.UserID {
		return nil, fmt.Errorf("check-in belongs to another user: %w", ErrForbidden)
	}

	return checkIn, nil
}

// UpdateWasteCollected replaces the computed waste share with the volunteer's own figure
func UpdateWasteCollected(ctx context.Context, store CheckInOwnerStore, logger *zap.Logger, session model.Session, checkInID string, input WasteInput) (*model.CheckIn, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if !isFinite(input.WasteCollected) {
		return nil, &ValidationError{Field: "wasteCollected", Message: "must be a number"}
	}

	checkIn, err := ownedCheckIn(ctx, store, session, checkInID)
	if err != nil {
		return nil, err
	}

	if err := store.UpdateCheckInWaste(ctx, checkInID, input.WasteCollected); err != nil {
		return nil, fmt.Errorf("failed to update waste collected: %w", err)
	}

	logger.Info("Waste collected overridden",
		zap.String("check_in_id", checkInID),
		zap.Float64("previous", checkIn.WasteCollected),
		zap.Float64("waste_collected", input.WasteCollected))

	checkIn.WasteCollected = input.WasteCollected
	return checkIn, nil
}

// AttachProofPhoto records the URL of the volunteer's proof photo
func AttachProofPhoto(ctx context.Context, store CheckInOwnerStore, logger *zap.Logger, session model.Session, checkInID string, input PhotoInput) (*model.CheckIn, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	checkIn, err := ownedCheckIn(ctx, store, session, checkInID)
	if err != nil {
		return nil, err
	}

	if err := store.UpdateCheckInPhoto(ctx, checkInID, input.PhotoURL); err != nil {
		return nil, fmt.Errorf("failed to attach proof photo: %w", err)
	}

	logger.Info("Proof photo attached", zap.String("check_in_id", checkInID))

	checkIn.ProofPhoto = input.PhotoURL
	return checkIn, nil
}

// SubmitFeedback stores the volunteer's feedback, replacing any earlier submission
func SubmitFeedback(ctx context.Context, store CheckInOwnerStore, logger *zap.Logger, session model.Session, checkInID string, input FeedbackInput) (*model.CheckIn, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	checkIn, err := ownedCheckIn(ctx, store, session, checkInID)
	if err != nil {
		return nil, err
	}

	feedback := &model.Feedback{
		Rating:      input.Rating,
		Text:        input.Text,
		Recommend:   input.Recommend,
		SubmittedAt: now().UTC(),
	}
	if err := store.UpdateCheckInFeedback(ctx, checkInID, feedback); err != nil {
		return nil, fmt.Errorf("failed to submit feedback: %w", err)
	}

	logger.Info("Feedback submitted",
		zap.String("check_in_id", checkInID),
		zap.Int("rating", input.Rating),
		zap.Bool("recommend", input.Recommend))

	checkIn.Feedback = feedback
	return checkIn, nil
}
