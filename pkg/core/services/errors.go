package services

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/projectseashield/seashield/pkg/core/model"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrEventCancelled       = errors.New("event is cancelled")
	ErrDuplicateCheckIn     = errors.New("already checked in to this event")
	ErrUserNotFound         = errors.New("user not found")
	ErrCheckInNotFound      = errors.New("check-in not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamFull             = errors.New("team is full")
	ErrAlreadyMember        = errors.New("already a member of a team")
	ErrNotMember            = errors.New("not a member of this team")
	ErrJoinRequestNotFound  = errors.New("join request not found")
	ErrJoinRequestDecided   = errors.New("join request already decided")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoParticipants       = errors.New("event has no participants")
	ErrForbidden            = errors.New("not allowed")
	ErrUnauthenticated      = errors.New("no signed-in user")
)

// ValidationError reports a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
}

// validateInput runs struct validation and converts the first failure into a ValidationError
func validateInput(input any) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: describeTag(fe)}
	}

	return fmt.Errorf("failed to validate input: %w", err)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "url":
		return "must be a URL"
	case "datetime":
		return "must be a date formatted as " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func requireUser(session model.Session) error {
	if session.UserID == "" {
		return ErrUnauthenticated
	}
	return nil
}

func requireOrganizer(session model.Session) error {
	if err := requireUser(session); err != nil {
		return err
	}
	if !session.IsOrganizer() {
		return fmt.Errorf("organizer role required: %w", ErrForbidden)
	}
	return nil
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
