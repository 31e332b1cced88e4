// Package nutrition decides when a nutrition plan assignment may be marked
// completed and credits the plan's reward when it is.
package nutrition

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gymcore-backend-go/internal/models"
)

const DefaultThresholdPercent = 80

var (
	ErrAlreadyCompleted = errors.New("already completed")
	ErrNoMeals          = errors.New("no meals configured")
)

// Compliance is the share of a plan's distinct meal templates the user has
// logged as completed.
type Compliance struct {
	Percentage     float64 `json:"completion_percentage"`
	CompletedMeals int     `json:"completed_meals"`
	TotalMeals     int     `json:"total_meals"`
	RequiredMeals  int     `json:"required_meals"`

	threshold int
}

// Evaluate computes compliance for completed out of total meals against
// thresholdPercent. Comparisons use integer math so 8000/10000 meets 80%
// and 7999/10000 does not.
func Evaluate(completed, total, thresholdPercent int) Compliance {
	if completed > total {
		completed = total
	}
	c := Compliance{
		CompletedMeals: completed,
		TotalMeals:     total,
		RequiredMeals:  RequiredMeals(total, thresholdPercent),
		threshold:      thresholdPercent,
	}
	if total > 0 {
		c.Percentage = math.Round(float64(completed)*10000/float64(total)) / 100
	}
	return c
}

// RequiredMeals is the smallest count that reaches thresholdPercent of total.
func RequiredMeals(total, thresholdPercent int) int {
	return (total*thresholdPercent + 99) / 100
}

func (c Compliance) Meets() bool {
	return c.TotalMeals > 0 && c.CompletedMeals*100 >= c.TotalMeals*c.threshold
}

// BelowThresholdError carries the numbers the caller needs to see how far
// off the assignment is.
type BelowThresholdError struct {
	Compliance Compliance
}

func (e *BelowThresholdError) Error() string {
	return fmt.Sprintf("completion %.2f%% is below the required %d of %d meals",
		e.Compliance.Percentage, e.Compliance.RequiredMeals, e.Compliance.TotalMeals)
}

// CheckCompletion applies the completion preconditions in order: not yet
// completed, at least one meal, threshold reached.
func CheckCompletion(status models.AssignmentStatus, completed, total, thresholdPercent int) (Compliance, error) {
	if status == models.AssignmentCompleted {
		return Compliance{}, ErrAlreadyCompleted
	}
	if total == 0 {
		return Compliance{}, ErrNoMeals
	}
	c := Evaluate(completed, total, thresholdPercent)
	if !c.Meets() {
		return c, &BelowThresholdError{Compliance: c}
	}
	return c, nil
}

// StartOutcome says what start_plan should do given the user's existing
// assignments of the plan.
type StartOutcome int

const (
	StartCreate StartOutcome = iota
	StartExisting
)

// DecideStart returns StartExisting with the open assignment when one is
// active or paused, ErrAlreadyCompleted when the plan was completed, and
// StartCreate otherwise.
func DecideStart(existing []models.NutritionAssignment) (StartOutcome, *models.NutritionAssignment, error) {
	var open *models.NutritionAssignment
	for i := range existing {
		switch existing[i].Status {
		case models.AssignmentCompleted:
			return 0, nil, ErrAlreadyCompleted
		case models.AssignmentActive, models.AssignmentPaused:
			if open == nil {
				open = &existing[i]
			}
		}
	}
	if open != nil {
		return StartExisting, open, nil
	}
	return StartCreate, nil, nil
}

// EndDate is start plus the plan duration, or nil for open-ended plans.
func EndDate(start time.Time, durationDays int) *time.Time {
	if durationDays <= 0 {
		return nil
	}
	end := start.AddDate(0, 0, durationDays)
	return &end
}
