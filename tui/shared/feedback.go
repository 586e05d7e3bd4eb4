package shared

import "time"

// FeedbackLevel controls styling and auto-clear duration.
type FeedbackLevel int

const (
	FeedbackInfo    FeedbackLevel = iota // transient, auto-clears 4s
	FeedbackSuccess                      // green styled, auto-clears 4s
	FeedbackWarning                      // yellow, auto-clears 8s
	FeedbackError                        // red, auto-clears 12s
)

// FeedbackTTL returns the auto-clear duration for a given level.
func FeedbackTTL(level FeedbackLevel) time.Duration {
	switch level {
	case FeedbackWarning:
		return 8 * time.Second
	case FeedbackError:
		return 12 * time.Second
	default:
		return 4 * time.Second
	}
}

// Feedback is a user-facing message shown in the status bar.
type Feedback struct {
	Level     FeedbackLevel
	Message   string
	Timestamp time.Time
}

// Expired reports whether f should no longer be shown at now.
func (f Feedback) Expired(now time.Time) bool {
	return f.Message == "" || now.Sub(f.Timestamp) >= FeedbackTTL(f.Level)
}

// Render styles the message for its level.
func (f Feedback) Render() string {
	switch f.Level {
	case FeedbackSuccess:
		return FeedbackSuccessStyle.Render(f.Message)
	case FeedbackWarning:
		return FeedbackWarningStyle.Render(f.Message)
	case FeedbackError:
		return FeedbackErrorStyle.Render(f.Message)
	default:
		return DimStyle.Render(f.Message)
	}
}

// FeedbackMsg delivers a feedback message to the app.
type FeedbackMsg struct {
	Feedback Feedback
}

// ClearFeedbackMsg clears the feedback stamped at Timestamp if it is still
// the one showing.
type ClearFeedbackMsg struct {
	Timestamp time.Time
}
