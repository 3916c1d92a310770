package util

import "errors"

var (
	ErrPermissionDenied = errors.New("permission denied")

	ErrJobNotFound     = errors.New("job not found")
	ErrJobClosed       = errors.New("job is closed")
	ErrInvalidCriteria = errors.New("invalid qualification criteria")

	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentExists   = errors.New("job already has an assessment")
	ErrAssessmentLocked   = errors.New("assessment questions are locked: applications have already been scored")
	ErrInvalidQuestion    = errors.New("invalid question definition")

	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("candidate already applied to this job")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotInProgress        = errors.New("application is not in progress")
	ErrAttemptExpired       = errors.New("assessment time limit exceeded")
	ErrInvalidAccessToken   = errors.New("invalid attempt access token")
	ErrQuestionNotFound     = errors.New("question not found in assessment")
	ErrInvalidAnswer        = errors.New("invalid answer payload")
	ErrInvalidEvent         = errors.New("invalid proctoring event")
)
