package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// isUniqueConstraintError inspects driver errors for unique index violations.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// recordActivity logs the supplied entry while tolerating activity-log failures.
func recordActivity(activity *ActivityService, ctx context.Context, entry ActivityEntry) {
	if activity == nil {
		return
	}
	_ = activity.Log(ctx, entry)
}
