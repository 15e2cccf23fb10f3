// Package service implements the GestorCoop use cases on top of the store ports.
// Filtering, grouping and aggregation the dashboard needs run here over the
// caller's (small) collections.
package service

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gestorcoop/gestorcoop-bff-go/internal/domain"
	"github.com/gestorcoop/gestorcoop-bff-go/internal/port"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("service")

// Clock returns the current time; tests replace it.
type Clock func() time.Time

// Every per-user snapshot lives under userPrefix so one write clears them all.
func userPrefix(userID string) string   { return fmt.Sprintf("user:%s:", userID) }
func dashboardKey(userID string) string { return userPrefix(userID) + "dashboard" }
func rosterKey(userID string) string    { return userPrefix(userID) + "roster" }

// invalidateUser drops every cached snapshot derived from the user's rows.
func invalidateUser(c port.Cache[any], userID string) {
	if c == nil {
		return
	}
	c.DeletePrefix(userPrefix(userID))
}

func noFields(row map[string]any) error {
	if len(row) == 0 {
		return &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}
	return nil
}

// isAll reports whether a filter value selects everything.
func isAll(v string, all ...string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	for _, a := range all {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

