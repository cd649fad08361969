// Package idgen issues plan identifiers.
package idgen

import "github.com/google/uuid"

// NewPlanID returns a fresh plan identifier. The "plan-" prefix keeps IDs
// recognizable in logs and storage paths shared with other artifacts.
func NewPlanID() string {
	return "plan-" + uuid.New().String()
}
