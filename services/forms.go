package services

import (
	"fmt"
	"strings"

	"github.com/campusfest/techfest-system/models"
)

// ValidateFormData checks submitted answers against an event's question set.
// Every required question must have a non-empty (after trimming) answer keyed
// by its exact label. Unknown keys are lenient: they pass through and are
// stored as submitted.
func ValidateFormData(cfg models.FormConfig, data models.StringMap) error {
	for _, field := range cfg {
		if !field.Required {
			continue
		}
		value, ok := data[field.Label]
		if !ok || strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %q", ErrMissingRequiredField, field.Label)
		}
	}
	return nil
}

// FilterBlankMembers drops blank member names, preserving order.
func FilterBlankMembers(members []string) models.StringList {
	filtered := make(models.StringList, 0, len(members))
	for _, m := range members {
		if strings.TrimSpace(m) != "" {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// NormalizeTeam validates the team shape of a registration and returns the
// member list to persist. Blank names are dropped BEFORE the size check, so
// the persisted list and the validated count always agree. The registering
// student is an implicit member and counts toward the team size.
func NormalizeTeam(event *models.Event, teamName *string, members []string) (models.StringList, error) {
	filtered := FilterBlankMembers(members)

	if !event.IsTeamEvent {
		return filtered, nil
	}

	if teamName == nil || strings.TrimSpace(*teamName) == "" {
		return nil, ErrTeamNameRequired
	}

	size := len(filtered) + 1
	if size < event.MinTeamSize || size > event.MaxTeamSize {
		return nil, fmt.Errorf("%w: team of %d, allowed %d to %d",
			ErrTeamSizeViolation, size, event.MinTeamSize, event.MaxTeamSize)
	}

	return filtered, nil
}
