package cli

import (
	"strings"

	"github.com/felixgeelhaar/moodlens/internal/mood/domain"
)

// ParseManualMood validates a --manual flag value. Empty means no override.
func ParseManualMood(value string) (*domain.Mood, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	m, err := domain.ParseMood(value)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
