package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// newDocumentName builds identifiers like "EFK-202401-9F2C41AB".
func newDocumentName(prefix string, t time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("%s-%s-%s", prefix, t.Format("200601"), id[:8])
}

func stringPtr(s string) *string {
	return &s
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
