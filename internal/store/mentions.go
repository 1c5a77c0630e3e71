package store

import (
	"regexp"

	"kanban-board-api/internal/models"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// ParseMentions resolves "@name" tokens in a comment against team member
// display names and returns the matched user ids, deduplicated, in order of
// first appearance. Tokens that match no member are silently dropped.
func ParseMentions(content string, members []models.TeamMember) []string {
	ids := []string{}
	seen := make(map[string]struct{})

	for _, match := range mentionPattern.FindAllStringSubmatch(content, -1) {
		name := match[1]
		for _, member := range members {
			if member.Profile == nil || member.Profile.FullName != name {
				continue
			}
			if _, dup := seen[member.UserID]; !dup {
				seen[member.UserID] = struct{}{}
				ids = append(ids, member.UserID)
			}
			break
		}
	}
	return ids
}
