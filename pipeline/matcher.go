package pipeline

import (
	"strings"

	"signal-desk/models"
	"signal-desk/oracle"
)

// MatchStory decides whether a classification belongs to an existing
// story. A story matches when its title contains the topic
// (case-insensitive) or any classified entity is a literal substring of
// the title (case-sensitive). First match in collection order wins; no
// scoring among multiple matches.
//
// The asymmetric case handling between the topic and entity checks is
// intentional: existing story collections were clustered under it.
func MatchStory(stories []models.Story, c *oracle.Classification) (models.Story, bool) {
	topic := strings.ToLower(c.Topic)

	for _, story := range stories {
		if strings.Contains(strings.ToLower(story.Title), topic) {
			return story, true
		}
		for _, entity := range c.Entities {
			if entity != "" && strings.Contains(story.Title, entity) {
				return story, true
			}
		}
	}
	return models.Story{}, false
}
