package observation

import (
	"testing"

	"agent-evaluator/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	assert.Equal(t, "", ExtractText(nil))
	assert.Equal(t, "", ExtractText(&entity.Observation{}))
	assert.Equal(t, "[1] RootWebArea 'Inbox'", ExtractText(&entity.Observation{Text: "[1] RootWebArea 'Inbox'"}))
}

func TestIsSuccess(t *testing.T) {
	const criterion = "No messages matched"

	tests := []struct {
		name string
		obs  *entity.Observation
		want bool
	}{
		{"exact substring", &entity.Observation{Text: "[12] StaticText 'No messages matched your search'"}, true},
		{"different case", &entity.Observation{Text: "[12] StaticText 'no messages matched'"}, false},
		{"absent", &entity.Observation{Text: "[3] button 'Compose'"}, false},
		{"empty text", &entity.Observation{}, false},
		{"nil observation", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuccess(tt.obs, criterion))
		})
	}
}

func TestIsSuccess_EmptyCriterion(t *testing.T) {
	assert.False(t, IsSuccess(&entity.Observation{Text: "anything"}, ""))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
	assert.Equal(t, "абв", Preview("абв", 0))
	assert.Equal(t, "а...", Preview("абв", 3))
}
