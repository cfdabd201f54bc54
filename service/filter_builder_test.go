package services

import (
	"testing"

	model "github.com/Itish41/EmployeeCounsel/models"
	"github.com/stretchr/testify/assert"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		ownerID   string
		sessionID *string
		want      model.Filter
	}{
		{
			name:    "permanent library",
			ownerID: "user-1",
			want:    model.Filter{Type: model.FilterEq, Key: "ownerId", Value: "user-1"},
		},
		{
			name:      "empty session is treated as absent",
			ownerID:   "user-1",
			sessionID: strPtr(""),
			want:      model.Filter{Type: model.FilterEq, Key: "ownerId", Value: "user-1"},
		},
		{
			name:      "conversation scope puts owner first",
			ownerID:   "user-1",
			sessionID: strPtr("sess-9"),
			want: model.Filter{Type: model.FilterAnd, Filters: []model.Filter{
				{Type: model.FilterEq, Key: "ownerId", Value: "user-1"},
				{Type: model.FilterEq, Key: "sessionId", Value: "sess-9"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilter(tt.ownerID, tt.sessionID))
		})
	}
}

func TestBuildFilterIsStable(t *testing.T) {
	a := BuildFilter("u", strPtr("s"))
	b := BuildFilter("u", strPtr("s"))
	assert.Equal(t, a, b)
}

func TestMatchesFilter(t *testing.T) {
	filter := BuildFilter("user-1", strPtr("sess-1"))

	assert.True(t, MatchesFilter(filter, map[string]any{"ownerId": "user-1", "sessionId": "sess-1", "documentKind": "contract"}))
	assert.False(t, MatchesFilter(filter, map[string]any{"ownerId": "user-1", "sessionId": "sess-2"}))
	assert.False(t, MatchesFilter(filter, map[string]any{"ownerId": "user-1"}))
	assert.False(t, MatchesFilter(BuildFilter("user-2", nil), map[string]any{"ownerId": "user-1"}))
}
