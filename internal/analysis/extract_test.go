package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := map[string]struct {
		raw     string
		want    string
		wantErr bool
	}{
		"bare object": {
			raw:  `{"overallScore":8.2}`,
			want: `{"overallScore":8.2}`,
		},
		"prose around object": {
			raw:  `Sure! {"overallScore":8.2,"features":[]} Thanks`,
			want: `{"overallScore":8.2,"features":[]}`,
		},
		"no opening brace": {
			raw:     `overallScore: 8.2}`,
			wantErr: true,
		},
		"no closing brace": {
			raw:     `{"overallScore": 8.2`,
			wantErr: true,
		},
		"no braces at all": {
			raw:     `I analyzed the image and it looks great`,
			wantErr: true,
		},
		"closing brace before opening": {
			raw:     `} oops {`,
			wantErr: true,
		},
		"empty input": {
			raw:     ``,
			wantErr: true,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ExtractJSON(tc.raw)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedResponse)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("accepts prose-wrapped object with empty features", func(t *testing.T) {
		result, err := ParseResponse(`Sure! {"overallScore":8.2,"features":[]} Thanks`)
		require.NoError(t, err)
		assert.Equal(t, 8.2, result.OverallScore)
		assert.NotNil(t, result.Features)
		assert.Empty(t, result.Features)
	})

	t.Run("rejects output without braces as malformed", func(t *testing.T) {
		_, err := ParseResponse(`the image could not be scored`)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("rejects unparseable object as malformed", func(t *testing.T) {
		_, err := ParseResponse(`{"overallScore": 8.2,,}`)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("rejects missing overallScore", func(t *testing.T) {
		_, err := ParseResponse(`{"features":[]}`)
		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	// A score of exactly 0 is indistinguishable from an absent one and is
	// rejected. Quirk, but intentional: do not "fix" without changing the
	// accepted-input contract.
	t.Run("rejects zero overallScore", func(t *testing.T) {
		_, err := ParseResponse(`{"overallScore": 0, "features": [1]}`)
		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	t.Run("rejects missing features", func(t *testing.T) {
		_, err := ParseResponse(`{"overallScore": 8.2}`)
		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	t.Run("rejects non-array features", func(t *testing.T) {
		_, err := ParseResponse(`{"overallScore": 8.2, "features": {"a": 1}}`)
		assert.ErrorIs(t, err, ErrInvalidResult)
	})

	t.Run("parses full result", func(t *testing.T) {
		raw := `Here is your analysis:
{
  "overallScore": 8.4,
  "overallRating": "Excellent",
  "features": [
    {"id": "jawline", "name": "Jawline", "description": "Well defined", "score": 8.1, "rating": "Great", "color": "#44FF44", "icon": "💪", "percent": 82, "types": ["angular", "defined"]}
  ],
  "recommendations": [
    {"id": "r1", "title": "Hydration", "description": "Drink more water", "category": "Skin", "color": "#00FF88"}
  ],
  "detailedBreakdown": {
    "Jawline": {
      "subcategories": [{"name": "Definition", "score": 8.3, "color": "#44FF44"}],
      "tips": [{"title": "Posture", "description": "Keep chin level", "color": "#88FF00"}]
    }
  }
}
Hope this helps!`
		result, err := ParseResponse(raw)
		require.NoError(t, err)
		assert.Equal(t, 8.4, result.OverallScore)
		assert.Equal(t, "Excellent", result.OverallRating)
		require.Len(t, result.Features, 1)
		assert.Equal(t, "Jawline", result.Features[0].Name)
		assert.Equal(t, []string{"angular", "defined"}, result.Features[0].Types)
		require.Len(t, result.Recommendations, 1)
		require.Contains(t, result.DetailedBreakdown, "Jawline")
		assert.Equal(t, "Definition", result.DetailedBreakdown["Jawline"].Subcategories[0].Name)
	})
}
