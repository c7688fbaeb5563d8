package analysis

// ScoreColor returns the hex color band for a score. Bands are a pure
// function of the score with breakpoints at 7.0, 7.5, 8.0 and 8.5.
func ScoreColor(score float64) string {
	switch {
	case score >= 8.5:
		return "#00FF88"
	case score >= 8.0:
		return "#44FF44"
	case score >= 7.5:
		return "#88FF00"
	case score >= 7.0:
		return "#FFAA00"
	default:
		return "#FF6644"
	}
}

// ProgressColors returns the gradient pair (start, end) used for
// progress-bar fills, banded the same way as ScoreColor.
func ProgressColors(score float64) [2]string {
	switch {
	case score >= 8.5:
		return [2]string{"#00FF88", "#00CC66"}
	case score >= 8.0:
		return [2]string{"#44FF44", "#22CC22"}
	case score >= 7.5:
		return [2]string{"#88FF00", "#66CC00"}
	case score >= 7.0:
		return [2]string{"#FFAA00", "#CC8800"}
	default:
		return [2]string{"#FF6644", "#CC4422"}
	}
}

var featureIcons = map[string]string{
	"Eyebrows":           "🤨",
	"Eyes":               "👁️",
	"Nose":               "👃",
	"Lips":               "👄",
	"Face shape":         "🔷",
	"Skin":               "✨",
	"Hair":               "💇",
	"Chin":               "🫵",
	"Overall impression": "🌟",
	"Jawline":            "💪",
	"Cheekbones":         "💎",
	"Forehead":           "🧠",
}

// FeatureIcon returns the display icon for a feature name, with a generic
// fallback for names outside the known twelve.
func FeatureIcon(name string) string {
	if icon, ok := featureIcons[name]; ok {
		return icon
	}
	return "⭐"
}
