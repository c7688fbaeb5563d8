package analysis

// Result is the outcome of one analysis run, as produced by the vision
// oracle. Only OverallScore and Features are guaranteed to be present; all
// other fields may be zero-valued and consumers must tolerate that.
type Result struct {
	OverallScore      float64              `json:"overallScore"`
	OverallRating     string               `json:"overallRating"`
	Features          []Feature            `json:"features"`
	Recommendations   []Recommendation     `json:"recommendations"`
	DetailedBreakdown map[string]Breakdown `json:"detailedBreakdown"`
}

// Feature is one scored facial-style attribute. ID is used as a list key and
// is expected to be unique within a result, but uniqueness is not enforced.
type Feature struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Score       float64 `json:"score"`
	Rating      string  `json:"rating"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`

	Percent      float64  `json:"percent,omitempty"`
	Keywords     string   `json:"keywords,omitempty"`
	FeedbackGood string   `json:"feedbackgood,omitempty"`
	FeedbackBad  string   `json:"feedbackbad,omitempty"`
	Improvement1 string   `json:"improvement1,omitempty"`
	Improvement2 string   `json:"improvement2,omitempty"`
	Improvement3 string   `json:"improvement3,omitempty"`
	Improvement4 string   `json:"improvement4,omitempty"`
	Types        []string `json:"types,omitempty"`
}

type Recommendation struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Color       string `json:"color"`
}

// Breakdown holds per-feature detail. The DetailedBreakdown map is not
// guaranteed to have an entry for every feature name.
type Breakdown struct {
	Subcategories []Subcategory `json:"subcategories"`
	Tips          []Tip         `json:"tips"`
}

type Subcategory struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Color string  `json:"color"`
}

type Tip struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// FeatureNames lists the twelve categories the oracle is asked to analyze,
// in the order they appear in the prompt.
var FeatureNames = []string{
	"Eyebrows",
	"Eyes",
	"Nose",
	"Lips",
	"Face shape",
	"Skin",
	"Hair",
	"Chin",
	"Overall impression",
	"Jawline",
	"Cheekbones",
	"Forehead",
}
