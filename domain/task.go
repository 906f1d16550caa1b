package domain

// Priority levels in severity order.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DefaultPriority is assigned when a draft leaves priority unset.
const DefaultPriority = PriorityMedium

// Categories is the fixed category set. The first entry is the default.
var Categories = []string{
	"general",
	"work",
	"home",
	"shopping",
	"health",
	"study",
	"goals",
	"personal",
}

// ColorPalette holds the cosmetic stripe colors tasks are tagged with.
// ColorTag is an index into this slice.
var ColorPalette = []string{
	"#ff6b6b", "#4ecdc4", "#ffe66d", "#a29bfe",
	"#fd79a8", "#55efc4", "#fdcb6e", "#74b9ff",
}

// Task represents a single to-do item owned by one account.
type Task struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	Priority  string `json:"priority"`
	Category  string `json:"category"`
	DueDate   string `json:"dueDate,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt int64  `json:"createdAt"`
	ColorTag  int    `json:"colorTag"`
}

// Draft is the input payload for creating a task, prior to id and
// metadata assignment. Unset priority/category fall back to defaults.
type Draft struct {
	Text     string `json:"text"`
	Priority string `json:"priority,omitempty"`
	Category string `json:"category,omitempty"`
	DueDate  string `json:"dueDate,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Patch carries partial updates for a task. Nil fields are left alone;
// a pointer to the empty string clears DueDate or Notes.
type Patch struct {
	Text     *string `json:"text,omitempty"`
	Done     *bool   `json:"done,omitempty"`
	Priority *string `json:"priority,omitempty"`
	Category *string `json:"category,omitempty"`
	DueDate  *string `json:"dueDate,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// ValidPriority reports whether p is a recognized priority value.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidCategory reports whether c belongs to the fixed category set.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// PriorityRank maps a priority to its severity rank, high first.
// Unknown values rank after low so malformed data sorts last.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}
