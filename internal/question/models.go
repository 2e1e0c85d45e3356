package question

// Kind tells the two exercise document shapes apart.
type Kind string

const (
	KindCategorize Kind = "categorize"
	KindCloze      Kind = "cloze"
)

// Item is a sortable unit. Category is the assignment last confirmed by the
// store; an empty Category means the item has not been sorted yet.
type Item struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Category struct {
	Name string `json:"name"`
}

// Exercise is the categorization document served by GET /api/question.
type Exercise struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Items       []Item     `json:"items"`
	Categories  []Category `json:"categories"`
}

// HasCategory reports whether name is one of the declared categories.
func (e Exercise) HasCategory(name string) bool {
	for _, c := range e.Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand the value out without
// sharing the backing arrays.
func (e Exercise) Clone() Exercise {
	out := e
	out.Items = append([]Item(nil), e.Items...)
	out.Categories = append([]Category(nil), e.Categories...)
	return out
}

// Move is a move intent: put ItemID into CategoryName.
type Move struct {
	ItemID       string `json:"itemId"`
	CategoryName string `json:"categoryName"`
}

// Blank matching modes.
const (
	MatchExact = "exact"
	MatchFuzzy = "fuzzy"
)

type Blank struct {
	Name    string   `json:"name"`
	Hint    string   `json:"hint,omitempty"`
	Answers []string `json:"answers,omitempty"` // stripped before serving to learners
	Mode    string   `json:"mode,omitempty"`    // exact|fuzzy
}

// Cloze is the fill-in-the-blank document. Text carries {{name}} placeholders,
// one per blank.
type Cloze struct {
	ID          string  `json:"id"`
	Kind        Kind    `json:"kind"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Text        string  `json:"text"`
	Blanks      []Blank `json:"blanks"`
}

// LearnerView drops answer keys.
func (c Cloze) LearnerView() Cloze {
	out := c
	out.Blanks = make([]Blank, len(c.Blanks))
	for i, b := range c.Blanks {
		b.Answers = nil
		b.Mode = ""
		out.Blanks[i] = b
	}
	return out
}

// Feedback is the POST /api/question response.
type Feedback struct {
	Message string  `json:"message"`
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Score   float64 `json:"score"`
}

type Submission struct {
	ID         string            `json:"id"`
	QuestionID string            `json:"question_id"`
	Answers    map[string]string `json:"answers"`
	Feedback   Feedback          `json:"feedback"`
	BlobKey    string            `json:"blob_key,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

type Summary struct {
	ID        string `json:"id"`
	Kind      Kind   `json:"kind"`
	Title     string `json:"title"`
	CreatedAt int64  `json:"created_at,omitempty"`
}
