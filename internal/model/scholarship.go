package model

// Scholarship categories and fields used by the catalog.  The lists
// are open ended; these constants name only the values the matching
// rules key off.
const (
	CategoryMerit     = "merit"
	CategoryNeedBased = "need-based"
	CategoryTechnical = "technical"
	CategoryMinority  = "minority"
	CategoryGeneral   = "general"

	FieldGeneral     = "general"
	FieldEngineering = "engineering"
)

// Scholarship is a read-only catalog entry describing one award and
// its eligibility criteria.  Entries are immutable for the duration
// of a scoring run.
//
// Eligibility is expressed both structurally (AgeRange, Gender,
// IncomeCeiling, Category) and as free-text Requirements kept for
// display.  IncomeCeiling is the authoritative income bound when
// non-zero; older catalog entries encode the bound inside a
// requirement sentence ("Family income < ₹2,00,000"), which the
// scoring engine still understands.
//
// Fields:
//  ID          – stable catalog identifier.
//  Name        – award name shown to students.
//  Provider    – granting body.
//  Category    – merit, need-based, technical, minority or general.
//  Field       – field of study the award targets ("general" = any).
//  Gender      – "any" or a specific gender.
//  AgeRange    – inclusive [min, max] age bounds.
//  IncomeCeiling – max annual family income in rupees (0 = not set here).
//  Amount      – display string for the award amount.
//  Deadline    – display string for the application deadline.
//  Benefits    – what the award covers.
//  Requirements – eligibility sentences shown to students.
//  Steps       – how to apply.
//  Link        – external application URL.
type Scholarship struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Provider      string   `json:"provider"`
	Category      string   `json:"category"`
	Field         string   `json:"field"`
	Gender        string   `json:"gender"`
	AgeRange      [2]int   `json:"ageRange"`
	IncomeCeiling uint64   `json:"income_ceiling,omitempty"`
	Amount        string   `json:"amount"`
	Deadline      string   `json:"deadline"`
	Benefits      []string `json:"benefits,omitempty"`
	Requirements  []string `json:"requirements"`
	Steps         []string `json:"steps,omitempty"`
	Link          string   `json:"link,omitempty"`
}

// ScoredMatch pairs a catalog entry with its computed eligibility
// score and the ordered reasons the rules fired.  Produced fresh on
// every scoring run and never mutated in place.
type ScoredMatch struct {
	Scholarship      `json:"scholarship"`
	EligibilityScore int      `json:"eligibility_score"`
	MatchReasons     []string `json:"match_reasons"`
	ApplicationLink  string   `json:"application_link,omitempty"`
}
