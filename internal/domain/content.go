package domain

// Identifiable is implemented by discovery-list items whose natural identity
// drives mixed-list de-duplication.
type Identifiable interface {
	Identity() string
}

// Profile is one inspiring individual returned by profile discovery.
type Profile struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Region      string   `json:"region"`
	Era         string   `json:"era"`
	Values      []string `json:"values"`
}

// Identity returns the natural identity used for de-duplication in lists.
func (p Profile) Identity() string { return p.Name }

// ScienceItem is one scientific concept or discovery returned by concept discovery.
type ScienceItem struct {
	Name        string   `json:"name"`
	Field       string   `json:"field"`
	Era         string   `json:"era"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (s ScienceItem) Identity() string { return s.Name }

// PhilosophyItem is one philosophy topic returned by philosophy discovery.
type PhilosophyItem struct {
	Name     string   `json:"name"`
	Origin   string   `json:"origin"`
	Era      string   `json:"era"`
	CoreIdea string   `json:"coreIdea"`
	Tags     []string `json:"tags"`
}

func (p PhilosophyItem) Identity() string { return p.Name }

// StoryContent is one language rendition of a biographical story.
type StoryContent struct {
	Title           string `json:"title"`
	Introduction    string `json:"introduction"`
	MainBody        string `json:"mainBody"`
	ValueReflection string `json:"valueReflection"`
}

// Geography accompanies a story with a fact about the subject's region.
type Geography struct {
	CountryName string `json:"countryName"`
	FunFact     string `json:"funFact"`
	MapPrompt   string `json:"mapPrompt"`
}

// Story is a bilingual biographical story with illustration references.
// GeneratedImageURL and GeneratedMapURL are filled per request and are not
// part of the cached document.
type Story struct {
	English            StoryContent `json:"english"`
	Hindi              StoryContent `json:"hindi"`
	IllustrationPrompt string       `json:"illustrationPrompt"`
	Geography          Geography    `json:"geography"`
	EnglishStyle       string       `json:"englishStyle,omitempty"`
	HindiStyle         string       `json:"hindiStyle,omitempty"`
	GeneratedImageURL  string       `json:"generatedImageUrl,omitempty"`
	GeneratedMapURL    string       `json:"generatedMapUrl,omitempty"`
}

// ScienceEntry is a generated science document for one concept.
type ScienceEntry struct {
	Title                string   `json:"title"`
	ConceptDefinition    string   `json:"conceptDefinition"`
	HumanStory           string   `json:"humanStory"`
	ExperimentOrActivity string   `json:"experimentOrActivity"`
	Sources              []string `json:"sources"`
	IllustrationPrompt   string   `json:"illustrationPrompt"`
	GeneratedImageURL    string   `json:"generatedImageUrl,omitempty"`
}

// PhilosophyEntry is a generated philosophy document for one topic.
type PhilosophyEntry struct {
	Title               string   `json:"title"`
	CoreIdeaExplanation string   `json:"coreIdeaExplanation"`
	HistoricalEpisode   string   `json:"historicalEpisode"`
	ModernRelevance     string   `json:"modernRelevance"`
	Sources             []string `json:"sources"`
	IllustrationPrompt  string   `json:"illustrationPrompt"`
	GeneratedImageURL   string   `json:"generatedImageUrl,omitempty"`
}
