package content

import (
	"fmt"
	"strings"

	"github.com/lumina-labs/lumina-backend/internal/domain"
)

// Prompt builders for the structured text generator. Each prompt names the
// exact JSON shape expected back so the response can be decoded directly
// into the domain type.

func profilesPrompt(n int, category, language string) string {
	if language == "" {
		language = "English"
	}
	return fmt.Sprintf(`Generate a JSON array of %d inspiring individuals in the category: %q.
Language: %s.

Each array element must be an object with exactly these string fields:
"name", "title", "description", "region", "era", and "values" (an array of 3 strings).

CRITICAL REQUIREMENTS:
1. Diversity is mandatory. Focus on diversity in gender, culture, and region. Include individuals from at least 3 different continents (e.g. Asia, Africa, North America, South America, Europe).
2. Era variety is mandatory. Mix ancient, medieval, early modern, and modern figures.
3. The "values" field should list 3 key virtues they embody.

Respond with the JSON array only.`, n, category, language)
}

func conceptsPrompt(n int, field string) string {
	return fmt.Sprintf(`Suggest a JSON array of %d scientific concepts or discoveries in the field: %q.

Each array element must be an object with fields:
"name", "field", "era", "description", and "tags" (an array of strings).

CRITICAL REQUIREMENTS:
1. Include at least one discovery from non-Western science or technology.
2. Include a mix of foundational discoveries (old) and modern breakthroughs.
3. Focus on the story behind the concept for children and how it was impactful for humanity.

Respond with the JSON array only.`, n, field)
}

func philosophiesPrompt(n int, theme string) string {
	return fmt.Sprintf(`Suggest a JSON array of %d philosophy topics regarding %q.

Each array element must be an object with fields:
"name", "origin", "era", "coreIdea", and "tags" (an array of strings).

CRITICAL REQUIREMENTS:
1. You MUST provide a mix of Eastern (Indian, Chinese, Japanese) and Western (Greek, European) schools of thought.
2. Do not limit to just one region or one era.
3. Ensure the ideas are useful, important and interesting for a younger audience.

Respond with the JSON array only.`, n, theme)
}

func storyPrompt(p generateStoryPayload) string {
	return fmt.Sprintf(`Write a biographical story for children about %s (%s) from %s (%s).

I need TWO versions of the story.

1. English Version:
   - Style: Emulate the writing style of %s (%s).
   - IMPORTANT: Use standard, grammatically correct English. Do NOT use heavy dialect, phonetic spelling, or slang that makes words hard to read (e.g. write "you" not "yer", "listen" not "llsten").
   - Tone: Inspiring, warm, educational.
   - Length: Approximately 850 words.

2. Hindi Version:
   - Style: Emulate the writing style of %s.
   - Characteristics: %s
   - CRITICAL: Do NOT translate the English story. Write a completely independent retelling.
   - Use standard Hindi grammar and spelling.
   - Length: Approximately 850 words.

Structure for both:
1. Title: Captivating.
2. Introduction: Who they are.
3. Main Story: Early life, challenges, turning points, and how they upheld values like %s. How their contribution impacted the world.
4. Value Reflection: A summary lesson.

Respond with a single JSON object with fields:
"english" and "hindi", each an object with string fields "title", "introduction", "mainBody", "valueReflection";
"illustrationPrompt", a prompt for a main illustration scene (artistic, detailed);
"geography", an object with string fields "countryName", "funFact" (a fun fact about %s), "mapPrompt".

Respond with the JSON object only.`,
		p.Profile.Name, p.Profile.Title, p.Profile.Region, p.Profile.Era,
		p.EnglishStyleName, p.EnglishStyleDesc,
		p.HindiStyleName, p.HindiStyleDesc,
		strings.Join(p.Profile.Values, ", "),
		p.Profile.Region,
	)
}

func sciencePrompt(item domain.ScienceItem) string {
	return fmt.Sprintf(`Write a children's science entry about: %s.
Field: %s.
Era: %s.
Description: %s.
Audience: Children 8-15.
Tone: curious, factual.
Constraint: Write roughly 900 words.
CRITICAL CONSTRAINTS:
1. Write in STANDARD English.
2. Do NOT use phonetic spelling (e.g. never write "Iagine" for "Imagine", "Te" for "The").
3. Do NOT use heavy dialect or accents.
Focus on the narrative of how it was discovered or developed. How it is useful for humanity.

Respond with a single JSON object with fields:
"title", "conceptDefinition", "humanStory", "experimentOrActivity",
"sources" (an array of strings), and "illustrationPrompt".

Respond with the JSON object only.`, item.Name, item.Field, item.Era, item.Description)
}

func philosophyPrompt(item domain.PhilosophyItem) string {
	return fmt.Sprintf(`Write a children's philosophy entry about: %s.
Origin: %s.
Era: %s.
Core Idea: %s.
Constraint: Write roughly 800 words.
The idea is to introduce children to the development of %s and its positive impact on the world.
Simplify the complex thought into an interesting lesson.
CRITICAL CONSTRAINTS:
1. Write in STANDARD English.
2. Do NOT use phonetic spelling (e.g. never write "Iagine" for "Imagine", "Te" for "The").
3. Do NOT use heavy dialect or accents.

Respond with a single JSON object with fields:
"title", "coreIdeaExplanation", "historicalEpisode", "modernRelevance",
"sources" (an array of strings), and "illustrationPrompt".

Respond with the JSON object only.`, item.Name, item.Origin, item.Era, item.CoreIdea, item.Name)
}
