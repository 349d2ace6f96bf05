package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"kgview/domain/core/entities"
	"kgview/domain/core/valueobjects"
)

// ContentAnalyzer derives display and similarity features from raw node text
type ContentAnalyzer interface {
	// ExtractKeyPhrases returns at most eight phrases, most significant first
	ExtractKeyPhrases(text string) []string

	// CategorizeContent assigns a category from keyword families
	CategorizeContent(text string) valueobjects.Category

	// SanitizeLabel turns a raw title, file name or URL into a display label
	SanitizeLabel(text string) string
}

const (
	minSentenceLength  = 15
	minSingleTerm      = 5
	minTwoWordPhrase   = 10
	minThreeWordPhrase = 15
	minPhraseLength    = 4
	longPhraseLength   = 15
	maxLabelRunes      = 40
	maxLabelWords      = 5
	labelEllipsis      = "…"
)

var (
	urlPattern         = regexp.MustCompile(`(?i)\b(?:[a-z][a-z0-9+.\-]*://|www\.)\S+`)
	uuidPattern        = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	hexIDPattern       = regexp.MustCompile(`(?i)\b[0-9a-f]{16,}\b`)
	identifierPattern  = regexp.MustCompile(`(?i)\b[a-z]+[_\-]?\d{3,}\b`)
	pathPattern        = regexp.MustCompile(`(?:[A-Za-z]:)?(?:[\\/][\w.\-]+){2,}[\\/]?`)
	fileNamePattern    = regexp.MustCompile(`(?i)\b[\w\-]+\.(?:pdf|txt|md|markdown|docx?|rtf|json|csv|tsv|html?|xml|ya?ml|py|js|ts|go|java|png|jpe?g|gif|svg)\b`)
	genericNounPattern = regexp.MustCompile(`(?i)\b(?:files?|documents?|docs?|ids?|untitled|filename|attachments?)\b`)

	sentenceSplitter  = regexp.MustCompile(`[.!?;\n]+`)
	clauseSplitter    = regexp.MustCompile(`[,:()\[\]{}"]+`)
	terminatorPattern = regexp.MustCompile(`[.!?;\n]`)

	labelProtocolPattern  = regexp.MustCompile(`(?i)^(?:[a-z][a-z0-9+.\-]*://|www\.)[^/\s]*/?`)
	labelExtensionPattern = regexp.MustCompile(`(?i)\.[a-z][a-z0-9]{0,4}$`)
	labelSeparatorPattern = regexp.MustCompile(`[_\-/\\.|]+`)
)

// minorWords stay lower case in labels unless they lead
var minorWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"nor": true, "of": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "by": true, "with": true, "from": true, "as": true, "vs": true,
	"via": true,
}

// categoryRule is one keyword family of the first-match category list
type categoryRule struct {
	category valueobjects.Category
	pattern  *regexp.Regexp
}

// DefaultContentAnalyzer implements ContentAnalyzer with lexical heuristics
type DefaultContentAnalyzer struct {
	stopWords map[string]bool
	rules     []categoryRule
}

// NewDefaultContentAnalyzer creates an analyzer with common English stop words
func NewDefaultContentAnalyzer() *DefaultContentAnalyzer {
	return &DefaultContentAnalyzer{
		stopWords: getDefaultStopWords(),
		rules:     defaultCategoryRules(),
	}
}

// JoinKeyPhrases renders a phrase list as text. ExtractKeyPhrases reads such
// text back as the same list.
func JoinKeyPhrases(phrases []string) string {
	return strings.Join(phrases, ", ")
}

// ExtractKeyPhrases extracts the most significant phrases from text
func (a *DefaultContentAnalyzer) ExtractKeyPhrases(text string) []string {
	cleaned := a.StripNoise(text)
	if runeLen(strings.TrimSpace(cleaned)) <= minSingleTerm {
		return []string{}
	}

	// Comma separated short items without sentence punctuation are a phrase
	// list already; keep their order.
	if items, ok := a.phraseList(cleaned); ok {
		return items
	}

	type candidate struct {
		phrase string
		count  int
		first  int
	}
	candidates := make(map[string]*candidate)
	order := 0
	add := func(phrase string) {
		if c, ok := candidates[phrase]; ok {
			c.count++
			return
		}
		candidates[phrase] = &candidate{phrase: phrase, count: 1, first: order}
		order++
	}

	for _, sentence := range sentenceSplitter.Split(cleaned, -1) {
		sentence = strings.TrimSpace(sentence)
		if runeLen(sentence) <= minSentenceLength {
			continue
		}
		for _, clause := range clauseSplitter.Split(sentence, -1) {
			tokens := tokenize(clause)
			for i, tok := range tokens {
				if a.isSingleTerm(tok) {
					add(tok)
				}
				for n := 2; n <= 3 && i+n <= len(tokens); n++ {
					if phrase, ok := a.window(tokens[i : i+n]); ok {
						add(phrase)
					}
				}
			}
		}
	}

	ranked := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, c)
	}
	score := func(c *candidate) int {
		if runeLen(c.phrase) > longPhraseLength {
			return c.count * 2
		}
		return c.count
	}
	sort.Slice(ranked, func(i, j int) bool {
		si, sj := score(ranked[i]), score(ranked[j])
		if si != sj {
			return si > sj
		}
		return ranked[i].first < ranked[j].first
	})

	phrases := make([]string, 0, entities.MaxKeyPhrases)
	for _, c := range ranked {
		if len(phrases) == entities.MaxKeyPhrases {
			break
		}
		if runeLen(c.phrase) > minPhraseLength {
			phrases = append(phrases, c.phrase)
		}
	}
	return phrases
}

// StripNoise removes identifiers, URLs, paths, file names and generic nouns
func (a *DefaultContentAnalyzer) StripNoise(text string) string {
	for _, p := range []*regexp.Regexp{
		urlPattern, uuidPattern, pathPattern, fileNamePattern,
		hexIDPattern, identifierPattern, genericNounPattern,
	} {
		text = p.ReplaceAllString(text, " ")
	}
	return text
}

// phraseList recognises text that is already a list of short phrases
func (a *DefaultContentAnalyzer) phraseList(text string) ([]string, bool) {
	if terminatorPattern.MatchString(text) {
		return nil, false
	}

	items := strings.Split(text, ",")
	phrases := make([]string, 0, len(items))
	seen := make(map[string]bool)
	for _, item := range items {
		tokens := a.trimStopWords(tokenize(item))
		if len(tokens) == 0 {
			continue
		}
		if len(tokens) > 3 {
			return nil, false
		}

		var phrase string
		var ok bool
		if len(tokens) == 1 {
			phrase, ok = tokens[0], a.isSingleTerm(tokens[0])
		} else {
			phrase, ok = a.window(tokens)
		}
		if !ok || runeLen(phrase) <= minPhraseLength || seen[phrase] {
			continue
		}
		seen[phrase] = true
		phrases = append(phrases, phrase)
		if len(phrases) == entities.MaxKeyPhrases {
			break
		}
	}
	return phrases, true
}

func (a *DefaultContentAnalyzer) isSingleTerm(tok string) bool {
	return runeLen(tok) > minSingleTerm && !a.stopWords[tok] && !isNumeric(tok)
}

// window joins a 2 or 3 word window when its edges are content words and it
// is long enough for its size
func (a *DefaultContentAnalyzer) window(tokens []string) (string, bool) {
	first, last := tokens[0], tokens[len(tokens)-1]
	if a.stopWords[first] || a.stopWords[last] || isNumeric(first) || isNumeric(last) {
		return "", false
	}
	phrase := strings.Join(tokens, " ")
	switch len(tokens) {
	case 2:
		return phrase, runeLen(phrase) > minTwoWordPhrase
	case 3:
		return phrase, runeLen(phrase) > minThreeWordPhrase
	}
	return "", false
}

func (a *DefaultContentAnalyzer) trimStopWords(tokens []string) []string {
	for len(tokens) > 0 && a.stopWords[tokens[0]] {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && a.stopWords[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}

// CategorizeContent returns the first matching category family
func (a *DefaultContentAnalyzer) CategorizeContent(text string) valueobjects.Category {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return valueobjects.CategoryConcept
	}
	for _, rule := range a.rules {
		if rule.pattern.MatchString(lower) {
			return rule.category
		}
	}
	return valueobjects.CategoryConcept
}

// SanitizeLabel produces a short title-cased display label
func (a *DefaultContentAnalyzer) SanitizeLabel(text string) string {
	label := strings.TrimSpace(strings.ToValidUTF8(text, ""))
	label = labelProtocolPattern.ReplaceAllString(label, "")
	label = labelExtensionPattern.ReplaceAllString(label, "")
	label = labelSeparatorPattern.ReplaceAllString(label, " ")

	words := strings.Fields(label)
	if len(words) == 0 {
		return "Untitled"
	}

	truncated := false
	if len(words) > maxLabelWords {
		words = words[:maxLabelWords]
		truncated = true
	}
	for i, w := range words {
		lower := strings.ToLower(w)
		if i > 0 && minorWords[lower] {
			words[i] = lower
			continue
		}
		words[i] = capitalize(w)
	}

	ellipsis := utf8.RuneCountInString(labelEllipsis)
	fits := func(ws []string) bool {
		n := utf8.RuneCountInString(strings.Join(ws, " "))
		if truncated {
			n += ellipsis
		}
		return n <= maxLabelRunes
	}
	if !fits(words) {
		truncated = true
	}
	for !fits(words) && len(words) > 1 {
		words = words[:len(words)-1]
	}

	label = strings.Join(words, " ")
	if !fits(words) {
		label = strings.TrimRightFunc(string([]rune(label)[:maxLabelRunes-ellipsis]), unicode.IsSpace)
	}
	if truncated {
		label += labelEllipsis
	}
	return label
}

// runeLen measures text in runes. Every length threshold uses it so that
// re-extracting a phrase list yields the same list.
func runeLen(text string) int {
	return utf8.RuneCountInString(text)
}

// tokenize breaks text into lowercase words of at least two characters
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if runeLen(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + w[size:]
}

func defaultCategoryRules() []categoryRule {
	family := func(c valueobjects.Category, patterns ...string) categoryRule {
		return categoryRule{
			category: c,
			pattern:  regexp.MustCompile(`\b(?:` + strings.Join(patterns, "|") + `)`),
		}
	}
	return []categoryRule{
		family(valueobjects.CategoryAlgorithm,
			`algorithm`, `sort(?:ing)?\b`, `dijkstra`, `recursion`, `recursive`,
			`dynamic programming`, `heuristic`, `greedy\b`, `big[- ]o\b`, `time complexity`),
		family(valueobjects.CategoryDataStructure,
			`data structure`, `linked list`, `arrays?\b`, `hash ?(?:table|map)`, `trees?\b`,
			`heaps?\b`, `stacks?\b`, `queues?\b`, `tries?\b`, `adjacency`),
		family(valueobjects.CategoryMathematics,
			`mathemat`, `theorem`, `equations?\b`, `calculus`, `algebra`, `probabilit`,
			`statistic`, `matri(?:x|ces)\b`, `proofs?\b`, `integrals?\b`, `lemma`),
		family(valueobjects.CategorySystem,
			`systems?\b`, `architecture`, `servers?\b`, `infrastructure`, `distributed`,
			`kernel`, `operating system`, `networks?\b`, `databases?\b`, `cluster`),
		family(valueobjects.CategoryProgramming,
			`programming`, `code\b`, `coding`, `functions?\b`, `python`, `javascript`,
			`golang`, `compiler`, `software`, `api\b`, `librar(?:y|ies)\b`),
		family(valueobjects.CategorySecurity,
			`security`, `encrypt`, `vulnerab`, `authenticat`, `attacks?\b`, `malware`,
			`cryptograph`, `firewall`, `exploit`),
		family(valueobjects.CategoryDocument,
			`document`, `report\b`, `papers?\b`, `articles?\b`, `pdf\b`, `manual\b`, `chapter`),
		family(valueobjects.CategoryTopic,
			`topics?\b`, `subjects?\b`, `field of`, `area of`, `discipline`),
		family(valueobjects.CategoryPrinciple,
			`principle`, `law of`, `axiom`, `guideline`, `rules? of thumb`),
		family(valueobjects.CategoryEntity,
			`person\b`, `people\b`, `organi[sz]ation`, `company`, `university`, `city\b`,
			`country\b`, `named\b`),
		{
			category: valueobjects.CategoryQuery,
			pattern:  regexp.MustCompile(`\?|\b(?:what is|how to|how does|why does|query|question)\b`),
		},
	}
}

// getDefaultStopWords returns a set of common English stop words
func getDefaultStopWords() map[string]bool {
	stopWords := map[string]bool{
		"the": true, "be": true, "to": true, "of": true, "and": true,
		"a": true, "in": true, "that": true, "have": true, "i": true,
		"it": true, "for": true, "not": true, "on": true, "with": true,
		"he": true, "as": true, "you": true, "do": true, "at": true,
		"this": true, "but": true, "his": true, "by": true, "from": true,
		"they": true, "we": true, "say": true, "her": true, "she": true,
		"or": true, "an": true, "will": true, "my": true, "one": true,
		"all": true, "would": true, "there": true, "their": true, "what": true,
		"so": true, "up": true, "out": true, "if": true, "about": true,
		"who": true, "get": true, "which": true, "go": true, "me": true,
		"when": true, "make": true, "can": true, "like": true, "time": true,
		"no": true, "just": true, "him": true, "know": true, "take": true,
		"people": true, "into": true, "year": true, "your": true, "good": true,
		"some": true, "could": true, "them": true, "see": true, "other": true,
		"than": true, "then": true, "now": true, "look": true, "only": true,
		"come": true, "its": true, "over": true, "think": true, "also": true,
		"back": true, "after": true, "use": true, "two": true, "how": true,
		"our": true, "work": true, "first": true, "well": true, "way": true,
		"even": true, "new": true, "want": true, "because": true, "any": true,
		"these": true, "give": true, "day": true, "most": true, "us": true,
		"is": true, "was": true, "are": true, "been": true, "has": true,
		"had": true, "were": true, "said": true, "did": true, "having": true,
		"may": true, "am": true, "should": true, "too": true, "very": true,
		"such": true, "each": true, "where": true, "between": true, "through": true,
		"while": true, "those": true, "being": true, "many": true, "used": true,
	}
	return stopWords
}
