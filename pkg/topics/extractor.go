package topics

import (
	"regexp"
	"sort"
	"strings"

	"docgraph/pkg/common"
)

const (
	defaultMinWordLength = 4
	defaultMaxTopics     = 5

	// Business-concept matches outrank raw keyword frequency.
	conceptScoreFactor = 2.0

	keywordCandidateLimit = 10
	keywordMinFrequency   = 2
)

// wordPattern captures maximal word-character runs, digits and underscores
// included. Mixed runs like "dent123" are discarded as a whole instead of
// contributing their letter prefix as a word, so variant matching behaves
// like whole-word matching.
var wordPattern = regexp.MustCompile(`[0-9_a-zàâäéèêëïîôùûüÿæœç]+`)

var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

var accentReplacer = strings.NewReplacer(
	"à", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"ï", "i", "î", "i",
	"ô", "o", "ö", "o",
	"ù", "u", "û", "u", "ü", "u",
	"ÿ", "y",
	"ç", "c",
)

// concept is one entry of the business-concept dictionary: a canonical
// name and the surface forms that count as a match for it.
type concept struct {
	name     string
	variants []string
}

// businessConcepts is the fixed dictionary of domain concepts. Order
// matters: concepts are merged before keywords, so dictionary order is the
// tie-break for equal scores.
var businessConcepts = []concept{
	{"assurance", []string{"assurance", "assurances", "assurantiel", "assureur"}},
	{"remboursement", []string{"remboursement", "remboursements", "rembourser", "remboursé"}},
	{"dentaire", []string{"dentaire", "dentaires", "dent", "dents", "dentiste", "orthodontie"}},
	{"santé", []string{"santé", "médical", "médicale", "soins", "patient", "patients"}},
	{"mutuelle", []string{"mutuelle", "mutuelles", "mutualité", "mutualités"}},
	{"contrat", []string{"contrat", "contrats", "contractuel", "contractuelle"}},
	{"intervention", []string{"intervention", "interventions"}},
	{"plafond", []string{"plafond", "plafonds"}},
	{"prestation", []string{"prestation", "prestations"}},
	{"bénéficiaire", []string{"bénéficiaire", "bénéficiaires"}},
	{"facture", []string{"facture", "factures", "facturation"}},
	{"paiement", []string{"paiement", "paiements", "payé", "payer"}},
	{"compte", []string{"compte", "comptes"}},
	{"client", []string{"client", "clients", "clientèle"}},
	{"document", []string{"document", "documents", "documentation"}},
	{"période", []string{"période", "périodes", "date", "dates"}},
	{"montant", []string{"montant", "montants", "somme", "sommes"}},
}

// stopWords are common French (plus a few English) words excluded from
// keyword extraction.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"le", "la", "les", "un", "une", "des", "de", "du", "et", "ou", "mais",
		"dans", "pour", "par", "sur", "avec", "sans", "sous", "vers", "chez",
		"est", "sont", "être", "avoir", "fait", "faire", "peut", "plus", "tout",
		"tous", "toute", "toutes", "cette", "ces", "son", "sa", "ses", "leur",
		"leurs", "notre", "nos", "votre", "vos", "mon", "ma", "mes", "ce", "cet",
		"qui", "que", "quoi", "dont", "où", "comment", "quand", "pourquoi",
		"très", "bien", "aussi", "encore", "déjà", "jamais", "toujours", "souvent",
		"vous", "nous", "ils", "elles", "lui", "elle", "eux", "je", "tu", "il",
		"avez", "avons", "ont", "été", "était", "étaient", "sera", "seront",
		"the", "and", "or", "but", "in", "on", "at", "to", "for", "of", "with",
	} {
		stopWords[w] = struct{}{}
	}
}

// ExtractorConfig bounds keyword extraction.
type ExtractorConfig struct {
	MinWordLength int
	MaxTopics     int
}

// Extractor derives ranked topic candidates from chunk text using the
// business-concept dictionary and word-frequency statistics. It holds no
// per-document state and is safe for concurrent use.
type Extractor struct {
	minWordLength int
	maxTopics     int
}

// NewExtractor creates an Extractor. Zero or negative config values fall
// back to the defaults.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	e := &Extractor{
		minWordLength: cfg.MinWordLength,
		maxTopics:     cfg.MaxTopics,
	}
	if e.minWordLength <= 0 {
		e.minWordLength = defaultMinWordLength
	}
	if e.maxTopics <= 0 {
		e.maxTopics = defaultMaxTopics
	}
	return e
}

// ExtractTopics returns the ranked topics of a text, at most MaxTopics.
//
// Business concepts are scored by whole-word variant matches, weighted by
// conceptScoreFactor; keywords are scored by raw frequency. When a name is
// both a concept and a frequent keyword the concept entry wins. The sort is
// stable, so entries with equal scores keep merge order: dictionary order
// first, then keyword frequency order.
func (e *Extractor) ExtractTopics(text string) []common.ScoredTopic {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	lower := strings.ToLower(text)
	tokens := wordPattern.FindAllString(lower, -1)

	words := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if strings.ContainsAny(token, "0123456789_") {
			continue
		}
		words = append(words, token)
	}

	frequency := make(map[string]int, len(words))
	for _, word := range words {
		frequency[word]++
	}

	var merged []common.ScoredTopic
	taken := make(map[string]struct{})

	for _, c := range businessConcepts {
		count := 0
		for _, variant := range c.variants {
			count += frequency[variant]
		}
		if count > 0 {
			merged = append(merged, common.ScoredTopic{
				Name:  c.name,
				Score: float64(count) * conceptScoreFactor,
				Type:  common.TopicBusinessConcept,
			})
			taken[c.name] = struct{}{}
		}
	}

	for _, kw := range e.extractKeywords(words) {
		if _, ok := taken[kw.Name]; ok {
			continue
		}
		merged = append(merged, kw)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	if len(merged) > e.maxTopics {
		merged = merged[:e.maxTopics]
	}
	return merged
}

// extractKeywords counts frequent words after dropping stop words and
// short words, and keeps the top candidates with at least
// keywordMinFrequency occurrences. Ties are broken by first occurrence in
// the text, which keeps the result deterministic.
func (e *Extractor) extractKeywords(words []string) []common.ScoredTopic {
	type candidate struct {
		word  string
		count int
		first int
	}

	counts := make(map[string]*candidate)
	var order []*candidate
	for i, word := range words {
		if len([]rune(word)) < e.minWordLength {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if c, ok := counts[word]; ok {
			c.count++
			continue
		}
		c := &candidate{word: word, count: 1, first: i}
		counts[word] = c
		order = append(order, c)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	var keywords []common.ScoredTopic
	for _, c := range order {
		if len(keywords) >= keywordCandidateLimit {
			break
		}
		if c.count < keywordMinFrequency {
			continue
		}
		keywords = append(keywords, common.ScoredTopic{
			Name:  c.word,
			Score: float64(c.count),
			Type:  common.TopicKeyword,
		})
	}
	return keywords
}

// NormalizeTopicID turns a topic display name into its stable identifier:
// lower-cased, French accents transliterated, runs of non-alphanumeric
// characters collapsed to single underscores, prefixed with "topic_".
//
// This function is the sole identity key for topic deduplication: two
// display names that normalize to the same id are the same topic.
func NormalizeTopicID(name string) string {
	normalized := strings.ToLower(name)
	normalized = accentReplacer.Replace(normalized)
	normalized = nonSlugPattern.ReplaceAllString(normalized, "_")
	normalized = strings.Trim(normalized, "_")
	return "topic_" + normalized
}

// ExtractTopicsBatch extracts topics for every chunk and returns, per chunk
// id, the deduplicated set of normalized topic ids, sorted for stable
// iteration. Ranking order is discarded.
func (e *Extractor) ExtractTopicsBatch(chunks []common.Chunk) map[string][]string {
	chunkTopics := make(map[string][]string, len(chunks))

	for _, chunk := range chunks {
		set := make(map[string]struct{})
		for _, topic := range e.ExtractTopics(chunk.Content) {
			set[NormalizeTopicID(topic.Name)] = struct{}{}
		}

		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		chunkTopics[chunk.ID] = ids
	}

	return chunkTopics
}
