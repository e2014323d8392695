package dedupe

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/laithdarras/universal-kg/internal/core/model"
)

// DefaultAliases maps normalized short forms to the canonical form they stand for.
var DefaultAliases = map[string]string{
	"ai":                    "artificial intelligence",
	"ml":                    "machine learning",
	"llm":                   "large language model",
	"llms":                  "large language model",
	"large language models": "large language model",
	"nlp":                   "natural language processing",
	"cv":                    "computer vision",
	"dl":                    "deep learning",
	"nn":                    "neural network",
	"neural net":            "neural network",
	"neural nets":           "neural network",
	"neural networks":       "neural network",
	"robot":                 "robotics",
	"robotic":               "robotics",
	"robots":                "robotics",
}

var (
	nonWord         = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
	leadingArticles = map[string]bool{"a": true, "an": true, "the": true}
	trailingPunct   = ".,;:!?\"'`"
)

type Options struct {
	Fuzzy     bool
	Threshold float64
	// Aliases extends DefaultAliases. Keys and values are normalized on load.
	Aliases map[string]string
}

func DefaultOptions() Options {
	return Options{Fuzzy: true, Threshold: DefaultThreshold}
}

// Identity is a canonical entity known to the Canonicalizer.
type Identity struct {
	Key     string
	Label   string
	Aliases []string
}

func (id *Identity) addAlias(surface string) {
	for _, a := range id.Aliases {
		if a == surface {
			return
		}
	}
	id.Aliases = append(id.Aliases, surface)
}

// Resolution describes where a raw entity string lands. New is set when the
// key had no identity at lookup time.
type Resolution struct {
	Surface    string
	Normalized string
	Key        string
	New        bool
	Fuzzy      bool
	Score      float64
}

// Canonicalizer maps raw entity strings to identity keys. It is not safe for
// concurrent use; graph.Store serializes access to it.
type Canonicalizer struct {
	aliases   map[string]string
	fuzzy     bool
	threshold float64

	idents map[string]*Identity
	order  []string
	memo   map[string]string
}

func NewCanonicalizer(opts Options) *Canonicalizer {
	threshold := opts.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	c := &Canonicalizer{
		aliases:   make(map[string]string, len(DefaultAliases)+len(opts.Aliases)),
		fuzzy:     opts.Fuzzy,
		threshold: threshold,
		idents:    make(map[string]*Identity),
		memo:      make(map[string]string),
	}
	for k, v := range DefaultAliases {
		c.aliases[Normalize(k)] = Normalize(v)
	}
	for k, v := range opts.Aliases {
		nk, nv := Normalize(k), Normalize(v)
		if nk == "" || nv == "" {
			continue
		}
		c.aliases[nk] = nv
	}
	return c
}

// Normalize lowercases raw, turns every non-word rune into a space, collapses
// whitespace and strips leading articles while another token follows.
func Normalize(raw string) string {
	s := nonWord.ReplaceAllString(strings.ToLower(raw), " ")
	fields := strings.Fields(s)
	for len(fields) > 1 && leadingArticles[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// Surface is the display form of raw: whitespace collapsed, trailing
// punctuation and a leading article removed, case kept.
func Surface(raw string) string {
	fields := strings.Fields(raw)
	for len(fields) > 1 && leadingArticles[strings.ToLower(fields[0])] {
		fields = fields[1:]
	}
	return strings.TrimRight(strings.Join(fields, " "), trailingPunct)
}

// Canonicalize resolves raw and records it, returning the identity key.
func (c *Canonicalizer) Canonicalize(raw string) (string, error) {
	res, err := c.Resolve(raw)
	if err != nil {
		return "", err
	}
	return res.Key, nil
}

// Resolve is Lookup followed by Commit.
func (c *Canonicalizer) Resolve(raw string) (Resolution, error) {
	res, err := c.Lookup(raw)
	if err != nil {
		return Resolution{}, err
	}
	c.Commit(res)
	return res, nil
}

// Lookup reports where raw would resolve without recording anything.
func (c *Canonicalizer) Lookup(raw string) (Resolution, error) {
	return c.plan(raw, nil)
}

// LookupPair resolves subject and object as one unit: the object sees the
// subject's identity even when the subject is not committed yet.
func (c *Canonicalizer) LookupPair(subject, object string) (Resolution, Resolution, error) {
	s, err := c.plan(subject, nil)
	if err != nil {
		return Resolution{}, Resolution{}, fmt.Errorf("subject: %w", err)
	}
	o, err := c.plan(object, []Resolution{s})
	if err != nil {
		return Resolution{}, Resolution{}, fmt.Errorf("object: %w", err)
	}
	return s, o, nil
}

func (c *Canonicalizer) plan(raw string, pending []Resolution) (Resolution, error) {
	norm := Normalize(raw)
	if norm == "" {
		return Resolution{}, fmt.Errorf("%w: %q", model.ErrInvalidEntity, raw)
	}
	res := Resolution{Surface: Surface(raw), Normalized: norm, Score: 1}
	if res.Surface == "" {
		res.Surface = norm
	}

	if key, ok := c.memo[norm]; ok {
		res.Key = key
		return res, nil
	}

	key := norm
	if canonical, ok := c.aliases[norm]; ok {
		key = canonical
	}
	if _, ok := c.idents[key]; ok {
		res.Key = key
		return res, nil
	}
	for _, p := range pending {
		if p.Key == key {
			res.Key = key
			res.New = p.New
			return res, nil
		}
	}

	if c.fuzzy {
		if match, score := c.closest(key, pending); match != "" {
			res.Key = match
			res.Fuzzy = true
			res.Score = score
			_, known := c.idents[match]
			res.New = !known
			return res, nil
		}
	}

	res.Key = key
	res.New = true
	return res, nil
}

// closest scans existing keys in first-seen order, then pending keys, and
// returns the best match at or above the threshold. Ties keep the earliest key.
func (c *Canonicalizer) closest(key string, pending []Resolution) (string, float64) {
	best, bestScore := "", 0.0
	consider := func(candidate string) {
		if !fuzzyComparable(key, candidate) {
			return
		}
		score := Similarity(key, candidate)
		if score >= c.threshold && score > bestScore {
			best, bestScore = candidate, score
		}
	}
	for _, k := range c.order {
		consider(k)
	}
	for _, p := range pending {
		if _, known := c.idents[p.Key]; !known {
			consider(p.Key)
		}
	}
	return best, bestScore
}

// Commit records resolutions: new identities are created with the surface as
// their label, existing ones gain the surface as an alias.
func (c *Canonicalizer) Commit(resolutions ...Resolution) {
	for _, r := range resolutions {
		if r.Key == "" {
			continue
		}
		id, ok := c.idents[r.Key]
		if !ok {
			id = &Identity{Key: r.Key, Label: r.Surface}
			c.idents[r.Key] = id
			c.order = append(c.order, r.Key)
		}
		id.addAlias(r.Surface)
		c.memo[r.Normalized] = r.Key
	}
}

// Restore re-registers a previously exported identity.
func (c *Canonicalizer) Restore(id Identity) {
	if id.Key == "" {
		return
	}
	if _, ok := c.idents[id.Key]; !ok {
		c.order = append(c.order, id.Key)
	}
	restored := &Identity{Key: id.Key, Label: id.Label}
	c.idents[id.Key] = restored
	c.memo[id.Key] = id.Key
	for _, a := range id.Aliases {
		restored.addAlias(a)
		if norm := Normalize(a); norm != "" {
			c.memo[norm] = id.Key
		}
	}
}

// Identity returns a copy of the identity stored under key.
func (c *Canonicalizer) Identity(key string) (Identity, bool) {
	id, ok := c.idents[key]
	if !ok {
		return Identity{}, false
	}
	aliases := make([]string, len(id.Aliases))
	copy(aliases, id.Aliases)
	return Identity{Key: id.Key, Label: id.Label, Aliases: aliases}, true
}

// Expand returns the canonical form a normalized term aliases to.
func (c *Canonicalizer) Expand(term string) (string, bool) {
	canonical, ok := c.aliases[Normalize(term)]
	return canonical, ok
}

func (c *Canonicalizer) Len() int {
	return len(c.order)
}
