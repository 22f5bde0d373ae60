package dedup

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
)

const (
	// titleThreshold gates the fuzzy title match; embeddingThreshold gates the
	// cosine scan. Both are deliberately high: a false "duplicate" silently
	// drops a story, a false "fresh" only costs one redundant article.
	titleThreshold     = 0.9
	embeddingThreshold = 0.9

	// updateWindowDays bounds how old a near-duplicate target may be before an
	// update turns into a plain skip.
	updateWindowDays = 30

	// recentScanLimit caps both the title and the embedding scans.
	recentScanLimit = 200
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

type Reason string

const (
	ReasonFingerprint     Reason = "fingerprint"
	ReasonNoTitle         Reason = "no_title"
	ReasonBlocklist       Reason = "blocklist"
	ReasonUpdateRecent    Reason = "update_recent"
	ReasonTitleSimilarity Reason = "title_similarity"
	ReasonEmbedding       Reason = "embedding"
	ReasonFresh           Reason = "fresh"
)

// Decision is the engine's verdict for one candidate. PostID is zero unless
// the decision binds to an existing record.
type Decision struct {
	Action Action
	PostID int64
	Reason Reason
}

// Candidate carries the fields the engine inspects from a fetched feed item.
type Candidate struct {
	Source      string
	URL         string
	Title       string
	Fingerprint string
}

// TitleRecord is one row of the recency-ordered title scan.
type TitleRecord struct {
	PostID int64
	Title  string
	// AgeDays is nil when the record has no usable publication timestamp.
	AgeDays *int
}

// EmbeddingRecord is one row of the recency-ordered embedding scan.
type EmbeddingRecord struct {
	PostID int64
	Vector Vector
}

// RecordStore is the read-only view of previously published content. All
// listings are ordered newest-first.
type RecordStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error)
	RecentTitles(ctx context.Context, limit int) ([]TitleRecord, error)
	RecentEmbeddings(ctx context.Context, limit int) ([]EmbeddingRecord, error)
}

// Options toggles the three strategies independently. A disabled strategy is
// skipped entirely, not deprioritized.
type Options struct {
	Fingerprint bool
	Title       bool
	Embeddings  bool
	Blocklist   []string
}

// Engine evaluates candidates against the record store. It never mutates the
// store, and it never fails: store errors are logged and treated as "no match
// found", since skipping a dedup signal is safer than blocking a whole run.
type Engine struct {
	store  RecordStore
	logger zerolog.Logger
}

func NewEngine(store RecordStore, logger zerolog.Logger) *Engine {
	return &Engine{
		store:  store,
		logger: logger,
	}
}

// Evaluate applies the dedup rules in strict order and returns exactly one
// decision; the first matching rule wins.
func (e *Engine) Evaluate(ctx context.Context, candidate Candidate, opts Options) Decision {
	if opts.Fingerprint {
		postID, found, err := e.store.FindByFingerprint(ctx, candidate.Fingerprint)
		if err != nil {
			e.logger.Warn().
				Err(err).
				Str("source", candidate.Source).
				Str("fingerprint", candidate.Fingerprint).
				Msg("fingerprint lookup failed; treating as no match")
		} else if found {
			e.logger.Info().
				Str("source", candidate.Source).
				Int64("post_id", postID).
				Str("fingerprint", candidate.Fingerprint).
				Msg("skipping duplicate fingerprint")
			return Decision{Action: ActionSkip, PostID: postID, Reason: ReasonFingerprint}
		}
	}

	title := strings.TrimSpace(candidate.Title)
	if title == "" {
		return Decision{Action: ActionSkip, Reason: ReasonNoTitle}
	}

	if isBlocklisted(title, opts.Blocklist) {
		return Decision{Action: ActionSkip, Reason: ReasonBlocklist}
	}

	if opts.Title {
		if match, found := e.bestTitleMatch(ctx, title); found && match.Score >= titleThreshold {
			if match.AgeDays != nil && *match.AgeDays <= updateWindowDays {
				return Decision{Action: ActionUpdate, PostID: match.PostID, Reason: ReasonUpdateRecent}
			}
			return Decision{Action: ActionSkip, PostID: match.PostID, Reason: ReasonTitleSimilarity}
		}
	}

	if opts.Embeddings {
		if match, found := e.firstEmbeddingMatch(ctx, title); found {
			return Decision{Action: ActionSkip, PostID: match.PostID, Reason: ReasonEmbedding}
		}
	}

	return Decision{Action: ActionCreate, Reason: ReasonFresh}
}

// Match is a transient similarity result produced by the title scan.
type Match struct {
	PostID  int64
	Score   float64
	AgeDays *int
}

// bestTitleMatch scores all recent titles and keeps the single best one above
// the threshold.
func (e *Engine) bestTitleMatch(ctx context.Context, title string) (Match, bool) {
	records, err := e.store.RecentTitles(ctx, recentScanLimit)
	if err != nil {
		e.logger.Warn().Err(err).Msg("recent title scan failed; treating as no match")
		return Match{}, false
	}

	var best Match
	var found bool
	for _, record := range records {
		if strings.TrimSpace(record.Title) == "" {
			continue
		}
		score := TitleSimilarity(title, record.Title)
		if score <= titleThreshold {
			continue
		}
		if !found || score > best.Score {
			best = Match{PostID: record.PostID, Score: score, AgeDays: record.AgeDays}
			found = true
		}
	}
	return best, found
}

// firstEmbeddingMatch scans stored embeddings newest-first and stops at the
// first one at or above the threshold. Unlike the title scan this is
// first-match, not best-match: the streaming scan binds a duplicate to the
// most recently stored record that clears the bar, and changing that would
// change which record a duplicate binds to.
func (e *Engine) firstEmbeddingMatch(ctx context.Context, title string) (Match, bool) {
	vector := Vectorize(title)
	if len(vector) == 0 {
		return Match{}, false
	}

	records, err := e.store.RecentEmbeddings(ctx, recentScanLimit)
	if err != nil {
		e.logger.Warn().Err(err).Msg("recent embedding scan failed; treating as no match")
		return Match{}, false
	}

	for _, record := range records {
		score := Cosine(vector, record.Vector)
		if score >= embeddingThreshold {
			return Match{PostID: record.PostID, Score: score}, true
		}
	}
	return Match{}, false
}

func isBlocklisted(title string, blocklist []string) bool {
	if len(blocklist) == 0 {
		return false
	}
	lowered := strings.ToLower(title)
	for _, term := range blocklist {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
