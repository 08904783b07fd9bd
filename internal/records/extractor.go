package records

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/parastopwal07/dezerv-backend/pkg/logger"
)

// dateLayout is the single textual date format records carry
// (e.g. "March 15, 2024"). Anything else falls back to the clock.
const dateLayout = "January 2, 2006"

// IdentityTable maps sender addresses to monotonically assigned user ids.
// First-seen wins, the counter starts at 1, and the table is scoped to a
// single ingestion run.
type IdentityTable struct {
	ids  map[string]int
	next int
}

func NewIdentityTable() *IdentityTable {
	return &IdentityTable{ids: make(map[string]int), next: 1}
}

// Resolve returns the id for the address, allocating one if unseen.
func (t *IdentityTable) Resolve(email string) int {
	if id, ok := t.ids[email]; ok {
		return id
	}
	id := t.next
	t.ids[email] = id
	t.next++
	return id
}

// Len reports how many distinct senders have been seen.
func (t *IdentityTable) Len() int { return len(t.ids) }

// CategoryPattern is one named extraction rule: a section heading scope,
// a positional block template, and optional best-effort sub-field rules
// applied to the matched body.
type CategoryPattern struct {
	Category string

	section *regexp.Regexp // matches the "## ..." heading this category lives under
	block   *regexp.Regexp // anchored capture template for one record block
	signed  bool           // block ends with a sign-off line carrying the sender name

	account *regexp.Regexp
	amount  *regexp.Regexp
	dueDate *regexp.Regexp
}

var (
	// Blocks under a section are introduced by "### " headers; the
	// terminator of one block is the next "###"/"##" heading or the end
	// of the section.
	sectionHeadingRe = regexp.MustCompile(`(?m)^## (.+)$`)
	blockHeadingRe   = regexp.MustCompile(`(?m)^### `)

	// Life events carry a sign-off; notices carry a "type - provider"
	// header line instead.
	signedBlockRe = regexp.MustCompile(`(?s)\A### (.+?)\nFrom: (.+?)\nDate: (.+?)\nSubject: (.+?)\n\n(.*?)\n\n(?:Best|Thanks|Regards),\n(.+?)\z`)
	noticeBlockRe = regexp.MustCompile(`(?s)\A### (.+?) - (.+?)\nFrom: (.+?)\nDate: (.+?)\nSubject: (.+?)\n\n(.+?)\z`)

	amountRe = regexp.MustCompile(`\$([0-9,]+\.\d+)`)
)

// DefaultPatterns returns the extraction rules for every structured
// category. Sub-field rules mirror the labeled prefixes each category's
// bodies use.
func DefaultPatterns() []CategoryPattern {
	return []CategoryPattern{
		{
			Category: CategoryLifeEvents,
			section:  regexp.MustCompile(`(?i)life events`),
			block:    signedBlockRe,
			signed:   true,
		},
		{
			Category: CategoryBanking,
			section:  regexp.MustCompile(`(?i)banking`),
			block:    noticeBlockRe,
			account:  regexp.MustCompile(`account ending in (\d+)`),
			amount:   amountRe,
		},
		{
			Category: CategoryCreditCards,
			section:  regexp.MustCompile(`(?i)credit card`),
			block:    noticeBlockRe,
			account:  regexp.MustCompile(`(?:Card|account) ending in (\d+)`),
			amount:   amountRe,
		},
		{
			Category: CategoryLoans,
			section:  regexp.MustCompile(`(?i)loan`),
			block:    noticeBlockRe,
			account:  regexp.MustCompile(`[Ll]oan (?:[Nn]umber|#): ?([A-Z0-9\-]+)`),
			amount:   amountRe,
		},
		{
			Category: CategoryInvestments,
			section:  regexp.MustCompile(`(?i)investment`),
			block:    noticeBlockRe,
			account:  regexp.MustCompile(`[Aa]ccount(?:.*?)(?:#|:) ?([A-Z0-9\-]+)`),
			amount:   amountRe,
		},
		{
			Category: CategoryBills,
			section:  regexp.MustCompile(`(?i)bill`),
			block:    noticeBlockRe,
			account:  regexp.MustCompile(`[Aa]ccount (?:[Nn]umber|#): ?([A-Z0-9]+)`),
			amount:   amountRe,
			dueDate:  regexp.MustCompile(`(?m)[Dd]ue [Dd]ate: (.*)$`),
		},
		{
			Category: CategoryTaxes,
			section:  regexp.MustCompile(`(?i)tax`),
			block:    noticeBlockRe,
			amount:   amountRe,
		},
	}
}

// Extractor turns a raw text blob into structured records per category.
// It never fails on malformed input: a category that matches nothing
// yields an empty sequence, and missing sub-fields yield nil values.
type Extractor struct {
	patterns []CategoryPattern
	now      func() time.Time
}

type Option func(*Extractor)

// WithClock overrides the fallback timestamp source used for
// unparseable dates.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

func NewExtractor(patterns []CategoryPattern, opts ...Option) *Extractor {
	e := &Extractor{patterns: patterns, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract applies every category pattern to the raw text. The identity
// table is shared across categories so a sender seen in two sections
// resolves to the same user id.
func (e *Extractor) Extract(raw string, ids *IdentityTable) map[string][]StructuredRecord {
	sections := splitSections(raw)

	out := make(map[string][]StructuredRecord, len(e.patterns))
	for _, p := range e.patterns {
		out[p.Category] = []StructuredRecord{}
	}

	for _, p := range e.patterns {
		for _, sec := range sections {
			if !p.section.MatchString(sec.title) {
				continue
			}
			for _, block := range splitBlocks(sec.body) {
				rec, ok := e.parseBlock(p, block, ids)
				if !ok {
					continue
				}
				out[p.Category] = append(out[p.Category], rec)
			}
		}
	}

	total := 0
	for _, recs := range out {
		total += len(recs)
	}
	logger.Debug("Extraction completed",
		zap.Int("records", total),
		zap.Int("users", ids.Len()),
	)

	return out
}

func (e *Extractor) parseBlock(p CategoryPattern, block string, ids *IdentityTable) (StructuredRecord, bool) {
	m := p.block.FindStringSubmatch(block)
	if m == nil {
		// Capture slots are positional; a block missing any of them is
		// dropped rather than partially recorded.
		return StructuredRecord{}, false
	}

	rec := StructuredRecord{Category: p.Category}
	if p.signed {
		rec.Type = strings.TrimSpace(m[1])
		rec.Email = strings.TrimSpace(m[2])
		rec.Date = e.parseDate(m[3])
		rec.Subject = strings.TrimSpace(m[4])
		rec.Body = strings.TrimSpace(m[5])
		rec.SenderName = strings.TrimSpace(m[6])
	} else {
		rec.Type = strings.TrimSpace(m[1])
		rec.Provider = strings.TrimSpace(m[2])
		rec.Email = strings.TrimSpace(m[3])
		rec.Date = e.parseDate(m[4])
		rec.Subject = strings.TrimSpace(m[5])
		rec.Body = strings.TrimSpace(m[6])
	}

	rec.UserID = ids.Resolve(rec.Email)

	if p.account != nil {
		if am := p.account.FindStringSubmatch(rec.Body); am != nil {
			account := am[1]
			rec.AccountNumber = &account
		}
	}
	if p.amount != nil {
		if am := p.amount.FindStringSubmatch(rec.Body); am != nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(am[1], ",", ""), 64); err == nil {
				rec.Amount = &v
			}
		}
	}
	if p.dueDate != nil {
		if dm := p.dueDate.FindStringSubmatch(rec.Body); dm != nil {
			due := strings.TrimSpace(dm[1])
			rec.DueDate = &due
		}
	}

	return rec, true
}

// parseDate attempts the single fixed layout and substitutes the current
// timestamp on failure. Ingestion never rejects a record over a bad date.
func (e *Extractor) parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return e.now()
	}
	return t
}

type section struct {
	title string
	body  string
}

func splitSections(raw string) []section {
	headings := sectionHeadingRe.FindAllStringSubmatchIndex(raw, -1)
	sections := make([]section, 0, len(headings))
	for i, h := range headings {
		title := raw[h[2]:h[3]]
		start := h[1]
		end := len(raw)
		if i+1 < len(headings) {
			end = headings[i+1][0]
		}
		sections = append(sections, section{
			title: strings.TrimSpace(title),
			body:  raw[start:end],
		})
	}
	return sections
}

func splitBlocks(body string) []string {
	starts := blockHeadingRe.FindAllStringIndex(body, -1)
	blocks := make([]string, 0, len(starts))
	for i, s := range starts {
		end := len(body)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, strings.TrimSpace(body[s[0]:end]))
	}
	return blocks
}
