package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

// KeywordProvider is a deterministic oracle built on keyword heuristics.
// It is the offline default and the reference implementation for tests:
// every snippet it cites is a verbatim span of the source document, so its
// output always survives fact-checking when the rules fire correctly.
type KeywordProvider struct {
	rules []keywordRule
}

type keywordRule struct {
	keywords []string
	epType   model.EpisodeType
	name     string
}

// NewKeywordProvider creates the deterministic provider with the built-in
// rule set.
func NewKeywordProvider() *KeywordProvider {
	return &KeywordProvider{
		rules: []keywordRule{
			{[]string{"deposit outflow", "mass withdrawal", "withdrew", "withdrawals", "redemption", "redeem"}, model.EpisodeLargeScaleRedemption, "Large-scale redemption"},
			{[]string{"margin call"}, model.EpisodeMarginCallIssuance, "Margin call issuance"},
			{[]string{"fire sale", "forced sale", "liquidated positions", "forced liquidation"}, model.EpisodeForcedAssetLiquidation, "Forced asset liquidation"},
			{[]string{"receivership"}, model.EpisodeReceivershipOrder, "Court receivership order"},
			{[]string{"emergency lending", "lender of last resort", "funding program"}, model.EpisodeEmergencyLending, "Central bank emergency lending"},
			{[]string{"bankruptcy", "chapter 11"}, model.EpisodeBankruptcyFiling, "Bankruptcy filing"},
			{[]string{"downgrade"}, model.EpisodeRatingAgencyDowngrade, "Rating agency downgrade"},
			{[]string{"investigation"}, model.EpisodeRegulatoryInvestigation, "Regulatory investigation launch"},
			{[]string{"enforcement action", "cease-and-desist", "fined"}, model.EpisodeEnforcementAction, "Securities enforcement action"},
			{[]string{"trading halt", "suspended trading", "trading suspension"}, model.EpisodeTradingSuspension, "Trading suspension"},
			{[]string{"circuit breaker", "limit down"}, model.EpisodePriceLimitHit, "Exchange price limit hit"},
			{[]string{"whistleblower"}, model.EpisodeWhistleblowerReport, "Whistleblower report"},
			{[]string{"short seller report", "short-seller report", "research report alleging"}, model.EpisodeShortSellerReport, "Short seller report"},
			{[]string{"auditor resigned", "auditor resignation"}, model.EpisodeAuditorResignation, "Auditor resignation"},
			{[]string{"annual report", "10-k", "quarterly filing", "financial statements"}, model.EpisodeFinancialStatementDisclosure, "Financial statement disclosure"},
			{[]string{"guidance"}, model.EpisodeEarningsGuidanceUpdate, "Earnings guidance update"},
			{[]string{"panic selling", "sold off in panic"}, model.EpisodeRetailPanicSelling, "Retail investor panic selling"},
			{[]string{"depeg", "lost its peg", "redemption suspension", "suspended withdrawals"}, model.EpisodeStablecoinRedemptionFocus, "Stablecoin redemption suspension"},
			{[]string{"fictitious revenue", "fake sales", "round-tripping"}, model.EpisodeFictitiousRevenue, "Fictitious revenue recording"},
			{[]string{"missing cash", "fabricated balance", "cash did not exist"}, model.EpisodeFakeCashBalance, "Fake cash balance fabrication"},
			{[]string{"pump and dump", "coordinated buying"}, model.EpisodePumpAndDump, "Pump and dump trade pattern"},
		},
	}
}

// Name returns the provider name.
func (p *KeywordProvider) Name() string {
	return "keyword"
}

// IsAvailable always succeeds; the provider has no external dependency.
func (p *KeywordProvider) IsAvailable(ctx context.Context) bool {
	return true
}

var (
	isoDatePattern  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	longDatePattern = regexp.MustCompile(`(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4}`)
	amountPattern   = regexp.MustCompile(`\$\d[\d,.]*\s?(billion|million|trillion)?`)
	properPattern   = regexp.MustCompile(`[A-Z][A-Za-z&.]*(?:\s+[A-Z][A-Za-z&.]*)*`)
)

// Extract matches keyword rules against each sentence of the document.
func (p *KeywordProvider) Extract(ctx context.Context, doc evidence.Document, hints ContextHints) ([]CandidateEpisode, error) {
	var out []CandidateEpisode
	for _, sentence := range splitSentences(doc.Content) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lower := strings.ToLower(sentence)
		for _, rule := range p.rules {
			keyword, ok := matchAny(lower, rule.keywords)
			if !ok {
				continue
			}

			ep := CandidateEpisode{
				Name: model.Grounded(rule.name, sentence).
					WithReasons("exact keyword match: '" + keyword + "'").
					WithConfidence(0.8),
				Type:      string(rule.epType),
				Timestamp: extractTimestamp(sentence),
			}
			ep.Descriptions = []model.GroundedValue{
				model.Grounded(sentence, sentence).
					WithReasons("sentence containing keyword '" + keyword + "'").
					WithConfidence(0.8),
			}
			ep.Participants = extractParticipants(sentence)
			ep.Transactions = extractTransactions(sentence)

			out = append(out, ep)
			break // One episode per sentence
		}
	}
	return out, nil
}

func matchAny(lower string, keywords []string) (string, bool) {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return k, true
		}
	}
	return "", false
}

// extractTimestamp cites the first date-shaped span of the sentence.
func extractTimestamp(sentence string) model.GroundedValue {
	if m := isoDatePattern.FindString(sentence); m != "" {
		return model.Grounded(m, m).
			WithReasons("explicit ISO date in source text").
			WithConfidence(0.9)
	}
	if m := longDatePattern.FindString(sentence); m != "" {
		return model.Grounded(m, m).
			WithReasons("explicit date in source text").
			WithConfidence(0.85)
	}
	return model.Unknown("no timestamp-bearing span in source sentence")
}

// participantStopwords are capitalized spans that are not entity names.
var participantStopwords = map[string]bool{
	"The": true, "A": true, "An": true, "On": true, "In": true, "At": true,
	"January": true, "February": true, "March": true, "April": true, "May": true,
	"June": true, "July": true, "August": true, "September": true,
	"October": true, "November": true, "December": true,
}

// extractParticipants pulls capitalized entity mentions with a coarse role
// guess from surrounding terms.
func extractParticipants(sentence string) []CandidateParticipant {
	var out []CandidateParticipant
	seen := make(map[string]bool)

	for _, span := range properPattern.FindAllString(sentence, -1) {
		name := strings.TrimSpace(span)
		if len(name) < 2 || participantStopwords[name] || seen[name] {
			continue
		}
		// Single common words at sentence start are usually not entities.
		if !strings.Contains(name, " ") && len(name) < 4 && name != strings.ToUpper(name) {
			continue
		}
		seen[name] = true

		out = append(out, CandidateParticipant{
			Name: model.Grounded(name, name).
				WithReasons("named entity in source text").
				WithConfidence(0.7),
			Type: guessType(name),
			Role: string(guessRole(name)),
		})
	}
	return out
}

func guessType(name string) model.GroundedValue {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "bank") || strings.Contains(lower, "fund") ||
		strings.Contains(lower, "capital") || strings.Contains(lower, "securities"):
		return model.Grounded("organization", name).WithConfidence(0.7)
	case name == strings.ToUpper(name):
		// Acronyms are agencies or tickers
		return model.Grounded("government_agency", name).WithConfidence(0.5)
	default:
		return model.Unknown("entity category not stated in source content")
	}
}

func guessRole(name string) model.ParticipantRole {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "fdic"):
		return model.RoleDepositInsurance
	case strings.Contains(lower, "sec") && name == strings.ToUpper(name):
		return model.RoleSecuritiesEnforcement
	case strings.Contains(lower, "fed") || strings.Contains(lower, "central bank"):
		return model.RoleCentralBank
	case strings.Contains(lower, "bank"):
		return model.RoleIssuer
	case strings.Contains(lower, "fund") || strings.Contains(lower, "capital"):
		return model.RoleFundManager
	default:
		return model.RoleOther
	}
}

// extractTransactions records money movements mentioned in the sentence.
// Payer and payee stay empty unless the text names them; ids are never
// fabricated.
func extractTransactions(sentence string) []model.Transaction {
	amount := amountPattern.FindString(sentence)
	if amount == "" {
		return nil
	}
	return []model.Transaction{{
		Name: model.Grounded("capital movement", sentence).
			WithReasons("monetary amount in source text").
			WithConfidence(0.6),
		TransactionType: model.Unknown("transfer type not stated in source content"),
		Timestamp:       extractTimestamp(sentence),
		Details: []model.GroundedValue{
			model.Grounded(amount, amount).
				WithReasons("numeric data: monetary amount").
				WithConfidence(0.8),
		},
		Reasons: []string{"payer and payee not resolvable from a single sentence"},
	}}
}

// splitSentences splits text into verbatim sentence spans. Unlike a
// normalizing splitter, every returned span is a literal substring of the
// input, so citations built from spans always pass the grounding check.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	flush := func(end int) {
		span := strings.TrimSpace(text[start:end])
		if len(span) >= 20 && len(span) <= 600 {
			sentences = append(sentences, span)
		}
		start = end
	}

	for i, r := range text {
		switch r {
		case '\n':
			flush(i + 1)
		case '.', '!', '?':
			// Avoid splitting decimals and abbreviations mid-token.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' || text[i+1] == '\n' {
				flush(i + 1)
			}
		}
	}
	if start < len(text) {
		flush(len(text))
	}
	return sentences
}

var _ Provider = (*KeywordProvider)(nil)
