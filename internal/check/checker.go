// Package check re-validates extracted episodes against the evidence store,
// independent of extraction context, so the same reasoning error cannot both
// produce and validate a claim.
package check

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/avolkhin/fincascade/internal/evidence"
	"github.com/avolkhin/fincascade/internal/model"
)

// Checker verifies one episode at a time. Check is a pure function of
// (episode, evidence): no side effects beyond the returned copy, so episodes
// can be checked on parallel workers.
type Checker struct {
	store         *evidence.Store
	weights       map[string]float64
	minConfidence float64
	logger        *zap.Logger
}

// NewChecker creates a fact checker. weights maps source categories to
// reliability weights; unlisted categories weigh 1.0.
func NewChecker(store *evidence.Store, weights map[string]float64, minConfidence float64, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		store:         store,
		weights:       weights,
		minConfidence: minConfidence,
		logger:        logger,
	}
}

// fieldRef names one grounded value inside an episode for verification.
type fieldRef struct {
	name string
	gv   *model.GroundedValue
}

// Check verifies every grounded value inside the episode and returns the
// episode in Verified or Rejected state. A field citing evidence absent from
// the store has its confidence forced to 0 and is marked unverifiable; the
// grounding failure is recovered locally, never raised as an error.
func (c *Checker) Check(ep model.Episode) model.Episode {
	ep = cloneEpisode(ep)
	fields, flushAttrs := episodeFields(&ep)
	defer flushAttrs()

	var weightSum, confSum float64
	grounded := 0
	for _, f := range fields {
		if f.gv.IsUnknown() || f.gv.Value == "" {
			// Declared gaps carry their own reasons and do not weigh on
			// the verification score; absent optional fields are skipped.
			continue
		}
		conf, ok := c.verifyField(f)
		weight := c.fieldWeight(f)
		if ok {
			grounded++
		} else {
			ep.FailureReasons = append(ep.FailureReasons,
				fmt.Sprintf("%s: cited evidence not found verbatim in any source document", f.name))
		}
		weightSum += weight
		confSum += weight * conf
	}

	switch {
	case grounded == 0:
		ep.VerificationConfidence = 0
		ep.FailureReasons = append(ep.FailureReasons, "no field is grounded in source content")
	case weightSum == 0:
		// Every backing source category is weighted zero; nothing counts
		// toward the score, and 0/0 must not leak NaN into the artifact.
		ep.VerificationConfidence = 0
		ep.FailureReasons = append(ep.FailureReasons, "all grounding sources carry zero reliability weight")
	default:
		ep.VerificationConfidence = confSum / weightSum
	}

	if grounded > 0 && ep.VerificationConfidence >= c.minConfidence {
		ep.State = model.EpisodeVerified
		ep.FailureReasons = nil
		return ep
	}

	if ep.VerificationConfidence < c.minConfidence && grounded > 0 {
		ep.FailureReasons = append(ep.FailureReasons,
			fmt.Sprintf("verification confidence %.2f below threshold %.2f", ep.VerificationConfidence, c.minConfidence))
	}
	ep.State = model.EpisodeRejected
	c.logger.Debug("episode rejected",
		zap.String("episode", ep.EpisodeID),
		zap.Float64("confidence", ep.VerificationConfidence),
		zap.Strings("reasons", ep.FailureReasons))
	return ep
}

// verifyField checks each cited snippet is a literal substring of some
// document. On failure the field's confidence is forced to 0 and the gap
// recorded on the field itself.
func (c *Checker) verifyField(f fieldRef) (float64, bool) {
	if len(f.gv.Evidence) == 0 {
		zero := 0.0
		f.gv.Confidence = &zero
		f.gv.Reasons = append(f.gv.Reasons, "value stated without citation")
		return 0, false
	}
	for _, snippet := range f.gv.Evidence {
		if _, ok := c.store.Contains(snippet); !ok {
			zero := 0.0
			f.gv.Confidence = &zero
			f.gv.Reasons = append(f.gv.Reasons, fmt.Sprintf("citation %q not found in evidence store", snippet))
			return 0, false
		}
	}
	return f.gv.ConfidenceOrDefault(1.0), true
}

// fieldWeight looks up the reliability weight of the source category backing
// the field's first citation. Ungrounded and unweighted fields default to 1.0.
func (c *Checker) fieldWeight(f fieldRef) float64 {
	if len(f.gv.Evidence) == 0 {
		return 1.0
	}
	category := c.store.Category(f.gv.Evidence[0])
	if w, ok := c.weights[category]; ok {
		return w
	}
	return 1.0
}

// cloneEpisode copies the episode's grounded-value containers so verification
// marks never leak back into the caller's episode.
func cloneEpisode(ep model.Episode) model.Episode {
	ep.Descriptions = append([]model.GroundedValue(nil), ep.Descriptions...)
	ep.FailureReasons = append([]string(nil), ep.FailureReasons...)

	participants := make([]model.Participant, len(ep.Participants))
	for i, p := range ep.Participants {
		if p.Attributes != nil {
			attrs := make(map[string]model.GroundedValue, len(p.Attributes))
			for k, v := range p.Attributes {
				attrs[k] = v
			}
			p.Attributes = attrs
		}
		actions := make([]model.Action, len(p.Actions))
		for j, a := range p.Actions {
			a.Details = append([]model.GroundedValue(nil), a.Details...)
			actions[j] = a
		}
		p.Actions = actions
		participants[i] = p
	}
	ep.Participants = participants

	relations := make([]model.ParticipantRelation, len(ep.Relations))
	for i, r := range ep.Relations {
		r.Descriptions = append([]model.GroundedValue(nil), r.Descriptions...)
		relations[i] = r
	}
	ep.Relations = relations

	transactions := make([]model.Transaction, len(ep.Transactions))
	for i, tx := range ep.Transactions {
		tx.Details = append([]model.GroundedValue(nil), tx.Details...)
		tx.Instruments = append([]model.GroundedValue(nil), tx.Instruments...)
		tx.Reasons = append([]string(nil), tx.Reasons...)
		transactions[i] = tx
	}
	ep.Transactions = transactions
	return ep
}

// attrSlot holds a participant attribute lifted out of its map. Map values
// are not addressable, so verification marks land on the slot's copy and the
// flush callback writes them back once verification is complete.
type attrSlot struct {
	attrs map[string]model.GroundedValue
	key   string
	gv    model.GroundedValue
}

// episodeFields enumerates every grounded value in the episode, by pointer
// so verification marks flow back into the returned copy. The returned flush
// writes verified attribute copies back into their participant maps; it must
// run after the last verifyField call.
func episodeFields(ep *model.Episode) ([]fieldRef, func()) {
	var slots []*attrSlot
	fields := []fieldRef{
		{"name", &ep.Name},
		{"start_time", &ep.StartTime},
		{"end_time", &ep.EndTime},
	}
	for i := range ep.Descriptions {
		fields = append(fields, fieldRef{fmt.Sprintf("description[%d]", i), &ep.Descriptions[i]})
	}
	for i := range ep.Participants {
		p := &ep.Participants[i]
		prefix := fmt.Sprintf("participant[%s]", p.ParticipantID)
		fields = append(fields,
			fieldRef{prefix + ".name", &p.Name},
			fieldRef{prefix + ".type", &p.Type},
		)
		keys := make([]string, 0, len(p.Attributes))
		for k := range p.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys) // deterministic field and failure-reason order
		for _, k := range keys {
			slot := &attrSlot{attrs: p.Attributes, key: k, gv: p.Attributes[k]}
			slots = append(slots, slot)
			fields = append(fields, fieldRef{prefix + ".attribute." + k, &slot.gv})
		}
		for j := range p.Actions {
			a := &p.Actions[j]
			fields = append(fields,
				fieldRef{fmt.Sprintf("%s.action[%d].name", prefix, j), &a.Name},
				fieldRef{fmt.Sprintf("%s.action[%d].timestamp", prefix, j), &a.Timestamp},
			)
			for d := range a.Details {
				fields = append(fields, fieldRef{fmt.Sprintf("%s.action[%d].detail[%d]", prefix, j, d), &a.Details[d]})
			}
		}
	}
	for i := range ep.Relations {
		r := &ep.Relations[i]
		prefix := fmt.Sprintf("relation[%d]", i)
		fields = append(fields,
			fieldRef{prefix + ".type", &r.RelationType},
			fieldRef{prefix + ".start_time", &r.StartTime},
			fieldRef{prefix + ".end_time", &r.EndTime},
		)
		for d := range r.Descriptions {
			fields = append(fields, fieldRef{fmt.Sprintf("%s.description[%d]", prefix, d), &r.Descriptions[d]})
		}
	}
	for i := range ep.Transactions {
		tx := &ep.Transactions[i]
		prefix := fmt.Sprintf("transaction[%d]", i)
		fields = append(fields,
			fieldRef{prefix + ".name", &tx.Name},
			fieldRef{prefix + ".type", &tx.TransactionType},
			fieldRef{prefix + ".timestamp", &tx.Timestamp},
		)
		for d := range tx.Details {
			fields = append(fields, fieldRef{fmt.Sprintf("%s.detail[%d]", prefix, d), &tx.Details[d]})
		}
		for d := range tx.Instruments {
			fields = append(fields, fieldRef{fmt.Sprintf("%s.instrument[%d]", prefix, d), &tx.Instruments[d]})
		}
	}

	flush := func() {
		for _, slot := range slots {
			slot.attrs[slot.key] = slot.gv
		}
	}
	return fields, flush
}
