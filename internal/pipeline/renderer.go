package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/avolkhin/fincascade/internal/model"
)

// Renderer writes the terminal cascade as JSON (the exported contract other
// tooling consumes) and as Markdown for human review.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the cascade tree to path.
func (r *Renderer) RenderJSON(cascade model.EventCascade, path string) error {
	data, err := json.MarshalIndent(cascade, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cascade: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

// RenderMarkdown writes a human-readable reconstruction report to path.
func (r *Renderer) RenderMarkdown(cascade model.EventCascade, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", valueOr(cascade.Title, cascade.EventID))
	fmt.Fprintf(&b, "- Event type: %s\n", cascade.EventType.Value)
	fmt.Fprintf(&b, "- Time span: %s to %s\n", cascade.StartTime.Value, cascade.EndTime.Value)
	fmt.Fprintf(&b, "- Overall confidence: %.2f\n", cascade.OverallConfidence)
	fmt.Fprintf(&b, "- Verified episodes: %d\n", len(cascade.VerifiedEpisodes()))
	if cascade.DegradedStorage {
		b.WriteString("- Participant storage: degraded (in-memory only for this run)\n")
	}
	b.WriteString("\n")

	for _, stage := range cascade.Stages {
		fmt.Fprintf(&b, "## %s: %s\n\n", stage.StageID, stage.Name)
		if stage.Rationale != "" {
			fmt.Fprintf(&b, "_%s_\n\n", stage.Rationale)
		}
		if len(stage.Episodes) == 0 {
			b.WriteString("No verified episodes.\n\n")
			continue
		}
		for _, ep := range stage.Episodes {
			renderEpisode(&b, ep)
		}
	}

	if len(cascade.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range cascade.Warnings {
			fmt.Fprintf(&b, "- `%s`: %s\n", w.String(), w.Detail)
		}
		b.WriteString("\n")
	}

	if len(cascade.Dropped) > 0 {
		b.WriteString("## Dropped episodes\n\n")
		for _, ep := range cascade.Dropped {
			fmt.Fprintf(&b, "- %s (%s): %s\n", ep.EpisodeID, ep.Type, strings.Join(ep.FailureReasons, "; "))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\nEvery value above is traceable to verbatim source text; ")
		b.WriteString("fields marked \"unknown\" carry the reason for the gap.\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

func renderEpisode(b *strings.Builder, ep model.Episode) {
	fmt.Fprintf(b, "### %s: %s\n\n", ep.EpisodeID, valueOr(ep.Name, string(ep.Type)))
	fmt.Fprintf(b, "- Type: %s\n", ep.Type)
	fmt.Fprintf(b, "- When: %s\n", ep.StartTime.Value)
	fmt.Fprintf(b, "- Verification confidence: %.2f\n", ep.VerificationConfidence)
	if len(ep.Participants) > 0 {
		names := make([]string, 0, len(ep.Participants))
		for _, p := range ep.Participants {
			names = append(names, fmt.Sprintf("%s (%s, %s)", p.Name.Value, p.ParticipantID, p.Role))
		}
		fmt.Fprintf(b, "- Participants: %s\n", strings.Join(names, ", "))
	}
	for _, tx := range ep.Transactions {
		fmt.Fprintf(b, "- Transaction: %s", tx.Name.Value)
		if tx.FromParticipantID != "" || tx.ToParticipantID != "" {
			fmt.Fprintf(b, " (%s -> %s)", orUnknownID(tx.FromParticipantID), orUnknownID(tx.ToParticipantID))
		}
		b.WriteString("\n")
	}
	if len(ep.Name.Evidence) > 0 {
		fmt.Fprintf(b, "- Evidence: %q\n", ep.Name.Evidence[0])
	}
	b.WriteString("\n")
}

// RenderSummary prints a one-screen summary to stdout.
func (r *Renderer) RenderSummary(cascade model.EventCascade) {
	fmt.Printf("Event: %s\n", valueOr(cascade.Title, cascade.EventID))
	fmt.Printf("Type:  %s\n", cascade.EventType.Value)
	fmt.Printf("Confidence: %.2f\n", cascade.OverallConfidence)
	for _, stage := range cascade.Stages {
		fmt.Printf("  %s %-32s %d episode(s)\n", stage.StageID, stage.Name, len(stage.Episodes))
	}
	if len(cascade.Warnings) > 0 {
		fmt.Printf("Warnings: %d\n", len(cascade.Warnings))
		for _, w := range cascade.Warnings {
			fmt.Printf("  - %s\n", w.String())
		}
	}
	if len(cascade.Dropped) > 0 {
		fmt.Printf("Dropped episodes: %d\n", len(cascade.Dropped))
	}
}

func valueOr(gv model.GroundedValue, fallback string) string {
	if gv.Value == "" || gv.IsUnknown() {
		return fallback
	}
	return gv.Value
}

func orUnknownID(id string) string {
	if id == "" {
		return "?"
	}
	return id
}
