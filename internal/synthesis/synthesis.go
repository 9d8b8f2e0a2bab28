// Package synthesis implements the Report Synthesizer (C7): the single model
// call that turns a brief and a set of worker Findings into the final cited
// markdown report, with citation post-validation and a bounded retry on
// mismatch.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/jordangeorgiev/open-deep-research/internal/modeladapter"
	"github.com/jordangeorgiev/open-deep-research/internal/research"
)

// maxMismatchRetries bounds the re-invoke-on-citation-mismatch loop. The spec
// asks for exactly one retry, so this allows one retry attempt beyond the
// first pass.
const maxMismatchRetries = 1

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// Synthesizer produces the final Report from a brief and the collected
// Findings of a session.
type Synthesizer struct {
	adapter *modeladapter.Adapter
	logger  *slog.Logger
}

// New constructs a Synthesizer.
func New(adapter *modeladapter.Adapter, logger *slog.Logger) *Synthesizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synthesizer{adapter: adapter, logger: logger}
}

// Synthesize writes the final report. Sources are numbered in the order they
// first appear across findings; the prompt instructs the model to cite using
// those numbers. If the model's markdown references a citation number with no
// matching source, Synthesize re-invokes the model once with the mismatch
// reported, and returns the retry's draft as it is if that also mismatches.
func (s *Synthesizer) Synthesize(ctx context.Context, brief research.Brief, findings []*research.Findings) (*research.Report, error) {
	ctx, span := research.StartSpan(ctx, "synthesis.run")
	defer span.End()

	sources := mergeSources(findings)

	var markdown string
	var err error
	var mismatch []int

	for attempt := 0; attempt <= maxMismatchRetries; attempt++ {
		prompt := buildPrompt(brief, findings, sources, mismatch)
		markdown, err = s.adapter.Complete(ctx, synthesisSystemPrompt, []modeladapter.Message{{Role: "user", Content: prompt}}, modeladapter.Params{})
		if err != nil {
			return nil, research.NewStepError("synthesis", research.KindTransport, "report synthesis failed", err)
		}

		mismatch = unmatchedCitations(markdown, len(sources))
		if len(mismatch) == 0 {
			break
		}
		s.logger.Warn("synthesis citation mismatch", "attempt", attempt, "unmatched", mismatch)
	}

	return &research.Report{
		Markdown: markdown,
		Sources:  sources,
		Metadata: research.ReportMetadata{},
	}, nil
}

const synthesisSystemPrompt = "You are writing the final research report. Produce a markdown document " +
	"with a short abstract, topical sections organized around the findings, and a trailing \"Sources\" " +
	"section listing every source as \"[n] Title — URL\". Cite claims inline using [n] matching the " +
	"Sources list. Only use citation numbers that appear in the provided Sources list."

func buildPrompt(brief research.Brief, findings []*research.Findings, sources []research.Source, mismatch []int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research question: %s\n", brief.Question)
	if len(brief.SuccessCriteria) > 0 {
		fmt.Fprintf(&b, "Success criteria: %s\n", strings.Join(brief.SuccessCriteria, "; "))
	}
	b.WriteString("\nFindings:\n")
	for _, f := range findings {
		if f == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", f.CompressedText)
	}
	b.WriteString("\nSources:\n")
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s — %s\n", i+1, src.Title, src.URL)
	}
	if len(mismatch) > 0 {
		fmt.Fprintf(&b, "\nYour previous draft cited %v, which do not correspond to any source above. Rewrite using only valid citation numbers.\n", mismatch)
	}
	return b.String()
}

// mergeSources collects the union of every finding's sources, in
// first-appearance order, deduplicated by URL.
func mergeSources(findings []*research.Findings) []research.Source {
	seen := make(map[string]bool)
	var out []research.Source
	for _, f := range findings {
		if f == nil {
			continue
		}
		for _, src := range f.Sources {
			if seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			out = append(out, src)
		}
	}
	return out
}

// unmatchedCitations returns every numeric citation in markdown that falls
// outside [1, sourceCount], deduplicated and in first-appearance order.
func unmatchedCitations(markdown string, sourceCount int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range citationPattern.FindAllStringSubmatch(markdown, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n < 1 || n > sourceCount {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}
