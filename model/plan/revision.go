package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
	"github.com/viant/cogniflow/internal/clock"
)

// Revision records one review gate edit as a unified diff of the rendered plan.
type Revision struct {
	Operation string    `json:"operation"`
	At        time.Time `json:"at"`
	Diff      string    `json:"diff"`
	Added     int       `json:"added"`
	Removed   int       `json:"removed"`
}

// NewRevision diffs two rendered plans; it returns nil when nothing changed.
func NewRevision(operation, before, after string) *Revision {
	if before == after {
		return nil
	}
	unified := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "plan.before",
		ToFile:   "plan.after",
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(unified)
	if err != nil || text == "" {
		return nil
	}
	ret := &Revision{Operation: operation, At: clock.Now(), Diff: text}
	if fileDiff, err := diff.ParseFileDiff([]byte(text)); err == nil {
		ret.Added, ret.Removed = countLines(fileDiff)
	}
	return ret
}

func countLines(fileDiff *diff.FileDiff) (added, removed int) {
	for _, hunk := range fileDiff.Hunks {
		for _, line := range strings.Split(string(hunk.Body), "\n") {
			switch {
			case strings.HasPrefix(line, "+"):
				added++
			case strings.HasPrefix(line, "-"):
				removed++
			}
		}
	}
	return added, removed
}

// Render prints the plan one step per line for diffing and logging.
func Render(p *Plan) string {
	if p == nil {
		return ""
	}
	builder := strings.Builder{}
	for _, step := range p.Steps {
		builder.WriteString(fmt.Sprintf("%d. [%s] %s", step.Ordinal, step.Tool, step.Description))
		if arg := argument(step.Params); arg != "" {
			builder.WriteString(" | ")
			builder.WriteString(arg)
		}
		builder.WriteByte('\n')
	}
	return builder.String()
}

func argument(params Params) string {
	switch actual := params.(type) {
	case SearchParams:
		return "query=" + actual.Query
	case CodeParams:
		return "code=" + strings.ReplaceAll(actual.Code, "\n", "\\n")
	case ModulationParams:
		return "concept=" + actual.Concept
	case ImageSynthesisParams:
		return "concept=" + actual.Concept
	case ImageAnalysisParams:
		return fmt.Sprintf("source_step=%d", actual.SourceStep)
	}
	return ""
}
