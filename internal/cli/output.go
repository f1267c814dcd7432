package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/redis"

	"github.com/fatih/color"
)

var (
	warnColor  = color.New(color.FgYellow, color.Bold)
	labelColor = color.New(color.FgCyan)
	dimColor   = color.New(color.Faint)
)

// RenderSummary writes a human-readable summary of one request
func RenderSummary(w io.Writer, s association.Summary) {
	label := s.Label
	if label == "" {
		label = "(unlabeled)"
	}
	fmt.Fprintf(w, "%s %s %s\n",
		labelColor.Sprint(label),
		dimColor.Sprint(s.RequestID),
		dimColor.Sprint(s.StartedAt.Format(time.RFC3339)))

	if !s.HasFindings() {
		fmt.Fprintln(w, "  no findings")
		return
	}
	for _, f := range s.Unpreloaded {
		fmt.Fprintf(w, "  %s %s\n", warnColor.Sprint("N+1"), describe(f))
		fmt.Fprintf(w, "      add eager loading for %s\n", f.Key)
	}
	for _, f := range s.Unused {
		fmt.Fprintf(w, "  %s %s under %s\n", warnColor.Sprint("unused"), f.Key, f.Context)
		fmt.Fprintf(w, "      remove eager loading of %s\n", f.Key)
	}
}

// RenderTop writes ranked findings
func RenderTop(w io.Writer, counts []redis.FindingCount) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "no findings recorded")
		return
	}
	for i, c := range counts {
		fmt.Fprintf(w, "%3d. %s %s\n", i+1, warnColor.Sprintf("x%d", c.Occurrences), describe(c.Finding))
	}
}

func describe(f association.Finding) string {
	return fmt.Sprintf("%s under %s (%d objects)", f.Key, f.Context, f.Objects)
}
