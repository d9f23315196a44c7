package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/querymatch/internal/compare"
	"github.com/roach88/querymatch/internal/descriptor"
	"github.com/roach88/querymatch/internal/value"
)

func negatedMessage(name, shown string, actual []descriptor.Descriptor) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "not %s(recorder, expected)\n\n", name)
	buf.WriteString("Expected not to have been queried with:\n")
	fmt.Fprintf(&buf, "  %s\n", shown)
	buf.WriteString("Instead, it queried:\n")
	fmt.Fprintf(&buf, "  %s\n", formatDescriptors(actual))
	return buf.String()
}

func failureMessage(name, shown string, actual []descriptor.Descriptor, diffs string) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s(recorder, expected)\n\n", name)
	buf.WriteString("Expected to have been queried with:\n")
	fmt.Fprintf(&buf, "  %s\n", shown)
	buf.WriteString("Instead, it queried:\n")
	fmt.Fprintf(&buf, "  %s\n", formatDescriptors(actual))
	buf.WriteString("\nDifference:\n\n")
	buf.WriteString(diffs)
	return buf.String()
}

func callLabel(i int) string {
	return fmt.Sprintf("Call %d", i+1)
}

func block(label, body string) string {
	return label + ":\n" + body
}

func joinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n\n")
}

// formatMap renders a mapping as {key: value, ...} with sorted keys.
func formatMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + value.Stringify(m[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatExpectation(e compare.Expectation) string {
	return formatMap(e)
}

func formatSequence(seq compare.Sequence) string {
	parts := make([]string, len(seq))
	for i, e := range seq {
		if e == nil {
			parts[i] = "<any>"
			continue
		}
		parts[i] = formatExpectation(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatDescriptors(ds []descriptor.Descriptor) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = formatMap(d.Map())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
