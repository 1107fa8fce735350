package ffmpeg

import (
	"fmt"
	"strings"
)

// BuildConcatCommand joins the inputs end to end, re-encoding through the
// concat filter so mismatched codecs and timestamps don't matter.
func BuildConcatCommand(binary string, inputs []string, outfile string) (*Command, error) {
	if len(inputs) < 2 {
		return nil, fmt.Errorf("concat: need at least two inputs, got %d", len(inputs))
	}

	cmd := NewCommand(binary).Output(outfile).Overwrite(true)

	var graph strings.Builder
	for i, input := range inputs {
		cmd.Input(input)
		fmt.Fprintf(&graph, "[%d:v][%d:a]", i, i)
	}
	fmt.Fprintf(&graph, "concat=n=%d:v=1:a=1[v][a]", len(inputs))

	cmd.FilterComplex(graph.String())
	cmd.Map("[v]")
	cmd.Map("[a]")
	return cmd, nil
}
