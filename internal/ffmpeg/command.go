package ffmpeg

import (
	"strings"
)

// Command accumulates one ffmpeg invocation. Args renders the pieces in the
// order ffmpeg expects: global flags, inputs, filters, maps, output options,
// output path.
type Command struct {
	binary        string
	global        []string
	inputs        []string
	videoFilter   string
	filterComplex string
	maps          []string
	options       []option
	overwrite     bool
	outputPath    string
}

type option struct {
	key   string
	value string
}

// NewCommand starts a Command for the given ffmpeg binary.
func NewCommand(binary string) *Command {
	return &Command{binary: binary}
}

func (c *Command) Binary() string { return c.binary }

// GlobalArgs appends flags that precede all inputs (e.g. -progress, -nostats).
func (c *Command) GlobalArgs(args ...string) *Command {
	c.global = append(c.global, args...)
	return c
}

// Input appends an input file.
func (c *Command) Input(path string) *Command {
	c.inputs = append(c.inputs, path)
	return c
}

// VideoFilter sets the -vf chain. Mutually exclusive with FilterComplex.
func (c *Command) VideoFilter(filter string) *Command {
	c.videoFilter = filter
	return c
}

// FilterComplex sets the -filter_complex graph.
func (c *Command) FilterComplex(graph string) *Command {
	c.filterComplex = graph
	return c
}

// Map appends a -map specifier.
func (c *Command) Map(spec string) *Command {
	c.maps = append(c.maps, spec)
	return c
}

// Option appends an output option in insertion order.
func (c *Command) Option(key, value string) *Command {
	c.options = append(c.options, option{key: key, value: value})
	return c
}

// Overwrite toggles -y.
func (c *Command) Overwrite(enabled bool) *Command {
	c.overwrite = enabled
	return c
}

// Output sets the output path.
func (c *Command) Output(path string) *Command {
	c.outputPath = path
	return c
}

// Args renders the full argument list (excluding the binary itself).
func (c *Command) Args() []string {
	args := make([]string, 0, len(c.global)+len(c.inputs)*2+len(c.maps)*2+len(c.options)*2+8)
	args = append(args, c.global...)
	if c.overwrite {
		args = append(args, "-y")
	}
	for _, input := range c.inputs {
		args = append(args, "-i", input)
	}
	if c.filterComplex != "" {
		args = append(args, "-filter_complex", c.filterComplex)
	}
	if c.videoFilter != "" {
		args = append(args, "-vf", c.videoFilter)
	}
	for _, m := range c.maps {
		args = append(args, "-map", m)
	}
	for _, opt := range c.options {
		args = append(args, "-"+opt.key, opt.value)
	}
	if c.outputPath != "" {
		args = append(args, c.outputPath)
	}
	return args
}

// String renders a copy-pasteable form of the invocation for dry runs and
// logs. Arguments containing shell metacharacters are single-quoted.
func (c *Command) String() string {
	parts := []string{c.binary}
	for _, arg := range c.Args() {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func shellQuote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\"'\\$&|;<>()[]{}*?#~") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}

// filterEscape escapes a filename for use inside a filter argument, where
// backslash, colon, and comma are significant.
func filterEscape(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`,`, `\,`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return replacer.Replace(path)
}
