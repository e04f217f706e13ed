// Package parser turns a Markdown document with YAML frontmatter into a journal
// entry draft.
package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/dagaz/internal/models"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([\p{L}][\p{L}\p{N}_/-]*)`)

// Draft is an entry as described by a Markdown document. Moods and tags are
// still names; resolving them is up to the caller.
type Draft struct {
	Date           time.Time
	Title          string
	Mood           string
	SecondaryMoods []string
	Tags           []string
	Category       string
	Body           string
}

type frontmatter struct {
	Date           string     `yaml:"date"`
	Title          string     `yaml:"title"`
	Mood           string     `yaml:"mood"`
	SecondaryMoods stringList `yaml:"secondary_moods"`
	Tags           stringList `yaml:"tags"`
	Category       string     `yaml:"category"`
}

// stringList accepts either a YAML sequence or a comma-separated scalar.
type stringList []string

func (l *stringList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, part := range strings.Split(n.Value, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		var raw []string
		if err := n.Decode(&raw); err != nil {
			return err
		}
		*l = raw
		return nil
	default:
		return fmt.Errorf("line %d: expected list or string", n.Line)
	}
}

// Parse extracts a Draft from raw Markdown bytes. A document without (or with
// unreadable) frontmatter yields a draft with only Title and Body set; a date
// that is present but not YYYY-MM-DD is an error.
func Parse(data []byte) (*Draft, error) {
	fm, body, ok := splitFrontmatter(data)

	d := &Draft{Body: strings.TrimSpace(body)}
	if ok {
		if fm.Date != "" {
			date, err := models.ParseDay(fm.Date)
			if err != nil {
				return nil, fmt.Errorf("parser: invalid date %q: %w", fm.Date, err)
			}
			d.Date = date
		}
		d.Title = strings.TrimSpace(fm.Title)
		d.Mood = strings.TrimSpace(fm.Mood)
		d.SecondaryMoods = trimAll(fm.SecondaryMoods)
		d.Category = strings.TrimSpace(fm.Category)
	}
	if d.Title == "" {
		d.Title = firstHeading(body)
	}
	d.Tags = extractTags(body, fm.Tags)
	return d, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no valid frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (frontmatter, string, bool) {
	const delim = "---"
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data), false
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return frontmatter{}, string(data), false
	}
	return fm, body, true
}

// extractTags merges frontmatter tags with inline #tags from body, first
// occurrence wins, compared case-insensitively.
func extractTags(body string, fmTags []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(tag string) {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}

	for _, t := range fmTags {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// firstHeading returns the text of the first H1 heading, or "".
func firstHeading(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
