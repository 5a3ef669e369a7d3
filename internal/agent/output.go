// internal/agent/output.go
package agent

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Output is a parsed agent output: raw section rows per host. The host the
// output was fetched from is stored under the empty name.
type Output struct {
	hosts map[string]map[string][][]string
	order map[string][]string
}

// SourceHost is the key of the sections that belong to the queried host.
const SourceHost = ""

func newOutput() *Output {
	return &Output{
		hosts: make(map[string]map[string][][]string),
		order: make(map[string][]string),
	}
}

func (o *Output) add(host, section string, row []string) {
	sections, ok := o.hosts[host]
	if !ok {
		sections = make(map[string][][]string)
		o.hosts[host] = sections
	}
	if _, seen := sections[section]; !seen {
		o.order[host] = append(o.order[host], section)
		sections[section] = nil
	}
	if row != nil {
		sections[section] = append(sections[section], row)
	}
}

// Hosts returns the piggyback hosts found in the output, sorted. The source
// host is not included.
func (o *Output) Hosts() []string {
	var hosts []string
	for h := range o.hosts {
		if h != SourceHost {
			hosts = append(hosts, h)
		}
	}
	sort.Strings(hosts)
	return hosts
}

// Sections returns the section names of host in the order they appeared.
func (o *Output) Sections(host string) []string {
	return o.order[host]
}

// Rows returns the rows of a section of host.
func (o *Output) Rows(host, section string) ([][]string, bool) {
	sections, ok := o.hosts[host]
	if !ok {
		return nil, false
	}
	rows, ok := sections[section]
	return rows, ok
}

type header struct {
	name string
	sep  rune
}

// parseHeader reads "name" or "name:sep(124):other(opts)".
func parseHeader(s string) (header, error) {
	parts := strings.Split(s, ":")
	h := header{name: parts[0]}
	if h.name == "" {
		return h, fmt.Errorf("%w: %q", ErrInvalidHeader, s)
	}
	for _, opt := range parts[1:] {
		if !strings.HasPrefix(opt, "sep(") || !strings.HasSuffix(opt, ")") {
			continue
		}
		code, err := strconv.Atoi(opt[len("sep(") : len(opt)-1])
		if err != nil || code < 0 || code > unicode.MaxRune {
			return h, fmt.Errorf("%w: bad separator in %q", ErrInvalidHeader, s)
		}
		h.sep = rune(code)
	}
	return h, nil
}

func splitRow(line string, sep rune) []string {
	if sep == 0 {
		return strings.Fields(line)
	}
	return strings.Split(line, string(sep))
}

// Split parses agent output. Section headers look like <<<name:sep(124)>>>;
// without a separator option rows are split at whitespace. Piggyback blocks
// <<<<host>>>> ... <<<<>>>> route their sections to the named host.
func Split(r io.Reader) (*Output, error) {
	out := newOutput()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	host := SourceHost
	var current *header
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if strings.HasPrefix(line, "<<<<") && strings.HasSuffix(line, ">>>>") {
			host = strings.TrimSpace(line[4 : len(line)-4])
			current = nil
			continue
		}

		if strings.HasPrefix(line, "<<<") && strings.HasSuffix(line, ">>>") {
			h, err := parseHeader(strings.TrimSpace(line[3 : len(line)-3]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = &h
			out.add(host, h.name, nil)
			continue
		}

		if current == nil {
			// data before the first header is not attributable
			continue
		}
		out.add(host, current.name, splitRow(line, current.sep))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read agent output: %w", err)
	}
	return out, nil
}
