// Copyright (c) 2023-2026, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

package cli

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/go-wordwrap"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

//go:embed README.md
var consoleReference string

const (
	defaultHelpWidth = 80
	minHelpWidth     = 40
	helpIndent       = "  "
)

// helpEntry is the reference of one console command.
type helpEntry struct {
	name    string
	group   string
	summary string
	usage   []string
	details []string
	example []string
}

// helpIndex is the console reference, grouped the way it is documented.
type helpIndex struct {
	groups  []string
	byGroup map[string][]*helpEntry
	entries map[string]*helpEntry
	width   int
}

// loadHelp parses a reference made of "## Group" sections holding "### command"
// entries. The first paragraph of an entry is its summary, a shell block its
// usage and a bash block an example session.
func loadHelp(doc string) *helpIndex {
	h := &helpIndex{
		byGroup: map[string][]*helpEntry{},
		entries: map[string]*helpEntry{},
		width:   defaultHelpWidth,
	}

	var (
		group string
		cur   *helpEntry
		block *[]string
		para  []string
	)
	endParagraph := func() {
		if cur != nil && len(para) > 0 {
			text := strings.Join(para, " ")
			if cur.summary == "" {
				cur.summary = text
			} else {
				cur.details = append(cur.details, text)
			}
		}
		para = nil
	}

	for _, raw := range strings.Split(doc, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if block != nil {
			if line == "```" {
				block = nil
			} else {
				*block = append(*block, line)
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "### "):
			endParagraph()
			cur = &helpEntry{name: strings.TrimSpace(line[4:]), group: group}
			h.entries[cur.name] = cur
			h.byGroup[group] = append(h.byGroup[group], cur)
		case strings.HasPrefix(line, "## "):
			endParagraph()
			cur = nil
			group = strings.TrimSpace(line[3:])
			h.groups = append(h.groups, group)
		case line == "```shell" && cur != nil:
			endParagraph()
			block = &cur.usage
		case line == "```bash" && cur != nil:
			endParagraph()
			block = &cur.example
		case strings.TrimSpace(line) == "":
			endParagraph()
		default:
			para = append(para, stripMarkdown(strings.TrimSpace(line)))
		}
	}
	endParagraph()
	return h
}

func stripMarkdown(s string) string {
	return strings.NewReplacer("`", "", "\\", "").Replace(s)
}

// fitTerminal wraps to the terminal width when stdout is a terminal.
func (h *helpIndex) fitTerminal() {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return
	}
	if w, _, err := term.GetSize(fd); err == nil && w >= minHelpWidth {
		h.width = w
	}
}

// commands returns the documented command names in sorted order.
func (h *helpIndex) commands() []string {
	names := make([]string, 0, len(h.entries))
	for name := range h.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (h *helpIndex) nameWidth() int {
	w := 0
	for name := range h.entries {
		if len(name) > w {
			w = len(name)
		}
	}
	return w
}

// overview lists the commands of the given groups with their summaries.
func (h *helpIndex) overview(groups ...string) string {
	var sb strings.Builder
	w := h.nameWidth()
	for i, g := range groups {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s:\n", g)
		for _, e := range h.byGroup[g] {
			prefix := fmt.Sprintf("%s%-*s  ", helpIndent, w, e.name)
			sb.WriteString(hangingWrap(prefix, e.summary, h.width))
		}
	}
	return sb.String()
}

func (h *helpIndex) general() string {
	return h.overview(h.groups...) +
		"\nType 'help <command>' for one command or 'help <group>' for one group.\n"
}

// describe returns the reference of a command, or the overview of a group.
func (h *helpIndex) describe(topic string) (string, error) {
	if e, ok := h.entries[topic]; ok {
		return h.entryText(e), nil
	}
	for _, g := range h.groups {
		if strings.EqualFold(g, topic) {
			return h.overview(g), nil
		}
	}
	return "", errors.Errorf("no help for %q, type 'help' for the command list", topic)
}

func (h *helpIndex) entryText(e *helpEntry) string {
	var sb strings.Builder
	sb.WriteString(hangingWrap(e.name+" - ", e.summary, h.width))
	if len(e.usage) > 0 {
		sb.WriteString("\nUsage:\n")
		for _, u := range e.usage {
			sb.WriteString(helpIndent + u + "\n")
		}
	}
	for _, d := range e.details {
		sb.WriteByte('\n')
		sb.WriteString(hangingWrap(helpIndent, d, h.width))
	}
	if len(e.example) > 0 {
		sb.WriteString("\nExample:\n")
		for _, x := range e.example {
			sb.WriteString(helpIndent + x + "\n")
		}
	}
	return sb.String()
}

// hangingWrap wraps text to width, the first line after prefix and the others
// indented to line up with it.
func hangingWrap(prefix, text string, width int) string {
	avail := width - len(prefix)
	if avail < minHelpWidth/2 {
		avail = minHelpWidth / 2
	}
	pad := strings.Repeat(" ", len(prefix))
	var sb strings.Builder
	for i, line := range strings.Split(wordwrap.WrapString(text, uint(avail)), "\n") {
		if i == 0 {
			sb.WriteString(prefix)
		} else {
			sb.WriteString(pad)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
