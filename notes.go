package masters

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// NoteBlock is one dated group of free-text schedule notes. An empty
// Date marks the continuation of the previous block's date.
type NoteBlock struct {
	Date  string
	Lines []string
}

// DefaultNoteWidth is the nominal note file line length; the date
// gutter is carved out of it when rendering.
const DefaultNoteWidth = 80

// noteGutter is the width of the left-justified date column.
const noteGutter = 17

// draftLine replaces any note line carrying the draft marker.
const draftLine = "DRAFT!!       DRAFT!!     DRAFT!!      NOT FINAL!!!     DRAFT!!         DRAFT!!"

var (
	letterItemRe = regexp.MustCompile(`^[A-Z]\s-\s`)
	numberItemRe = regexp.MustCompile(`^[1-9]\.\s`)
)

// cleanPunctuation collapses doubled post-punctuation spaces, repeating
// until the line stops changing. Each pass strictly shrinks the line,
// so the loop terminates.
func cleanPunctuation(line string) string {
	for {
		text := strings.ReplaceAll(line, ".  ", ". ")
		text = strings.ReplaceAll(text, ",  ", ", ")
		if text == line {
			return text
		}
		line = text
	}
}

// sameParagraph reports whether a line continues the previous one and
// returns the line to carry forward. A line starting a lettered or
// numbered list item stands on its own untouched; otherwise the line
// has doubled post-punctuation spaces collapsed, and continues the
// paragraph only when it was already single-spaced.
func sameParagraph(line string) (bool, string) {
	if letterItemRe.MatchString(line) || numberItemRe.MatchString(line) {
		return false, line
	}
	line = cleanPunctuation(line)
	return strings.Join(strings.Fields(line), " ") == line, line
}

// splitParagraph greedily wraps text at the last space within width.
// A paragraph already within width is returned as-is.
func splitParagraph(text string, width int) []string {
	var lines []string
	for len(text) > width {
		index := strings.LastIndex(text[:width], " ")
		if index <= 0 {
			// A single word longer than the width; hard break so the
			// remainder keeps shrinking.
			index = width
		}
		lines = append(lines, strings.TrimSpace(text[:index]))
		text = strings.TrimSpace(text[index:])
	}
	return append(lines, text)
}

// WrapParagraphs merges continuation lines into paragraphs and re-wraps
// each merged paragraph to width. Lines recognized as freestanding pass
// through untouched.
func WrapParagraphs(lines []string, width int) []string {
	var paragraph, wrapped []string
	flush := func() {
		if len(paragraph) > 0 {
			wrapped = append(wrapped, splitParagraph(strings.Join(paragraph, " "), width)...)
			paragraph = nil
		}
	}
	for _, line := range lines {
		ok, line := sameParagraph(line)
		if ok {
			paragraph = append(paragraph, line)
		} else {
			flush()
			wrapped = append(wrapped, line)
		}
	}
	flush()
	return wrapped
}

// Notes is a note document extracted from the schedule-notes source.
type Notes struct {
	Title   string
	Updated string
	Author  string
	// MaxLineLength is the full output width including the date gutter.
	MaxLineLength int
	Blocks        []NoteBlock
}

// Write renders the dated note file: centered title and update lines,
// then each block with a 17-character date gutter, continuation lines
// blanked, and a blank line between groups. A wrapped tail shorter
// than ten characters is folded back into the previous line.
func (n *Notes) Write(w io.Writer) error {
	width := n.MaxLineLength
	if width == 0 {
		width = DefaultNoteWidth
	}
	width -= noteGutter
	if n.Title != "" {
		if _, err := fmt.Fprintf(w, "\n%s\n\n", center(n.Title, 101)); err != nil {
			return err
		}
	}
	if n.Updated != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", center(n.Updated, 101)); err != nil {
			return err
		}
	}
	for _, block := range n.Blocks {
		date := block.Date
		comments := WrapParagraphs(block.Lines, width)
		if len(comments) > 1 && len(comments[len(comments)-1]) < 10 {
			comments[len(comments)-2] += " " + comments[len(comments)-1]
			comments = comments[:len(comments)-1]
		}
		for _, comment := range comments {
			if strings.Contains(comment, "DRAFT!!") {
				comment = draftLine
			}
			if _, err := fmt.Fprintf(w, "%-*s%s\n", noteGutter, date, comment); err != nil {
				return err
			}
			date = " "
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// EmailLines extracts the note group for today ("January 02" form):
// blocks dated today plus their undated continuations, dropped again
// whenever a differently-dated block interrupts. Comment lines are
// indented under their date.
func (n *Notes) EmailLines(now time.Time) (string, []string) {
	today := now.Format("January 02")
	var accepted []NoteBlock
	for _, block := range n.Blocks {
		if block.Date == today || (len(accepted) > 0 && block.Date == "") {
			accepted = append(accepted, block)
		} else {
			accepted = nil
		}
	}
	var lines []string
	for _, block := range accepted {
		if block.Date != "" {
			lines = append(lines, block.Date)
		}
		for _, comment := range WrapParagraphs(block.Lines, DefaultNoteWidth) {
			lines = append(lines, strings.Repeat(" ", 15)+comment)
		}
		lines = append(lines, "")
	}
	return today, lines
}

// center pads s on both sides to width, extra space on the right.
func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	left := (width - len(s)) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-len(s)-left)
}
