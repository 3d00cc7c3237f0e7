// Package docx extracts schedule notes from a Word document. Only the
// pieces the note pipeline needs are read: body paragraphs, the note
// table, and the core properties. A docx file is a zip archive of
// WordprocessingML parts, which the stdlib handles fine.
package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nvi-inc/masters"
)

// Document is the extracted note source.
type Document struct {
	Title         string
	Updated       string
	Author        string
	MaxLineLength int
	Blocks        []masters.NoteBlock
}

// Read opens a docx file and extracts the note blocks. The first table
// row is the column header and is skipped; column one is the date,
// column two the note text, one block per row.
func Read(path string) (*Document, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%s is not a docx document: %w", path, err)
	}
	defer archive.Close()

	doc := &Document{Author: "N/A", MaxLineLength: masters.DefaultNoteWidth}
	body, err := openPart(&archive.Reader, "word/document.xml")
	if err != nil {
		return nil, err
	}
	if err := doc.readBody(body); err != nil {
		body.Close()
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	body.Close()

	// Core properties are optional; a document without them keeps the
	// defaults.
	if props, err := openPart(&archive.Reader, "docProps/core.xml"); err == nil {
		doc.readProperties(props)
		props.Close()
	}
	return doc, nil
}

func openPart(archive *zip.Reader, name string) (io.ReadCloser, error) {
	for _, file := range archive.File {
		if file.Name == name {
			return file.Open()
		}
	}
	return nil, fmt.Errorf("no %s part in document", name)
}

// wordprocessingml mirrors just enough of the document body: top level
// paragraphs and tables, in document order.
type wmlBody struct {
	Content []wmlBlock `xml:",any"`
}

type wmlBlock struct {
	XMLName xml.Name
	Runs    []wmlText `xml:"r>t"`
	Rows    []wmlRow  `xml:"tr"`
}

type wmlRow struct {
	Cells []wmlCell `xml:"tc"`
}

type wmlCell struct {
	Paragraphs []wmlParagraph `xml:"p"`
}

type wmlParagraph struct {
	Runs []wmlText `xml:"r>t"`
}

type wmlText struct {
	Text string `xml:",chardata"`
}

func (d *Document) readBody(r io.Reader) error {
	var document struct {
		Body wmlBody `xml:"body"`
	}
	if err := xml.NewDecoder(r).Decode(&document); err != nil {
		return err
	}
	for _, block := range document.Body.Content {
		switch block.XMLName.Local {
		case "p":
			text := joinRuns(block.Runs)
			if strings.Contains(text, "SCHEDULE NOTES") {
				d.Title = text
			} else if strings.Contains(text, "Last Updated") {
				d.Updated = text
			}
		case "tbl":
			for _, row := range block.Rows[min(1, len(block.Rows)):] {
				if len(row.Cells) < 2 {
					continue
				}
				nb := masters.NoteBlock{Date: cellText(row.Cells[0])}
				for _, p := range row.Cells[1].Paragraphs {
					nb.Lines = append(nb.Lines, joinRuns(p.Runs))
				}
				d.Blocks = append(d.Blocks, nb)
			}
		}
	}
	return nil
}

func joinRuns(runs []wmlText) string {
	var b strings.Builder
	for _, run := range runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

func cellText(cell wmlCell) string {
	var lines []string
	for _, p := range cell.Paragraphs {
		lines = append(lines, joinRuns(p.Runs))
	}
	return strings.Join(lines, "\n")
}

// readProperties pulls the author and the optional MaxLineLength
// override out of the core-properties comments.
func (d *Document) readProperties(r io.Reader) {
	var props struct {
		Creator     string `xml:"creator"`
		Description string `xml:"description"`
	}
	if err := xml.NewDecoder(r).Decode(&props); err != nil {
		return
	}
	if props.Creator != "" {
		d.Author = props.Creator
	}
	for _, comment := range strings.Split(props.Description, "\n") {
		if strings.Contains(comment, "MaxLineLength") {
			_, value, found := strings.Cut(comment, ":")
			if !found {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
				d.MaxLineLength = n
			}
		}
	}
}

// Notes converts the document into the note model used by the
// renderers.
func (d *Document) Notes() *masters.Notes {
	return &masters.Notes{
		Title:         d.Title,
		Updated:       d.Updated,
		Author:        d.Author,
		MaxLineLength: d.MaxLineLength,
		Blocks:        d.Blocks,
	}
}
