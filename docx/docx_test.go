package docx

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nvi-inc/masters"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>SCHEDULE NOTES for 2024</w:t></w:r></w:p>
    <w:p><w:r><w:t>Last Updated - January 05, 2024</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Date</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Comments</w:t></w:r></w:p></w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p><w:r><w:t>January 05</w:t></w:r></w:p></w:tc>
        <w:tc>
          <w:p><w:r><w:t>First </w:t></w:r><w:r><w:t>note line</w:t></w:r></w:p>
          <w:p><w:r><w:t>second paragraph</w:t></w:r></w:p>
        </w:tc>
      </w:tr>
      <w:tr>
        <w:tc><w:p></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>continuation block</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

const coreXML = `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
    xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:creator>C. Thomas</dc:creator>
  <dc:description>MaxLineLength: 72</dc:description>
</cp:coreProperties>`

func writeDocx(t *testing.T, parts map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range parts {
		part, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRead(t *testing.T) {
	path := writeDocx(t, map[string]string{
		"word/document.xml": documentXML,
		"docProps/core.xml": coreXML,
	})
	doc, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %s", err)
	}
	if doc.Title != "SCHEDULE NOTES for 2024" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Updated != "Last Updated - January 05, 2024" {
		t.Errorf("Updated = %q", doc.Updated)
	}
	if doc.Author != "C. Thomas" {
		t.Errorf("Author = %q", doc.Author)
	}
	if doc.MaxLineLength != 72 {
		t.Errorf("MaxLineLength = %d, want 72", doc.MaxLineLength)
	}
	want := []masters.NoteBlock{
		{Date: "January 05", Lines: []string{"First note line", "second paragraph"}},
		{Date: "", Lines: []string{"continuation block"}},
	}
	if diff := cmp.Diff(want, doc.Blocks); diff != "" {
		t.Errorf("unexpected blocks (-want +got):\n%s", diff)
	}
}

func TestReadWithoutProperties(t *testing.T) {
	path := writeDocx(t, map[string]string{"word/document.xml": documentXML})
	doc, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %s", err)
	}
	if doc.Author != "N/A" {
		t.Errorf("Author = %q, want default", doc.Author)
	}
	if doc.MaxLineLength != masters.DefaultNoteWidth {
		t.Errorf("MaxLineLength = %d, want default", doc.MaxLineLength)
	}
}

func TestReadRejectsNonDocx(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.docx")
	if err := os.WriteFile(path, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("Read() accepted a non-zip file")
	}
}

func TestNotes(t *testing.T) {
	doc := &Document{
		Title:         "SCHEDULE NOTES",
		Updated:       "Last Updated - January 05, 2024",
		Author:        "C. Thomas",
		MaxLineLength: 72,
		Blocks:        []masters.NoteBlock{{Date: "January 05", Lines: []string{"x"}}},
	}
	n := doc.Notes()
	if n.Title != doc.Title || n.MaxLineLength != 72 || len(n.Blocks) != 1 {
		t.Errorf("Notes() = %+v", n)
	}
}
