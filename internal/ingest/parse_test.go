package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseFile_Text(t *testing.T) {
	text, err := ParseFile("notes.md", []byte("# Title\n\nGo uses goroutines.\n"))
	require.NoError(t, err)
	assert.Equal(t, "# Title\n\nGo uses goroutines.", text)

	text, err = ParseFile("NOTES.TXT", []byte("ok\xffdone"))
	require.NoError(t, err)
	assert.Equal(t, "okdone", text, "invalid UTF-8 is dropped")
}

func TestParseFile_Errors(t *testing.T) {
	_, err := ParseFile("image.png", []byte("PNG"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseFile("noext", []byte("text"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = ParseFile("empty.txt", []byte(" \n\t "))
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = ParseFile("broken.pdf", []byte("not a pdf"))
	assert.ErrorIs(t, err, ErrCorruptDocument)

	_, err = ParseFile("broken.xlsx", []byte("not a zip"))
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func TestParseFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"subject", "relation", "object"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Redis", "is_a", "cache"}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	text, err := ParseFile("facts.xlsx", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "subject\trelation\tobject\nRedis\tis_a\tcache", text)
}

type fakeBook struct {
	sheets []string
	rows   map[string][][]string
	errs   map[string]error
}

func (b fakeBook) GetSheetList() []string { return b.sheets }

func (b fakeBook) GetRows(sheet string, _ ...excelize.Options) ([][]string, error) {
	return b.rows[sheet], b.errs[sheet]
}

func TestRenderSheets_UnreadableSheetFails(t *testing.T) {
	book := fakeBook{
		sheets: []string{"Good", "Broken"},
		rows:   map[string][][]string{"Good": {{"Redis", "is_a", "cache"}}},
		errs:   map[string]error{"Broken": errors.New("xml syntax error")},
	}

	_, err := renderSheets(book)
	require.ErrorIs(t, err, ErrCorruptDocument)
	assert.Contains(t, err.Error(), `"Broken"`)

	delete(book.errs, "Broken")
	text, err := renderSheets(book)
	require.NoError(t, err)
	assert.Equal(t, "Redis\tis_a\tcache\n", text)
}
