package frontmatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/frontdate/internal/apperr"
	"github.com/starford/frontdate/internal/caldate"
)

var today = caldate.New(2023, 8, 15)

func TestSplit_FrontMatterAndContent(t *testing.T) {
	input := "+++\ntitle = \"Hello\"\n+++\n\n# Hello\nBody text.\n"
	doc, err := Split(input)
	require.NoError(t, err)
	assert.Equal(t, "\ntitle = \"Hello\"\n", doc.FrontMatter)
	assert.Equal(t, "# Hello\nBody text.\n", doc.Content)
	assert.Equal(t, input, string(doc.Render()))
}

func TestSplit_Layouts(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		frontMatter string
		content     string
		rendered    string
	}{
		{
			name:        "no blank line before content",
			input:       "+++\na = 1\n+++\n# Hi\n",
			frontMatter: "\na = 1\n",
			content:     "# Hi\n",
			rendered:    "+++\na = 1\n+++\n\n# Hi\n",
		},
		{
			name:        "leading whitespace and no content",
			input:       "\n  +++\na = 1\n+++\n",
			frontMatter: "\na = 1\n",
			content:     "",
			rendered:    "+++\na = 1\n+++\n",
		},
		{
			name:        "several blank lines collapse",
			input:       "+++\na = 1\n+++\n\n\n\nbody\n",
			frontMatter: "\na = 1\n",
			content:     "body\n",
			rendered:    "+++\na = 1\n+++\n\nbody\n",
		},
		{
			name:        "delimiter inside a value",
			input:       "+++\nx = 'a+++b'\n+++\nbody",
			frontMatter: "\nx = 'a+++b'\n",
			content:     "body",
			rendered:    "+++\nx = 'a+++b'\n+++\n\nbody",
		},
		{
			name:        "empty front matter",
			input:       "+++\n+++\nbody\n",
			frontMatter: "\n",
			content:     "body\n",
			rendered:    "+++\n+++\n\nbody\n",
		},
		{
			name:        "crlf",
			input:       "+++\r\na = 1\r\n+++\r\n\r\nbody\r\n",
			frontMatter: "\r\na = 1\r\n",
			content:     "body\r\n",
			rendered:    "+++\r\na = 1\r\n+++\r\n\r\nbody\r\n",
		},
		{
			name:        "crlf without blank line",
			input:       "+++\r\na = 1\r\n+++\r\nbody\r\n",
			frontMatter: "\r\na = 1\r\n",
			content:     "body\r\n",
			rendered:    "+++\r\na = 1\r\n+++\r\n\r\nbody\r\n",
		},
		{
			name:        "crlf and no content",
			input:       "+++\r\na = 1\r\n+++\r\n",
			frontMatter: "\r\na = 1\r\n",
			content:     "",
			rendered:    "+++\r\na = 1\r\n+++\r\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Split(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.frontMatter, doc.FrontMatter)
			assert.Equal(t, tt.content, doc.Content)
			assert.Equal(t, tt.rendered, string(doc.Render()))
		})
	}
}

func TestSplit_NoFrontMatter(t *testing.T) {
	cases := []string{
		"# Just a heading\nSome text.\n",
		"+++\ntitle = 'x'\n",
		"---\ntitle: x\n---\nbody\n",
		"+++\na = 1\n+++ trailing\n",
		"",
	}
	for _, input := range cases {
		_, err := Split(input)
		assert.ErrorIs(t, err, apperr.ErrNoFrontMatter, "input %q", input)
	}
}

func TestParseBlock_Get(t *testing.T) {
	b, err := ParseBlock("\ntitle = \"Post\"\ndate = 2021-01-01T10:00:00Z\ndraft = true\n")
	require.NoError(t, err)

	v, ok := b.Get("date")
	require.True(t, ok)
	got, isDate := caldate.FromTOML(v)
	assert.True(t, isDate)
	assert.Equal(t, caldate.New(2021, 1, 1), got)

	v, ok = b.Get("draft")
	require.True(t, ok)
	assert.Equal(t, "boolean", TypeName(v))

	_, ok = b.Get("updated")
	assert.False(t, ok)
}

func TestParseBlock_InvalidTOML(t *testing.T) {
	_, err := ParseBlock("\ntitle = \n")
	assert.Error(t, err)
}

func TestBlock_EditsPreserveOtherText(t *testing.T) {
	src := "\ntitle = \"Post\" # keep\ndate = 2021-01-01T10:00:00Z # created\ntags = [\n  \"a\",\n  \"b\",\n]\n\n[extra]\ndate = \"nested\"\n"
	b, err := ParseBlock(src)
	require.NoError(t, err)

	b.SetDate("date", caldate.New(2022, 2, 2), "")
	b.SetDate("updated", today, "date")
	want := "\ntitle = \"Post\" # keep\ndate = 2022-02-02 # created\nupdated = 2023-08-15\ntags = [\n  \"a\",\n  \"b\",\n]\n\n[extra]\ndate = \"nested\"\n"
	assert.Equal(t, want, b.String())

	b.Delete("updated")
	assert.Equal(t, "\ntitle = \"Post\" # keep\ndate = 2022-02-02 # created\ntags = [\n  \"a\",\n  \"b\",\n]\n\n[extra]\ndate = \"nested\"\n", b.String())

	b.Delete("missing")
	reparsed, err := ParseBlock(b.String())
	require.NoError(t, err)
	extra, _ := reparsed.Get("extra")
	assert.Equal(t, map[string]any{"date": "nested"}, extra)
}

func TestBlock_SetDate(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		key   string
		after string
		want  string
	}{
		{
			name: "append after last root key",
			src:  "\ntitle = \"x\"\n\n[extra]\ny = 1\n",
			key:  "date",
			want: "\ntitle = \"x\"\ndate = 2023-08-15\n\n[extra]\ny = 1\n",
		},
		{
			name: "no root keys goes before table comments",
			src:  "\n# about extra\n[extra]\ny = 1\n",
			key:  "date",
			want: "\ndate = 2023-08-15\n# about extra\n[extra]\ny = 1\n",
		},
		{
			name: "empty block",
			src:  "\n",
			key:  "date",
			want: "\ndate = 2023-08-15\n",
		},
		{
			name: "multi-line wrong typed value is replaced",
			src:  "\ndate = [\n  1,\n]\ntitle = 'x'\n",
			key:  "date",
			want: "\ndate = 2023-08-15\ntitle = 'x'\n",
		},
		{
			name: "quoted key keeps its spelling",
			src:  "\n\"date\" = \"soon\" # todo\n",
			key:  "date",
			want: "\n\"date\" = 2023-08-15\n",
		},
		{
			name: "dotted keys collapse to one",
			src:  "\ndate.a = 1\ndate.b = 2\nx = 3\n",
			key:  "date",
			want: "\ndate = 2023-08-15\nx = 3\n",
		},
		{
			name: "indentation is kept",
			src:  "\n  date   =   2020-01-01\n",
			key:  "date",
			want: "\n  date   =   2023-08-15\n",
		},
		{
			name:  "updated goes after date",
			src:   "\r\ndate = 2021-01-01\r\ntitle = 'x'\r\n",
			key:   "updated",
			after: "date",
			want:  "\r\ndate = 2021-01-01\r\nupdated = 2023-08-15\r\ntitle = 'x'\r\n",
		},
		{
			name: "missing trailing newline",
			src:  "title = 'x'",
			key:  "date",
			want: "title = 'x'\ndate = 2023-08-15\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseBlock(tt.src)
			require.NoError(t, err)
			b.SetDate(tt.key, today, tt.after)
			assert.Equal(t, tt.want, b.String())

			reparsed, err := ParseBlock(b.String())
			require.NoError(t, err)
			v, ok := reparsed.Get(tt.key)
			require.True(t, ok)
			got, isDate := caldate.FromTOML(v)
			assert.True(t, isDate)
			assert.Equal(t, today, got)
		})
	}
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "string", TypeName("x"))
	assert.Equal(t, "integer", TypeName(int64(1)))
	assert.Equal(t, "datetime", TypeName(time.Now()))
	assert.Equal(t, "array", TypeName([]any{}))
	assert.Equal(t, "table", TypeName(map[string]any{}))
}
