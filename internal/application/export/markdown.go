package export

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
)

var (
	htmlTag        = regexp.MustCompile(`</?[a-zA-Z][a-zA-Z0-9]*(\s[^>]*)?/?>`)
	excessiveLines = regexp.MustCompile(`\n{3,}`)
)

var htmlConverter = func() *md.Converter {
	c := md.NewConverter("", true, nil)
	c.Use(plugin.GitHubFlavored())
	return c
}()

// Markdown renders the document as a single markdown file
func Markdown(doc *Document) string {
	title := cases.Title(language.English)
	var b strings.Builder

	p := doc.Project
	fmt.Fprintf(&b, "# %s\n\n", p.Title)
	if p.Genre != "" {
		fmt.Fprintf(&b, "**Genre:** %s  \n", title.String(p.Genre))
	}
	fmt.Fprintf(&b, "**Status:** %s  \n", title.String(p.Status))
	fmt.Fprintf(&b, "**Exported:** %s\n\n", doc.ExportedAt.Format("2006-01-02 15:04 MST"))
	if p.Synopsis != "" {
		b.WriteString(descriptionMarkdown(p.Synopsis))
		b.WriteString("\n\n")
	}

	for _, sec := range doc.Sections {
		if len(sec.Entries) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", plural(sec.Label))
		for _, e := range sec.Entries {
			writeEntry(&b, e)
		}
	}

	return excessiveLines.ReplaceAllString(strings.TrimSpace(b.String()), "\n\n") + "\n"
}

func writeEntry(b *strings.Builder, e worldbibleapp.EntryResponse) {
	fmt.Fprintf(b, "### %s\n\n", e.Name)
	if e.Description != "" {
		b.WriteString(descriptionMarkdown(e.Description))
		b.WriteString("\n\n")
	}
	for _, f := range e.Fields() {
		switch {
		case f.IsList && len(f.List) > 0:
			fmt.Fprintf(b, "- **%s:** %s\n", f.Label, strings.Join(f.List, ", "))
		case !f.IsList && f.Text != "":
			fmt.Fprintf(b, "- **%s:** %s\n", f.Label, singleLine(f.Text))
		}
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(b, "- **Tags:** %s\n", strings.Join(e.Tags, ", "))
	}
	b.WriteString("\n")
}

// descriptionMarkdown converts rich-text HTML descriptions; plain text
// passes through unchanged
func descriptionMarkdown(text string) string {
	text = strings.TrimSpace(text)
	if !htmlTag.MatchString(text) {
		return text
	}
	converted, err := htmlConverter.ConvertString(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(converted)
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// plural works for every kind label in use
func plural(label string) string {
	if strings.HasSuffix(label, "s") {
		return label
	}
	return label + "s"
}
