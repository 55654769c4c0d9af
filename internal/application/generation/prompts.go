package generation

import (
	"fmt"
	"strings"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/worldbible"
)

const systemPreamble = `You are a worldbuilding assistant helping an author keep a story bible.
Stay consistent with the project's genre and tone. Never mention that you are an AI.`

func projectContext(p *project.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", p.Title)
	if p.Genre != "" {
		fmt.Fprintf(&b, "Genre: %s\n", p.Genre)
	}
	if p.Synopsis != "" {
		fmt.Fprintf(&b, "Synopsis: %s\n", p.Synopsis)
	}
	return b.String()
}

// generateSystemPrompt describes the JSON object expected for one entry
func generateSystemPrompt(kind worldbible.Kind, schema []worldbible.Field, p *project.Project) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	b.WriteString(projectContext(p))
	fmt.Fprintf(&b, "\nCreate one %s for this project.\n", strings.ToLower(kind.Label()))
	b.WriteString("Reply with a single JSON object and nothing else. Keys:\n")
	b.WriteString(`- "name": string (required)` + "\n")
	b.WriteString(`- "description": string, two or three paragraphs` + "\n")
	b.WriteString(`- "tags": array of short strings` + "\n")
	for _, f := range schema {
		if f.IsList {
			fmt.Fprintf(&b, "- %q: array of strings (%s)\n", f.Key, f.Label)
		} else {
			fmt.Fprintf(&b, "- %q: string (%s)\n", f.Key, f.Label)
		}
	}
	return b.String()
}

func enhanceSystemPrompt(kind worldbible.Kind, p *project.Project) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	if p != nil {
		b.WriteString(projectContext(p))
	}
	fmt.Fprintf(&b, "\nRewrite the description of the %s below. ", strings.ToLower(kind.Label()))
	b.WriteString("Keep every established fact. Reply with the new description only, as plain prose.")
	return b.String()
}

func enhanceUserPrompt(name, description string, fields []worldbible.Field, instruction string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", name)
	for _, f := range fields {
		switch {
		case f.IsList && len(f.List) > 0:
			fmt.Fprintf(&b, "%s: %s\n", f.Label, strings.Join(f.List, ", "))
		case !f.IsList && f.Text != "":
			fmt.Fprintf(&b, "%s: %s\n", f.Label, f.Text)
		}
	}
	fmt.Fprintf(&b, "\nCurrent description:\n%s\n", description)
	if instruction != "" {
		fmt.Fprintf(&b, "\nInstruction: %s\n", instruction)
	}
	return b.String()
}

func namesSystemPrompt(kind worldbible.Kind, p *project.Project, count int) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n\n")
	b.WriteString(projectContext(p))
	fmt.Fprintf(&b, "\nSuggest %d distinct names for a %s in this project. ", count, strings.ToLower(kind.Label()))
	b.WriteString("Reply with a JSON array of strings and nothing else.")
	return b.String()
}
