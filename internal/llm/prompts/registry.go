// Package prompts loads and renders the versioned prompt templates shipped
// with the binary.
//
// Template format: optional "---system" / "---user" role markers split the
// file into chat messages; a file with no markers is treated as one system
// message. Variables use {{var}} syntax and unknown variables are left
// untouched so a rendering bug is visible instead of silently dropped.
// Versions are inferred from the file name: intent_parse_v2.md -> "v2".
package prompts

import (
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"gias-workers/internal/common/errors"
	"gias-workers/internal/llm"
)

//go:embed templates/*.md
var templateFS embed.FS

var (
	varPattern     = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)
	rolePattern    = regexp.MustCompile(`(?m)^---\s*(\w+)\s*$`)
	versionPattern = regexp.MustCompile(`(_v\d+)$`)
)

// supported role markers inside templates
var validRoles = map[string]bool{
	"system":    true,
	"user":      true,
	"assistant": true,
	"tool":      true,
}

// Meta describes a rendered template.
type Meta struct {
	Name    string
	Version string
	Roles   []string
}

// Registry serves prompt templates from the embedded filesystem.
type Registry struct {
	fsys fs.FS
}

// NewRegistry returns the registry over the embedded templates.
func NewRegistry() *Registry {
	return &Registry{fsys: templateFS}
}

// List returns every template name, without the .md extension, sorted.
func (r *Registry) List() []string {
	entries, err := fs.Glob(r.fsys, "templates/*.md")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		base := strings.TrimPrefix(e, "templates/")
		names = append(names, strings.TrimSuffix(base, ".md"))
	}
	sort.Strings(names)
	return names
}

// Load returns the raw template text and its metadata.
func (r *Registry) Load(name string) (string, Meta, error) {
	fileName := name
	if !strings.HasSuffix(fileName, ".md") {
		fileName += ".md"
	}
	raw, err := fs.ReadFile(r.fsys, "templates/"+fileName)
	if err != nil {
		return "", Meta{}, errors.NewPromptNotFoundError(name)
	}

	stem := strings.TrimSuffix(fileName, ".md")
	meta := Meta{
		Name:    stem,
		Version: inferVersion(stem),
		Roles:   peekRoles(string(raw)),
	}
	return string(raw), meta, nil
}

// Render substitutes variables and splits the template into chat messages.
// userText, when non-empty, fills the user_text variable and, for templates
// without role markers, becomes the trailing user message.
func (r *Registry) Render(name string, variables map[string]string, userText string) ([]llm.Message, Meta, error) {
	raw, meta, err := r.Load(name)
	if err != nil {
		return nil, Meta{}, err
	}

	vars := make(map[string]string, len(variables)+1)
	for k, v := range variables {
		vars[k] = v
	}
	if userText != "" {
		if _, ok := vars["user_text"]; !ok {
			vars["user_text"] = userText
		}
	}

	rendered := substitute(raw, vars)
	sections := splitByRoles(rendered)

	var messages []llm.Message
	if len(sections) > 0 {
		for _, sec := range sections {
			if !validRoles[sec.role] {
				return nil, Meta{}, fmt.Errorf("template %s: unsupported role %q", name, sec.role)
			}
			content := strings.TrimSpace(sec.content)
			if content != "" {
				messages = append(messages, llm.Message{Role: sec.role, Content: content})
			}
		}
	} else {
		if content := strings.TrimSpace(rendered); content != "" {
			messages = append(messages, llm.Message{Role: "system", Content: content})
		}
		if userText != "" {
			messages = append(messages, llm.Message{Role: "user", Content: userText})
		}
	}

	if len(meta.Roles) == 0 {
		for _, m := range messages {
			meta.Roles = append(meta.Roles, m.Role)
		}
	}
	return messages, meta, nil
}

func inferVersion(stem string) string {
	if m := versionPattern.FindStringSubmatch(stem); m != nil {
		return strings.TrimPrefix(m[1], "_")
	}
	return ""
}

func substitute(text string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := strings.TrimSpace(varPattern.FindStringSubmatch(match)[1])
		if v, ok := vars[key]; ok {
			return v
		}
		return match
	})
}

func peekRoles(text string) []string {
	var roles []string
	for _, m := range rolePattern.FindAllStringSubmatch(text, -1) {
		roles = append(roles, strings.ToLower(strings.TrimSpace(m[1])))
	}
	return roles
}

type section struct {
	role    string
	content string
}

func splitByRoles(text string) []section {
	markers := rolePattern.FindAllStringSubmatchIndex(text, -1)
	if len(markers) == 0 {
		return nil
	}

	sections := make([]section, 0, len(markers))
	for i, m := range markers {
		role := strings.ToLower(strings.TrimSpace(text[m[2]:m[3]]))
		start := m[1]
		end := len(text)
		if i+1 < len(markers) {
			end = markers[i+1][0]
		}
		sections = append(sections, section{role: role, content: text[start:end]})
	}
	return sections
}
