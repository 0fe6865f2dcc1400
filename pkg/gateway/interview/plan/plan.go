// Package plan loads interview plan templates from a YAML catalog.
package plan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/intervue-ai/intervue/pkg/gateway/interview"
)

// Template is one reusable interview plan.
type Template struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`

	// Per-kind answer timers in seconds. Zero means the gateway default.
	TextQuestionTimer   int `yaml:"text_question_timer"`
	CodingQuestionTimer int `yaml:"coding_question_timer"`

	// MaxQuestions caps delivery for this plan. Zero means the gateway
	// default.
	MaxQuestions int `yaml:"max_questions"`

	Questions []Question `yaml:"questions"`
}

// Question is one planned prompt.
type Question struct {
	Text string `yaml:"text"`
	Kind string `yaml:"kind"`
}

// Items converts the template's questions to the session plan shape.
func (t Template) Items() []interview.QuestionItem {
	items := make([]interview.QuestionItem, 0, len(t.Questions))
	for _, q := range t.Questions {
		kind := q.Kind
		if kind == "" {
			kind = "text"
		}
		items = append(items, interview.QuestionItem{Text: q.Text, Kind: kind})
	}
	return items
}

// Timers returns the template timers, falling back to the given defaults.
func (t Template) Timers(defaultText, defaultCoding time.Duration) (text, coding time.Duration) {
	text = defaultText
	coding = defaultCoding
	if t.TextQuestionTimer > 0 {
		text = time.Duration(t.TextQuestionTimer) * time.Second
	}
	if t.CodingQuestionTimer > 0 {
		coding = time.Duration(t.CodingQuestionTimer) * time.Second
	}
	return text, coding
}

// Catalog is a validated set of templates.
type Catalog struct {
	templates map[string]Template
	order     []string
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	var doc struct {
		Plans []Template `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse plan catalog: %w", err)
	}
	return build(doc.Plans)
}

// Default returns the built-in catalog used when no file is configured.
func Default() *Catalog {
	catalog, err := build([]Template{{
		ID:    "general",
		Title: "General Technical Screen",
		Questions: []Question{
			{Text: "What's the most challenging project you've worked on?"},
			{Text: "Tell me about your internship experience and key learnings."},
			{Text: "Which certification or course has been most valuable to you?"},
			{Text: "What technologies are you most comfortable working with?"},
		},
	}})
	if err != nil {
		panic(err) // built-in catalog is static
	}
	return catalog
}

func build(templates []Template) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]Template, len(templates))}
	for i, t := range templates {
		if t.ID == "" {
			return nil, fmt.Errorf("plan %d: missing id", i)
		}
		if _, dup := c.templates[t.ID]; dup {
			return nil, fmt.Errorf("plan %q: duplicate id", t.ID)
		}
		if len(t.Questions) == 0 {
			return nil, fmt.Errorf("plan %q: no questions", t.ID)
		}
		for j, q := range t.Questions {
			if q.Text == "" {
				return nil, fmt.Errorf("plan %q: question %d: missing text", t.ID, j)
			}
			if q.Kind != "" && q.Kind != "text" && q.Kind != "coding" {
				return nil, fmt.Errorf("plan %q: question %d: unknown kind %q", t.ID, j, q.Kind)
			}
		}
		if t.TextQuestionTimer < 0 || t.CodingQuestionTimer < 0 {
			return nil, fmt.Errorf("plan %q: negative timer", t.ID)
		}
		c.templates[t.ID] = t
		c.order = append(c.order, t.ID)
	}
	if len(c.templates) == 0 {
		return nil, fmt.Errorf("plan catalog is empty")
	}
	return c, nil
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.templates[id]
	return t, ok
}

// First returns the first template in catalog order, used when a session
// request names no plan.
func (c *Catalog) First() Template {
	return c.templates[c.order[0]]
}

// IDs returns the template ids in catalog order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}
