// Package prompts owns the named, versioned prompt templates and the
// key names each JSON-returning template asks the model for.
package prompts

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"

	"ideagraph/pkg/utils"

	"go.uber.org/zap"
)

// Prompt is an assembled prompt ready for the language model
type Prompt struct {
	Name    Name
	Version int
	Text    string
	Tokens  int
}

type compiled struct {
	version int
	tmpl    *template.Template
}

// Catalog holds the active template set. It is safe for concurrent use;
// Replace swaps the whole set at once.
type Catalog struct {
	mu        sync.RWMutex
	templates map[Name]compiled
	counter   *utils.TokenCounter
	logger    *zap.Logger
}

// NewCatalog creates a catalog loaded with the built-in templates
func NewCatalog(counter *utils.TokenCounter, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		templates: make(map[Name]compiled),
		counter:   counter,
		logger:    logger.Named("prompts"),
	}
	if err := c.Replace(Defaults()); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace compiles defs and overlays them on the active set.
// Templates not named in defs keep their current version. Nothing changes on error.
func (c *Catalog) Replace(defs []Definition) error {
	next := make(map[Name]compiled, len(defs))
	for _, def := range defs {
		cmp, err := compile(def)
		if err != nil {
			return err
		}
		next[def.Name] = cmp
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, cmp := range c.templates {
		if _, overridden := next[name]; !overridden {
			next[name] = cmp
		}
	}
	c.templates = next
	return nil
}

// Version reports the active version of a template, zero when unknown
func (c *Catalog) Version(name Name) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.templates[name].version
}

func compile(def Definition) (compiled, error) {
	sample, ok := inputFor(def.Name)
	if !ok {
		return compiled{}, fmt.Errorf("unknown prompt template %q", def.Name)
	}
	if def.Version <= 0 {
		return compiled{}, fmt.Errorf("prompt template %q needs a positive version", def.Name)
	}
	tmpl, err := template.New(string(def.Name)).Option("missingkey=error").Parse(def.Body)
	if err != nil {
		return compiled{}, fmt.Errorf("failed to parse prompt template %q: %w", def.Name, err)
	}
	// executing against the zero input catches references to unknown fields
	if err := tmpl.Execute(&bytes.Buffer{}, sample); err != nil {
		return compiled{}, fmt.Errorf("prompt template %q does not fit its input: %w", def.Name, err)
	}
	return compiled{version: def.Version, tmpl: tmpl}, nil
}

func (c *Catalog) render(name Name, data interface{}) (Prompt, error) {
	c.mu.RLock()
	cmp, ok := c.templates[name]
	c.mu.RUnlock()
	if !ok {
		return Prompt{}, fmt.Errorf("prompt template %q not loaded", name)
	}

	var buf bytes.Buffer
	if err := cmp.tmpl.Execute(&buf, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render prompt %q: %w", name, err)
	}
	text := buf.String()
	p := Prompt{Name: name, Version: cmp.version, Text: text, Tokens: c.counter.Count(text)}

	c.logger.Debug("Prompt assembled",
		zap.String("template", string(name)),
		zap.Int("version", p.Version),
		zap.Int("tokens", p.Tokens),
	)
	return p, nil
}

// Converse assembles the follow-up question prompt
func (c *Catalog) Converse(in ConverseInput) (Prompt, error) {
	return c.render(Converse, in)
}

// Synthesize assembles the report prompt
func (c *Catalog) Synthesize(notes string) (Prompt, error) {
	return c.render(Synthesize, NotesInput{Notes: notes})
}

// Rate assembles the strict-JSON rating prompt
func (c *Catalog) Rate(notes string) (Prompt, error) {
	return c.render(Rate, NotesInput{Notes: notes})
}

// Pitch assembles the stealth validation pitch prompt
func (c *Catalog) Pitch(in PitchInput) (Prompt, error) {
	return c.render(Pitch, in)
}

// Regenerate assembles the prompt that replaces a node's answer
func (c *Catalog) Regenerate(in RegenerateInput) (Prompt, error) {
	return c.render(Regenerate, in)
}

// AnalyzeIdea assembles the strict-JSON idea analysis prompt
func (c *Catalog) AnalyzeIdea(idea string) (Prompt, error) {
	return c.render(AnalyzeIdea, IdeaInput{Idea: idea})
}

// OpportunityTag assembles the strict-JSON classification prompt
func (c *Catalog) OpportunityTag(notes string) (Prompt, error) {
	return c.render(OpportunityTag, IdeaInput{Idea: notes})
}
