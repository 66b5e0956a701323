package prompts

// Name identifies one operation's template
type Name string

const (
	Converse       Name = "converse"
	Synthesize     Name = "synthesize"
	Rate           Name = "rate"
	Pitch          Name = "pitch"
	Regenerate     Name = "regenerate"
	AnalyzeIdea    Name = "analyze_idea"
	OpportunityTag Name = "opportunity_tag"
)

// Definition is the source form of a template, as built in or loaded from YAML
type Definition struct {
	Name    Name   `yaml:"name"`
	Version int    `yaml:"version"`
	Body    string `yaml:"body"`
}

// ConverseInput fills the converse template
type ConverseInput struct {
	ConversationHistory string
	Documents           string
	Question            string
}

// NotesInput fills the synthesize and rate templates
type NotesInput struct {
	Notes string
}

// PitchInput fills the pitch template
type PitchInput struct {
	IdeaSummary      string
	ValidationMetric string
}

// RegenerateInput fills the regenerate template
type RegenerateInput struct {
	ConversationHistory string
	Question            string
}

// IdeaInput fills the analyze_idea and opportunity_tag templates
type IdeaInput struct {
	Idea string
}

// inputFor returns a zero value of the data each template is executed with
func inputFor(name Name) (interface{}, bool) {
	switch name {
	case Converse:
		return ConverseInput{}, true
	case Synthesize, Rate:
		return NotesInput{}, true
	case Pitch:
		return PitchInput{}, true
	case Regenerate:
		return RegenerateInput{}, true
	case AnalyzeIdea, OpportunityTag:
		return IdeaInput{}, true
	}
	return nil, false
}

const converseBody = `You are an expert research assistant. Given the conversation history and potentially some retrieved documents, answer the user's question intelligently.

Conversation History (for context):
{{.ConversationHistory}}

Retrieved Documents (if any):
{{.Documents}}

User's Question:
{{.Question}}

Your Answer:`

const synthesizeBody = `You are a professional technical writer and business analyst. Your task is to synthesize the following research notes into a single, comprehensive, and well-structured report in Markdown format.
The notes are structured hierarchically. Where different branches exist, you must compare and contrast them.

Research Notes:
---
{{.Notes}}
---

Generate the full Markdown report now:`

const rateBody = `You are a venture capitalist and startup incubator mentor. Based on the following research notes, critically assess the current state of the project idea.
Rate each metric with an integer from 1 to 10:
- "problem": Problem Severity. How significant is the problem being solved?
- "feasibility": Solution Feasibility. How feasible is the proposed solution technically and financially?
- "opportunity": Market Opportunity. How large and accessible is the target market?
- "why_now": Urgency. Is there a compelling reason this idea needs to exist right now?
Then give a brief justification covering all four metrics in "feedback".

Research Notes:
---
{{.Notes}}
---

Respond with only a single JSON object and nothing else, in exactly this shape:
{"opportunity": <integer 1-10>, "problem": <integer 1-10>, "feasibility": <integer 1-10>, "why_now": <integer 1-10>, "feedback": "<string>"}`

const pitchBody = `You are a stealth marketing expert. Your goal is to validate a startup idea without revealing that you are building it. You will write a short post or message designed to be shared on a platform like Reddit, LinkedIn, or a specific forum to gauge real-world user reaction.

Startup Idea Summary (based on research notes):
{{.IdeaSummary}}

The primary goal is to validate the following metric: **{{.ValidationMetric}}**

Instructions:
1.  Do NOT sound like an advertisement.
2.  Frame the post as a question, a personal story, or a search for a solution.
3.  The post should be written to provoke comments and discussions that directly help validate the chosen metric.
4.  Suggest the best online community or platform (e.g., 'a subreddit like r/Entrepreneur', 'a LinkedIn post targeting marketing managers') where this pitch should be posted.

Write the stealth pitch now.`

const regenerateBody = `History: {{.ConversationHistory}}

Question: {{.Question}}

Answer:`

const analyzeIdeaBody = `You are an expert project analyst. Analyze the project idea below: identify its core value, its target users, and its main risks. Then propose five distinct variations of the idea that explore different markets or angles.

Project Idea:
{{.Idea}}

Respond with only a single JSON object and nothing else, in exactly this shape:
{"analysis": "<string>", "variations": ["<string>", "<string>", "<string>", "<string>", "<string>"]}`

const opportunityTagBody = `You are a market research analyst. Classify the startup idea described by the research notes below.

Research Notes:
{{.Idea}}

Respond with only a single JSON object and nothing else, in exactly this shape:
{"market": "<target market, a few words>", "type": "<business type, e.g. SaaS, marketplace, hardware>", "competitors": ["<company name>"], "trend": "<the trend this idea rides, one sentence>"}`

// Defaults returns the built-in templates
func Defaults() []Definition {
	return []Definition{
		{Name: Converse, Version: 1, Body: converseBody},
		{Name: Synthesize, Version: 1, Body: synthesizeBody},
		{Name: Rate, Version: 2, Body: rateBody},
		{Name: Pitch, Version: 1, Body: pitchBody},
		{Name: Regenerate, Version: 1, Body: regenerateBody},
		{Name: AnalyzeIdea, Version: 1, Body: analyzeIdeaBody},
		{Name: OpportunityTag, Version: 1, Body: opportunityTagBody},
	}
}
