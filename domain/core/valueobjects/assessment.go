package valueobjects

// Rating is the strict-JSON score a model gives the project.
// Scores run from 1 to 10.
type Rating struct {
	Opportunity int    `json:"opportunity" dynamodbav:"opportunity" validate:"min=1,max=10"`
	Problem     int    `json:"problem" dynamodbav:"problem" validate:"min=1,max=10"`
	Feasibility int    `json:"feasibility" dynamodbav:"feasibility" validate:"min=1,max=10"`
	WhyNow      int    `json:"why_now" dynamodbav:"why_now" validate:"min=1,max=10"`
	Feedback    string `json:"feedback" dynamodbav:"feedback" validate:"required"`
}

// RatingKeys lists the keys a rating response must carry
var RatingKeys = []string{"opportunity", "problem", "feasibility", "why_now", "feedback"}

// Opportunity is the classification computed once when a project is created
type Opportunity struct {
	Market      string   `json:"market" dynamodbav:"market" validate:"required"`
	Type        string   `json:"type" dynamodbav:"type" validate:"required"`
	Competitors []string `json:"competitors" dynamodbav:"competitors"`
	Trend       string   `json:"trend" dynamodbav:"trend" validate:"required"`
}

// OpportunityKeys lists the keys an opportunity tag response must carry
var OpportunityKeys = []string{"market", "type", "competitors", "trend"}

// IdeaAnalysis is the model's critique of a raw idea plus alternative framings
type IdeaAnalysis struct {
	Analysis   string   `json:"analysis" validate:"required"`
	Variations []string `json:"variations" validate:"min=1,dive,required"`
}

// IdeaAnalysisKeys lists the keys an idea analysis response must carry
var IdeaAnalysisKeys = []string{"analysis", "variations"}
