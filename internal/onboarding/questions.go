// Package onboarding collects typed answers through a fixed per-role step
// flow and validates them before a profile is finalized. Sessions are
// transient: they live in memory and are discarded on completion.
package onboarding

import (
	"github.com/dealflow-hq/dealflow-api/internal/errors"
	"github.com/dealflow-hq/dealflow-api/internal/models"
	"github.com/dealflow-hq/dealflow-api/internal/scoring"
)

// QuestionType classifies how an answer is captured and validated
type QuestionType string

const (
	TypeText        QuestionType = "text"
	TypeSelect      QuestionType = "select"
	TypeMultiselect QuestionType = "multiselect"
)

// Question is a single required onboarding question
type Question struct {
	ID          string       `json:"id"`
	Label       string       `json:"label"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
}

// Step is an ordered group of questions
type Step struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

var sellerSteps = []Step{
	{
		Title: "About Your Business",
		Questions: []Question{
			{ID: "businessName", Label: "Business Name", Type: TypeText,
				Placeholder: "Enter your business name"},
			{ID: "industry", Label: "Industry", Type: TypeSelect,
				Options: scoring.Industries},
			{ID: "yearsInBusiness", Label: "Years in Business", Type: TypeSelect,
				Options: []string{"0-2 years", "3-5 years", "6-10 years", "11-20 years", "20+ years"}},
		},
	},
	{
		Title: "Business Details",
		Questions: []Question{
			{ID: "revenue", Label: "Annual Revenue Range", Type: TypeSelect,
				Options: scoring.RevenueBands},
			{ID: "employees", Label: "Number of Employees", Type: TypeSelect,
				Options: []string{"1-5", "6-25", "26-100", "101-500", "500+"}},
			{ID: "location", Label: "Primary Location", Type: TypeText,
				Placeholder: "City, State/Country"},
		},
	},
	{
		Title: "Sale Motivation",
		Questions: []Question{
			{ID: "sellingReason", Label: "Primary reason for selling", Type: TypeSelect,
				Options: []string{"Retirement", "New opportunities", "Market conditions", "Health reasons", "Partnership exit", "Other"}},
			{ID: "timeline", Label: "Ideal timeline for sale", Type: TypeSelect,
				Options: scoring.SellerTimelines},
			{ID: "askingPrice", Label: "Expected price range", Type: TypeSelect,
				Options: []string{"Under $500K", "$500K-$1M", "$1M-$5M", "$5M-$10M", "$10M+", "Open to offers"}},
		},
	},
}

var buyerSteps = []Step{
	{
		Title: "Investment Profile",
		Questions: []Question{
			{ID: "investorType", Label: "Investor Type", Type: TypeSelect,
				Options: []string{"Individual Investor", "Investment Group", "Private Equity", "Strategic Buyer", "Family Office"}},
			{ID: "experience", Label: "Acquisition Experience", Type: TypeSelect,
				Options: []string{"First-time buyer", "1-3 acquisitions", "4-10 acquisitions", "10+ acquisitions"}},
			{ID: "capitalAvailable", Label: "Available Capital", Type: TypeSelect,
				Options: scoring.CapitalBands},
		},
	},
	{
		Title: "Investment Criteria",
		Questions: []Question{
			{ID: "targetIndustries", Label: "Target Industries (select all that apply)", Type: TypeMultiselect,
				Options: scoring.Industries},
			{ID: "preferredSize", Label: "Preferred Business Size", Type: TypeSelect,
				Options: []string{"Under $1M revenue", "$1M-$5M revenue", "$5M-$10M revenue", "$10M+ revenue"}},
			{ID: "geography", Label: "Geographic Preference", Type: TypeSelect,
				Options: scoring.GeoPreferences},
		},
	},
	{
		Title: "Investment Goals",
		Questions: []Question{
			{ID: "involvement", Label: "Desired involvement level", Type: TypeSelect,
				Options: []string{"Hands-on management", "Strategic oversight", "Passive investment", "Exit-focused"}},
			{ID: "timeline", Label: "Investment timeline", Type: TypeSelect,
				Options: scoring.BuyerTimelines},
			{ID: "dealStructure", Label: "Preferred deal structure", Type: TypeSelect,
				Options: []string{"Asset purchase", "Stock purchase", "Merger", "Partnership", "Open to discussion"}},
		},
	},
}

// StepsFor returns the fixed ordered step list for a role
func StepsFor(role string) ([]Step, error) {
	switch role {
	case string(models.RoleSeller):
		return sellerSteps, nil
	case string(models.RoleBuyer):
		return buyerSteps, nil
	default:
		return nil, errors.InvalidInput("unknown onboarding role: "+role, nil)
	}
}
