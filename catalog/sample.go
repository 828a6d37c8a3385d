package catalog

import (
	"context"

	"github.com/mbolis/quick-survey/model"
)

// CreateSampleSurvey seeds a demographics survey covering every question
// type. Used by the development endpoint.
func (c *Catalog) CreateSampleSurvey(ctx context.Context) (*model.Survey, error) {
	return c.CreateSurveyWithQuestions(ctx, NewSurvey{
		Title:       "User Demographics Survey",
		Description: "Help us understand our users better by providing some demographic information",
		Questions: []model.NewQuestion{
			{
				Title:       "What is your full name?",
				Description: "Please enter your first and last name",
				Type:        model.TypeText,
				Required:    true,
			},
			{
				Title:       "What is your email address?",
				Description: "We'll use this to contact you if needed",
				Type:        model.TypeEmail,
				Required:    true,
			},
			{
				Title:       "What is your age?",
				Description: "Please enter your age in years",
				Type:        model.TypeNumber,
				Required:    true,
			},
			{
				Title:       "What is your current employment status?",
				Description: "Select the option that best describes your current situation",
				Type:        model.TypeRadio,
				Options:     []string{"Employed full-time", "Employed part-time", "Self-employed", "Unemployed", "Student", "Retired"},
				Required:    true,
			},
			{
				Title:       "Which of these best describes your household income?",
				Description: "Select your annual household income range",
				Type:        model.TypeSelect,
				Options:     []string{"Under 25,000", "25,000 - 49,999", "50,000 - 74,999", "75,000 - 99,999", "100,000 - 149,999", "150,000+", "Prefer not to say"},
			},
			{
				Title:       "Do you have any chronic health conditions?",
				Description: "Check all that apply",
				Type:        model.TypeCheckbox,
				Options:     []string{"Diabetes", "Heart disease", "High blood pressure", "Arthritis", "Depression/Anxiety", "Asthma", "None of the above"},
			},
			{
				Title:       "Tell us about your long-term care concerns",
				Description: "What concerns you most about potential future care needs? (Optional)",
				Type:        model.TypeTextarea,
			},
			{
				Title:       "What is your phone number?",
				Description: "Optional, for follow-up calls",
				Type:        model.TypeTel,
			},
		},
	})
}
