package types

import "github.com/go-playground/validator/v10"

// Job is one listing handed to the engine by the orchestrator.
type Job struct {
	ID          string  `json:"id" yaml:"id" validate:"required"`
	Board       string  `json:"board,omitempty" yaml:"board"`
	URL         string  `json:"url,omitempty" yaml:"url" validate:"omitempty,url"`
	Title       string  `json:"title,omitempty" yaml:"title"`
	Company     string  `json:"company,omitempty" yaml:"company"`
	Description string  `json:"description,omitempty" yaml:"description"`
	TechStack   string  `json:"tech_stack,omitempty" yaml:"tech_stack"`
	Score       float64 `json:"score,omitempty" yaml:"score" validate:"gte=0,lte=100"`
}

// Validate validates the Job using the validator.
func (j *Job) Validate() error {
	validate := validator.New()
	return validate.Struct(j)
}
