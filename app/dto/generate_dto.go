package dto

// GenerateMessageRequest asks for a short invitation text from free-form event details
type GenerateMessageRequest struct {
	Input string `json:"input" validate:"required,max=4000" example:"dinner on the roof at 8, bring a jacket"`
	Tone  string `json:"tone" validate:"omitempty,max=64" example:"casual"`
}

// GenerateMessageResponse carries the generated text
type GenerateMessageResponse struct {
	Message string `json:"message" example:"Hey [Name]! Dinner on the roof at 8, bring a jacket 🙂"`
	Tone    string `json:"tone" example:"casual"`
}
