package request

import (
	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/payoutpilot/mentorchat/internal/domain"
)

type CompletionRequest struct {
	Messages []domain.CompletionMessage `json:"messages"`
	Model    string                     `json:"model"`
}

func (req *CompletionRequest) Validate() error {
	if err := validation.ValidateStruct(
		req,
		validation.Field(&req.Messages, validation.Required),
	); err != nil {
		return err
	}

	for _, m := range req.Messages {
		if err := validation.Validate(m.Role, validation.Required, validation.In("system", "user", "assistant")); err != nil {
			return err
		}
	}

	return nil
}
