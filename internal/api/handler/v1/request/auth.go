package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type RegisterRequest struct {
	IDToken string `json:"id_token"`
	Role    string `json:"role"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.IDToken, validation.Required),
		validation.Field(&req.Role, validation.Required, validation.In("admin", "edtech", "mentor")),
	)
}
