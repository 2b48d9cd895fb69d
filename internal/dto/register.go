package dto

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber int64  `json:"phone_number"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(&r.PhoneNumber, validation.Required, validation.Min(int64(1))),
	)
}

type RegisterResponse struct {
	ActivationToken string `json:"activation_token"`
}

type ActivationRequest struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activationCode"`
}

func (r ActivationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ActivationToken, validation.Required),
		validation.Field(&r.ActivationCode, validation.Required, validation.Length(4, 4), is.Digit),
	)
}

type ActivationResponse struct {
	User *UserResponse `json:"user"`
}
