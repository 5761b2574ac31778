package user

import (
	"github.com/frahmantamala/access-management/internal/core/common/validation"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
)

const (
	minPasswordLength = 8
	maxNameLength     = 100
)

type CreateUserDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Status      string `json:"status"`
}

type RegisterDTO struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type UpdateProfileDTO struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number"`
	ProfileImage string `json:"profile_image_url"`
}

type ChangeStatusDTO struct {
	Status string `json:"status"`
}

type ChangePasswordDTO struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UsersResponse struct {
	Users []*User `json:"users"`
}

func (d CreateUserDTO) Validate() error {
	v := validation.NewValidator()
	accountFieldRules(v, d.Email, d.Password, d.FirstName, d.LastName)
	v.Field("status", d.Status).OneOf(allStatuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d RegisterDTO) Validate() error {
	v := validation.NewValidator()
	accountFieldRules(v, d.Email, d.Password, d.FirstName, d.LastName)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d UpdateProfileDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("first_name", d.FirstName).Required().MaxLength(maxNameLength)
	v.Field("last_name", d.LastName).Required().MaxLength(maxNameLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d ChangeStatusDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("status", d.Status).Required().OneOf(allStatuses()...)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func (d ChangePasswordDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("current_password", d.CurrentPassword).Required()
	v.Field("new_password", d.NewPassword).Required().MinLength(minPasswordLength)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func accountFieldRules(v *validation.ValidationBuilder, email, password, firstName, lastName string) {
	v.Field("email", email).Required().Email()
	v.Field("password", password).Required().MinLength(minPasswordLength)
	v.Field("first_name", firstName).Required().MaxLength(maxNameLength)
	v.Field("last_name", lastName).Required().MaxLength(maxNameLength)
}

func allStatuses() []string {
	return []string{
		userDatamodel.StatusActive,
		userDatamodel.StatusInactive,
		userDatamodel.StatusBanned,
		userDatamodel.StatusPendingVerification,
	}
}
