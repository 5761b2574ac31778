package role

import "strings"

const maxRoleNameLength = 100

type CreateRoleDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateRoleDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}

type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

func (d CreateRoleDTO) Validate() error {
	return validateName(d.Name)
}

func (d UpdateRoleDTO) Validate() error {
	return validateName(d.Name)
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ValidationError{Msg: "name is required"}
	}
	if len(trimmed) > maxRoleNameLength {
		return ValidationError{Msg: "name must be at most 100 characters"}
	}
	return nil
}
