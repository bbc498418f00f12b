package dto

type InviteUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required,max=255"`
	Role  string `json:"role,omitempty" validate:"omitempty,oneof=admin member"`
}

type InviteUserResponse struct {
	User              UserDTO `json:"user"`
	TemporaryPassword string  `json:"temporaryPassword"`
}
