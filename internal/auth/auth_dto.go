package auth

type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FullName    string `json:"full_name" binding:"required"`
	CompanyName string `json:"company_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// FaceLoginRequest carries the label the client-side recognizer matched
// against its enrolled descriptors. The server never sees raw biometrics.
type FaceLoginRequest struct {
	FaceLabel string `json:"face_label" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	FullName         *string `json:"full_name"`
	CompanyName      *string `json:"company_name"`
	FaceLabel        *string `json:"face_label"`
	FaceLoginEnabled *bool   `json:"face_login_enabled"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

type UserResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	CompanyName      string `json:"company_name,omitempty"`
	Role             string `json:"role"`
	FaceLoginEnabled bool   `json:"face_login_enabled"`
}

func mapToUserResponse(u User) UserResponse {
	return UserResponse{
		ID:               u.ID.String(),
		Email:            u.Email,
		FullName:         u.FullName,
		CompanyName:      u.CompanyName,
		Role:             u.Role,
		FaceLoginEnabled: u.FaceLoginEnabled,
	}
}
