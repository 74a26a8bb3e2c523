package dto

type RegisterRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=30"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r RegisterRequest) Validate() error {
	return validate.Struct(r)
}

type RegisterResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r LoginRequest) Validate() error {
	return validate.Struct(r)
}

type LoginResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	Role        string `json:"role"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r AdminLoginRequest) Validate() error {
	return validate.Struct(r)
}

type TokenPair struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,alphanum,min=3,max=30"`
	AvatarID    *string `json:"avatar_id"`
	CountryCode *string `json:"country_code" validate:"omitempty,len=2"`
	Onboarded   *bool   `json:"onboarded"`
}

func (r UpdateProfileRequest) Validate() error {
	return validate.Struct(r)
}

type UserProfileResponse struct {
	UserID      string  `json:"user_id"`
	Username    string  `json:"username"`
	Email       string  `json:"email,omitempty"`
	Role        string  `json:"role"`
	AvatarID    *string `json:"avatar_id,omitempty"`
	AvatarPath  string  `json:"avatar_path,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	CountryFlag string  `json:"country_flag,omitempty"`
	Onboarded   bool    `json:"onboarded"`
}

type AvatarResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ImagePath string `json:"image_path"`
}
