package users

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=100"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// OAuthAccount links a local user to an external identity provider account
type OAuthAccount struct {
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"provider_account_id"`
	UserID            string `json:"user_id"`
}

// Profile is an identity as reported by an OAuth provider
type Profile struct {
	Provider  string `json:"provider"`
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Image     string `json:"image"`
}
