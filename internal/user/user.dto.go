package user

type CreateUserRequest struct {
	ClerkID    string `json:"clerkId"`
	Email      string `json:"email"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ImageURL   string `json:"imageUrl"`
	Role       Role   `json:"role"`
	SchoolCode string `json:"schoolCode"`
	SchoolName string `json:"schoolName"`
}

type UpdateProfileRequest struct {
	Username   string `json:"username" validate:"omitempty,max=50"`
	FirstName  string `json:"firstName" validate:"omitempty,max=100"`
	LastName   string `json:"lastName" validate:"omitempty,max=100"`
	ImageURL   string `json:"imageUrl" validate:"omitempty,url"`
	SchoolCode string `json:"schoolCode" validate:"omitempty,max=20"`
	SchoolName string `json:"schoolName" validate:"omitempty,max=200"`
}
