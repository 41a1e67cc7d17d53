package dto

type AddMemberInput struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Title  string `json:"title" binding:"max=100"`
}
