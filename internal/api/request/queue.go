package request

type JoinQueueRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Contact     string `json:"contact" binding:"required"`
}

type CreateBusinessRequest struct {
	ID   string `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}
