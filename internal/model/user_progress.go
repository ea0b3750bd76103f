package model

type GetMyAttractionProgressRequest struct {
	AttractionID string `json:"attraction_id"`
}

type GetMyAttractionProgressResponse struct {
	AttractionProgress AttractionProgress `json:"attraction_progress"`
}

type GetMyAttractionProgressesRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyAttractionProgressesResponse struct {
	AttractionProgresses []AttractionProgress `json:"attraction_progresses"`
}

type GetMyCategoryProgressRequest struct {
	CategoryID string `json:"category_id"`
}

type GetMyCategoryProgressResponse struct {
	CategoryProgress CategoryProgress `json:"category_progress"`
}

type GetMyRewardsRequest struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type GetMyRewardsResponse struct {
	Rewards []UserReward `json:"rewards"`
}

type GetMyTotalsRequest struct{}

type GetMyTotalsResponse struct {
	Totals Totals `json:"totals"`
}
