package models

import "time"

// SearchQuery logs one exchange with the dashboard assistant.
type SearchQuery struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Query     string    `json:"query" gorm:"not null"`
	Response  string    `json:"response"`
	UserID    *uint     `json:"userId,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
}

type SearchQueryInsert struct {
	Query    string  `json:"query" zog:"query"`
	Response *string `json:"response" zog:"response"`
	UserID   *int    `json:"userId" zog:"userId"`
}

func (in SearchQueryInsert) ToModel(now time.Time) SearchQuery {
	q := SearchQuery{
		Query:     in.Query,
		Response:  stringOr(in.Response, ""),
		CreatedAt: now,
	}
	if in.UserID != nil {
		id := uint(*in.UserID)
		q.UserID = &id
	}
	return q
}

type SearchQueryPatch struct {
	Query    *string `json:"query" binding:"omitnil,min=1"`
	Response *string `json:"response"`
}

func (p SearchQueryPatch) Apply(q *SearchQuery) {
	setIf(&q.Query, p.Query)
	setIf(&q.Response, p.Response)
}
