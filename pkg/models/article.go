// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Article is a news item written by the ingestion job. Only Archived ever
// changes after insert.
type Article struct {
	UUID      string     `json:"uuid"`
	Headline  *string    `json:"headline"`
	Author    *string    `json:"author"`
	Link      *string    `json:"link"`
	PubDate   *time.Time `json:"pub_date"`
	FeedName  *string    `json:"feed_name"`
	Archived  *bool      `json:"archived"`
	CreatedAt time.Time  `json:"created_at"`
}

// LocationArticleRelation links one article to one place. LocationName is
// the literal text the article used, which may differ from the place's
// formatted address.
type LocationArticleRelation struct {
	ID           string    `json:"id"`
	ArticleUUID  *string   `json:"article_uuid"`
	PlaceID      *string   `json:"place_id"`
	LocationName *string   `json:"location_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ArticleMention is an article as seen from one place: the article fields
// plus the mention text from the relation row.
type ArticleMention struct {
	Article
	LocationName *string `json:"location_name"`
}

// ArticlePage is one page of articles for a place. HasMore is true when the
// page came back full; it is a heuristic, not a total count.
type ArticlePage struct {
	PlaceID  string           `json:"place_id"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Articles []ArticleMention `json:"articles"`
	HasMore  bool             `json:"has_more"`
}
