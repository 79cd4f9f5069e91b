// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"newsmap/pkg/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var relationColumns = []string{"id", "article_uuid", "place_id", "location_name", "created_at"}

// RelationStore reads location/article relations and the articles behind
// them.
type RelationStore struct {
	db *sql.DB
}

// NewRelationStore creates a new RelationStore.
func NewRelationStore(db *sql.DB) *RelationStore {
	return &RelationStore{db: db}
}

// ArticlesForPlace returns the articles mentioning placeID, newest first.
// A limit of zero or less returns every article.
func (s *RelationStore) ArticlesForPlace(ctx context.Context, placeID string, limit, offset int) ([]models.ArticleMention, error) {
	var lim, off sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
		off = sql.NullInt64{Int64: int64(offset), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT article_uuid, location_name, articles
		FROM get_sorted_location_article_relations($1, $2, $3)
	`, placeID, lim, off)
	if err != nil {
		return nil, fmt.Errorf("query place articles: %w", err)
	}
	defer rows.Close()

	mentions := make([]models.ArticleMention, 0)
	for rows.Next() {
		var articleUUID sql.NullString
		var m models.ArticleMention
		var raw []byte
		if err := rows.Scan(&articleUUID, &m.LocationName, &raw); err != nil {
			return nil, fmt.Errorf("scan place article: %w", err)
		}

		if len(raw) > 0 {
			article, err := decodeArticle(raw)
			if err != nil {
				return nil, err
			}
			m.Article = article
		}
		if m.UUID == "" {
			m.UUID = articleUUID.String
		}
		mentions = append(mentions, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate place articles: %w", err)
	}
	return mentions, nil
}

// ByArticle returns every relation for one article, oldest first. It is
// the inverse of ArticlesForPlace.
func (s *RelationStore) ByArticle(ctx context.Context, articleUUID string) ([]models.LocationArticleRelation, error) {
	return s.find(ctx, sq.Eq{"article_uuid": articleUUID})
}

func (s *RelationStore) find(ctx context.Context, where sq.Eq) ([]models.LocationArticleRelation, error) {
	query, args, err := psql.
		Select(relationColumns...).
		From("location_article_relations").
		Where(where).
		OrderBy("created_at", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build relation query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer rows.Close()

	relations := make([]models.LocationArticleRelation, 0)
	for rows.Next() {
		var r models.LocationArticleRelation
		if err := rows.Scan(&r.ID, &r.ArticleUUID, &r.PlaceID, &r.LocationName, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}
	return relations, nil
}

// articleRow mirrors the JSON Postgres produces for an articles row. The
// table keys articles by uuid3.
type articleRow struct {
	UUID3     string     `json:"uuid3"`
	Headline  *string    `json:"headline"`
	Author    *string    `json:"author"`
	Link      *string    `json:"link"`
	PubDate   *time.Time `json:"pub_date"`
	FeedName  *string    `json:"feed_name"`
	Archived  *bool      `json:"archived"`
	CreatedAt time.Time  `json:"created_at"`
}

func decodeArticle(raw []byte) (models.Article, error) {
	var row *articleRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return models.Article{}, fmt.Errorf("decode article json: %w", err)
	}
	if row == nil {
		return models.Article{}, nil
	}
	return models.Article{
		UUID:      row.UUID3,
		Headline:  row.Headline,
		Author:    row.Author,
		Link:      row.Link,
		PubDate:   row.PubDate,
		FeedName:  row.FeedName,
		Archived:  row.Archived,
		CreatedAt: row.CreatedAt,
	}, nil
}
