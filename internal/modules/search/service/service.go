package service

import (
	"context"
	"encoding/json"
	"fmt"

	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/pkg/sanitize"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
)

type Kind string

const (
	KindGames       Kind = "games"
	KindCommunities Kind = "communities"
	KindBlogs       Kind = "blogs"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindGames, KindCommunities, KindBlogs:
		return Kind(s), true
	case "":
		return KindGames, true
	}
	return "", false
}

// Indexer keeps the search index in step with the database.
type Indexer interface {
	IndexGames(ctx context.Context, games ...*entity.Game) error
	IndexCommunities(ctx context.Context, communities ...*entity.Community) error
	IndexBlogs(ctx context.Context, blogs ...*entity.Blog) error
	Delete(ctx context.Context, kind Kind, id string) error
}

type Searcher interface {
	Search(ctx context.Context, query string, kind Kind, limit int64) ([]json.RawMessage, error)
}

type MeiliSearchService interface {
	Indexer
	Searcher
}

type meiliSearchService struct {
	client meilisearch.ServiceManager
}

func NewMeiliSearchService(client meilisearch.ServiceManager) MeiliSearchService {
	s := &meiliSearchService{client: client}
	s.initIndexes()
	return s
}

func (s *meiliSearchService) initIndexes() {
	settings := map[Kind]struct {
		filterable []string
		sortable   []string
	}{
		KindGames:       {filterable: []string{"genre", "platform"}, sortable: []string{"createdAt", "rating"}},
		KindCommunities: {filterable: []string{"tags", "gameId"}, sortable: []string{"createdAt", "memberCount"}},
		KindBlogs:       {filterable: []string{"tags", "authorId"}, sortable: []string{"publishDate", "likes"}},
	}

	for kind, cfg := range settings {
		index := s.client.Index(string(kind))

		filterable := make([]any, len(cfg.filterable))
		for i, v := range cfg.filterable {
			filterable[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
			zap.L().Warn("meilisearch filterable attributes", zap.String("index", string(kind)), zap.Error(err))
		}

		sortable := cfg.sortable
		if _, err := index.UpdateSortableAttributes(&sortable); err != nil {
			zap.L().Warn("meilisearch sortable attributes", zap.String("index", string(kind)), zap.Error(err))
		}
	}
}

type gameDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Genre       string   `json:"genre"`
	Platform    []string `json:"platform"`
	ImageURL    string   `json:"imageUrl"`
	Rating      float64  `json:"rating"`
	ReleaseDate int64    `json:"releaseDate"`
	CreatedAt   int64    `json:"createdAt"`
}

type communityDoc struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	Tags        []string `json:"tags"`
	GameID      string   `json:"gameId,omitempty"`
	GameTitle   string   `json:"gameTitle,omitempty"`
	MemberCount int      `json:"memberCount"`
	CreatedAt   int64    `json:"createdAt"`
}

type blogDoc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	ImageURL    string   `json:"imageUrl"`
	Tags        []string `json:"tags"`
	AuthorID    string   `json:"authorId"`
	Author      string   `json:"author"`
	Likes       int      `json:"likes"`
	PublishDate int64    `json:"publishDate"`
}

func newGameDoc(g *entity.Game) gameDoc {
	return gameDoc{
		ID:          g.ID.String(),
		Title:       g.Title,
		Description: sanitize.Text(g.Description),
		Genre:       g.Genre,
		Platform:    nonNil(g.Platform),
		ImageURL:    g.ImageURL,
		Rating:      g.Rating,
		ReleaseDate: g.ReleaseDate.Unix(),
		CreatedAt:   g.CreatedAt.Unix(),
	}
}

func newCommunityDoc(c *entity.Community) communityDoc {
	doc := communityDoc{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: sanitize.Text(c.Description),
		ImageURL:    c.ImageURL,
		Tags:        nonNil(c.Tags),
		MemberCount: len(c.Members),
		CreatedAt:   c.CreatedAt.Unix(),
	}
	if c.GameID != nil {
		doc.GameID = c.GameID.String()
	}
	if c.Game != nil {
		doc.GameTitle = c.Game.Title
	}
	return doc
}

func newBlogDoc(b *entity.Blog) blogDoc {
	return blogDoc{
		ID:          b.ID.String(),
		Title:       b.Title,
		Content:     sanitize.Text(b.Content),
		ImageURL:    b.ImageURL,
		Tags:        nonNil(b.Tags),
		AuthorID:    b.AuthorID.String(),
		Author:      b.Author.Username,
		Likes:       b.Likes,
		PublishDate: b.PublishDate.Unix(),
	}
}

func (s *meiliSearchService) IndexGames(_ context.Context, games ...*entity.Game) error {
	if len(games) == 0 {
		return nil
	}
	docs := make([]gameDoc, 0, len(games))
	for _, g := range games {
		docs = append(docs, newGameDoc(g))
	}
	return s.add(KindGames, docs)
}

func (s *meiliSearchService) IndexCommunities(_ context.Context, communities ...*entity.Community) error {
	if len(communities) == 0 {
		return nil
	}
	docs := make([]communityDoc, 0, len(communities))
	for _, c := range communities {
		docs = append(docs, newCommunityDoc(c))
	}
	return s.add(KindCommunities, docs)
}

func (s *meiliSearchService) IndexBlogs(_ context.Context, blogs ...*entity.Blog) error {
	if len(blogs) == 0 {
		return nil
	}
	docs := make([]blogDoc, 0, len(blogs))
	for _, b := range blogs {
		docs = append(docs, newBlogDoc(b))
	}
	return s.add(KindBlogs, docs)
}

func (s *meiliSearchService) add(kind Kind, docs any) error {
	primaryKey := "id"
	task, err := s.client.Index(string(kind)).AddDocuments(docs, &primaryKey)
	if err != nil {
		return fmt.Errorf("index %s: %w", kind, err)
	}
	zap.L().Debug("meilisearch documents enqueued", zap.String("index", string(kind)), zap.Int64("task", task.TaskUID))
	return nil
}

func (s *meiliSearchService) Delete(_ context.Context, kind Kind, id string) error {
	if _, err := s.client.Index(string(kind)).DeleteDocument(id); err != nil {
		return fmt.Errorf("delete %s/%s from index: %w", kind, id, err)
	}
	return nil
}

func (s *meiliSearchService) Search(_ context.Context, query string, kind Kind, limit int64) ([]json.RawMessage, error) {
	res, err := s.client.Index(string(kind)).Search(query, &meilisearch.SearchRequest{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}

	raw, err := json.Marshal(res.Hits)
	if err != nil {
		return nil, err
	}
	hits := []json.RawMessage{}
	if err := json.Unmarshal(raw, &hits); err != nil {
		return nil, err
	}
	return hits, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
