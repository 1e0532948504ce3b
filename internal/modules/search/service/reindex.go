package service

import (
	"context"
	"errors"
	"fmt"

	"anoa.com/gamingcommunity/internal/entity"
)

type (
	GameLoader      func(ctx context.Context) ([]*entity.Game, error)
	CommunityLoader func(ctx context.Context) ([]*entity.Community, error)
	BlogLoader      func(ctx context.Context) ([]*entity.Blog, error)
)

// ReindexJob pushes every game, community and blog back into the index so
// that writes missed while the search engine was down are recovered.
type ReindexJob struct {
	indexer     Indexer
	schedule    string
	games       GameLoader
	communities CommunityLoader
	blogs       BlogLoader
}

func NewReindexJob(indexer Indexer, schedule string, games GameLoader, communities CommunityLoader, blogs BlogLoader) *ReindexJob {
	return &ReindexJob{
		indexer:     indexer,
		schedule:    schedule,
		games:       games,
		communities: communities,
		blogs:       blogs,
	}
}

func (j *ReindexJob) GetName() string { return "search-reindex" }

func (j *ReindexJob) GetSchedule() string { return j.schedule }

func (j *ReindexJob) Execute(ctx context.Context) error {
	var errs []error

	if games, err := j.games(ctx); err != nil {
		errs = append(errs, fmt.Errorf("load games: %w", err))
	} else if err := j.indexer.IndexGames(ctx, games...); err != nil {
		errs = append(errs, err)
	}

	if communities, err := j.communities(ctx); err != nil {
		errs = append(errs, fmt.Errorf("load communities: %w", err))
	} else if err := j.indexer.IndexCommunities(ctx, communities...); err != nil {
		errs = append(errs, err)
	}

	if blogs, err := j.blogs(ctx); err != nil {
		errs = append(errs, fmt.Errorf("load blogs: %w", err))
	} else if err := j.indexer.IndexBlogs(ctx, blogs...); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
