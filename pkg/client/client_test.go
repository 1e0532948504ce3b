package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresTokenForLaterCalls(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "a@x.com", body["email"])
			_, _ = w.Write([]byte(`{"token":"tok-1","user":{"id":"u1","username":"ann","isAdmin":false}}`))
		case "/auth/user":
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"user":{"id":"u1","username":"ann"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	res, err := c.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ann", res.User.Username)
	assert.Equal(t, "tok-1", c.Token())

	me, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestErrorMessageFromBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Blog not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetBlog(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Blog not found", apiErr.Message)
	assert.False(t, IsTransportError(err))
}

func TestErrorMessageFallsBackToStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).DeleteGame(context.Background(), "g1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "API error: 502", apiErr.Message)
}

func TestListsFallBackToSamplesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	ctx := context.Background()

	games, err := c.ListGames(ctx, GameFilter{})
	require.NoError(t, err)
	assert.Len(t, games, 6)
	assert.Equal(t, "Elden Ring", games[0].Title)

	communities, err := c.ListCommunities(ctx)
	require.NoError(t, err)
	assert.Len(t, communities, 6)
	require.NotNil(t, communities[0].Game)
	assert.Equal(t, "sample-game-1", communities[0].Game.ID)

	blogs, err := c.ListBlogs(ctx)
	require.NoError(t, err)
	assert.Len(t, blogs, 6)
	assert.Equal(t, "John Smith", blogs[0].Author.Username)

	_, err = c.GetGame(ctx, "sample-game-1")
	assert.True(t, IsTransportError(err))
}

func TestListDoesNotFallBackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"Server error"}`))
	}))
	defer srv.Close()

	games, err := New(srv.URL).ListGames(context.Background(), GameFilter{})
	assert.Nil(t, games)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Server error", apiErr.Message)
}

func TestListGamesSendsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "ring", r.URL.Query().Get("search"))
		assert.Equal(t, "PC", r.URL.Query().Get("platform"))
		assert.Empty(t, r.URL.Query().Get("genre"))
		_, _ = w.Write([]byte(`[{"id":"g1","title":"Elden Ring","platform":["PC"]}]`))
	}))
	defer srv.Close()

	games, err := New(srv.URL).ListGames(context.Background(), GameFilter{Search: "ring", Platform: "PC"})
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "g1", games[0].ID)
}

func TestBlogInteractions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		switch r.URL.Path {
		case "/blogs/b1/comment":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"c1","text":"` + body["text"] + `","user":{"id":"u1","username":"ann"}}`))
		case "/blogs/b1/like":
			_, _ = w.Write([]byte(`{"likes":3}`))
		case "/community/k1/join":
			_, _ = w.Write([]byte(`{"message":"Successfully joined the community"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	ctx := context.Background()

	comment, err := c.CommentBlog(ctx, "b1", "nice")
	require.NoError(t, err)
	assert.Equal(t, "nice", comment.Text)

	likes, err := c.LikeBlog(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 3, likes)

	msg, err := c.JoinCommunity(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "Successfully joined the community", msg)
}

func TestSetUserAdmin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/admin/users/u2/admin", r.URL.Path)
		var body map[string]bool
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body["isAdmin"])
		_, _ = w.Write([]byte(`{"message":"User admin status updated","user":{"id":"u2","isAdmin":true}}`))
	}))
	defer srv.Close()

	u, err := New(srv.URL).SetUserAdmin(context.Background(), "u2", true)
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
}

func TestAdminJobs(t *testing.T) {
	var ran string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/admin/jobs":
			_, _ = w.Write([]byte(`{"jobs":["search-reindex"]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/admin/jobs/search-reindex/run":
			ran = "search-reindex"
			_, _ = w.Write([]byte(`{"message":"Job completed"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Job not found"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	ctx := context.Background()

	jobs, err := c.AdminJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"search-reindex"}, jobs)

	require.NoError(t, c.AdminRunJob(ctx, "search-reindex"))
	assert.Equal(t, "search-reindex", ran)

	var apiErr *APIError
	require.ErrorAs(t, c.AdminRunJob(ctx, "nope"), &apiErr)
	assert.Equal(t, "Job not found", apiErr.Message)
}
