package server

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"anoa.com/gamingcommunity/internal/config"
	"anoa.com/gamingcommunity/internal/entity"
	"anoa.com/gamingcommunity/internal/middleware"
	"anoa.com/gamingcommunity/internal/scheduler"
	"anoa.com/gamingcommunity/pkg/cache"
	"anoa.com/gamingcommunity/pkg/storage"
	"anoa.com/gamingcommunity/pkg/token"

	activityHttp "anoa.com/gamingcommunity/internal/modules/activity/delivery/http"
	activityService "anoa.com/gamingcommunity/internal/modules/activity/service"

	adminHttp "anoa.com/gamingcommunity/internal/modules/admin/delivery/http"
	adminService "anoa.com/gamingcommunity/internal/modules/admin/service"

	blogHttp "anoa.com/gamingcommunity/internal/modules/blog/delivery/http"
	blogRepo "anoa.com/gamingcommunity/internal/modules/blog/repository"
	blogService "anoa.com/gamingcommunity/internal/modules/blog/service"

	communityHttp "anoa.com/gamingcommunity/internal/modules/community/delivery/http"
	communityRepo "anoa.com/gamingcommunity/internal/modules/community/repository"
	communityService "anoa.com/gamingcommunity/internal/modules/community/service"

	gameHttp "anoa.com/gamingcommunity/internal/modules/game/delivery/http"
	gameRepo "anoa.com/gamingcommunity/internal/modules/game/repository"
	gameService "anoa.com/gamingcommunity/internal/modules/game/service"

	searchHttp "anoa.com/gamingcommunity/internal/modules/search/delivery/http"
	searchService "anoa.com/gamingcommunity/internal/modules/search/service"

	uploadHttp "anoa.com/gamingcommunity/internal/modules/upload/delivery/http"
	uploadService "anoa.com/gamingcommunity/internal/modules/upload/service"

	userHttp "anoa.com/gamingcommunity/internal/modules/user/delivery/http"
	userRepo "anoa.com/gamingcommunity/internal/modules/user/repository"
	userService "anoa.com/gamingcommunity/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are built once in main. Redis, Search, Images and Scheduler are
// optional. Jobs() still has to be registered on the Scheduler by the caller.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Tokens *token.Manager
	Log    *zap.Logger

	Redis     *redis.Client
	Search    searchService.MeiliSearchService
	Images    storage.ImageStorage
	Scheduler *scheduler.Scheduler
}

type Server struct {
	engine *gin.Engine
	jobs   []scheduler.Job
}

func NewServer(deps Deps) *Server {
	cfg := deps.Config

	users := userRepo.NewUserRepository(deps.DB)
	games := gameRepo.NewGameRepository(deps.DB)
	communities := communityRepo.NewCommunityRepository(deps.DB)
	blogs := blogRepo.NewBlogRepository(deps.DB)

	// typed nils must not leak into the interfaces below
	var (
		indexer  searchService.Indexer
		searcher searchService.Searcher
		hub      activityService.Hub
		stats    cache.Cache
	)
	if deps.Search != nil {
		indexer, searcher = deps.Search, deps.Search
	}
	if deps.Redis != nil {
		hub = activityService.NewRedisHub(deps.Redis)
		stats = cache.NewRedisCache(deps.Redis)
	}

	authSvc := userService.NewAuthService(users, deps.Tokens)
	accountSvc := userService.NewAccountService(users, indexer)
	authHandler := userHttp.NewAuthHandler(authSvc, accountSvc)

	gameSvc := gameService.NewGameService(games, indexer)
	gameHandler := gameHttp.NewGameHandler(gameSvc)

	communitySvc := communityService.NewCommunityService(communities, games, indexer)
	communityHandler := communityHttp.NewCommunityHandler(communitySvc)

	blogSvc := blogService.NewBlogService(blogs, blogService.Deps{
		Indexer:   indexer,
		Publisher: hub,
		Images:    deps.Images,
	})
	blogHandler := blogHttp.NewBlogHandler(blogSvc)

	var runner adminService.JobRunner
	if deps.Scheduler != nil {
		runner = deps.Scheduler
	}
	adminSvc := adminService.NewAdminService(adminService.Config{
		Users:            users,
		Games:            games,
		Blogs:            blogs,
		Communities:      communities,
		GameDeleter:      adminService.DeleterFunc(gameSvc.Delete),
		BlogDeleter:      adminService.DeleterFunc(blogSvc.AdminDelete),
		CommunityDeleter: adminService.DeleterFunc(communitySvc.Delete),
		Cache:            stats,
		CacheTTL:         cfg.StatsCacheTTL,
		Jobs:             runner,
	})
	adminHandler := adminHttp.NewAdminHandler(adminSvc)

	searchHandler := searchHttp.NewSearchHandler(searcher)
	uploadHandler := uploadHttp.NewUploadHandler(uploadService.NewUploadService(deps.Images))

	origins := allowedOrigins(cfg.AllowedOrigins)
	liveHandler := activityHttp.NewLiveHandler(hub, blogs, func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(origins, origin)
	})

	var jobs []scheduler.Job
	if indexer != nil {
		jobs = append(jobs, searchService.NewReindexJob(indexer, cfg.SearchReindexSchedule,
			func(ctx context.Context) ([]*entity.Game, error) { return games.FindAll(ctx, gameRepo.Filter{}) },
			communities.FindAll,
			blogs.FindAll,
		))
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = uploadService.MaxImageSize

	setupCORS(router, origins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(deps.Log, "/"))

	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Gaming Community API is running")
	})

	// Public routes
	auth := router.Group("/auth")
	{
		auth.POST("/signup", limiter.Middleware(), authHandler.Signup)
		auth.POST("/login", limiter.Middleware(), authHandler.Login)
	}
	router.GET("/games", gameHandler.GetGames)
	router.GET("/games/:id", gameHandler.GetGame)
	router.GET("/community", communityHandler.GetCommunities)
	router.GET("/community/:id", communityHandler.GetCommunity)
	router.GET("/blogs", blogHandler.GetBlogs)
	router.GET("/blogs/:id", blogHandler.GetBlog)
	router.GET("/search", searchHandler.Search)

	// Protected routes
	protected := router.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/user", authHandler.GetUser)
		protected.PUT("/auth/updateUser", authHandler.UpdateUser)
		protected.DELETE("/auth/deleteUser", authHandler.DeleteUser)

		protected.POST("/games", gameHandler.CreateGame)
		protected.PUT("/games/:id", gameHandler.UpdateGame)
		protected.DELETE("/games/:id", gameHandler.DeleteGame)

		protected.POST("/community", communityHandler.CreateCommunity)
		protected.POST("/community/:id/join", communityHandler.JoinCommunity)
		protected.POST("/community/:id/leave", communityHandler.LeaveCommunity)

		protected.POST("/blogs", blogHandler.CreateBlog)
		protected.PUT("/blogs/:id", blogHandler.UpdateBlog)
		protected.DELETE("/blogs/:id", blogHandler.DeleteBlog)
		protected.POST("/blogs/:id/comment", blogHandler.CommentBlog)
		protected.POST("/blogs/:id/like", blogHandler.LikeBlog)
		protected.GET("/blogs/:id/live", liveHandler.BlogActivity)

		protected.POST("/uploads", uploadHandler.UploadImage)

		adminGroup := protected.Group("/admin")
		adminGroup.Use(authMiddleware.RequireAdmin())
		{
			adminGroup.GET("/stats", adminHandler.GetStats)
			adminGroup.GET("/users", adminHandler.GetUsers)
			adminGroup.PATCH("/users/:id/admin", adminHandler.SetUserAdmin)
			adminGroup.DELETE("/games/:id", adminHandler.DeleteGame)
			adminGroup.DELETE("/blogs/:id", adminHandler.DeleteBlog)
			adminGroup.DELETE("/communities/:id", adminHandler.DeleteCommunity)
			adminGroup.GET("/jobs", adminHandler.GetJobs)
			adminGroup.POST("/jobs/:name/run", adminHandler.RunJob)
		}
	}

	return &Server{engine: router, jobs: jobs}
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Jobs are the background jobs the server wants scheduled.
func (s *Server) Jobs() []scheduler.Job {
	return s.jobs
}

// HTTPServer wraps the router with the timeouts used in production. The write
// timeout stays zero so websocket streams are not cut off.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func allowedOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return origins
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
