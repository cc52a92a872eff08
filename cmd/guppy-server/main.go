package main

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"

	"github.com/stellularorg/guppy/internal/boot"
	"github.com/stellularorg/guppy/internal/cachedb"
	"github.com/stellularorg/guppy/internal/guppydb"
	"github.com/stellularorg/guppy/internal/handlers"
	"github.com/stellularorg/guppy/internal/markup"
	"github.com/stellularorg/guppy/internal/sqldb"
)

type Template struct {
	viewsDir  string
	templates *template.Template
	watcher   *fsnotify.Watcher
}

func (t *Template) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

func (t *Template) Watch() {
	var err error

	t.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}

	go func() {
		for {
			select {
			case event, ok := <-t.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) {
					log.Infof("modified file: %s", event.Name)
					t.templates = parseViews(t.viewsDir)
				}
			case err, ok := <-t.watcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %+v", err)
			}
		}
	}()

	err = t.watcher.Add(t.viewsDir)
	if err != nil {
		log.Fatalf("watcher: %+v", err)
	}
}

func (t *Template) Close() {
	if t.watcher != nil {
		t.watcher.Close()
	}
}

// viewFuncs exposes pre-rendered, already-sanitized HTML fields (content_html)
// to templates without re-escaping them.
var viewFuncs = template.FuncMap{
	"safe": func(s string) template.HTML { return template.HTML(s) },
}

func parseViews(viewsDir string) *template.Template {
	return template.Must(template.New("views").Funcs(viewFuncs).ParseGlob(filepath.Join(viewsDir, "*.html")))
}

func NewTemplate(viewsDir string) (*Template, error) {
	t := &Template{
		viewsDir:  viewsDir,
		templates: parseViews(viewsDir),
	}
	return t, nil
}

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	dbOptions := sqldb.Options{
		Type: config.Database.Type,
		DSN:  config.Database.DSN,
	}
	sqlDB, err := sqldb.Connect(dbOptions)
	if err != nil {
		log.Fatalf("database: %+v", err)
	}
	defer sqlDB.Close()

	cache, err := cachedb.New(config.CachePath)
	if err != nil {
		log.Fatalf("cache: %+v", err)
	}
	defer cache.Close()

	db := guppydb.New(sqlDB, cache, dbOptions, markup.Render)
	if err := db.Init(); err != nil {
		log.Fatalf("init: %+v", err)
	}

	session := handlers.NewSession(config.TokenSecret)

	server := echo.New()
	server.Use(middleware.BodyLimit("100M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("guppy"))
	server.Use(middleware.Recover())

	server.Logger.SetLevel(log.INFO)

	server.Static("/static", config.StaticDir)

	t, _ := NewTemplate(config.ViewsDir)
	defer t.Close()
	if config.IsDevelopment() {
		t.Watch()
	}
	server.Renderer = t

	api := server.Group("/api/v1")
	api.POST("/auth/register", handlers.Register(db, session, config))
	api.POST("/auth/login", handlers.Login(db, session))
	api.POST("/auth/login-st", handlers.LoginSecondaryToken(db, session))
	api.GET("/auth/logout", handlers.Logout(db, session))
	api.GET("/auth/whoami", handlers.Whoami(db, session))

	api.POST("/auth/profile/:name/about", handlers.EditAbout(db, session))
	api.POST("/auth/profile/:name/metadata", handlers.UpdateMetadata(db, session))
	api.POST("/auth/profile/:name/secondary-token", handlers.RefreshSecondaryToken(db, session))
	api.POST("/auth/profile/:name/follow", handlers.Follow(db, session))
	api.GET("/auth/profile/:name/followers", handlers.Followers(db))
	api.GET("/auth/profile/:name/following", handlers.Following(db))
	api.POST("/auth/profile/:name/ban", handlers.Ban(db, session))
	api.GET("/auth/profile/:name/level", handlers.Level(db))
	api.GET("/auth/profile/:name/activity", handlers.UserActivity(db))

	api.POST("/activity", handlers.CreatePost(db, session))
	api.DELETE("/activity/:id", handlers.DeletePost(db, session))
	api.POST("/activity/:id/favorite", handlers.Favorite(db, session))
	api.GET("/activity/:id/replies", handlers.PostReplies(db))
	api.GET("/activity/:id/favorites", handlers.PostFavorites(db))

	api.POST("/mail", handlers.CreateMailStream(db, session))
	api.GET("/mail", handlers.MailStreams(db, session))

	server.GET("/", handlers.HomeView(db, session))
	server.GET("/@:name", handlers.ProfileView(db, session, markup.Render))
	server.GET("/@:name/followers", handlers.FollowersView(db))
	server.GET("/@:name/following", handlers.FollowingView(db))
	server.GET("/p/:id", handlers.PostView(db, session))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(":" + config.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(":" + config.Port); err != nil && err != http.ErrServerClosed {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}
