package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aviationclub/api/internal/adminauth"
	"aviationclub/api/internal/app"
	"aviationclub/api/internal/archive"
	"aviationclub/api/internal/cache"
	"aviationclub/api/internal/config"
	"aviationclub/api/internal/media"
	"aviationclub/api/internal/search"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var cacheStore *cache.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		cs, err := cache.NewStore(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, running without a local cache: %v", err)
		} else {
			cacheStore = cs
			defer cacheStore.Close()
		}
	}

	var archiveStore archive.Store
	switch cfg.ArchiveMode {
	case "github":
		token := cfg.GitHubToken
		if token == "" && cacheStore != nil {
			// A token saved on a previous run survives an env-less restart.
			cached, err := cacheStore.Credential(ctx)
			if err != nil {
				log.Printf("WARNING: could not read cached archive credential: %v", err)
			} else {
				token = cached
			}
		}
		if cfg.GitHubRepo == "" || token == "" {
			log.Fatal("CLUB_GITHUB_REPO and CLUB_GITHUB_TOKEN are required in github archive mode")
		}
		if cfg.GitHubToken != "" && cacheStore != nil {
			if err := cacheStore.SaveCredential(ctx, cfg.GitHubToken); err != nil {
				log.Printf("WARNING: could not cache archive credential: %v", err)
			}
		}
		archiveStore = archive.NewGitHub(cfg.GitHubRepo, cfg.GitHubBranch, token)
	case "local":
		gitDir, err := archive.NewGitDir(cfg.ArchiveDir)
		if err != nil {
			log.Fatalf("archive dir unavailable: %v", err)
		}
		archiveStore = gitDir
	default:
		log.Fatalf("unknown archive mode %q (want github or local)", cfg.ArchiveMode)
	}

	var authSvc *adminauth.Service
	if cfg.AdminPassHash != "" {
		authSvc = adminauth.NewService(cfg.AdminPassHash, cfg.SessionSecret, cfg.SessionTTL)
	} else {
		log.Printf("WARNING: CLUB_ADMIN_PASS_HASH not set; admin login disabled")
	}

	var mediaSvc *media.Service
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		ms, err := media.New(ctx, media.Config{
			Endpoint:      cfg.MinioEndpoint,
			AccessKey:     cfg.MinioAccessKey,
			SecretKey:     cfg.MinioSecretKey,
			Bucket:        cfg.MinioBucket,
			UseSSL:        cfg.MinioUseSSL,
			PublicBaseURL: cfg.MediaBaseURL,
		})
		if err != nil {
			log.Printf("WARNING: media storage unavailable, uploads disabled: %v", err)
		} else {
			mediaSvc = ms
		}
	}

	service := app.New(cfg, cacheStore, archiveStore, authSvc, nil, mediaSvc)
	if err := service.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	defer service.Close()

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
	}
	searchService := search.NewService(meiliClient, search.NewMemory(service.Dataset))
	defer searchService.Close()
	service.ConfigureSearch(searchService)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Aviation Club API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
