package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/config"
	"github.com/dupelab/dupelab-api/src/api/data"
	"github.com/dupelab/dupelab-api/src/api/types"
	"github.com/dupelab/dupelab-api/src/api/webserver"
)

var allModels = []interface{}{
	&types.User{},
	&types.Perfume{}, &types.PerfumeTag{}, &types.PerfumeURL{},
	&types.Proposal{},
	&types.Group{}, &types.GroupMember{},
	&types.Expedition{}, &types.ExpeditionMember{},
	&types.ExpeditionItem{}, &types.ExpeditionItemNote{},
	&types.GroupStore{}, &types.GroupPerfumePrice{}, &types.PriceHistory{},
	&types.Vote{},
	&types.Setting{},
}

func migrate(db *gorm.DB) {
	if err := db.AutoMigrate(allModels...); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func seedSettings(db *gorm.DB) {
	defaults := []types.Setting{
		{ID: 1, Name: "frontend_url", Value: "http://localhost:3000"},
		{ID: 2, Name: "proposals_open", Value: "1"},
	}
	for _, s := range defaults {
		_ = db.FirstOrCreate(&types.Setting{}, s).Error
	}
}

func main() {
	cfg := config.Load()

	db := data.MustMySQL(cfg.MySQLDSN)
	migrate(db)
	seedSettings(db)
	if err := data.LoadSettings(db); err != nil {
		log.Fatalf("settings: %v", err)
	}

	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, db, rdb)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()
	log.Printf("DupeLab API listening on %s", cfg.Port)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()
	_ = httpSrv.Shutdown(shutCtx)
}
