package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"clima-data/common/database"
	"clima-data/common/logger"
	"clima-data/internal/config"
	"clima-data/migrations"

	"go.uber.org/zap"
)

// 用法：
//
//	apply-migration              应用编译进二进制的全部迁移
//	apply-migration a.sql b.sql  依次执行指定文件
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.NewLogger(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var todo []migrations.Migration
	if len(os.Args) > 1 {
		for _, path := range os.Args[1:] {
			b, err := os.ReadFile(path)
			if err != nil {
				log.Fatal("Failed to read migration file", zap.String("file", path), zap.Error(err))
			}
			todo = append(todo, migrations.Migration{Name: filepath.Base(path), SQL: string(b)})
		}
	} else {
		todo, err = migrations.All()
		if err != nil {
			log.Fatal("Failed to load embedded migrations", zap.Error(err))
		}
	}

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, &cfg.Database, log)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer db.Close()

	// 每个文件整体执行；迁移脚本本身是幂等的（IF NOT EXISTS）
	for i, m := range todo {
		log.Info("Applying migration", zap.Int("index", i+1), zap.Int("total", len(todo)), zap.String("name", m.Name))
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			db.Close()
			log.Fatal("Migration failed", zap.String("name", m.Name), zap.Error(err))
		}
	}
	log.Info("Migration completed", zap.Int("applied", len(todo)))
}
