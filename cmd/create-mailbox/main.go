package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"codemail/backend/internal/auth"
	"codemail/backend/internal/codegen"
	"codemail/backend/internal/config"
	"codemail/backend/internal/service"
	"codemail/backend/internal/storage"
	"codemail/backend/internal/storage/memory"
	sqlstore "codemail/backend/internal/storage/sql"
)

func main() {
	if len(os.Args) > 2 {
		fmt.Println("Usage: create-mailbox [code]")
		fmt.Println("  没有给出编码时随机生成一个。")
		os.Exit(1)
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 创建存储
	var store storage.Store
	usingMemory := false
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		dbStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			fmt.Printf("Failed to connect database: %v\n", err)
			os.Exit(1)
		}
		store = dbStore
	} else {
		store = memory.NewStore()
		usingMemory = true
	}
	defer store.Close()

	mailboxes := service.NewMailboxService(auth.NewService(store), codegen.NewGenerator(), zap.NewNop())

	var result *service.ProvisionResult
	if len(os.Args) == 2 {
		result, err = mailboxes.ProvisionWithCode(os.Args[1])
	} else {
		result, err = mailboxes.Provision()
	}
	if err != nil {
		fmt.Printf("Failed to create mailbox: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Mailbox created successfully!\n")
	fmt.Printf("  Code:             %s\n", result.Code)
	fmt.Printf("  Initial password: %s\n", result.InitialPassword)

	if usingMemory {
		fmt.Println("\nNote: no database is configured, so this mailbox exists only in this")
		fmt.Println("process. Configure CODEMAIL_DATABASE_TYPE and CODEMAIL_DATABASE_DSN to persist it.")
	}
}
