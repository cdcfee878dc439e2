package sql

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"codemail/backend/internal/domain"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+、PostgreSQL 和 SQLite）
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB // GORM实例，仅用于迁移
	driverName string   // "mysql"、"postgres" 或 "sqlite3"
}

// NewStore 创建SQL数据库存储
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	// 验证驱动类型
	if driverName != "mysql" && driverName != "postgres" && driverName != "sqlite3" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres, sqlite3)", driverName)
	}

	// 打开数据库连接
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	// 测试连接
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 初始化GORM（用于自动迁移，SQLite 使用手写DDL）
	var gormDB *gorm.DB
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	switch driverName {
	case "mysql":
		gormDB, err = gorm.Open(mysql.New(mysql.Config{
			Conn: db,
		}), gormConfig)
	case "postgres":
		gormDB, err = gorm.Open(postgres.New(postgres.Config{
			Conn: db,
		}), gormConfig)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	store := &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}

	// 自动执行数据库迁移
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Ping()
}

// migrate 执行数据库迁移。
// MySQL/PostgreSQL 使用 GORM AutoMigrate；SQLite 使用手写建表语句。
func (s *Store) migrate() error {
	if s.gormDB != nil {
		return s.gormDB.AutoMigrate(
			&domain.Mailbox{},
			&domain.Email{},
		)
	}
	return s.migrateSQLite()
}

// migrateSQLite 为 SQLite 建表
func (s *Store) migrateSQLite() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			mailbox_code  TEXT PRIMARY KEY,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS emails (
			id           TEXT PRIMARY KEY,
			mailbox_code TEXT NOT NULL,
			message_id   TEXT,
			from_address TEXT,
			to_address   TEXT,
			subject      TEXT,
			body_html    TEXT,
			body_text    TEXT,
			received_at  TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_mailbox_code ON emails (mailbox_code)`,
		`CREATE INDEX IF NOT EXISTS idx_emails_received_at ON emails (received_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind 将 `?` 占位符改写为当前驱动的占位符格式
func (s *Store) rebind(query string) string {
	if s.driverName != "postgres" {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
