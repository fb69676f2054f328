package warehouse

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DSN renders cfg as a ClickHouse native-protocol connection string.
func (cfg Config) DSN() string {
	u := url.URL{
		Scheme: "clickhouse",
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	q := u.Query()
	q.Set("dial_timeout", "10s")
	q.Set("read_timeout", "60s")
	u.RawQuery = q.Encode()
	return u.String()
}

func OpenClickHouse(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(clickhouse.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

// Client is a thin insert/query passthrough over the analytical database.
type Client struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewClient(db *gorm.DB, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{db: db, logger: logger}
}

func (c *Client) DB() *gorm.DB {
	return c.db
}

// Insert writes rows into table. Every row must carry the same columns.
func (c *Client) Insert(ctx context.Context, table string, rows []map[string]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.db.WithContext(ctx).Table(table).Create(rows).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	c.logger.Debug("Inserted rows", zap.String("table", table), zap.Int("rows", len(rows)))
	return nil
}

// Query runs sql and returns each result row as a column map.
func (c *Client) Query(ctx context.Context, sql string, args ...interface{}) ([]map[string]interface{}, error) {
	var rows []map[string]interface{}
	if err := c.db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return rows, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
