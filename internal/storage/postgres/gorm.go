package postgres

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQuery is the duration after which a statement is logged at warn level.
const slowQuery = 200 * time.Millisecond

// OpenGorm returns a gorm.DB that borrows connections from pool. The pool
// remains owned by the caller.
func OpenGorm(pool *pgxpool.Pool) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)

	db, err := gorm.Open(gormpg.New(gormpg.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 zapGormLogger{level: gormlogger.Warn},
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "open gorm")
	}
	return db, nil
}

// Models returns every model whose table is managed by migrations.
func Models() []any {
	return []any{&TodoRecord{}}
}

// zapGormLogger routes GORM logs to the request-scoped zap logger.
type zapGormLogger struct {
	level gormlogger.LogLevel
}

var _ gormlogger.Interface = zapGormLogger{}

func (l zapGormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	l.level = level
	return l
}

func (l zapGormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		zctx.From(ctx).Sugar().Infof(msg, args...)
	}
}

func (l zapGormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		zctx.From(ctx).Sugar().Warnf(msg, args...)
	}
}

func (l zapGormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		zctx.From(ctx).Sugar().Errorf(msg, args...)
	}
}

func (l zapGormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	lg := zctx.From(ctx)

	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		lg.Error("Query failed",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
	case elapsed > slowQuery && l.level >= gormlogger.Warn:
		sql, rows := fc()
		lg.Warn("Slow query",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		lg.Debug("Query",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}
