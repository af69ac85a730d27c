package repository

import (
	"context"
	"fmt"
	"time"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store собирает репозитории всех сущностей поверх одного *gorm.DB.
// Внутри WithTx все репозитории привязаны к транзакции.
type Store struct {
	db     *gorm.DB
	logger *logrus.Logger

	Workers     WorkerRepository
	Posts       PostRepository
	Plans       PlanRepository
	Assignments AssignmentRepository
	Presences   WorkerPresenceRepository
	Managers    ManagerRepository
}

// Open открывает SQLite базу и включает внешние ключи
func Open(dsn string, logger *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(logger, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database instance: %w", err)
	}

	// SQLite сериализует запись, одно соединение держит PRAGMA для всех запросов
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logger.WithError(err).Warn("Failed to enable foreign keys")
	}

	return db, nil
}

// Migrate создает или обновляет таблицы
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Post{},
		&models.Worker{},
		&models.Plan{},
		&models.Assignment{},
		&models.WorkerPresence{},
		&models.Manager{},
	)
}

func NewStore(db *gorm.DB, logger *logrus.Logger) (*Store, error) {
	if err := Migrate(db); err != nil {
		logger.WithError(err).Error("Failed to auto-migrate planning tables")
		return nil, err
	}

	logger.Info("Planning store initialized")
	return bind(db, logger), nil
}

func bind(db *gorm.DB, logger *logrus.Logger) *Store {
	return &Store{
		db:          db,
		logger:      logger,
		Workers:     NewGormWorkerRepository(db, logger),
		Posts:       NewGormPostRepository(db, logger),
		Plans:       NewGormPlanRepository(db, logger),
		Assignments: NewGormAssignmentRepository(db, logger),
		Presences:   NewGormWorkerPresenceRepository(db, logger),
		Managers:    NewGormManagerRepository(db, logger),
	}
}

// WithTx выполняет fn в одной транзакции. Ошибка из fn откатывает все изменения.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(bind(tx, s.logger))
	})
}

// Ping проверяет, что база отвечает на запросы
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
