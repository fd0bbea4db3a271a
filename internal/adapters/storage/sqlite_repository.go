package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ports"
)

// SQLiteRepository implements ports.ModStore using GORM
type SQLiteRepository struct {
	db *gorm.DB
}

// Verify interface compliance at compile time
var _ ports.ModStore = (*SQLiteRepository)(nil)

// gormLogger routes GORM logs to the modshell logger
type gormLogger struct {
	level logger.LogLevel
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &gormLogger{level: level}
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Info {
		logging.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Warn {
		logging.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= logger.Error {
		logging.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level < logger.Info {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Logger.Error("gorm query error",
			"error", err,
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else if elapsed > 200*time.Millisecond {
		logging.Logger.Warn("slow query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	} else {
		logging.Logger.Debug("gorm query",
			"duration", elapsed,
			"sql", sql,
			"rows", rows,
		)
	}
}

func newGormLogger() logger.Interface {
	if os.Getenv(logging.EnvDebug) == "1" {
		return (&gormLogger{}).LogMode(logger.Info)
	}
	return (&gormLogger{}).LogMode(logger.Silent)
}

// NewSQLiteRepository opens (and migrates) the database at dbPath
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbPath = config.ExpandPath(dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		PrepareStmt: false,
		NowFunc:     func() time.Time { return time.Now().UTC() },
		Logger:      newGormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL lets the TUI, the CLI and SSH sessions share the file
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")
	db.Exec("PRAGMA synchronous=NORMAL")
	db.Exec("PRAGMA foreign_keys=ON")

	if err := db.AutoMigrate(&ModModel{}, &ProfileModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	if !db.Migrator().HasTable(&ProfileModModel{}) {
		if err := db.Exec(`
			CREATE TABLE IF NOT EXISTS profile_mods (
				profile_name TEXT NOT NULL,
				mod_hash TEXT NOT NULL,
				position INTEGER NOT NULL DEFAULT 0,
				enabled INTEGER NOT NULL DEFAULT 0,
				enabled_options TEXT,
				created_at DATETIME,
				updated_at DATETIME,
				PRIMARY KEY (profile_name, mod_hash),
				FOREIGN KEY (profile_name) REFERENCES profiles(name) ON UPDATE CASCADE ON DELETE CASCADE,
				FOREIGN KEY (mod_hash) REFERENCES mods(hash) ON DELETE CASCADE
			)
		`).Error; err != nil {
			return nil, fmt.Errorf("failed to create profile_mods table: %w", err)
		}
		if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_profile_position ON profile_mods(profile_name, position)`).Error; err != nil {
			return nil, fmt.Errorf("failed to create profile_mods index: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(0)

	repo := &SQLiteRepository{db: db}
	if err := repo.ensureCurrentProfile(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ensureCurrentProfile creates the default profile on a fresh database
func (r *SQLiteRepository) ensureCurrentProfile(ctx context.Context) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&ProfileModel{}).Where("is_current = ?", true).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to count profiles: %w", err)
			}
			if count > 0 {
				return nil
			}
			logging.Logger.Info("Creating default profile", "profile", config.DefaultProfile)
			return upsertCurrentProfile(tx, config.DefaultProfile)
		})
	}, 3)
}

// GetMod implements ModCatalogReader.GetMod
func (r *SQLiteRepository) GetMod(ctx context.Context, hash domain.Hash) (*domain.Mod, error) {
	var model ModModel
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("hash = ?", string(hash)).First(&model).Error
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrModNotFound, hash)
		}
		return nil, fmt.Errorf("failed to get mod %s: %w", hash, err)
	}

	mod := modModelToDomain(model)
	return &mod, nil
}

// ListMods implements ModCatalogReader.ListMods
func (r *SQLiteRepository) ListMods(ctx context.Context) ([]domain.Mod, error) {
	var models []ModModel
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Order("name ASC, hash ASC").Find(&models).Error
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to list mods: %w", err)
	}

	mods := make([]domain.Mod, len(models))
	for i, m := range models {
		mods[i] = modModelToDomain(m)
	}
	return mods, nil
}

// AddMod implements ModCatalogWriter.AddMod
func (r *SQLiteRepository) AddMod(ctx context.Context, mod domain.Mod) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&ModModel{}).Where("hash = ?", string(mod.Hash)).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateMod, mod.Hash)
			}

			model := domainToModModel(mod)
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to add mod %s: %w", mod.Hash, err)
			}
			return nil
		})
	}, 3)
}

// DeleteMod implements ModCatalogWriter.DeleteMod.
// Load order entries referencing the mod are removed with it.
func (r *SQLiteRepository) DeleteMod(ctx context.Context, hash domain.Hash) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("mod_hash = ?", string(hash)).Delete(&ProfileModModel{}).Error; err != nil {
				return fmt.Errorf("failed to delete load order entries: %w", err)
			}
			result := tx.Where("hash = ?", string(hash)).Delete(&ModModel{})
			if result.Error != nil {
				return fmt.Errorf("failed to delete mod %s: %w", hash, result.Error)
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", domain.ErrModNotFound, hash)
			}
			return nil
		})
	}, 3)
}

// CurrentProfile implements ProfileReader.CurrentProfile
func (r *SQLiteRepository) CurrentProfile(ctx context.Context) (string, error) {
	var profile ProfileModel
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Where("is_current = ?", true).First(&profile).Error
	}, 3)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return config.DefaultProfile, nil
		}
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return profile.Name, nil
}

// ListProfiles implements ProfileReader.ListProfiles
func (r *SQLiteRepository) ListProfiles(ctx context.Context) ([]string, error) {
	var names []string
	err := withRetry(func() error {
		return r.db.WithContext(ctx).Model(&ProfileModel{}).Order("name ASC").Pluck("name", &names).Error
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return names, nil
}

// LoadProfile implements ProfileReader.LoadProfile. It returns the profile's
// load order, lowest priority first.
func (r *SQLiteRepository) LoadProfile(ctx context.Context, profile string) ([]domain.Mod, error) {
	var entries []ProfileModModel
	var models []ModModel

	err := withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&ProfileModel{}).Where("name = ?", profile).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return fmt.Errorf("%w: %s", domain.ErrProfileNotFound, profile)
			}

			if err := tx.Where("profile_name = ?", profile).Order("position ASC").Find(&entries).Error; err != nil {
				return fmt.Errorf("failed to load load order: %w", err)
			}

			hashes := make([]string, len(entries))
			for i, e := range entries {
				hashes[i] = e.ModHash
			}
			if len(hashes) == 0 {
				return nil
			}
			return tx.Where("hash IN ?", hashes).Find(&models).Error
		})
	}, 3)
	if err != nil {
		return nil, err
	}

	byHash := make(map[string]ModModel, len(models))
	for _, m := range models {
		byHash[m.Hash] = m
	}

	mods := make([]domain.Mod, 0, len(entries))
	for _, e := range entries {
		m, ok := byHash[e.ModHash]
		if !ok {
			logging.Logger.Warn("Load order references missing mod", "profile", profile, "hash", e.ModHash)
			continue
		}
		mods = append(mods, profileEntryToDomain(e, m))
	}
	return mods, nil
}

// SaveProfile implements ProfileWriter.SaveProfile. It replaces the whole
// load order of the profile, creating the profile if needed.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, profile string, mods []domain.Mod) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("name = ?", profile).FirstOrCreate(&ProfileModel{Name: profile}).Error; err != nil {
				return fmt.Errorf("failed to ensure profile %s: %w", profile, err)
			}

			if err := tx.Where("profile_name = ?", profile).Delete(&ProfileModModel{}).Error; err != nil {
				return fmt.Errorf("failed to clear load order: %w", err)
			}

			for i, mod := range mods {
				var count int64
				if err := tx.Model(&ModModel{}).Where("hash = ?", string(mod.Hash)).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return fmt.Errorf("%w: %s", domain.ErrModNotFound, mod.Hash)
				}

				entry := ProfileModModel{
					Enabled:        mod.Enabled,
					EnabledOptions: mod.EnabledOptions,
					ModHash:        string(mod.Hash),
					Position:       i,
					ProfileName:    profile,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return fmt.Errorf("failed to save load order entry %s: %w", mod.Hash, err)
				}
			}
			return nil
		})
	}, 3)
}

// SetCurrentProfile implements ProfileWriter.SetCurrentProfile,
// creating the profile if it does not exist
func (r *SQLiteRepository) SetCurrentProfile(ctx context.Context, profile string) error {
	return withRetry(func() error {
		return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return upsertCurrentProfile(tx, profile)
		})
	}, 3)
}

func upsertCurrentProfile(tx *gorm.DB, profile string) error {
	if err := tx.Model(&ProfileModel{}).Where("is_current = ?", true).Update("is_current", false).Error; err != nil {
		return fmt.Errorf("failed to clear current profile: %w", err)
	}
	if err := tx.Where("name = ?", profile).FirstOrCreate(&ProfileModel{Name: profile}).Error; err != nil {
		return fmt.Errorf("failed to create profile %s: %w", profile, err)
	}
	if err := tx.Model(&ProfileModel{}).Where("name = ?", profile).Update("is_current", true).Error; err != nil {
		return fmt.Errorf("failed to set current profile: %w", err)
	}
	return nil
}

// withRetry retries operations on SQLITE_BUSY with linear backoff
func withRetry(fn func() error, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
			time.Sleep(time.Millisecond * time.Duration(50*(i+1)))
			continue
		}

		return err
	}
	return fmt.Errorf("operation failed after %d retries", maxRetries)
}
