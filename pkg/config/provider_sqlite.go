package config

import (
	"database/sql"
	"embed"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/chrissnell/tlprofile/pkg/migrate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider and brings
// the settings and lines tables up to the latest schema
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	migrator := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "config_migrations"), nil)
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// settingField binds a settings key to a ConfigData field
type settingField struct {
	get func(c *ConfigData) string
	set func(c *ConfigData, v string) error
}

func floatField(ptr func(c *ConfigData) *float64) settingField {
	return settingField{
		get: func(c *ConfigData) string { return strconv.FormatFloat(*ptr(c), 'f', -1, 64) },
		set: func(c *ConfigData, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return err
			}
			*ptr(c) = f
			return nil
		},
	}
}

func intField(ptr func(c *ConfigData) *int) settingField {
	return settingField{
		get: func(c *ConfigData) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *ConfigData, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*ptr(c) = n
			return nil
		},
	}
}

func stringField(ptr func(c *ConfigData) *string) settingField {
	return settingField{
		get: func(c *ConfigData) string { return *ptr(c) },
		set: func(c *ConfigData, v string) error {
			*ptr(c) = v
			return nil
		},
	}
}

func boolField(ptr func(c *ConfigData) *bool) settingField {
	return settingField{
		get: func(c *ConfigData) string { return strconv.FormatBool(*ptr(c)) },
		set: func(c *ConfigData, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*ptr(c) = b
			return nil
		},
	}
}

var settingFields = map[string]settingField{
	"simplification.epsilon":           floatField(func(c *ConfigData) *float64 { return &c.Simplification.Epsilon }),
	"simplification.top_n":             intField(func(c *ConfigData) *int { return &c.Simplification.TopN }),
	"units.distance":                   stringField(func(c *ConfigData) *string { return &c.Units.Distance }),
	"units.elevation":                  stringField(func(c *ConfigData) *string { return &c.Units.Elevation }),
	"segmentation.size_change_min_run": floatField(func(c *ConfigData) *float64 { return &c.Segmentation.SizeChangeMinRun }),
	"segmentation.min_segment_points":  intField(func(c *ConfigData) *int { return &c.Segmentation.MinSegmentPoints }),
	"export.dense_max_rows":            intField(func(c *ConfigData) *int { return &c.Export.DenseMaxRows }),
	"export.interpolate_gap_max":       intField(func(c *ConfigData) *int { return &c.Export.InterpolateGapMax }),
	"export.uniform_fraction":          floatField(func(c *ConfigData) *float64 { return &c.Export.UniformFraction }),
	"cache.size":                       intField(func(c *ConfigData) *int { return &c.Cache.Size }),
	"log.debug":                        boolField(func(c *ConfigData) *bool { return &c.Log.Debug }),
	"log.file":                         stringField(func(c *ConfigData) *string { return &c.Log.File }),
}

// LoadConfig loads the complete configuration from SQLite database.
// Settings missing from the database keep their default values.
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := Defaults()

	if err := s.loadSettings(config); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	lines, err := s.GetLines()
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}
	config.Lines = lines

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

func (s *SQLiteProvider) loadSettings(config *ConfigData) error {
	rows, err := s.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return err
		}
		field, ok := settingFields[key]
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		if err := field.set(config, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	return rows.Err()
}

// GetLines returns the per-line overrides
func (s *SQLiteProvider) GetLines() (map[string]LineData, error) {
	rows, err := s.db.Query(`SELECT line_id, epsilon, break_at, size_changes FROM lines`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make(map[string]LineData)
	for rows.Next() {
		var (
			id          string
			line        LineData
			epsilon     sql.NullFloat64
			breakAt     string
			sizeChanges int
		)
		if err := rows.Scan(&id, &epsilon, &breakAt, &sizeChanges); err != nil {
			return nil, err
		}
		if epsilon.Valid {
			line.Epsilon = &epsilon.Float64
		}
		if line.BreakAt, err = parseDistances(breakAt); err != nil {
			return nil, fmt.Errorf("line %s break_at: %w", id, err)
		}
		line.SizeChanges = sizeChanges != 0
		lines[id] = line
	}
	return lines, rows.Err()
}

// IsReadOnly returns false since SQLite configuration can be modified
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig saves complete configuration to the database
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	if err := configData.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM settings`); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	for key, field := range settingFields {
		if _, err := tx.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)`, key, field.get(configData)); err != nil {
			return fmt.Errorf("failed to insert setting %s: %w", key, err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM lines`); err != nil {
		return fmt.Errorf("failed to clear lines: %w", err)
	}
	for id, line := range configData.Lines {
		if err := s.insertLine(tx, id, line); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// SaveLine inserts or replaces the overrides for one line
func (s *SQLiteProvider) SaveLine(id string, line LineData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertLine(tx, id, line); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteProvider) insertLine(tx *sql.Tx, id string, line LineData) error {
	sizeChanges := 0
	if line.SizeChanges {
		sizeChanges = 1
	}
	var epsilon sql.NullFloat64
	if line.Epsilon != nil {
		epsilon = sql.NullFloat64{Float64: *line.Epsilon, Valid: true}
	}
	_, err := tx.Exec(`
		INSERT OR REPLACE INTO lines (line_id, epsilon, break_at, size_changes)
		VALUES (?, ?, ?, ?)`,
		id, epsilon, formatDistances(line.BreakAt), sizeChanges)
	if err != nil {
		return fmt.Errorf("failed to insert line %s: %w", id, err)
	}
	return nil
}

func parseDistances(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func formatDistances(ds []float64) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = strconv.FormatFloat(d, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
