package dashboard

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// WriterConfig represents the config of the Writer
type WriterConfig struct {
	Table string `yaml:"table"`
}

// Writer persists accepted readings to MySQL, one row per reading
type Writer struct {
	config WriterConfig
	db     *sql.DB
	stmt   *sql.Stmt
	logger *zap.SugaredLogger
}

func (w *Writer) prepareStmt() (*sql.Stmt, error) {
	if w.stmt != nil {
		return w.stmt, nil
	}

	var err error

	sql := fmt.Sprintf(
		"INSERT INTO `%s` (`metric`, `value`, `measured_at`) VALUES (?, ?, ?)",
		w.table(),
	)

	w.stmt, err = w.db.Prepare(sql)
	if err != nil {
		return nil, fmt.Errorf("Writer: %s", err)
	}

	return w.stmt, nil
}

func (w *Writer) table() string {
	if w.config.Table == "" {
		return "vehicle_reading"
	}

	return w.config.Table
}

// Write inserts a single reading
func (w *Writer) Write(reading *Reading) error {
	stmt, err := w.prepareStmt()
	if err != nil {
		return err
	}

	_, err = stmt.Exec(string(reading.Metric), reading.Value, reading.MeasuredAt)
	if err != nil {
		return fmt.Errorf("Writer: %s", err)
	}

	return nil
}

// Close releases the prepared statement
func (w *Writer) Close() error {
	if w.stmt == nil {
		return nil
	}

	return w.stmt.Close()
}

// NewWriter creates a new Writer
func NewWriter(config WriterConfig, db *sql.DB, logger *zap.SugaredLogger) *Writer {
	return &Writer{
		config: config,
		db:     db,
		logger: logger,
	}
}
