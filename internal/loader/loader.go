package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"infobot/internal/domain"
)

const (
	defaultURL     = "https://kct.ac.in"
	defaultSection = "General"
)

// LoadDir reads every *.json file in dir and returns the concatenated
// records. Each file must contain a JSON array of records; files that do
// not are logged and skipped so one bad file cannot abort a build.
func LoadDir(dir string, log *zap.Logger) ([]domain.Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan data dir %s: %w", dir, err)
	}
	if len(paths) == 0 {
		log.Warn("no json files found in data directory", zap.String("dir", dir))
		return nil, nil
	}

	var all []domain.Record
	for _, path := range paths {
		records, err := loadFile(path)
		if err != nil {
			log.Error("skipping data file", zap.String("file", path), zap.Error(err))
			continue
		}
		log.Info("loaded data file",
			zap.String("file", filepath.Base(path)),
			zap.Int("entries", len(records)))
		all = append(all, records...)
	}
	log.Info("data load complete", zap.Int("total_entries", len(all)))
	return all, nil
}

func loadFile(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("not a record array: %w", err)
	}
	for i := range records {
		if records[i].URL == "" {
			records[i].URL = defaultURL
		}
		if records[i].Section == "" {
			records[i].Section = defaultSection
		}
	}
	return records, nil
}
