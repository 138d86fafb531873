package badger

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/haulwire/loadscout/internal/interfaces"
	"github.com/haulwire/loadscout/internal/models"
)

// tenantFile is one tenant seed file in TOML format
type tenantFile struct {
	Tenant models.Tenant `toml:"tenant"`
}

// huntFile holds one or more hunt plans in TOML format
type huntFile struct {
	Hunts []models.HuntPlan `toml:"hunts"`
}

// hintFile holds one or more hint packs in YAML format. Hints stay in YAML
// because tenants hand-edit multiline regex lists.
type hintFile struct {
	Packs []models.HintPack `yaml:"packs"`
}

// LoadTenantsFromFiles loads tenant seed files (*.toml) from a directory.
// Missing directory is not an error; a malformed file is skipped with a warning.
func LoadTenantsFromFiles(ctx context.Context, tenantStorage interfaces.TenantStorage, dirPath string, logger arbor.ILogger) error {
	entries, ok := readSeedDir(dirPath, ".toml", logger, "tenants")
	if !ok {
		return nil
	}

	loaded := 0
	for _, path := range entries {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to read tenant file")
			continue
		}

		var tf tenantFile
		if err := toml.Unmarshal(content, &tf); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to parse tenant file")
			continue
		}
		if tf.Tenant.ID == "" {
			logger.Warn().Str("file", path).Msg("Tenant file missing id, skipping")
			continue
		}

		if err := tenantStorage.Upsert(ctx, &tf.Tenant); err != nil {
			logger.Warn().Err(err).Str("tenant_id", tf.Tenant.ID).Msg("Failed to store tenant")
			continue
		}
		loaded++
	}

	logger.Info().Int("loaded", loaded).Str("dir", dirPath).Msg("Tenants loaded from seed files")
	return nil
}

// LoadHuntsFromFiles loads hunt plan seed files (*.toml) from a directory
func LoadHuntsFromFiles(ctx context.Context, huntStorage interfaces.HuntStorage, dirPath string, logger arbor.ILogger) error {
	entries, ok := readSeedDir(dirPath, ".toml", logger, "hunts")
	if !ok {
		return nil
	}

	loaded := 0
	for _, path := range entries {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to read hunt file")
			continue
		}

		var hf huntFile
		if err := toml.Unmarshal(content, &hf); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to parse hunt file")
			continue
		}

		for i := range hf.Hunts {
			plan := hf.Hunts[i]
			if err := huntStorage.Upsert(ctx, &plan); err != nil {
				logger.Warn().Err(err).Str("hunt_id", plan.ID).Msg("Failed to store hunt plan")
				continue
			}
			loaded++
		}
	}

	logger.Info().Int("loaded", loaded).Str("dir", dirPath).Msg("Hunt plans loaded from seed files")
	return nil
}

// LoadHintsFromFiles loads parser hint packs (*.yaml) from a directory
func LoadHintsFromFiles(ctx context.Context, hintStorage interfaces.HintStorage, dirPath string, logger arbor.ILogger) error {
	entries, ok := readSeedDir(dirPath, ".yaml", logger, "hints")
	if !ok {
		return nil
	}

	loaded := 0
	for _, path := range entries {
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to read hint file")
			continue
		}

		var hf hintFile
		if err := yaml.Unmarshal(content, &hf); err != nil {
			logger.Warn().Err(err).Str("file", path).Msg("Failed to parse hint file")
			continue
		}

		for i := range hf.Packs {
			pack := hf.Packs[i]
			if err := hintStorage.Upsert(ctx, &pack); err != nil {
				logger.Warn().Err(err).Str("pack_id", pack.ID).Msg("Failed to store hint pack")
				continue
			}
			loaded++
		}
	}

	logger.Info().Int("loaded", loaded).Str("dir", dirPath).Msg("Hint packs loaded from seed files")
	return nil
}

// readSeedDir lists seed files with the given extension. Returns ok=false when
// the directory is absent or unreadable (both non-fatal).
func readSeedDir(dirPath, ext string, logger arbor.ILogger, kind string) ([]string, bool) {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		logger.Debug().Str("dir", dirPath).Msgf("Seed directory for %s does not exist, skipping", kind)
		return nil, false
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		logger.Warn().Err(err).Str("dir", dirPath).Msgf("Failed to read %s seed directory", kind)
		return nil, false
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ext) || (ext == ".yaml" && strings.HasSuffix(name, ".yml")) {
			paths = append(paths, filepath.Join(dirPath, name))
		}
	}
	return paths, true
}
