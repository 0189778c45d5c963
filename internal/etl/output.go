package etl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	"github.com/ougirez/premiums/internal/domain"
)

func OutputPath(dir string, year int) string {
	return filepath.Join(dir, fmt.Sprintf("premiums_%d.json", year))
}

// WriteYear stores the transformed premiums of a year as a JSON array.
func WriteYear(dir string, year int, premiums []domain.Premium) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	data, err := sonic.Marshal(premiums)
	if err != nil {
		return "", fmt.Errorf("sonic.Marshal: %w", err)
	}

	out := OutputPath(dir, year)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

func ReadYear(dir string, year int) ([]domain.Premium, error) {
	data, err := os.ReadFile(OutputPath(dir, year))
	if err != nil {
		return nil, err
	}

	var premiums []domain.Premium
	if err := sonic.Unmarshal(data, &premiums); err != nil {
		return nil, fmt.Errorf("sonic.Unmarshal: %w", err)
	}
	return premiums, nil
}
