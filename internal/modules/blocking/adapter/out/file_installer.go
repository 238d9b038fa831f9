package out

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"webtally/internal/modules/blocking/domain"
	blockingout "webtally/internal/modules/blocking/port/out"
)

type ruleFile struct {
	UpdatedAt time.Time     `json:"updatedAt"`
	Rules     []domain.Rule `json:"rules"`
}

// FileRuleInstaller publishes the rule set as a JSON document for an external
// enforcer (a browser extension or proxy) to pick up. Writes go through a
// temp file and rename so readers never see a partial set.
type FileRuleInstaller struct {
	path string
}

func NewFileRuleInstaller(path string) blockingout.RuleInstaller {
	return &FileRuleInstaller{path: path}
}

func (f *FileRuleInstaller) Name() string {
	return "file"
}

func (f *FileRuleInstaller) Replace(ctx context.Context, rules domain.RuleSet) error {
	return f.write(ctx, rules.Rules)
}

func (f *FileRuleInstaller) Installed(_ context.Context) (domain.RuleSet, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.RuleSet{}, nil
		}
		return domain.RuleSet{}, fmt.Errorf("read rules: %w", err)
	}
	doc := ruleFile{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.RuleSet{}, fmt.Errorf("decode rules: %w", err)
	}
	return domain.RuleSet{Rules: doc.Rules}, nil
}

func (f *FileRuleInstaller) Close() error {
	return nil
}

func (f *FileRuleInstaller) write(ctx context.Context, rules []domain.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rules == nil {
		rules = []domain.Rule{}
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create rules dir: %w", err)
	}
	payload, err := json.MarshalIndent(ruleFile{UpdatedAt: time.Now().UTC(), Rules: rules}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal rules: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".block-rules-*.json")
	if err != nil {
		return fmt.Errorf("create temp rules: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp rules: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp rules: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace rules: %w", err)
	}
	return nil
}
