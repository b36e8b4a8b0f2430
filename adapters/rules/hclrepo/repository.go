// Package hclrepo provides a file-backed rule repository. Rules and
// strategies are authored as HCL blocks in a directory of .hcl files;
// every load re-reads the directory, so the soft-TTL cache in front
// of this repository controls how often edits are observed.
package hclrepo

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.uber.org/zap"

	"bundle-pricing/core/rule"
	"bundle-pricing/core/strategy"
	"bundle-pricing/internal/errors"
	"bundle-pricing/internal/logging"
)

// Repository implements strategy.Repository over a rule directory
type Repository struct {
	dir string
	log *zap.Logger
}

// NewRepository creates a repository reading from dir
func NewRepository(dir string) *Repository {
	return &Repository{
		dir: dir,
		log: logging.Named("hclrepo"),
	}
}

// LoadDefaultRules parses every rule file and returns the valid
// rules. A rule failing validation is excluded with a warning and
// never influences a price; a file that fails to parse fails the
// whole load.
func (r *Repository) LoadDefaultRules(ctx context.Context) ([]rule.Rule, error) {
	rules, _, err := r.loadAll()
	if err != nil {
		return nil, err
	}
	return r.validated(rules), nil
}

// LoadRules materializes the named strategy over the base rule set
func (r *Repository) LoadRules(ctx context.Context, strategyID string) ([]rule.Rule, error) {
	rules, strategies, err := r.loadAll()
	if err != nil {
		return nil, err
	}

	strat, ok := strategies[strategyID]
	if !ok {
		return nil, errors.NotFound("strategy", strategyID)
	}

	// Strategy overrides can break a previously valid rule's params,
	// so validation runs after the merge.
	return r.validated(strategy.Materialize(rules, strat)), nil
}

// Invalidate is a no-op: every load re-reads the directory
func (r *Repository) Invalidate() {}

func (r *Repository) loadAll() ([]rule.Rule, map[string]*strategy.PricingStrategy, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, nil, errors.Config("reading rule directory", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".hcl") {
			files = append(files, filepath.Join(r.dir, entry.Name()))
		}
	}
	sort.Strings(files)

	parser := hclparse.NewParser()
	var rules []rule.Rule
	strategies := make(map[string]*strategy.PricingStrategy)

	for _, file := range files {
		src, err := os.ReadFile(file)
		if err != nil {
			return nil, nil, errors.Config("reading rule file", err).WithContext("file", file)
		}

		hclFile, diags := parser.ParseHCL(src, file)
		if diags.HasErrors() {
			return nil, nil, errors.Validationf("parsing %s: %s", file, diags.Error())
		}

		fileRules, fileStrategies, err := r.decodeFile(hclFile, file)
		if err != nil {
			return nil, nil, err
		}
		rules = append(rules, fileRules...)
		for id, s := range fileStrategies {
			strategies[id] = s
		}
	}

	return rules, strategies, nil
}

func (r *Repository) decodeFile(file *hcl.File, name string) ([]rule.Rule, map[string]*strategy.PricingStrategy, error) {
	content, _, diags := file.Body.PartialContent(ruleFileSchema)
	if diags.HasErrors() {
		return nil, nil, errors.Validationf("decoding %s: %s", name, diags.Error())
	}

	var rules []rule.Rule
	strategies := make(map[string]*strategy.PricingStrategy)

	for _, block := range content.Blocks {
		switch block.Type {
		case "rule":
			decoded, err := decodeRule(block)
			if err != nil {
				// An undecodable rule is rejected, not fatal, matching
				// the treatment of rules that fail validation.
				r.log.Warn("rejecting malformed rule",
					zap.String("file", name),
					zap.Error(err))
				continue
			}
			rules = append(rules, *decoded)
		case "strategy":
			decoded, err := decodeStrategy(block)
			if err != nil {
				return nil, nil, err
			}
			strategies[decoded.ID] = decoded
		}
	}

	return rules, strategies, nil
}

// validated filters out rules whose event parameters fail schema
// validation, logging each rejection
func (r *Repository) validated(rules []rule.Rule) []rule.Rule {
	out := make([]rule.Rule, 0, len(rules))
	for _, ru := range rules {
		if err := ru.Validate(); err != nil {
			r.log.Warn("rejecting invalid rule",
				zap.String("rule", ru.ID),
				zap.Error(err))
			continue
		}
		out = append(out, ru)
	}
	return out
}
