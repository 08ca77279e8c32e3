package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProject(); err != nil {
		return err
	}
	if err := c.validateAssets(); err != nil {
		return err
	}
	if err := c.validateNotes(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// ValidatePublishCredential verifies the release host credential is
// resolvable. It is deliberately not part of Validate: dry runs never touch
// the network and must work without a token.
func (c *Config) ValidatePublishCredential() error {
	if c.PublishToken() == "" {
		return fmt.Errorf("publish token is required: set publish.token or the %s environment variable", c.Publish.TokenEnv)
	}
	return nil
}

func (c *Config) validateProject() error {
	if strings.ContainsAny(c.Project.AppName, "/\\") {
		return fmt.Errorf("project.app_name must not contain path separators: %q", c.Project.AppName)
	}
	if c.Publish.BaseURL != "" && c.Project.RepoOwner != "" && c.Project.RepoName == "" {
		return errors.New("project.repo_name must be set when project.repo_owner is set")
	}
	return nil
}

func (c *Config) validateAssets() error {
	if !strings.Contains(c.Assets.BundleTemplate, "{version}") {
		return fmt.Errorf("assets.bundle_template must contain {version}: %q", c.Assets.BundleTemplate)
	}
	if !strings.Contains(c.Assets.SourceTemplate, "{version}") {
		return fmt.Errorf("assets.source_template must contain {version}: %q", c.Assets.SourceTemplate)
	}
	return nil
}

func (c *Config) validateNotes() error {
	if len(c.Notes.Locales) == 0 {
		return errors.New("notes.locales must list at least one locale")
	}
	seen := map[string]struct{}{}
	for _, locale := range c.Notes.Locales {
		trimmed := strings.TrimSpace(locale)
		if trimmed == "" {
			return errors.New("notes.locales must not contain empty entries")
		}
		if _, dup := seen[trimmed]; dup {
			return fmt.Errorf("notes.locales contains duplicate entry %q", trimmed)
		}
		seen[trimmed] = struct{}{}
	}
	return nil
}

func (c *Config) validatePublish() error {
	validKinds := map[string]struct{}{
		"combined": {}, "technical": {}, "installation": {},
	}
	for _, kind := range c.Publish.DocKinds {
		if _, ok := validKinds[kind]; !ok {
			return fmt.Errorf("publish.doc_kinds contains unknown kind %q", kind)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
