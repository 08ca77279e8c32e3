package config

const (
	defaultOutputDir       = "dist"
	defaultWorkDir         = "temp_release"
	defaultLogDir          = "~/.local/share/lathe/logs"
	defaultAppName         = "App"
	defaultVersion         = "2.1.4"
	defaultChangelogPath   = "CHANGELOG.md"
	defaultReadmePath      = "README.md"
	defaultBugFixesPath    = "bugfixes.yaml"
	defaultPackagerBinary  = "bundler"
	defaultPackagerTimeout = 900
	defaultBundleTemplate  = "{app}-v{version}-{platform}"
	defaultSourceTemplate  = "{app}-v{version}-Source.zip"
	defaultPublishBaseURL  = "https://api.github.com"
	defaultPublishTokenEnv = "GITHUB_TOKEN"
	defaultPublishTimeout  = 30
	defaultPublishRetries  = 3
	defaultNotifyTimeout   = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:  defaultOutputDir,
			WorkDir:    defaultWorkDir,
			LogDir:     defaultLogDir,
			ProjectDir: ".",
		},
		Project: Project{
			AppName:         defaultAppName,
			DefaultVersion:  defaultVersion,
			EntryPoints:     []string{"launcher.py", "main.py", "app.py"},
			ChangelogPath:   defaultChangelogPath,
			ReadmePath:      defaultReadmePath,
			BugFixesPath:    defaultBugFixesPath,
			PackagerBinary:  defaultPackagerBinary,
			PackagerTimeout: defaultPackagerTimeout,
		},
		Assets: Assets{
			BundleTemplate: defaultBundleTemplate,
			SourceTemplate: defaultSourceTemplate,
			IconCandidates: []string{"icon.ico"},
		},
		Source: Source{
			ExcludePatterns: []string{
				"__pycache__",
				"*.pyc",
				".git",
				"dist",
				"build",
				"temp_release",
				"*.log",
				"logs",
				"backups",
				"*.db",
				"*.exe",
				"*.zip",
			},
			AlwaysInclude: []string{"README.md", "requirements.txt"},
		},
		Notes: Notes{
			Locales: []string{"tr", "en"},
		},
		Publish: Publish{
			BaseURL:        defaultPublishBaseURL,
			TokenEnv:       defaultPublishTokenEnv,
			RequestTimeout: defaultPublishTimeout,
			RetryAttempts:  defaultPublishRetries,
			DocKinds:       []string{"combined", "technical", "installation"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
