package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/marcus/wo/internal/config"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/remote"
	"github.com/marcus/wo/internal/remote/script"
	"github.com/marcus/wo/internal/vocab"
)

const vocabDirName = ".wo/vocab"

// vocabDir returns the vocabulary table directory.
func vocabDir(baseDir string) string {
	return filepath.Join(baseDir, vocabDirName)
}

// loadVocab loads the vocabulary tables for the project.
func loadVocab(baseDir string) (*vocab.Table, error) {
	table, err := vocab.Load(vocabDir(baseDir))
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w (run 'wo init'?)", err)
	}
	return table, nil
}

// newRemote builds the configured remote facade and its retrier. The
// driverOverride flag takes precedence over the configured driver command.
func newRemote(cfg *models.Config, driverOverride string) (remote.Facade, *remote.Retrier, error) {
	command := cfg.DriverCommand
	if driverOverride != "" {
		command = driverOverride
	}
	if command == "" {
		return nil, nil, fmt.Errorf("no remote driver configured: run 'wo login' or pass --driver")
	}

	facade := &script.Driver{Command: command}
	retrier := &remote.Retrier{
		Facade: facade,
		Creds: remote.Credentials{
			URL:      cfg.RemoteURL,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	}
	return facade, retrier, nil
}

// loadConfig reads the project config.
func loadConfig(baseDir string) (*models.Config, error) {
	cfg, err := config.Load(baseDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
