package main

import (
	"context"
	"fmt"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	concreteScanFunc scanFunc = scanDirectory
)

type Backup struct {
	client      StorageClient
	appConfig   AppConfig
	notifier    Notifier
	progressOut io.Writer
}

func NewBackup(client StorageClient, appConfig AppConfig, notifier Notifier, progressOut io.Writer) *Backup {
	return &Backup{
		client:      client,
		appConfig:   appConfig,
		notifier:    notifier,
		progressOut: progressOut,
	}
}

// Run backs up localRoot once. Any error aborts the run; files handled before
// the failure stay uploaded.
func (b *Backup) Run(ctx context.Context, localRoot string) (*RunReport, error) {
	report := &RunReport{LocalRoot: localRoot, RootFolder: b.appConfig.RootFolder}
	runErr := b.run(ctx, localRoot, report)

	if b.notifier != nil {
		if notifyErr := b.notifier.NotifyRunResults(report, runErr); notifyErr != nil {
			log.Warn(fmt.Sprintf("failed to send run report: %s", notifyErr))
		}
	}

	return report, runErr
}

func (b *Backup) run(ctx context.Context, localRoot string, report *RunReport) error {
	log.Info(fmt.Sprintf("Backup starting for %s.", localRoot))
	backupStartTime := time.Now()

	rootID, err := b.findOrCreateRootFolder(ctx)
	if err != nil {
		return err
	}

	exclude, err := b.appConfig.ExcludePattern()
	if err != nil {
		return err
	}
	fileList, err := concreteScanFunc(localRoot, exclude)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", localRoot, err)
	}
	log.Info(fmt.Sprintf("Found %d files under %s", len(fileList), localRoot))

	synchronizer := NewSynchronizer(b.client, rootID, b.appConfig, make(DirectoryCache), report)
	if b.progressOut != nil {
		synchronizer.ShowProgress(b.progressOut)
	}
	for _, relPath := range fileList {
		if _, err := synchronizer.UploadIfAbsent(ctx, localRoot, relPath); err != nil {
			return err
		}
	}

	duration := time.Since(backupStartTime)
	log.Info(fmt.Sprintf("Backup complete for %s. %d uploaded, %d skipped, %d folders created. Took %s",
		localRoot, len(report.Uploaded), len(report.Skipped), len(report.FoldersCreated), duration.String()))

	return nil
}

func (b *Backup) findOrCreateRootFolder(ctx context.Context) (string, error) {
	scope := Within("")
	if b.appConfig.LookupScope == LookupByName {
		scope = Anywhere
	}

	matches, err := b.client.SearchByName(ctx, b.appConfig.RootFolder, scope)
	if err != nil {
		return "", fmt.Errorf("failed to look up root folder %s: %w", b.appConfig.RootFolder, err)
	}
	if b.appConfig.LookupScope == LookupByPath {
		matches = foldersOnly(matches)
	}
	if len(matches) > 0 {
		if len(matches) > 1 && b.appConfig.StrictNames {
			return "", fmt.Errorf("%d remote entities named %s: %w", len(matches), b.appConfig.RootFolder, ErrAmbiguousName)
		}
		log.Info(fmt.Sprintf("preexisting root folder: %s", matches[0].ID))
		return matches[0].ID, nil
	}

	created, err := b.client.CreateFolder(ctx, b.appConfig.RootFolder, "")
	if err != nil {
		return "", fmt.Errorf("failed to create root folder %s: %w", b.appConfig.RootFolder, err)
	}
	log.Info(fmt.Sprintf("creating root folder: %s", created.ID))
	return created.ID, nil
}
