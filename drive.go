package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	mimeTypeGoogleAppFolder = "application/vnd.google-apps.folder"
	driveRootAlias          = "root"
	driveFileFields         = "id,name,parents,mimeType"
	driveFilesFields        = "nextPageToken,files(id,name,parents,mimeType)"
)

type DriveClient struct {
	Service *drive.Service
}

func NewDriveStorageClient(ctx context.Context, appConfig AppConfig) (StorageClient, error) {
	var storageClient StorageClient

	httpClient, err := driveHTTPClient(ctx, appConfig.Provider)
	if err != nil {
		return storageClient, err
	}
	service, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return storageClient, newRemoteAPIError("failed to create drive service", err)
	}
	storageClient = &DriveClient{Service: service}

	return storageClient, nil
}

// driveHTTPClient authenticates with, in order of preference, an OAuth client
// secret plus a saved token, a service account key, or application default
// credentials.
func driveHTTPClient(ctx context.Context, provider ProviderConfig) (*http.Client, error) {
	if provider.CredentialsFile == "" {
		client, err := google.DefaultClient(ctx, drive.DriveScope)
		if err != nil {
			return nil, newRemoteAPIError("failed to find default credentials", err)
		}
		return client, nil
	}

	secret, err := os.ReadFile(provider.CredentialsFile)
	if err != nil {
		return nil, newFilesystemError("failed to read credentials file", err)
	}
	if provider.TokenFile == "" {
		creds, err := google.CredentialsFromJSON(ctx, secret, drive.DriveScope)
		if err != nil {
			return nil, newRemoteAPIError("failed to parse credentials", err)
		}
		return oauth2.NewClient(ctx, creds.TokenSource), nil
	}

	oauthConfig, err := google.ConfigFromJSON(secret, drive.DriveScope)
	if err != nil {
		return nil, newRemoteAPIError("failed to parse client secret", err)
	}
	token, err := readTokenFile(provider.TokenFile)
	if err != nil {
		return nil, err
	}
	return oauthConfig.Client(ctx, token), nil
}

func readTokenFile(path string) (*oauth2.Token, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, newFilesystemError("failed to open token file", err)
	}
	defer fd.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(fd).Decode(token); err != nil {
		return nil, newFilesystemError("failed to decode token file", err)
	}
	return token, nil
}

func (d *DriveClient) CreateFolder(ctx context.Context, name, parentID string) (Entity, error) {
	file, err := d.Service.Files.Create(&drive.File{
		Name:     name,
		MimeType: mimeTypeGoogleAppFolder,
		Parents:  driveParents(parentID),
	}).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Context(ctx).
		Do()
	if err != nil {
		return Entity{}, newRemoteAPIError(fmt.Sprintf("failed to create folder %s", name), err)
	}
	return newEntity(file), nil
}

func (d *DriveClient) SearchByName(ctx context.Context, name string, scope Scope) ([]Entity, error) {
	matches := make([]Entity, 0)
	err := d.Service.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(searchQuery(name, scope)).
		Fields(driveFilesFields).
		Pages(ctx, func(list *drive.FileList) error {
			for _, file := range list.Files {
				matches = append(matches, newEntity(file))
			}
			return nil
		})
	if err != nil {
		return nil, newRemoteAPIError(fmt.Sprintf("failed to search for %s", name), err)
	}
	return matches, nil
}

func (d *DriveClient) UploadFile(ctx context.Context, localPath, fileName, parentID string, progress ProgressFunc) (Entity, error) {
	fd, body, err := openForUpload(localPath, progress)
	if err != nil {
		return Entity{}, err
	}
	defer fd.Close()

	file, err := d.Service.Files.Create(&drive.File{
		Name:    fileName,
		Parents: driveParents(parentID),
	}).
		SupportsAllDrives(true).
		Fields(driveFileFields).
		Media(body).
		Context(ctx).
		Do()
	if err != nil {
		return Entity{}, newRemoteAPIError(fmt.Sprintf("failed to upload %s", localPath), err)
	}
	return newEntity(file), nil
}

func searchQuery(name string, scope Scope) string {
	q := fmt.Sprintf("name = '%s' and trashed = false", escapeQuery(name))
	if scope.Anywhere {
		return q
	}
	parentID := scope.ParentID
	if parentID == "" {
		parentID = driveRootAlias
	}
	return q + fmt.Sprintf(" and '%s' in parents", escapeQuery(parentID))
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return s
}

func driveParents(parentID string) []string {
	if parentID == "" {
		return nil
	}
	return []string{parentID}
}

func newEntity(f *drive.File) Entity {
	var parentID string
	if len(f.Parents) > 0 {
		parentID = f.Parents[0]
	}
	return Entity{
		ID:       f.Id,
		Name:     f.Name,
		ParentID: parentID,
		IsFolder: f.MimeType == mimeTypeGoogleAppFolder,
	}
}
