package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"optovik-store/logger"
	"optovik-store/models"
	"optovik-store/utils"
)

const maxDriveImageBytes = 25 << 20

// DriveSource lists and downloads product images kept in Google Drive
type DriveSource interface {
	ListProductImages(ctx context.Context, folderID string) ([]models.DriveImage, error)
	DownloadImage(ctx context.Context, fileID string) ([]byte, error)
}

// DriveService handles Google Drive API operations
type DriveService struct {
	client *drive.Service
}

// NewDriveService creates a DriveService authenticated with a Service Account JSON file
func NewDriveService(ctx context.Context, credentialsPath string) (*DriveService, error) {
	client, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveService{client: client}, nil
}

var _ DriveSource = (*DriveService)(nil)

// ListProductImages lists the PNG and JPEG files in a folder whose names follow ARTICLE[_N].ext
func (ds *DriveService) ListProductImages(ctx context.Context, folderID string) ([]models.DriveImage, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false and (mimeType='image/png' or mimeType='image/jpeg')", folderID)

	var images []models.DriveImage
	err := ds.client.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, mimeType)").
		PageSize(1000).
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				if _, _, err := utils.ParseMediaFileName(f.Name); err != nil {
					logger.Log.Debugf("⏭️  Skipping Drive file %s: %v", f.Name, err)
					continue
				}
				images = append(images, models.DriveImage{DriveFileID: f.Id, FileName: f.Name})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return images, nil
}

// DownloadImage fetches the file contents
func (ds *DriveService) DownloadImage(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := ds.client.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("failed to download file %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDriveImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", fileID, err)
	}
	if len(data) > maxDriveImageBytes {
		return nil, fmt.Errorf("file %s is larger than %d bytes", fileID, maxDriveImageBytes)
	}
	return data, nil
}

// driveFileArticle returns the article encoded in a Drive file name
func driveFileArticle(name string) (string, int, bool) {
	article, position, err := utils.ParseMediaFileName(strings.TrimSpace(name))
	if err != nil {
		return "", 0, false
	}
	return article, position, true
}
