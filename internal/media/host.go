// Package media talks to the remote media host. Uploads are synchronous and
// part of the admin workflow; deletions run on the background cleanup queue
// and are best-effort.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"cadenza/internal/config"
)

// ResourceType tags an upload for the media host.
type ResourceType string

const (
	// ResourceImage is used for cover images.
	ResourceImage ResourceType = "image"
	// ResourceAudio is used for audio files. The media host stores audio
	// under its video resource type.
	ResourceAudio ResourceType = "video"
)

// Distinguishable failure kinds from the media host. Wrapped errors carry the
// underlying cause; callers match with errors.Is.
var (
	// ErrRejected means the host refused the upload as malformed for the
	// requested resource type.
	ErrRejected = errors.New("media: upload rejected")
	// ErrNotAllowed means the file itself is disallowed.
	ErrNotAllowed = errors.New("media: file not allowed")
	// ErrNotFound means the resource or folder was already absent.
	ErrNotFound = errors.New("media: resource not found")
)

// Host is the remote media host: upload raw bytes into a per-entity folder
// and delete a folder with everything in it.
type Host interface {
	Upload(ctx context.Context, file io.Reader, resourceType ResourceType, folder string) (string, error)
	DeleteFolder(ctx context.Context, folder string) error
}

// Cloudinary implements Host against the Cloudinary API.
type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

// NewCloudinary creates a media host client from credentials.
func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media host client: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// Upload sends the file to the host under the given folder and returns the
// durable secure URL.
func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, resourceType ResourceType, folder string) (string, error) {
	result, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: string(resourceType),
	})
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}
	if result.Error.Message != "" {
		return "", classifyUploadError(result.Error.Message)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("media upload returned no URL")
	}
	return result.SecureURL, nil
}

// DeleteFolder removes every asset under the folder prefix (both image and
// audio resource types), then the folder itself.
func (c *Cloudinary) DeleteFolder(ctx context.Context, folder string) error {
	prefix := folder + "/"

	for _, assetType := range []api.AssetType{api.Image, api.Video} {
		_, err := c.cld.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
			AssetType: assetType,
			Prefix:    api.CldAPIArray{prefix},
		})
		if err != nil {
			return classifyDeleteError(err)
		}
	}

	if _, err := c.cld.Admin.DeleteFolder(ctx, admin.DeleteFolderParams{Folder: folder}); err != nil {
		return classifyDeleteError(err)
	}
	return nil
}

func classifyUploadError(message string) error {
	lower := strings.ToLower(message)
	if strings.Contains(lower, "not allowed") {
		return fmt.Errorf("%w: %s", ErrNotAllowed, message)
	}
	return fmt.Errorf("%w: %s", ErrRejected, message)
}

func classifyDeleteError(err error) error {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "not found") || strings.Contains(lower, "can't find") {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if strings.Contains(lower, "bad request") {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	return err
}
