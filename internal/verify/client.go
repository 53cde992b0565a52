package verify

import (
	"context"
	"fmt"

	"github.com/SWMChefTory/ai-recipe-summary/internal/remote"
)

// FileRef identifies a video uploaded to the model file store.
type FileRef struct {
	FileURI  string `json:"file_uri"`
	FileName string `json:"file_name"`
	MIMEType string `json:"mime_type"`
}

// UploadRelay is the file-store side of verification: upload a video, watch
// its processing state, and delete it again.
type UploadRelay interface {
	Upload(ctx context.Context, videoURL string) (FileRef, error)
	FileStatus(ctx context.Context, fileName string) (string, error)
	DeleteFile(ctx context.Context, fileName string) error
}

// RemoteRelay drives the file store through the retrying remote call policy.
type RemoteRelay struct {
	policy *remote.Policy
}

func NewRemoteRelay(policy *remote.Policy) *RemoteRelay {
	return &RemoteRelay{policy: policy}
}

func (r *RemoteRelay) Upload(ctx context.Context, videoURL string) (FileRef, error) {
	reply, err := r.policy.Do(ctx, map[string]any{
		"operation": "upload_file",
		"video_url": videoURL,
	})
	if err != nil {
		return FileRef{}, err
	}

	ref := FileRef{
		FileURI:  stringField(reply, "file_uri"),
		FileName: stringField(reply, "file_name"),
		MIMEType: stringField(reply, "mime_type"),
	}
	if ref.FileURI == "" || ref.FileName == "" {
		return FileRef{}, fmt.Errorf("upload reply missing file reference: %v", reply)
	}
	return ref, nil
}

func (r *RemoteRelay) FileStatus(ctx context.Context, fileName string) (string, error) {
	reply, err := r.policy.Do(ctx, map[string]any{
		"operation": "get_file_status",
		"file_name": fileName,
	})
	if err != nil {
		return "", err
	}

	state := stringField(reply, "state")
	if state == "" {
		return "", fmt.Errorf("status reply missing state: %v", reply)
	}
	return state, nil
}

func (r *RemoteRelay) DeleteFile(ctx context.Context, fileName string) error {
	_, err := r.policy.Do(ctx, map[string]any{
		"operation": "delete_file",
		"file_name": fileName,
	})
	return err
}

func stringField(reply map[string]any, key string) string {
	value, _ := reply[key].(string)
	return value
}
