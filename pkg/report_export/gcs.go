package report_export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// UploadToGCS copies the report file into the destination bucket, keyed by
// the file's base name.
func UploadToGCS(ctx context.Context, creds *google.Credentials, bucket, srcPath string) error {
	client, err := storage.NewClient(ctx, option.WithCredentials(creds))
	if err != nil {
		return fmt.Errorf("failed to create storage client: %v", err)
	}
	defer client.Close()

	file, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open report file: %v", err)
	}
	defer file.Close()

	obj := client.Bucket(bucket).Object(filepath.Base(srcPath))
	w := obj.NewWriter(ctx)
	if _, err := io.Copy(w, file); err != nil {
		w.Close()
		return fmt.Errorf("failed to upload report: %v", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload: %v", err)
	}
	return nil
}
