package main

import (
	"context"
	"mime"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/employee-contacts/internal/fetcher"
	"github.com/sells-group/employee-contacts/internal/ingest"
	"github.com/sells-group/employee-contacts/internal/resilience"
)

var (
	importFilePath    string
	importURL         string
	importContentType string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import employees from a CSV, JSON or XLSX file or URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		in := ingest.New(st, ingest.WithLogger(zap.L()))

		var n int
		source := importFilePath
		if importURL != "" {
			source = importURL
			n, err = importRemote(ctx, in, fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
				MaxBytes: cfg.Server.MaxBodyBytes,
				Retry:    resilience.DefaultRetryConfig(),
				Logger:   zap.L(),
			}), importURL, importContentType)
		} else {
			n, err = importFile(ctx, in, importFilePath, importContentType)
		}
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.Int("created", n),
			zap.String("source", source),
		)
		cmd.Printf("imported %d employees\n", n)
		return nil
	},
}

// importFile ingests the file at path. Without an explicit content type one
// is guessed from the extension; the parser dispatcher sniffs the content
// when neither helps.
func importFile(ctx context.Context, in *ingest.Ingester, path, contentType string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "read %s", path)
	}
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(path))
	}
	return in.IngestContent(ctx, content, contentType, filepath.Base(path))
}

// importRemote downloads rawURL and ingests it. contentType, when set,
// overrides the server's Content-Type.
func importRemote(ctx context.Context, in *ingest.Ingester, f *fetcher.HTTPFetcher, rawURL, contentType string) (int, error) {
	doc, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	if contentType == "" {
		contentType = doc.ContentType
	}
	return in.IngestContent(ctx, doc.Content, contentType, doc.Filename)
}

func init() {
	importCmd.Flags().StringVar(&importFilePath, "file", "", "path to the employee file")
	importCmd.Flags().StringVar(&importURL, "url", "", "http(s) URL of the employee file")
	importCmd.Flags().StringVar(&importContentType, "content-type", "", "override the detected content type")
	importCmd.MarkFlagsOneRequired("file", "url")
	importCmd.MarkFlagsMutuallyExclusive("file", "url")
	rootCmd.AddCommand(importCmd)
}
