package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/jay270804/medical-claim-processing-server/internal/config"
	"github.com/jay270804/medical-claim-processing-server/internal/extraction"
	"github.com/jay270804/medical-claim-processing-server/internal/pipeline"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract and summarize a local document without storing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("file")
			mimeType, _ := cmd.Flags().GetString("mime")
			threshold, _ := cmd.Flags().GetFloat64("threshold")
			if path == "" {
				return fmt.Errorf("--file is required")
			}

			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if mimeType == "" {
				mimeType = detectMIME(path, content)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if threshold <= 0 {
				threshold = cfg.ConfidenceThreshold
			}
			logger := newLogger(cfg)

			client, err := extraction.NewClient(extractionConfig(cfg), nil, logger)
			if err != nil {
				return err
			}
			raw, err := client.Extract(cmd.Context(), extraction.Document{Content: content, MIMEType: mimeType})
			if err != nil {
				return err
			}

			result := pipeline.Process(raw, threshold, time.Now())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().String("file", "", "Path to a PDF or image")
	cmd.Flags().String("mime", "", "MIME type (default: from extension or content)")
	cmd.Flags().Float64("threshold", 0, "Confidence threshold (default: CONFIDENCE_THRESHOLD)")
	return cmd
}

// detectMIME guesses the document type from the extension, then the content.
func detectMIME(path string, content []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		if mt, _, err := mime.ParseMediaType(t); err == nil {
			return mt
		}
	}
	return http.DetectContentType(content)
}
