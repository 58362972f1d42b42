package documents

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Upload is one document submitted for processing.
type Upload struct {
	UserID       uuid.UUID
	FileName     string
	ContentType  string
	Content      []byte
	DocumentType string
	Description  string
}

// UploadResult is returned once the document is stored and its claim built.
type UploadResult struct {
	DocumentID   string    `json:"documentId"`
	FileName     string    `json:"fileName"`
	DocumentType string    `json:"documentType"`
	Description  string    `json:"description"`
	UploadedAt   time.Time `json:"uploadedAt"`
	Status       string    `json:"status"`
	ClaimID      uuid.UUID `json:"claimId"`
}

type PresignedURL struct {
	DocumentID   string    `json:"documentId"`
	FileName     string    `json:"fileName"`
	PresignedURL string    `json:"presignedUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// ProcessingStatus reports where a document is in the pipeline. Processing
// is synchronous, so a document is either done or yielded nothing.
type ProcessingStatus struct {
	DocumentID  string     `json:"documentId"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt"`
	ClaimID     uuid.UUID  `json:"claimId"`
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// DocumentKey builds the blob key for a file uploaded by userID at now. The
// key doubles as the document id. nonce separates uploads of the same file
// name within one millisecond.
func DocumentKey(userID uuid.UUID, now time.Time, nonce, fileName string) string {
	return fmt.Sprintf("%s/%d-%s-%s", userID, now.UnixMilli(), nonce, unsafeNameChars.ReplaceAllString(fileName, "_"))
}

func newKeyNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// fileNameFromKey recovers a display name when none was recorded.
func fileNameFromKey(key string) string {
	return key[strings.LastIndex(key, "/")+1:]
}
