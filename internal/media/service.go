package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/jdelacruz/tradepost-backend/pkg/db/models"
	"github.com/jdelacruz/tradepost-backend/pkg/enums"
	pkgerrors "github.com/jdelacruz/tradepost-backend/pkg/errors"
)

const maxUploadBytes = 10 * 1024 * 1024

type mediaStore interface {
	Create(ctx context.Context, media *models.Media) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	MarkUploaded(ctx context.Context, id, ownerID uuid.UUID, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type urlSigner interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// Service issues signed upload URLs and resolves read URLs for stored media.
type Service interface {
	PresignUpload(ctx context.Context, ownerID uuid.UUID, input PresignInput) (*PresignOutput, error)
	ConfirmUpload(ctx context.Context, ownerID, mediaID uuid.UUID) error
	ReadURL(ctx context.Context, mediaID uuid.UUID) (string, error)
}

// ServiceParams collects the media dependencies.
type ServiceParams struct {
	Repo        mediaStore
	Signer      urlSigner
	Bucket      string
	UploadTTL   time.Duration
	DownloadTTL time.Duration
}

type service struct {
	repo        mediaStore
	signer      urlSigner
	bucket      string
	uploadTTL   time.Duration
	downloadTTL time.Duration
	now         func() time.Time
}

// NewService constructs a media service over the GCS signer.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("gcs signer required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if params.UploadTTL <= 0 {
		return nil, fmt.Errorf("upload ttl must be positive")
	}
	downloadTTL := params.DownloadTTL
	if downloadTTL <= 0 {
		downloadTTL = time.Hour
	}
	return &service{
		repo:        params.Repo,
		signer:      params.Signer,
		bucket:      params.Bucket,
		uploadTTL:   params.UploadTTL,
		downloadTTL: downloadTTL,
		now:         time.Now,
	}, nil
}

// PresignInput models a request for an upload URL.
type PresignInput struct {
	Kind      enums.MediaKind
	MimeType  string
	FileName  string
	SizeBytes int64
}

// PresignOutput is returned to the client after creating the media record.
type PresignOutput struct {
	MediaID      uuid.UUID `json:"media_id"`
	ObjectKey    string    `json:"object_key"`
	SignedPutURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var mimeTypesByKind = map[enums.MediaKind][]string{
	enums.MediaKindProductImage:   {"image/png", "image/jpeg", "image/webp"},
	enums.MediaKindSellerLogo:     {"image/png", "image/jpeg", "image/webp"},
	enums.MediaKindChatAttachment: {"image/png", "image/jpeg", "image/webp", "application/pdf"},
}

func (s *service) PresignUpload(ctx context.Context, ownerID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if ownerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owner identity missing")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}

	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("size_bytes must be at most %d", maxUploadBytes))
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type is required")
	}
	if !isAllowedMime(input.Kind, mimeType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mime_type not allowed for media kind")
	}

	mediaID := uuid.New()
	objectKey := buildObjectKey(input.Kind, mediaID, fileName)

	row := &models.Media{
		ID:          mediaID,
		OwnerID:     ownerID,
		Kind:        input.Kind,
		Status:      enums.MediaStatusPending,
		ObjectKey:   objectKey,
		ContentType: mimeType,
		SizeBytes:   input.SizeBytes,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media row")
	}

	signedURL, err := s.signer.SignedURL(s.bucket, objectKey, mimeType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, mediaID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		MediaID:      mediaID,
		ObjectKey:    objectKey,
		SignedPutURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    s.now().Add(s.uploadTTL),
	}, nil
}

// ConfirmUpload marks a pending record uploaded after the client's PUT.
func (s *service) ConfirmUpload(ctx context.Context, ownerID, mediaID uuid.UUID) error {
	if ownerID == uuid.Nil || mediaID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "media id is required")
	}
	updated, err := s.repo.MarkUploaded(ctx, mediaID, ownerID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark media uploaded")
	}
	if updated == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "pending upload not found")
	}
	return nil
}

// ReadURL resolves a short-lived download URL for an uploaded object.
func (s *service) ReadURL(ctx context.Context, mediaID uuid.UUID) (string, error) {
	if mediaID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "media id is required")
	}
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "media not found")
	}
	if row.Status != enums.MediaStatusUploaded {
		return "", pkgerrors.New(pkgerrors.CodeStateConflict, "media is not uploaded")
	}
	url, err := s.signer.SignedReadURL(s.bucket, row.ObjectKey, s.downloadTTL)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign read url")
	}
	return url, nil
}

func isAllowedMime(kind enums.MediaKind, mimeType string) bool {
	allowed, ok := mimeTypesByKind[kind]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mimeType) {
			return true
		}
	}
	return false
}

func buildObjectKey(kind enums.MediaKind, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("media/%s/%s/%s", kind, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	clean := path.Base(strings.TrimSpace(name))
	if clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
