package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"
	"strings"

	"arch-community-backend/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Markers accept at most this many attachments.
const maxMarkerMedia = 6

// MediaService uploads marker attachments and avatars to S3-compatible
// blob storage. The rest of the system only ever sees the returned URLs.
type MediaService struct {
	s3Client *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewMediaService creates a new media service
func NewMediaService(region, bucket, accessKey, secretKey, endpoint string) (*MediaService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &MediaService{
		s3Client: s3Client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// UploadMarkerMedia uploads up to six attachments and returns their
// media records, classified as image or video by content type.
func (s *MediaService) UploadMarkerMedia(ctx context.Context, files []*multipart.FileHeader) ([]models.Media, error) {
	if len(files) > maxMarkerMedia {
		files = files[:maxMarkerMedia]
	}
	media := []models.Media{}
	for _, fh := range files {
		url, contentType, err := s.upload(ctx, "markers", fh)
		if err != nil {
			return nil, err
		}
		kind := "image"
		if strings.HasPrefix(contentType, "video") {
			kind = "video"
		}
		media = append(media, models.Media{Type: kind, URL: url})
	}
	return media, nil
}

// UploadAvatar uploads a profile avatar and returns its URL.
func (s *MediaService) UploadAvatar(ctx context.Context, file *multipart.FileHeader) (string, error) {
	url, _, err := s.upload(ctx, "avatars", file)
	return url, err
}

func (s *MediaService) upload(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), path.Ext(fh.Filename))

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fh.Size),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.objectURL(key), contentType, nil
}

func (s *MediaService) objectURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
