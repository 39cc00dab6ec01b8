package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

type s3Fetcher struct {
	client     *s3.Client
	downloader *manager.Downloader
}

func newS3Fetcher(ctx context.Context, opts Options) (*s3Fetcher, error) {
	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.S3Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.S3Region))
	}
	if opts.S3AccessKey != "" && opts.S3SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, ""),
		))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Fetcher{client: cli, downloader: manager.NewDownloader(cli)}, nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(s3url string) (bucket, key string, err error) {
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 || slash == len(path)-1 {
		return "", "", fmt.Errorf("invalid s3 url: %s", s3url)
	}
	return path[:slash], path[slash+1:], nil
}

func (r *Resolver) fetchS3(ctx context.Context, ref string) (*Fetched, error) {
	bucket, key, err := parseS3URL(ref)
	if err != nil {
		return nil, err
	}

	r.s3Once.Do(func() {
		r.s3, r.s3Err = newS3Fetcher(context.WithoutCancel(ctx), r.opts)
	})
	if r.s3Err != nil {
		return nil, r.s3Err
	}

	if r.opts.MaxBytes > 0 {
		head, err := r.s3.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return nil, fmt.Errorf("failed to stat S3 object: %w", err)
		}
		if head.ContentLength != nil && *head.ContentLength > r.opts.MaxBytes {
			return nil, ErrTooLarge
		}
	}

	f, err := r.tempFile("s3pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	out := &Fetched{Ref: ref, Path: f.Name(), temp: true}

	n, err := r.s3.downloader.Download(ctx, f, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = out.Close()
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	out.Size = n

	if err := r.unwrapEnvelope(out); err != nil {
		_ = out.Close()
		return nil, err
	}

	log.Info().Str("bucket", bucket).Str("key", key).Int64("size", out.Size).Msg("downloaded s3 document to temp")
	return out, nil
}

// unwrapEnvelope decrypts f in place when it carries the GCM envelope.
func (r *Resolver) unwrapEnvelope(f *Fetched) error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return err
	}
	if !isEnvelope(data) {
		return nil
	}
	if r.opts.DecryptPassword == "" {
		return fmt.Errorf("encrypted object %s: no decryption password configured", f.Ref)
	}
	plain, err := decryptGCM(data, r.opts.DecryptPassword)
	if err != nil {
		return fmt.Errorf("failed to decrypt data: %w", err)
	}
	if err := os.WriteFile(f.Path, plain, 0o600); err != nil {
		return err
	}
	f.Size = int64(len(plain))
	log.Debug().Str("ref", f.Ref).Msg("decrypted GCM envelope")
	return nil
}
