// Package uploader 把图片直传到 Cloudinary。
// 先经 API 取得一次性签名，再并发上传，返回的地址顺序与输入一致。
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"postify/internal/pkg/transport"
	"postify/pkg/logger"

	"go.uber.org/zap"
)

const (
	// SignaturePath 后端签名接口
	SignaturePath = "cloudinary-signature/"
	// DefaultUploadURL %s 替换为 cloud_name
	DefaultUploadURL   = "https://api.cloudinary.com/v1_1/%s/image/upload"
	DefaultMaxFileSize = 2 << 20
	DefaultConcurrency = 5
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrNoFiles      = errors.New("no files to upload")
)

// File 待上传的图片
type File struct {
	Name string
	Data []byte
}

// FromPath 读取本地文件，超过 maxSize 时不读取内容直接返回 ErrFileTooLarge
func FromPath(path string, maxSize int64) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if maxSize > 0 && info.Size() > maxSize {
		return File{}, fmt.Errorf("%s: %w (%d > %d bytes)", filepath.Base(path), ErrFileTooLarge, info.Size(), maxSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	return File{Name: filepath.Base(path), Data: data}, nil
}

// Signature 后端签发的上传签名
type Signature struct {
	APIKey       string      `json:"api_key"`
	Timestamp    json.Number `json:"timestamp"`
	Signature    string      `json:"signature"`
	UploadPreset string      `json:"upload_preset"`
	CloudName    string      `json:"cloud_name"`
}

type uploadResult struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Uploader 图片上传
type Uploader interface {
	Upload(ctx context.Context, files []File) ([]string, error)
}

type Config struct {
	UploadURL   string
	MaxFileSize int64
	Concurrency int
}

// CloudinaryUploader 签名经过 API 传输层（会话失效时自动刷新），图片直接发往 Cloudinary
type CloudinaryUploader struct {
	api    transport.Sender
	http   *http.Client
	cfg    Config
	logger *zap.Logger
}

func NewCloudinaryUploader(api transport.Sender, cfg Config, httpClient *http.Client, log *zap.Logger) *CloudinaryUploader {
	if cfg.UploadURL == "" {
		cfg.UploadURL = DefaultUploadURL
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &CloudinaryUploader{api: api, http: httpClient, cfg: cfg, logger: logger.OrNop(log)}
}

// Signature 获取上传签名
func (u *CloudinaryUploader) Signature(ctx context.Context) (*Signature, error) {
	resp, err := u.api.Send(ctx, transport.Get(SignaturePath, nil))
	if err != nil {
		return nil, fmt.Errorf("get upload signature: %w", err)
	}
	var sig Signature
	if err := resp.Decode(&sig); err != nil {
		return nil, fmt.Errorf("decode upload signature: %w", err)
	}
	return &sig, nil
}

// Upload 并发上传，任意一个失败则整体失败
func (u *CloudinaryUploader) Upload(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	for _, f := range files {
		if int64(len(f.Data)) > u.cfg.MaxFileSize {
			return nil, fmt.Errorf("%s: %w", f.Name, ErrFileTooLarge)
		}
	}

	sig, err := u.Signature(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 结果数组，按索引赋值保证顺序
	urls := make([]string, len(files))

	var wg sync.WaitGroup
	var errOnce sync.Once
	var uploadErr error

	// 限制并发数
	sem := make(chan struct{}, u.cfg.Concurrency)

	for i, file := range files {
		wg.Add(1)
		go func(index int, f File) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			// 已经有失败的上传
			if ctx.Err() != nil {
				return
			}

			url, err := u.uploadOne(ctx, sig, f)
			if err != nil {
				errOnce.Do(func() {
					uploadErr = fmt.Errorf("upload %s: %w", f.Name, err)
					cancel()
				})
				return
			}
			urls[index] = url
		}(i, file)
	}

	wg.Wait()

	if uploadErr != nil {
		u.logger.Warn("image upload failed", zap.Error(uploadErr))
		return nil, uploadErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	u.logger.Info("images uploaded", zap.Int("count", len(urls)))
	return urls, nil
}

func (u *CloudinaryUploader) uploadOne(ctx context.Context, sig *Signature, f File) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", f.Name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(f.Data); err != nil {
		return "", err
	}
	fields := [][2]string{
		{"api_key", sig.APIKey},
		{"timestamp", sig.Timestamp.String()},
		{"upload_preset", sig.UploadPreset},
		{"signature", sig.Signature},
	}
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf(u.cfg.UploadURL, sig.CloudName), &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var res uploadResult
	_ = json.Unmarshal(data, &res)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if res.Error != nil && res.Error.Message != "" {
			return "", fmt.Errorf("status %d: %s", resp.StatusCode, res.Error.Message)
		}
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	if res.SecureURL == "" {
		return "", errors.New("response missing secure_url")
	}
	return res.SecureURL, nil
}
