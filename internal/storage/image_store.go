// Package storage はタスク添付画像のファイル保存を提供する。
package storage

import (
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/taskman/internal/model"
)

// DefaultMaxImageSize は添付画像の最大サイズ（5MB）。
const DefaultMaxImageSize = 5 * 1024 * 1024

// allowedImageExtensions は受け入れる画像の拡張子。
var allowedImageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// allowedImageMimeTypes は受け入れる画像のMIMEタイプ。
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// ImageRecorder は画像アップロードと削除失敗のメトリクスを記録するインターフェース。
// metrics.MetricsCollectorの部分集合として定義する。
type ImageRecorder interface {
	RecordImageUpload(sizeBytes int64)
	RecordImageCleanupFailure()
}

// ImageStore は添付画像の保存・削除を行う。
// 公開パス（/uploads/<名前>）とファイルシステム上のパスの変換を担う。
type ImageStore struct {
	dir       string
	urlPrefix string
	maxSize   int64
	recorder  ImageRecorder
}

// NewImageStore はImageStoreを生成し、保存先ディレクトリを作成する。
// maxSizeが0以下の場合はDefaultMaxImageSizeを使用する。
// recorderはnilを許容し、その場合メトリクスは記録しない。
func NewImageStore(dir string, maxSize int64, recorder ImageRecorder) (*ImageStore, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxImageSize
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ImageStore{
		dir:       dir,
		urlPrefix: "/uploads",
		maxSize:   maxSize,
		recorder:  recorder,
	}, nil
}

// Dir は保存先ディレクトリを返す。静的ファイル配信の設定に使用する。
func (s *ImageStore) Dir() string {
	return s.dir
}

// Save はアップロードされた画像を検証して保存し、公開パスを返す。
// 拡張子とContent-Typeの両方がjpeg/jpg/png/gifであることを確認し、
// 最大サイズを超えるファイルは書き込み前に拒否する。
func (s *ImageStore) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > s.maxSize {
		return "", model.NewImageTooLargeError(s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExtensions[ext] {
		return "", model.NewInvalidImageTypeError()
	}
	if contentType := header.Header.Get("Content-Type"); !allowedImageMimeTypes[contentType] {
		return "", model.NewInvalidImageTypeError()
	}

	name := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}
	defer dst.Close()

	// ヘッダーのサイズ申告を信用せず、書き込み量でも上限を強制する
	written, err := io.Copy(dst, io.LimitReader(file, s.maxSize+1))
	if err != nil {
		s.removeFile(name)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if written > s.maxSize {
		s.removeFile(name)
		return "", model.NewImageTooLargeError(s.maxSize)
	}

	if s.recorder != nil {
		s.recorder.RecordImageUpload(written)
	}
	return s.urlPrefix + "/" + name, nil
}

// RemoveAsync は公開パスの画像ファイルを非同期のベストエフォートで削除する。
// タスク削除や画像差し替えのレスポンスをファイル削除の完了で遅らせない。
// 削除失敗はログとメトリクスに記録するのみで、呼び出し元へは伝搬しない。
func (s *ImageStore) RemoveAsync(publicPath string) {
	name, ok := s.fileName(publicPath)
	if !ok {
		return
	}
	go func() {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove image file",
				slog.String("file", name),
				slog.String("error", err.Error()),
			)
			if s.recorder != nil {
				s.recorder.RecordImageCleanupFailure()
			}
		}
	}()
}

// removeFile は保存途中で失敗したファイルを同期削除する。
func (s *ImageStore) removeFile(name string) {
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove partial image file",
			slog.String("file", name),
			slog.String("error", err.Error()),
		)
	}
}

// fileName は公開パスからファイル名を取り出す。
// ディレクトリトラバーサルを防ぐためベース名のみを使用する。
func (s *ImageStore) fileName(publicPath string) (string, bool) {
	if publicPath == "" || !strings.HasPrefix(publicPath, s.urlPrefix+"/") {
		return "", false
	}
	name := path.Base(publicPath)
	if name == "." || name == "/" || name == ".." {
		return "", false
	}
	return name, true
}
