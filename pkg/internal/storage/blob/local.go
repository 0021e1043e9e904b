package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 基于本地文件系统的存储，所有对象位于 root 目录下.
type LocalStore struct {
	root string
}

// NewLocalStore 创建本地存储，目录不存在时自动创建.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", abs, err)
	}

	return &LocalStore{root: abs}, nil
}

// path 把对象键映射到 root 下的路径，拒绝越界的键.
func (s *LocalStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if key == "" || clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	p := filepath.Join(s.root, clean)
	if !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}

	return p, nil
}

func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("write blob %s: %w", key, err)
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), p)
}

func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return !info.IsDir(), nil
}

func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, Info, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, Info{}, err
	}

	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Info{}, ErrNotFound
	}

	if err != nil {
		return nil, Info{}, err
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, Info{}, err
	}

	return f, Info{
		Key:         key,
		Size:        st.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(p)),
		ModTime:     st.ModTime(),
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func (s *LocalStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

// Root 返回存储根目录.
func (s *LocalStore) Root() string {
	return s.root
}
