package node

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/LENAX/depman/pkg/core/cache"
)

// MissingDigest 文件不存在时的固定哈希
const MissingDigest = "missing"

// Hasher 计算节点当前内容的摘要
// 同一内容必须得到同一摘要
type Hasher interface {
	Hash(id string) (string, error)
}

// HasherFunc 函数适配器
type HasherFunc func(id string) (string, error)

// Hash 调用函数本身
func (f HasherFunc) Hash(id string) (string, error) { return f(id) }

func md5Hex(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// DefaultHasher 只对节点ID做摘要
var DefaultHasher Hasher = HasherFunc(func(id string) (string, error) {
	return md5Hex([]byte(id)), nil
})

// FileHasher 对文件内容做摘要，文件不存在时返回 MissingDigest
func FileHasher(path string) Hasher {
	return HasherFunc(func(string) (string, error) {
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			return MissingDigest, nil
		}
		if err != nil {
			return "", fmt.Errorf("打开文件 %s 失败: %w", path, err)
		}
		defer f.Close()

		h := md5.New()
		if _, err := io.Copy(h, f); err != nil {
			return "", fmt.Errorf("读取文件 %s 失败: %w", path, err)
		}
		return hex.EncodeToString(h.Sum(nil)), nil
	})
}

// FileDigest 缓存的文件摘要，文件大小和修改时间都未变时复用
type FileDigest struct {
	Size    int64
	ModTime time.Time
	Digest  string
}

// CachedFileHasher 与 FileHasher 相同，但在文件未变时复用 c 中的摘要
// ttl 限制复用时长，用于修改时间精度较粗的文件系统
func CachedFileHasher(path string, c cache.Cache[FileDigest], ttl time.Duration) Hasher {
	plain := FileHasher(path)
	return HasherFunc(func(id string) (string, error) {
		info, err := os.Stat(path)
		if err != nil {
			c.Delete(path)
			return plain.Hash(id)
		}
		if d, ok := c.Get(path); ok && d.Size == info.Size() && d.ModTime.Equal(info.ModTime()) {
			return d.Digest, nil
		}
		digest, err := plain.Hash(id)
		if err != nil {
			return "", err
		}
		c.Set(path, FileDigest{Size: info.Size(), ModTime: info.ModTime(), Digest: digest}, ttl)
		return digest, nil
	})
}

// ValueHasher 对调用方提供的值做摘要
func ValueHasher(value func() string) Hasher {
	return HasherFunc(func(string) (string, error) {
		return md5Hex([]byte(value())), nil
	})
}
