package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"time"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
	"github.com/shouni/flame-pfp-kit/pkg/imgutil"
)

// ErrOutOfRange は番号が素材カタログの範囲外であることを示します。
var ErrOutOfRange = errors.New("asset number out of range")

const cacheKeyPrefix = "asset:"

// Range は連番ファイル名 (<n>.png) の閉区間です。
type Range struct {
	First int
	Last  int
}

var (
	// StickerRange はステッカーメニューの素材 33.png〜64.png です。
	StickerRange = Range{First: 33, Last: 64}
	// GalleryRange はベース画像ギャラリーの素材 1.png〜21.png です。
	GalleryRange = Range{First: 1, Last: 21}
)

// Contains は n が範囲内かを判定します。
func (r Range) Contains(n int) bool { return n >= r.First && n <= r.Last }

// Names は範囲内のファイル名を昇順に返します。
func (r Range) Names() []string {
	if r.Last < r.First {
		return nil
	}
	names := make([]string, 0, r.Last-r.First+1)
	for n := r.First; n <= r.Last; n++ {
		names = append(names, FileName(n))
	}
	return names
}

// FileName は番号を素材ファイル名に変換します。
func FileName(n int) string { return strconv.Itoa(n) + ".png" }

// ImageCacher はデコード済み素材のキャッシュ操作を抽象化するインターフェースです。
type ImageCacher interface {
	Get(key string) (any, bool)
	Set(key string, value any, d time.Duration)
}

// Catalog は連番ファイル名の契約に従って素材を読み込み、デコード結果をキャッシュします。
type Catalog struct {
	fsys     fs.FS
	stickers Range
	gallery  Range
	cache    ImageCacher
	ttl      time.Duration
}

// New は fsys を素材置き場とする Catalog を生成します。cache は nil を許容します（キャッシュなし動作）。
func New(fsys fs.FS, cache ImageCacher, ttl time.Duration) (*Catalog, error) {
	if fsys == nil {
		return nil, fmt.Errorf("fsys is required")
	}
	return &Catalog{
		fsys:     fsys,
		stickers: StickerRange,
		gallery:  GalleryRange,
		cache:    cache,
		ttl:      ttl,
	}, nil
}

// StickerNames はステッカーメニューに並べるファイル名を返します。
func (c *Catalog) StickerNames() []string { return c.stickers.Names() }

// GalleryNames はギャラリーに並べるファイル名を返します。
func (c *Catalog) GalleryNames() []string { return c.gallery.Names() }

// Sticker は番号 n のステッカー素材を返します。
func (c *Catalog) Sticker(ctx context.Context, n int) (*domain.RasterImage, string, error) {
	return c.load(ctx, c.stickers, n)
}

// Gallery は番号 n のギャラリー画像を返します。
func (c *Catalog) Gallery(ctx context.Context, n int) (*domain.RasterImage, string, error) {
	return c.load(ctx, c.gallery, n)
}

func (c *Catalog) load(ctx context.Context, r Range, n int) (*domain.RasterImage, string, error) {
	if !r.Contains(n) {
		return nil, "", fmt.Errorf("%w: %d (allowed %d-%d)", ErrOutOfRange, n, r.First, r.Last)
	}
	name := FileName(n)
	key := cacheKeyPrefix + name

	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			if img, ok := cached.(*domain.RasterImage); ok {
				return img, name, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "name", name, "type", fmt.Sprintf("%T", cached))
		}
	}

	f, err := c.fsys.Open(name)
	if err != nil {
		return nil, "", fmt.Errorf("素材 %s を開けませんでした: %w", name, err)
	}
	defer f.Close()

	img, err := imgutil.Decode(ctx, f)
	if err != nil {
		return nil, "", fmt.Errorf("素材 %s: %w", name, err)
	}

	if c.cache != nil {
		c.cache.Set(key, img, c.ttl)
	}
	return img, name, nil
}
