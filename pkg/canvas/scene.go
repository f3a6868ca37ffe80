// Package canvas はステッカー合成キャンバスの状態と描画を扱います。
// Scene は単一の所有者から順番に操作される前提で、内部でロックは取りません。
package canvas

import (
	"errors"

	"github.com/shouni/flame-pfp-kit/pkg/domain"
)

const (
	// DefaultStickerX / DefaultStickerY は新規ステッカーの左上座標です。
	DefaultStickerX = 150
	DefaultStickerY = 150
	// DefaultStickerScale は新規ステッカーの倍率です。
	DefaultStickerScale = 0.5
)

var (
	// ErrNoBaseImage はベース画像が無い状態でステッカーを追加しようとしたことを示します。
	ErrNoBaseImage = errors.New("no base image")
	// ErrNilAsset はステッカー素材が nil であることを示します。
	ErrNilAsset = errors.New("sticker asset is nil")
)

// dragSession は進行中のドラッグ操作です。同時に存在するのは最大 1 つです。
type dragSession struct {
	stickerID int64
	offset    domain.Point
}

// Scene はベース画像・ステッカー・アクティブ選択・ドラッグ状態をまとめた CanvasState です。
// ステッカーは ID で引けるアリーナと、描画順 (z-order) を表す ID 列の 2 つで管理します。
type Scene struct {
	base     *domain.RasterImage
	stickers map[int64]*domain.Sticker
	order    []int64
	active   int64 // 0 はアクティブなし
	drag     *dragSession
	nextID   int64
}

// NewScene は空の Scene を生成します。
func NewScene() *Scene {
	return &Scene{
		stickers: make(map[int64]*domain.Sticker),
		nextID:   1,
	}
}

// Base は現在のベース画像を返します。未設定なら nil です。
func (s *Scene) Base() *domain.RasterImage { return s.base }

// SetBase はベース画像を差し替え、既存のステッカーと選択状態をすべて破棄します。
func (s *Scene) SetBase(img *domain.RasterImage) {
	s.Clear()
	s.base = img
}

// Reset はベース画像も含めて初期状態に戻します。
func (s *Scene) Reset() {
	s.Clear()
	s.base = nil
}

// Clear はステッカー列・アクティブ選択・ドラッグ状態を無条件に空にします。
func (s *Scene) Clear() {
	clear(s.stickers)
	s.order = s.order[:0]
	s.active = 0
	s.drag = nil
}

// AddSticker は素材を既定位置 (150,150)・倍率 0.5 で最前面に追加し、アクティブにします。
func (s *Scene) AddSticker(asset *domain.RasterImage, source string) (domain.Sticker, error) {
	if s.base == nil {
		return domain.Sticker{}, ErrNoBaseImage
	}
	if asset == nil {
		return domain.Sticker{}, ErrNilAsset
	}
	st := &domain.Sticker{
		ID:       s.nextID,
		Asset:    asset,
		Source:   source,
		Position: domain.Point{X: DefaultStickerX, Y: DefaultStickerY},
		Scale:    DefaultStickerScale,
	}
	s.nextID++
	s.stickers[st.ID] = st
	s.order = append(s.order, st.ID)
	s.active = st.ID
	return *st, nil
}

// LockActive はアクティブなステッカーを固定し、選択を解除します。アクティブが無ければ何もしません。
func (s *Scene) LockActive() bool {
	st, ok := s.activeSticker()
	if !ok {
		return false
	}
	st.Locked = true
	s.endDragOf(st.ID)
	s.active = 0
	return true
}

// RemoveActive はアクティブなステッカーを削除し、選択を解除します。アクティブが無ければ何もしません。
func (s *Scene) RemoveActive() bool {
	st, ok := s.activeSticker()
	if !ok {
		return false
	}
	delete(s.stickers, st.ID)
	for i, id := range s.order {
		if id == st.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.endDragOf(st.ID)
	s.active = 0
	return true
}

// Active はアクティブなステッカーの ID を返します。
func (s *Scene) Active() (int64, bool) {
	return s.active, s.active != 0
}

// Len はステッカーの数を返します。
func (s *Scene) Len() int { return len(s.order) }

// Stickers は z-order 順 (奥から手前) のステッカーのコピーを返します。
func (s *Scene) Stickers() []domain.Sticker {
	out := make([]domain.Sticker, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.stickers[id])
	}
	return out
}

// Sticker は ID でステッカーを引きます。
func (s *Scene) Sticker(id int64) (domain.Sticker, bool) {
	st, ok := s.stickers[id]
	if !ok {
		return domain.Sticker{}, false
	}
	return *st, true
}

func (s *Scene) activeSticker() (*domain.Sticker, bool) {
	if s.active == 0 {
		return nil, false
	}
	st, ok := s.stickers[s.active]
	if !ok || st.Locked {
		// 不変条件が崩れていたら選択を捨てる
		s.active = 0
		return nil, false
	}
	return st, true
}

func (s *Scene) endDragOf(id int64) {
	if s.drag != nil && s.drag.stickerID == id {
		s.drag = nil
	}
}
