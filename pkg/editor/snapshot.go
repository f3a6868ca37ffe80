package editor

import "github.com/shouni/flame-pfp-kit/pkg/domain"

// Snapshot はある時点の EditorState の読み取り専用コピーです。
type Snapshot struct {
	Mode            Mode             `json:"mode"`
	HasImage        bool             `json:"hasImage"`
	ImageWidth      int              `json:"imageWidth,omitempty"`
	ImageHeight     int              `json:"imageHeight,omitempty"`
	Stickers        []domain.Sticker `json:"stickers"`
	ActiveStickerID *int64           `json:"activeStickerId"`
	DraggingID      *int64           `json:"draggingId,omitempty"`
	AILoading       bool             `json:"aiLoading"`
	LastError       string           `json:"lastError,omitempty"`
	Description     string           `json:"description,omitempty"`
	Frame           uint64           `json:"frame"`
}

// AssetMenu はステッカーメニューとギャラリーに並べるファイル名です。
type AssetMenu struct {
	Stickers []string `json:"stickers"`
	Gallery  []string `json:"gallery"`
}

// Assets は選択可能な素材の一覧を返します。
func (e *Editor) Assets() AssetMenu {
	return AssetMenu{
		Stickers: e.assets.StickerNames(),
		Gallery:  e.assets.GalleryNames(),
	}
}

// Snapshot は現在の状態を返します。
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		Mode:        e.mode,
		Stickers:    e.scene.Stickers(),
		AILoading:   e.aiLoading,
		LastError:   e.lastError,
		Description: e.description,
		Frame:       e.frameSeq,
	}
	if base := e.scene.Base(); base != nil {
		s.HasImage = true
		s.ImageWidth = base.Width()
		s.ImageHeight = base.Height()
	}
	if id, ok := e.scene.Active(); ok {
		s.ActiveStickerID = &id
	}
	if id, ok := e.scene.Dragging(); ok {
		s.DraggingID = &id
	}
	return s
}
