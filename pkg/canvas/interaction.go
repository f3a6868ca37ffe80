package canvas

import "github.com/shouni/flame-pfp-kit/pkg/domain"

// HitTest は点 p を含む最前面のロックされていないステッカーを返します。
// 描画順の逆 (手前から奥) に走査し、最初に当たったものを採用します。
func (s *Scene) HitTest(p domain.Point) (domain.Sticker, bool) {
	for i := len(s.order) - 1; i >= 0; i-- {
		st := s.stickers[s.order[i]]
		if st.Locked {
			continue
		}
		if st.Bounds().Contains(p) {
			return *st, true
		}
	}
	return domain.Sticker{}, false
}

// PointerDown はヒットしたステッカーのドラッグを開始し、アクティブにします。
// 何も当たらなければドラッグは始まらず、アクティブ選択も変わりません。
// 進行中のドラッグがあれば新しいものに置き換わります。
func (s *Scene) PointerDown(p domain.Point) bool {
	st, ok := s.HitTest(p)
	if !ok {
		return false
	}
	s.drag = &dragSession{
		stickerID: st.ID,
		offset:    p.Sub(st.Position),
	}
	s.active = st.ID
	return true
}

// PointerMove はドラッグ中のステッカーをポインタ位置 - 開始時オフセットへ移動します。
// キャンバス外への移動も制限しません。位置が変わったら true を返します。
func (s *Scene) PointerMove(p domain.Point) bool {
	if s.drag == nil {
		return false
	}
	st, ok := s.stickers[s.drag.stickerID]
	if !ok || st.Locked {
		s.drag = nil
		return false
	}
	st.Position = p.Sub(s.drag.offset)
	return true
}

// PointerUp はドラッグを終了します。ドラッグが無ければ何もしません。
// ポインタがキャンバス外に出た場合も同じ扱いです。
func (s *Scene) PointerUp() {
	s.drag = nil
}

// Dragging はドラッグ中のステッカー ID を返します。
func (s *Scene) Dragging() (int64, bool) {
	if s.drag == nil {
		return 0, false
	}
	return s.drag.stickerID, true
}
