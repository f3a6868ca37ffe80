package domain

// Point はキャンバスのピクセル座標系における位置です。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub は p - q を返します。
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Rect は軸に平行な矩形です。Min は左上、Max は右下の座標です。
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Contains は点が矩形の内側（境界を含む）にあるかを判定します。
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Sticker はキャンバス上に配置された装飾用の画像です。
// ID は不変で、Position / Scale / Locked のみが変化します。
type Sticker struct {
	ID       int64        `json:"id"`
	Asset    *RasterImage `json:"-"`
	Source   string       `json:"source"`
	Position Point        `json:"position"`
	Scale    float64      `json:"scale"`
	Rotation float64      `json:"rotation"` // 予約済み。描画にはまだ反映しない
	Locked   bool         `json:"locked"`
}

// Bounds はスケール適用後のバウンディングボックスを返します。
func (s Sticker) Bounds() Rect {
	w := float64(s.Asset.Width()) * s.Scale
	h := float64(s.Asset.Height()) * s.Scale
	return Rect{
		Min: s.Position,
		Max: Point{X: s.Position.X + w, Y: s.Position.Y + h},
	}
}
