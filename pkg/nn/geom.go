package nn

// Box is an axis aligned rectangle, stored as top-left corner plus size.
// This is the same layout as a matplotlib Rectangle, and the layout that
// our annotation files use.
type Box struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// Make a box from corner coordinates
func BoxFromCorners(x1, y1, x2, y2 float32) Box {
	return Box{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}
}

func (r Box) X2() float32 {
	return r.X + r.Width
}

func (r Box) Y2() float32 {
	return r.Y + r.Height
}

// Corners returns [xmin, ymin, xmax, ymax]
func (r Box) Corners() [4]float32 {
	return [4]float32{r.X, r.Y, r.X2(), r.Y2()}
}

func (r Box) Area() float32 {
	return r.Width * r.Height
}
