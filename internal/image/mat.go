package image

import (
	"fmt"

	"gocv.io/x/gocv"
)

// ToMat copies the field into a single-channel CV_64F matrix. The caller
// owns the returned Mat and must Close it.
func (f *Field) ToMat() (gocv.Mat, error) {
	if f.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty field")
	}
	mat := gocv.NewMatWithSize(f.Height, f.Width, gocv.MatTypeCV64F)
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Width : (y+1)*f.Width]
		for x, v := range row {
			mat.SetDoubleAt(y, x, v)
		}
	}
	return mat, nil
}

// FromMat copies a single-channel matrix into a new field. Non-float
// matrices are converted to CV_64F first.
func FromMat(mat gocv.Mat, pixelSize float64) (*Field, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty matrix")
	}
	if mat.Channels() != 1 {
		return nil, fmt.Errorf("expected 1 channel, got %d", mat.Channels())
	}

	src := mat
	if mat.Type() != gocv.MatTypeCV64F {
		conv := gocv.NewMat()
		defer conv.Close()
		mat.ConvertTo(&conv, gocv.MatTypeCV64F)
		src = conv
	}

	f := NewField(src.Cols(), src.Rows(), pixelSize)
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			f.Pix[y*f.Width+x] = src.GetDoubleAt(y, x)
		}
	}
	return f, nil
}
