package render

import (
	"errors"
	"image"

	"github.com/fogleman/fauxgl"
	"github.com/nfnt/resize"
	"gonum.org/v1/gonum/spatial/r3"
)

// View configures a preview camera. The model is fit in a bi-unit cube
// centered at the origin before drawing, so positions are given in that frame.
type View struct {
	Width, Height int
	// Supersampling factor. Images are drawn Scale times larger and
	// downsampled for antialiasing.
	Scale     int
	Eye       r3.Vec
	LookAt    r3.Vec
	Up        r3.Vec
	Near, Far float64
	// Vertical field of view in degrees.
	FOV   float64
	Color string
}

// DefaultView is an isometric view of the model.
var DefaultView = View{
	Width:  512,
	Height: 512,
	Scale:  2,
	Eye:    r3.Vec{X: 2.4, Y: 2.4, Z: 2.4},
	Up:     r3.Vec{Z: 1},
	Near:   1,
	Far:    10,
	FOV:    30,
	Color:  "#468966",
}

// Image shades the triangles of r with a phong shader.
func Image(r Renderer, view View) (image.Image, error) {
	tris, err := RenderAll(r)
	if err != nil {
		return nil, err
	}
	if len(tris) == 0 {
		return nil, errors.New("render: no triangles to draw")
	}
	ftris := make([]*fauxgl.Triangle, len(tris))
	for i, t := range tris {
		ftris[i] = fauxgl.NewTriangleForPoints(fv(t[0]), fv(t[1]), fv(t[2]))
	}
	m := fauxgl.NewTriangleMesh(ftris)
	if view.Scale < 1 {
		view.Scale = 1
	}
	var (
		eye    = fv(view.Eye)
		center = fv(view.LookAt)
		up     = fv(view.Up)
		light  = fauxgl.V(-0.75, 1, 0.25).Normalize()
	)
	m.BiUnitCube()
	context := fauxgl.NewContext(view.Width*view.Scale, view.Height*view.Scale)
	context.ClearColorBufferWith(fauxgl.HexColor("#FFF8E3"))
	aspect := float64(view.Width) / float64(view.Height)
	matrix := fauxgl.LookAt(eye, center, up).Perspective(view.FOV, aspect, view.Near, view.Far)
	shader := fauxgl.NewPhongShader(matrix, light, eye)
	shader.ObjectColor = fauxgl.HexColor(view.Color)
	context.Shader = shader
	context.DrawMesh(m)
	img := context.Image()
	return resize.Resize(uint(view.Width), uint(view.Height), img, resize.Bilinear), nil
}

// CreatePNG writes a preview of the triangles of r to path.
func CreatePNG(path string, r Renderer, view View) error {
	img, err := Image(r, view)
	if err != nil {
		return err
	}
	return fauxgl.SavePNG(path, img)
}

func fv(v r3.Vec) fauxgl.Vector { return fauxgl.V(v.X, v.Y, v.Z) }
