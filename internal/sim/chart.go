package sim

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// xys implements the plotter.XYer interface.
type xys []xy

type xy struct{ X, Y float64 }

func (p xys) Len() int                    { return len(p) }
func (p xys) XY(i int) (float64, float64) { return p[i].X, p[i].Y }

// WriteChart plots elements, added and removed springls per frame against
// time. The image format follows the extension of path.
func (s *Simulation) WriteChart(path string) error {
	p := plot.New()
	p.Title.Text = "springls " + s.cfg.Scenario + " / " + s.cfg.Field
	p.X.Label.Text = "time"
	p.Y.Label.Text = "springls"
	series := []struct {
		name string
		get  func(Frame) int
	}{
		{"elements", func(f Frame) int { return f.Elements }},
		{"added", func(f Frame) int { return f.Added }},
		{"removed", func(f Frame) int { return f.Removed }},
	}
	for i, sr := range series {
		data := make(xys, len(s.frames))
		for j, f := range s.frames {
			data[j] = xy{X: f.Time, Y: float64(sr.get(f))}
		}
		l, err := plotter.NewLine(data)
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(sr.name, l)
	}
	p.Add(plotter.NewGrid())
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
