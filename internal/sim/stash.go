package sim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/soypat/springls"
	"github.com/soypat/springls/render"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Description is written next to the surfaces of each stash.
type Description struct {
	Frame  `yaml:",inline"`
	Motion springls.MotionScheme   `yaml:"motion"`
	Scheme springls.TemporalScheme `yaml:"temporal"`
	Map    string                  `yaml:"map"`
	// File names relative to the stash description.
	Constellation string `yaml:"constellation,omitempty"`
	IsoSurface    string `yaml:"isosurface"`
	Preview       string `yaml:"preview,omitempty"`
}

// Stash writes the constellation and iso-surface of the current frame
// as world space STL files and a YAML description. index only names the files.
func (s *Simulation) Stash(index int) error {
	if err := os.MkdirAll(s.out.Dir, 0755); err != nil {
		return err
	}
	sls := s.sls
	base := fmt.Sprintf("frame_%04d", index)
	desc := Description{
		Frame:  s.frames[len(s.frames)-1],
		Motion: s.cfg.Motion,
		Scheme: s.cfg.Temporal,
		Map:    sls.Map.String(),
	}
	c := &sls.Constellation.Mesh
	if len(c.Faces) > 0 {
		desc.Constellation = base + "_constellation.stl"
		if err := render.CreateSTL(s.path(desc.Constellation), render.NewMeshRenderer(c, sls.Map.ApplyMap)); err != nil {
			return fmt.Errorf("stashing constellation: %w", err)
		}
	}
	iso := &sls.IsoSurface
	desc.IsoSurface = base + "_isosurface.stl"
	if err := render.CreateSTL(s.path(desc.IsoSurface), render.NewMeshRenderer(iso, sls.Map.ApplyMap)); err != nil {
		return fmt.Errorf("stashing iso-surface: %w", err)
	}
	if s.out.Preview {
		desc.Preview = base + ".png"
		if err := s.preview(s.path(desc.Preview)); err != nil {
			return fmt.Errorf("stashing preview: %w", err)
		}
	}
	data, err := yaml.Marshal(&desc)
	if err != nil {
		return err
	}
	name := s.path(base + ".yaml")
	if err := os.WriteFile(name, data, 0644); err != nil {
		return err
	}
	s.files = append(s.files, name)
	s.log.Debug("stashed", zap.String("description", name))
	return nil
}

// StashFiles returns the descriptions written so far.
func (s *Simulation) StashFiles() []string { return s.files }

// ReadDescription reads a stash description.
func ReadDescription(path string) (Description, error) {
	var d Description
	data, err := os.ReadFile(path)
	if err != nil {
		return d, err
	}
	err = yaml.Unmarshal(data, &d)
	return d, err
}

// preview draws the constellation, or the iso-surface when the
// constellation is empty.
func (s *Simulation) preview(path string) error {
	m := &s.sls.Constellation.Mesh
	if len(m.Faces) == 0 {
		m = &s.sls.IsoSurface
	}
	return render.CreatePNG(path, render.NewMeshRenderer(m, nil), render.DefaultView)
}

func (s *Simulation) path(name string) string { return filepath.Join(s.out.Dir, name) }

