package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

var ErrOptions = errors.New("invalid kitchen options")

// Options sizes the kitchen build.
type Options struct {
	Plates         int
	PlatesPerRow   int
	ContainerY     float64
	TextureSize    int
	SteamParticles int
}

func DefaultOptions() Options {
	return Options{
		Plates:         9,
		PlatesPerRow:   3,
		ContainerY:     -5,
		TextureSize:    256,
		SteamParticles: 24,
	}
}

// Kitchen is the built vignette plus handles to its animated parts.
type Kitchen struct {
	Root      *Node
	Container *Node
	Sink      *Node
	Belt      *Node
	Plates    []*Node
	Slats     []*Node
	Steam     []*Node
	Lights    []Light

	// SteamOrigin is the sink's top face center in container space.
	SteamOrigin mgl64.Vec3
}

const (
	beltLength = 8.0
	beltWidth  = 5.0
	slatCount  = 5

	cabinetW = 10.0
	cabinetH = 12.8
	cabinetD = 15.6

	plateRadius = 2.0
	plateHeight = 0.4
	plateBorder = 0.1
	plateSegs   = 32
)

// BuildKitchen assembles the island, sink, belt, cabinet, shelves and
// plates under a container group offset by opt.ContainerY.
func BuildKitchen(opt Options, rnd Rand) (*Kitchen, error) {
	if opt.Plates <= 0 {
		return nil, errors.Wrapf(ErrOptions, "plates must be positive, got %d", opt.Plates)
	}
	if opt.PlatesPerRow <= 0 {
		return nil, errors.Wrapf(ErrOptions, "plates per row must be positive, got %d", opt.PlatesPerRow)
	}
	if opt.TextureSize <= 0 {
		return nil, errors.Wrapf(ErrOptions, "texture size must be positive, got %d", opt.TextureSize)
	}
	if opt.SteamParticles < 0 {
		return nil, errors.Wrapf(ErrOptions, "steam particles %d", opt.SteamParticles)
	}
	if rnd == nil {
		return nil, errors.Wrap(ErrOptions, "nil rand")
	}

	k := &Kitchen{Root: NewGroup("scene")}
	k.Container = NewGroup("container")
	k.Container.Pos = mgl64.Vec3{0, opt.ContainerY, 0}
	k.Root.Add(k.Container)

	island := NewBox("island", 30, 14, 16, Phong("#cccccc").Translucent(0.5))
	countertop := NewBox("countertop", 30.8, 0.4, 16.8, Phong("#999999"))
	countertop.Pos = mgl64.Vec3{0, 7.2, 0}

	steel := Material{
		Color:     colorful.Color{R: 1, G: 1, B: 1},
		Opacity:   1,
		Shininess: 100,
		Texture:   StainlessSteel(opt.TextureSize, opt.TextureSize, rnd),
		Repeat:    mgl64.Vec2{2, 2},
	}
	k.Sink = NewBox("sink", 14, 4, 8, steel)
	k.Sink.Pos = mgl64.Vec3{4, 5, 0}
	k.SteamOrigin = k.Sink.Pos.Add(mgl64.Vec3{0, 2, 0})

	k.Container.Add(island, countertop, k.Sink, k.buildBelt())

	cabinet := NewBox("cabinet", cabinetW, cabinetH, cabinetD, Phong("#8b4513").Translucent(0.5))
	cabinet.Pos = mgl64.Vec3{-10, cabinetH/2 - 7, 0}
	k.Container.Add(cabinet)
	for _, s := range []struct {
		name string
		y    float64
	}{{"shelf-bottom", -5}, {"shelf-middle", 0}, {"shelf-top", 5}} {
		shelf := NewBox(s.name, cabinetW-0.4, 0.2, cabinetD-0.4, Phong("#8b4513"))
		shelf.Pos = mgl64.Vec3{-10, s.y, 0}
		k.Container.Add(shelf)
	}

	for i := 0; i < opt.Plates; i++ {
		p := buildPlate(i)
		row, col := i/opt.PlatesPerRow, i%opt.PlatesPerRow
		p.Pos = mgl64.Vec3{float64(col-1) * 4.4, 6.4, float64(row-1) * 4}
		k.Plates = append(k.Plates, p)
		k.Container.Add(p)
	}

	steam := NewGroup("steam")
	for i := 0; i < opt.SteamParticles; i++ {
		m := Phong("#ffffff").Translucent(0)
		m.Shininess = 0
		puff := NewSphere(fmt.Sprintf("steam-%d", i), 0.25, 4, 6, m)
		puff.Pos = k.SteamOrigin
		k.Steam = append(k.Steam, puff)
		steam.Add(puff)
	}
	k.Container.Add(steam)

	white := colorful.Color{R: 1, G: 1, B: 1}
	k.Lights = []Light{
		{Kind: Ambient, Color: white, Intensity: 0.5},
		{Kind: Directional, Color: white, Intensity: 0.7, Direction: mgl64.Vec3{5, 5, 5}.Normalize()},
	}
	return k, nil
}

func (k *Kitchen) buildBelt() *Node {
	k.Belt = NewGroup("belt")
	k.Belt.Pos = mgl64.Vec3{3, 0.2, 0}
	k.Belt.Add(NewBox("belt-surface", beltLength, 0.4, beltWidth, Phong("#444444")))
	for _, side := range []struct {
		name string
		x    float64
	}{{"roller-left", -beltLength / 2}, {"roller-right", beltLength / 2}} {
		r := NewCylinder(side.name, 0.4, beltWidth, 16, Phong("#888888"))
		r.Rot = mgl64.Vec3{0, 0, math.Pi / 2}
		r.Pos = mgl64.Vec3{side.x, 0, 0}
		k.Belt.Add(r)
	}
	for i := 0; i < slatCount; i++ {
		s := NewBox(fmt.Sprintf("slat-%d", i), 0.2, 0.48, beltWidth, Phong("#666666"))
		s.Pos = mgl64.Vec3{float64(i)/slatCount*beltLength - beltLength/2, 0.2, 0}
		k.Slats = append(k.Slats, s)
		k.Belt.Add(s)
	}
	return k.Belt
}

// buildPlate is a black rim under a white face, laid flat.
func buildPlate(i int) *Node {
	g := NewGroup(fmt.Sprintf("plate-%d", i))
	g.Rot = mgl64.Vec3{math.Pi / 2, 0, 0}
	rim := NewCylinder(g.Name+"-rim", plateRadius+plateBorder, plateHeight, plateSegs, Phong("#000000"))
	face := NewCylinder(g.Name+"-face", plateRadius, plateHeight, plateSegs, Phong("#ffffff"))
	face.Pos = mgl64.Vec3{0, plateBorder, 0}
	return g.Add(rim, face)
}
