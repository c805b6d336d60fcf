package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Kind selects the primitive a node draws.
type Kind string

const (
	Group    Kind = "group"
	Box      Kind = "box"      // Size = width, height, depth
	Cylinder Kind = "cylinder" // Size = radius, height, segments
	Sphere   Kind = "sphere"   // Size = radius, rings, segments
)

// Node is one element of the scene tree. Rotation is Euler XYZ in radians.
type Node struct {
	Name     string
	Kind     Kind
	Size     mgl64.Vec3
	Pos      mgl64.Vec3
	Rot      mgl64.Vec3
	Scale    mgl64.Vec3
	Material Material
	Hidden   bool

	Children []*Node
	parent   *Node
	mesh     []Triangle
}

func NewGroup(name string) *Node {
	return &Node{Name: name, Kind: Group, Scale: mgl64.Vec3{1, 1, 1}}
}

func NewBox(name string, w, h, d float64, m Material) *Node {
	return &Node{Name: name, Kind: Box, Size: mgl64.Vec3{w, h, d}, Scale: mgl64.Vec3{1, 1, 1}, Material: m}
}

func NewCylinder(name string, radius, height float64, segments int, m Material) *Node {
	return &Node{Name: name, Kind: Cylinder, Size: mgl64.Vec3{radius, height, float64(segments)}, Scale: mgl64.Vec3{1, 1, 1}, Material: m}
}

func NewSphere(name string, radius float64, rings, segments int, m Material) *Node {
	return &Node{Name: name, Kind: Sphere, Size: mgl64.Vec3{radius, float64(rings), float64(segments)}, Scale: mgl64.Vec3{1, 1, 1}, Material: m}
}

// Add attaches children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

func (n *Node) Parent() *Node { return n.parent }

// Find returns the first node named name, depth first.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, c := range n.Children {
		if f := c.Find(name); f != nil {
			return f
		}
	}
	return nil
}

func (n *Node) Position() mgl64.Vec3     { return n.Pos }
func (n *Node) SetPosition(p mgl64.Vec3) { n.Pos = p }
func (n *Node) SetOpacity(o float64)     { n.Material.Opacity = o }

// Local is T * Rx * Ry * Rz * S.
func (n *Node) Local() mgl64.Mat4 {
	m := mgl64.Translate3D(n.Pos[0], n.Pos[1], n.Pos[2])
	if n.Rot[0] != 0 {
		m = m.Mul4(mgl64.HomogRotate3DX(n.Rot[0]))
	}
	if n.Rot[1] != 0 {
		m = m.Mul4(mgl64.HomogRotate3DY(n.Rot[1]))
	}
	if n.Rot[2] != 0 {
		m = m.Mul4(mgl64.HomogRotate3DZ(n.Rot[2]))
	}
	return m.Mul4(mgl64.Scale3D(n.Scale[0], n.Scale[1], n.Scale[2]))
}

// World composes Local up the parent chain.
func (n *Node) World() mgl64.Mat4 {
	if n.parent == nil {
		return n.Local()
	}
	return n.parent.World().Mul4(n.Local())
}

// Walk visits every visible node with its world matrix. Hidden nodes
// prune their subtree.
func (n *Node) Walk(fn func(n *Node, world mgl64.Mat4)) {
	n.walk(mgl64.Ident4(), fn)
}

func (n *Node) walk(parent mgl64.Mat4, fn func(*Node, mgl64.Mat4)) {
	if n.Hidden {
		return
	}
	w := parent.Mul4(n.Local())
	fn(n, w)
	for _, c := range n.Children {
		c.walk(w, fn)
	}
}

// Mesh returns the node's triangles in local space; groups have none.
// The result is cached since Size is fixed after construction.
func (n *Node) Mesh() []Triangle {
	if n.mesh != nil {
		return n.mesh
	}
	switch n.Kind {
	case Box:
		n.mesh = BoxMesh(n.Size[0], n.Size[1], n.Size[2])
	case Cylinder:
		n.mesh = CylinderMesh(n.Size[0], n.Size[1], int(n.Size[2]))
	case Sphere:
		n.mesh = SphereMesh(n.Size[0], int(n.Size[1]), int(n.Size[2]))
	}
	return n.mesh
}
