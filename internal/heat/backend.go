package heat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/heatmarch/internal/logging"
	"github.com/san-kum/heatmarch/internal/march"
)

var (
	ErrNoMatrix            = errors.New("heat: right-hand side requested before the matrix was assembled")
	ErrNotPositiveDefinite = errors.New("heat: matrix solver failed (not positive definite)")
	ErrBadSolution         = errors.New("heat: solution does not match the mesh")
)

type Options struct {
	Material Material
	Exterior Exterior
	Tau      float64
	// Theta weights the implicit part of the scheme; 0 means 1.
	Theta  float64
	Logger *slog.Logger
}

// Backend implements march.Backend. The matrix, its factorisation and the
// geometric coefficients are cached by a Full assembly and reused by RHSOnly
// assemblies.
type Backend struct {
	mesh   *Mesh
	bc     *BCTypes
	mat    Material
	ext    Exterior
	tau    float64
	theta  float64
	logger *slog.Logger

	node    []int // node -> unknown index, -1 when essential
	unknown []int // unknown index -> node

	mass  []float64 // rho*c*area per unknown
	robin []float64 // alpha*length per unknown
	dir   []float64 // conductance to essential neighbours times their value
	k     *mat.SymDense
	a     *mat.SymDense
	chol  *mat.Cholesky
}

// LinearSystem is the assembled system for one step.
type LinearSystem struct {
	A       *mat.SymDense
	RHS     *mat.VecDense
	Rebuilt bool
}

func (s *LinearSystem) Dim() int { return s.RHS.Len() }

func NewBackend(m *Mesh, bc *BCTypes, opts Options) (*Backend, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := bc.Check(m); err != nil {
		return nil, err
	}
	if err := opts.Material.Validate(); err != nil {
		return nil, err
	}
	if !(opts.Tau > 0) {
		return nil, fmt.Errorf("heat: tau must be positive, got %v", opts.Tau)
	}
	theta := opts.Theta
	if theta == 0 {
		theta = 1
	}
	if theta < 0.5 || theta > 1 {
		return nil, fmt.Errorf("heat: theta must be in [0.5, 1], got %v", theta)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	b := &Backend{
		mesh:   m.Clone(),
		bc:     bc,
		mat:    opts.Material,
		ext:    opts.Exterior,
		tau:    opts.Tau,
		theta:  theta,
		logger: logger,
	}
	b.number()

	logger.Info("backend ready", "nodes", m.Nodes(), "ndof", len(b.unknown), "theta", theta)
	return b, nil
}

func (b *Backend) Mesh() *Mesh { return b.mesh.Clone() }

// NDOF is the number of unknowns.
func (b *Backend) NDOF() int { return len(b.unknown) }

func (b *Backend) number() {
	m := b.mesh
	b.node = make([]int, m.Nodes())
	b.unknown = b.unknown[:0]
	for j := 0; j <= m.NY; j++ {
		for i := 0; i <= m.NX; i++ {
			n := m.Index(i, j)
			if b.bc.isEssential(m, i, j) {
				b.node[n] = -1
				continue
			}
			b.node[n] = len(b.unknown)
			b.unknown = append(b.unknown, n)
		}
	}
}

// Initial is the constant field at the initial temperature.
func (b *Backend) Initial() (march.Solution, error) {
	data := make([]float64, b.mesh.Nodes())
	for i := range data {
		data[i] = b.mat.TInit
	}
	return &Field{Mesh: *b.mesh.Clone(), Step: 0, Time: 0, Data: data}, nil
}

func (b *Backend) Assemble(ctx context.Context, req march.AssemblyRequest) (march.System, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prev, ok := req.Previous.(*Field)
	if !ok || len(prev.Data) != b.mesh.Nodes() {
		return nil, ErrBadSolution
	}

	rebuilt := false
	switch req.Mode {
	case march.Full:
		b.logger.Debug("assembling the stiffness matrix and right-hand side vector", "step", req.Step, "exterior", b.ext.At(req.Time))
		b.assembleMatrix()
		rebuilt = true
	case march.RHSOnly:
		if b.a == nil {
			return nil, ErrNoMatrix
		}
		b.logger.Debug("assembling the right-hand side vector only", "step", req.Step, "exterior", b.ext.At(req.Time))
	default:
		return nil, fmt.Errorf("heat: unknown assembly mode %v", req.Mode)
	}

	return &LinearSystem{A: b.a, RHS: b.rhs(prev, req.Time), Rebuilt: rebuilt}, nil
}

func (b *Backend) assembleMatrix() {
	m := b.mesh
	n := len(b.unknown)
	lambda := b.mat.Lambda
	rhoC := b.mat.Rho * b.mat.HeatCap
	tEss := b.mat.TInit

	b.mass = make([]float64, n)
	b.robin = make([]float64, n)
	b.dir = make([]float64, n)
	b.k = mat.NewSymDense(n, nil)

	addDiag := func(u int, v float64) { b.k.SetSym(u, u, b.k.At(u, u)+v) }

	// couple handles one edge between nodes p and q with conductance w
	couple := func(p, q int, w float64) {
		up, uq := b.node[p], b.node[q]
		if up >= 0 {
			addDiag(up, w)
			if uq < 0 {
				b.dir[up] += w * tEss
			}
		}
		if uq >= 0 {
			addDiag(uq, w)
			if up < 0 {
				b.dir[uq] += w * tEss
			}
		}
		if up >= 0 && uq >= 0 {
			b.k.SetSym(up, uq, b.k.At(up, uq)-w)
		}
	}

	for j := 0; j <= m.NY; j++ {
		for i := 0; i <= m.NX; i++ {
			p := m.Index(i, j)
			if i < m.NX {
				couple(p, m.Index(i+1, j), lambda*m.halfHeight(j)/m.Dx())
			}
			if j < m.NY {
				couple(p, m.Index(i, j+1), lambda*m.halfWidth(i)/m.Dy())
			}

			u := b.node[p]
			if u < 0 {
				continue
			}
			b.mass[u] = rhoC * m.halfWidth(i) * m.halfHeight(j)
			for _, s := range m.Sides(i, j) {
				kind, _ := b.bc.Kind(m.Boundaries.Marker(s))
				if kind != Natural {
					continue
				}
				length := m.halfWidth(i)
				if s == Left || s == Right {
					length = m.halfHeight(j)
				}
				b.robin[u] += b.mat.Alpha * length
			}
			addDiag(u, b.robin[u])
		}
	}

	b.a = mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			v := b.theta * b.k.At(r, c)
			if r == c {
				v += b.mass[r] / b.tau
			}
			b.a.SetSym(r, c, v)
		}
	}
	b.chol = nil
}

// rhs evaluates the exterior temperature at t, the clock before the step.
func (b *Backend) rhs(prev *Field, t float64) *mat.VecDense {
	n := len(b.unknown)
	old := mat.NewVecDense(n, nil)
	for u, node := range b.unknown {
		old.SetVec(u, prev.Data[node])
	}

	text := b.ext.At(t)
	rhs := mat.NewVecDense(n, nil)
	for u := 0; u < n; u++ {
		rhs.SetVec(u, b.mass[u]/b.tau*old.AtVec(u)+b.dir[u]+b.robin[u]*text)
	}
	if b.theta < 1 {
		var kx mat.VecDense
		kx.MulVec(b.k, old)
		rhs.AddScaledVec(rhs, -(1 - b.theta), &kx)
	}
	return rhs
}

func (b *Backend) Solve(ctx context.Context, sys march.System) (march.Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ls, ok := sys.(*LinearSystem)
	if !ok {
		return nil, fmt.Errorf("heat: unexpected system type %T", sys)
	}
	if ls.Rebuilt || b.chol == nil {
		chol := &mat.Cholesky{}
		if ok := chol.Factorize(ls.A); !ok {
			return nil, ErrNotPositiveDefinite
		}
		b.chol = chol
	}

	x := mat.NewVecDense(ls.Dim(), nil)
	if err := b.chol.SolveVecTo(x, ls.RHS); err != nil {
		return nil, fmt.Errorf("heat: solve: %w", err)
	}
	return march.Vector(x.RawVector().Data), nil
}

// Solution scatters the unknowns back onto the mesh; essential nodes keep
// the ground temperature.
func (b *Backend) Solution(vec march.Vector, step int, t float64) (march.Solution, error) {
	if len(vec) != len(b.unknown) {
		return nil, fmt.Errorf("%w: vector has %d entries, want %d", ErrBadSolution, len(vec), len(b.unknown))
	}
	data := make([]float64, b.mesh.Nodes())
	for n, u := range b.node {
		if u < 0 {
			data[n] = b.mat.TInit
			continue
		}
		data[n] = vec[u]
	}
	return &Field{Mesh: *b.mesh.Clone(), Step: step, Time: t, Data: data}, nil
}
