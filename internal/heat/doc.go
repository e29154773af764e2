// Package heat is a reference backend for the march driver: transient heat
// conduction on a rectangular node grid.
//
// The grid is discretised with node-centred control volumes and a theta time
// scheme (theta=1 is backward Euler, theta=0.5 Crank-Nicolson). Boundaries
// carry integer markers; each marker is classified as essential (fixed
// temperature) or natural (Newton flux to an exterior temperature that varies
// with time). The system matrix M/tau + theta*K does not depend on time, so it
// is built and factorised once and only the right-hand side is rebuilt for
// later steps. Linear algebra is delegated to gonum.
//
// Checkpoint byte layouts are owned here: [Field.WriteLinear] produces the
// lightweight visualization file and [Field.WriteSolution] the complete
// solution including its mesh.
package heat
