package springls

// Tuning constants of the spring level set. Distances are in voxels.
const (
	// NearestNeighborRange is the search radius for neighboring edges.
	NearestNeighborRange = 1.5
	// ParticleRadius is the rest radius of a springl. Relaxation pulls
	// vertices toward 2*ParticleRadius from neighboring edges.
	ParticleRadius = 0.05
	// MaxVExt is the largest distance an element travels in one substep.
	MaxVExt = 0.5
	// MaxNearestNeighbors is the number of neighbors kept per vertex.
	MaxNearestNeighbors = 2
	// FillDistance is the distance from the constellation beyond which
	// iso-surface polygons are turned into new springls.
	FillDistance = 0.3
	// CleanDistance is the largest distance from the zero crossing at which
	// a springl survives cleaning.
	CleanDistance = 0.625
	// Sharpness scales the neighbor attraction in relaxation.
	Sharpness = 5.0
	// SpringConstant scales the radial spring of a vertex toward its particle.
	SpringConstant = 0.3
	// RelaxTimestep is the pseudo time step of one relaxation iteration.
	RelaxTimestep = 0.1
	// MinArea and MaxArea bound the area of a springl that survives cleaning.
	MinArea = 0.05
	MaxArea = 2.0
	// MinAspectRatio is the smallest ratio of shortest to longest edge of a
	// springl that survives cleaning.
	MinAspectRatio = 0.1
)

// maxForce keeps the argument of atanh inside its domain.
const maxForce = 0.999
