package geom

import "github.com/gogpu/lines/internal/parallel"

// Strip evaluates every vertex of one instance's triangle strip. It is a
// debugging aid: the renderer never builds strips on the CPU.
func Strip(instanceIndex uint32, u *Uniforms, src Source) []Output {
	n := StripSize(u.VertCnt2[0], u.VertCnt2[1])
	out := make([]Output, n)
	for v := range n {
		out[v] = Evaluate(v, instanceIndex, u, src)
	}
	return out
}

// Strips evaluates the strips of all instances of a line on a worker
// pool. Every vertex is computed independently, exactly like the GPU does
// it, so the result does not depend on scheduling. workers <= 0 uses
// GOMAXPROCS.
func Strips(u *Uniforms, src Source, workers int) [][]Output {
	count := int(InstanceCount(int(u.PointCount)))
	out := make([][]Output, count)
	if count == 0 {
		return out
	}

	pool := parallel.NewWorkerPool(workers)
	defer pool.Close()
	pool.Range(count, func(i int) {
		out[i] = Strip(uint32(i), u, src) //nolint:gosec // i < count fits uint32
	})
	return out
}
