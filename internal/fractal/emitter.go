package fractal

import "math"

// Emit generates the subtree rooted at pose in pre-order and returns it as a
// new slice. The left child (angle + BranchAngle) is always visited before
// the right child (angle - BranchAngle).
func Emit(pose Pose, params Parameters) []Branch {
	return AppendSubtree(nil, pose, params)
}

// AppendSubtree appends the pre-order emission of the subtree rooted at pose
// to dst and returns the extended slice. A pose whose length is below
// MinLength emits nothing; a length exactly equal to MinLength is emitted.
//
// The buffer is threaded through the recursion explicitly, so concurrent
// callers with distinct buffers share no state.
func AppendSubtree(dst []Branch, pose Pose, params Parameters) []Branch {
	if pose.Length < params.MinLength {
		return dst
	}
	b := segment(pose)
	dst = append(dst, b)

	left, right := children(pose, b.X2, b.Y2, params)
	dst = AppendSubtree(dst, left, params)
	return AppendSubtree(dst, right, params)
}

// segment returns the branch drawn from pose.
func segment(pose Pose) Branch {
	return Branch{
		X1:    pose.X,
		Y1:    pose.Y,
		X2:    pose.X + pose.Length*math.Cos(pose.Angle),
		Y2:    pose.Y + pose.Length*math.Sin(pose.Angle),
		Depth: pose.Depth,
	}
}

// children returns the left and right poses spawned at the endpoint of pose.
func children(pose Pose, x2, y2 float64, params Parameters) (Pose, Pose) {
	next := pose.Length * params.LengthRatio
	left := Pose{X: x2, Y: y2, Length: next, Angle: pose.Angle + params.BranchAngle, Depth: pose.Depth + 1}
	right := Pose{X: x2, Y: y2, Length: next, Angle: pose.Angle - params.BranchAngle, Depth: pose.Depth + 1}
	return left, right
}
