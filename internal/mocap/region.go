package mocap

// Region is the anatomical region of a joint, used to select
// region-specific filter cutoffs and guardrail floors.
type Region string

const (
	// RegionTrunk covers pelvis, spine and thorax markers.
	RegionTrunk Region = "trunk"
	// RegionHead covers head and neck markers.
	RegionHead Region = "head"
	// RegionUpperProximal covers shoulder and upper-arm markers.
	RegionUpperProximal Region = "upper_proximal"
	// RegionUpperDistal covers forearm, hand and finger markers.
	RegionUpperDistal Region = "upper_distal"
	// RegionLowerProximal covers hip and thigh markers.
	RegionLowerProximal Region = "lower_proximal"
	// RegionLowerDistal covers shank, foot and toe markers.
	RegionLowerDistal Region = "lower_distal"
	// RegionUnknown marks joints without a region assignment. Unknown
	// joints never contribute to the aggregate cutoff.
	RegionUnknown Region = "unknown"
)

// Regions lists every region that carries its own filter cutoff,
// in reporting order. RegionUnknown is deliberately excluded.
var Regions = []Region{
	RegionTrunk,
	RegionHead,
	RegionUpperProximal,
	RegionUpperDistal,
	RegionLowerProximal,
	RegionLowerDistal,
}

// IsValid reports whether r is a member of the closed enumeration.
func (r Region) IsValid() bool {
	switch r {
	case RegionTrunk, RegionHead, RegionUpperProximal, RegionUpperDistal,
		RegionLowerProximal, RegionLowerDistal, RegionUnknown:
		return true
	}
	return false
}

// RegionMap assigns joints to anatomical regions.
type RegionMap map[string]Region

// Lookup returns the region for the named joint, or RegionUnknown when
// the joint has no assignment.
func (m RegionMap) Lookup(joint string) Region {
	if m == nil {
		return RegionUnknown
	}
	if r, ok := m[joint]; ok && r.IsValid() {
		return r
	}
	return RegionUnknown
}

// JointsIn returns the joints of the run assigned to region r,
// preserving run order.
func (m RegionMap) JointsIn(run *Run, r Region) []string {
	var names []string
	for i := range run.Joints {
		if m.Lookup(run.Joints[i].Name) == r {
			names = append(names, run.Joints[i].Name)
		}
	}
	return names
}
