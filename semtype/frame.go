package semtype

// FrameID identifies a coordinate reference frame declared by the protocol
// spec. The ordering is fixed: it mirrors the MAV_FRAME enum of the MAVLink
// common message set, and FrameNone doubles as the frame count.
type FrameID int

const (
	FrameGlobal FrameID = iota
	FrameLocalNED
	FrameMission
	FrameGlobalRelativeAlt
	FrameLocalENU
	FrameGlobalInt
	FrameGlobalRelativeAltInt
	FrameLocalOffsetNED
	FrameBodyNED
	FrameBodyOffsetNED
	FrameGlobalTerrainAlt
	FrameGlobalTerrainAltInt
	FrameBodyFRD
	FrameLocalFRD
	FrameLocalFLU

	// FrameNone is the sentinel; it is also the number of real frames.
	FrameNone
)

var frameNames = map[string]FrameID{
	"MAV_FRAME_GLOBAL":                  FrameGlobal,
	"MAV_FRAME_LOCAL_NED":               FrameLocalNED,
	"MAV_FRAME_MISSION":                 FrameMission,
	"MAV_FRAME_GLOBAL_RELATIVE_ALT":     FrameGlobalRelativeAlt,
	"MAV_FRAME_LOCAL_ENU":               FrameLocalENU,
	"MAV_FRAME_GLOBAL_INT":              FrameGlobalInt,
	"MAV_FRAME_GLOBAL_RELATIVE_ALT_INT": FrameGlobalRelativeAltInt,
	"MAV_FRAME_LOCAL_OFFSET_NED":        FrameLocalOffsetNED,
	"MAV_FRAME_BODY_NED":                FrameBodyNED,
	"MAV_FRAME_BODY_OFFSET_NED":         FrameBodyOffsetNED,
	"MAV_FRAME_GLOBAL_TERRAIN_ALT":      FrameGlobalTerrainAlt,
	"MAV_FRAME_GLOBAL_TERRAIN_ALT_INT":  FrameGlobalTerrainAltInt,
	"MAV_FRAME_BODY_FRD":                FrameBodyFRD,
	"MAV_FRAME_LOCAL_FRD":               FrameLocalFRD,
	"MAV_FRAME_LOCAL_FLU":               FrameLocalFLU,
	"MAV_FRAME_NONE":                    FrameNone,
}

// FrameByName resolves a spec frame name. Unknown names map to FrameNone so
// that a misspelled prior degrades instead of failing the load.
func FrameByName(name string) FrameID {
	if id, ok := frameNames[name]; ok {
		return id
	}
	return FrameNone
}

// AllFrames returns the set of every real frame (excluding the sentinel).
func AllFrames() map[FrameID]bool {
	frames := make(map[FrameID]bool, int(FrameNone))
	for f := FrameGlobal; f < FrameNone; f++ {
		frames[f] = true
	}
	return frames
}
